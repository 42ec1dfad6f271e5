package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kjannette/contract-gateway/internal/contracts"
	"github.com/kjannette/contract-gateway/internal/ethereum"
	"github.com/kjannette/contract-gateway/internal/models"
)

const (
	maxQueryLimit = 1000
	maxBodyBytes  = 1 << 20
)

// Node is the account-level surface of the chain client.
type Node interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
	SendTransaction(ctx context.Context, tx ethereum.TxArgs) (common.Hash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	Ping(ctx context.Context) error
}

// History reads the invocation ledger.
type History interface {
	GetRecent(ctx context.Context, contract string, limit int) ([]models.Invocation, error)
	Ping(ctx context.Context) error
}

type Options struct {
	Port           int
	APIKey         string
	CORSOrigin     string
	RequestTimeout time.Duration
}

type Server struct {
	node       Node
	contracts  *ethereum.ContractService
	history    History
	log        *zap.Logger
	httpServer *http.Server
	apiKey     string
}

// NewServer builds the HTTP surface. history may be nil when the ledger is disabled.
func NewServer(node Node, svc *ethereum.ContractService, history History, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		node:      node,
		contracts: svc,
		history:   history,
		log:       log.Named("api"),
		apiKey:    opts.APIKey,
	}

	mux := http.NewServeMux()

	// Account routes
	mux.HandleFunc("GET /eth/accounts", s.handleAccounts)
	mux.HandleFunc("GET /eth/balance/{account}", s.handleBalance)
	mux.HandleFunc("POST /eth/sendTransaction", s.handleSendTransaction)
	mux.HandleFunc("POST /eth/sendRawTransaction", s.handleSendRawTransaction)

	// Contract routes
	mux.HandleFunc("GET /eth/contracts", s.handleListContracts)
	mux.HandleFunc("GET /eth/contracts/{name}/abi", s.handleDescribeContract)
	mux.HandleFunc("POST /eth/contract/deploy", s.handleDeploy)
	mux.HandleFunc("POST /eth/contract/call", s.handleCall)
	mux.HandleFunc("POST /eth/contract/query", s.handleQuery)

	// Ledger routes
	mux.HandleFunc("GET /eth/invocations", s.handleInvocations)

	// No auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = metricsMiddleware(mux)
	if opts.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, timeoutBody())
	}
	handler = requestIDMiddleware(corsMiddleware(s.authMiddleware(handler), opts.CORSOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: opts.RequestTimeout + 5*time.Second,
	}

	return s
}

// Handler exposes the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	s.log.Info("REST API server started", zap.String("addr", "http://localhost"+s.httpServer.Addr))
	if s.apiKey != "" {
		s.log.Info("Authentication: enabled (Bearer token)")
	} else {
		s.log.Info("Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func isPublicPath(path string) bool {
	return path == "/health" || path == "/metrics"
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware reuses an incoming X-Request-ID or mints one, echoes it
// back and tags the request context with it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ethereum.WithRequestID(r.Context(), id)))
	})
}

// --- validation helpers ---

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return contracts.InvalidParam(fmt.Sprintf("request body: %v", err))
	}
	return nil
}

// --- response helpers ---

type resultInfo struct {
	Code  int    `json:"code"`
	Msg   string `json:"msg"`
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resultInfo{Code: status, Msg: http.StatusText(status), Data: v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resultInfo{Code: status, Msg: http.StatusText(status), Error: msg})
}

func timeoutBody() string {
	b, _ := json.Marshal(resultInfo{
		Code:  http.StatusServiceUnavailable,
		Msg:   http.StatusText(http.StatusServiceUnavailable),
		Error: "request timed out",
	})
	return string(b)
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrContractNotFound):
		return http.StatusNotFound
	case contracts.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(what, zap.String("requestId", ethereum.RequestID(r.Context())), zap.Error(err))
	}
	writeError(w, status, err.Error())
}
