package ethereum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/kjannette/contract-gateway/internal/contracts"
	"github.com/kjannette/contract-gateway/internal/models"
)

// ErrReverted is returned when a mined transaction has a failed status.
var ErrReverted = errors.New("transaction reverted")

// Chain is the slice of the node a ContractService needs. *Client satisfies it.
type Chain interface {
	SendTransaction(ctx context.Context, tx TxArgs) (common.Hash, error)
	CallContract(ctx context.Context, from *common.Address, to common.Address, data []byte) ([]byte, error)
	WaitForReceipt(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error)
}

// Ledger persists invocation outcomes.
type Ledger interface {
	Record(ctx context.Context, inv *models.Invocation) error
}

// Notifier receives human readable events such as deploys and reverts.
type Notifier interface {
	Send(msg string)
}

type DeployRequest struct {
	FromAccount    string          `json:"from_account"`
	ContractName   string          `json:"contract_name"`
	ContractParams json.RawMessage `json:"contract_params"`
	Confirmations  uint64          `json:"confirmations"`
}

type InvokeRequest struct {
	ContractName    string          `json:"contract_name"`
	ContractAddress string          `json:"contract_address"`
	FromAccount     *string         `json:"from_account,omitempty"`
	FnName          string          `json:"fn_name"`
	FnParams        json.RawMessage `json:"fn_params"`
	Confirmations   uint64          `json:"confirmations"`
}

// ContractService deploys, calls and queries contracts whose artifacts live in a Store.
type ContractService struct {
	chain     Chain
	store     *contracts.Store
	ledger    Ledger
	notify    Notifier
	deployGas uint64
	log       *zap.Logger
}

// NewContractService wires the orchestrator. ledger may be nil.
func NewContractService(chain Chain, store *contracts.Store, ledger Ledger, deployGas uint64, log *zap.Logger) *ContractService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContractService{
		chain:     chain,
		store:     store,
		ledger:    ledger,
		deployGas: deployGas,
		log:       log.Named("contracts"),
	}
}

// SetNotifier enables event notifications. Delivery happens off the request path.
func (s *ContractService) SetNotifier(n Notifier) {
	s.notify = n
}

func (s *ContractService) List() ([]string, error) {
	return s.store.List()
}

// Describe returns the parsed ABI document of a stored contract.
func (s *ContractService) Describe(name string) (*contracts.Document, error) {
	enc, err := s.store.Encoder(name)
	if err != nil {
		return nil, err
	}
	return enc.Document(), nil
}

// Deploy sends the contract bytecode followed by the encoded constructor
// arguments and returns the address of the created contract.
func (s *ContractService) Deploy(ctx context.Context, req DeployRequest) (addr common.Address, err error) {
	inv := s.begin(ctx, models.OpDeploy, req.ContractName, "", req.FromAccount)
	defer func() { s.finish(ctx, inv, err) }()

	from, err := ParseAccount(req.FromAccount)
	if err != nil {
		return common.Address{}, err
	}
	enc, err := s.store.Encoder(req.ContractName)
	if err != nil {
		return common.Address{}, err
	}
	code, err := s.store.Bin(req.ContractName)
	if err != nil {
		return common.Address{}, err
	}
	args, err := contracts.DecodeArgs(req.ContractParams)
	if err != nil {
		return common.Address{}, err
	}
	packed, err := enc.EncodeConstructor(args)
	if err != nil {
		return common.Address{}, err
	}

	hash, err := s.chain.SendTransaction(ctx, TxArgs{
		From: from,
		Gas:  s.deployGas,
		Data: append(code, packed...),
	})
	if err != nil {
		return common.Address{}, err
	}
	inv.TxHash = hash.Hex()
	s.log.Info("Deploy transaction sent",
		zap.String("contract", req.ContractName), zap.String("tx", inv.TxHash))

	receipt, err := s.chain.WaitForReceipt(ctx, hash, req.Confirmations)
	if err != nil {
		return common.Address{}, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		s.event(fmt.Sprintf("Deploy of %s reverted (tx %s)", req.ContractName, inv.TxHash))
		return common.Address{}, fmt.Errorf("%w: %s", ErrReverted, inv.TxHash)
	}

	inv.ToAddress = receipt.ContractAddress.Hex()
	s.log.Info("Contract deployed",
		zap.String("contract", req.ContractName), zap.String("address", inv.ToAddress))
	s.event(fmt.Sprintf("%s deployed at %s by %s", req.ContractName, inv.ToAddress, from.Hex()))
	return receipt.ContractAddress, nil
}

// Call submits a state-changing function call and waits for its receipt.
func (s *ContractService) Call(ctx context.Context, req InvokeRequest) (hash common.Hash, err error) {
	inv := s.begin(ctx, models.OpCall, req.ContractName, req.FnName, deref(req.FromAccount))
	inv.ToAddress = req.ContractAddress
	defer func() { s.finish(ctx, inv, err) }()

	if req.FromAccount == nil {
		return common.Hash{}, contracts.InvalidParam("from_account is required")
	}
	from, err := ParseAccount(*req.FromAccount)
	if err != nil {
		return common.Hash{}, err
	}
	to, err := ParseAccount(req.ContractAddress)
	if err != nil {
		return common.Hash{}, err
	}
	_, data, err := s.encodeCall(req)
	if err != nil {
		return common.Hash{}, err
	}

	hash, err = s.chain.SendTransaction(ctx, TxArgs{From: from, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, err
	}
	inv.TxHash = hash.Hex()

	receipt, err := s.chain.WaitForReceipt(ctx, hash, req.Confirmations)
	if err != nil {
		return common.Hash{}, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		s.event(fmt.Sprintf("%s.%s reverted (tx %s)", req.ContractName, req.FnName, inv.TxHash))
		return common.Hash{}, fmt.Errorf("%w: %s", ErrReverted, inv.TxHash)
	}
	s.log.Info("Contract call mined",
		zap.String("contract", req.ContractName), zap.String("fn", req.FnName),
		zap.String("tx", inv.TxHash), zap.Uint64("block", receipt.BlockNumber.Uint64()))
	return hash, nil
}

// Query runs a read-only call and renders each decoded output as a string.
func (s *ContractService) Query(ctx context.Context, req InvokeRequest) (results []string, err error) {
	inv := s.begin(ctx, models.OpQuery, req.ContractName, req.FnName, deref(req.FromAccount))
	inv.ToAddress = req.ContractAddress
	defer func() { s.finish(ctx, inv, err) }()

	var from *common.Address
	if req.FromAccount != nil {
		addr, err := ParseAccount(*req.FromAccount)
		if err != nil {
			return nil, err
		}
		from = &addr
	}
	to, err := ParseAccount(req.ContractAddress)
	if err != nil {
		return nil, err
	}
	enc, data, err := s.encodeCall(req)
	if err != nil {
		return nil, err
	}

	out, err := s.chain.CallContract(ctx, from, to, data)
	if err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	values, err := enc.Unpack(req.FnName, out)
	if err != nil {
		return nil, err
	}

	results = make([]string, len(values))
	for i, v := range values {
		results[i] = formatValue(v)
	}
	return results, nil
}

func (s *ContractService) encodeCall(req InvokeRequest) (*contracts.Encoder, []byte, error) {
	enc, err := s.store.Encoder(req.ContractName)
	if err != nil {
		return nil, nil, err
	}
	args, err := contracts.DecodeArgs(req.FnParams)
	if err != nil {
		return nil, nil, err
	}
	data, err := enc.EncodeCall(req.FnName, args)
	if err != nil {
		return nil, nil, err
	}
	return enc, data, nil
}

// --- ledger ---

func (s *ContractService) begin(ctx context.Context, op, contract, fn, from string) *models.Invocation {
	return &models.Invocation{
		RequestID:   RequestID(ctx),
		Op:          op,
		Contract:    contract,
		Function:    fn,
		FromAccount: from,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *ContractService) finish(ctx context.Context, inv *models.Invocation, err error) {
	inv.DurationMS = time.Since(inv.CreatedAt).Milliseconds()
	inv.Success = err == nil
	if err != nil {
		inv.Error = err.Error()
		s.log.Warn("Contract invocation failed",
			zap.String("op", inv.Op), zap.String("contract", inv.Contract),
			zap.String("fn", inv.Function), zap.String("requestId", inv.RequestID), zap.Error(err))
	}
	if s.ledger == nil {
		return
	}
	// Ledger failures are logged only.
	if lerr := s.ledger.Record(context.WithoutCancel(ctx), inv); lerr != nil {
		s.log.Error("Failed to record invocation", zap.String("op", inv.Op), zap.Error(lerr))
	}
}

func (s *ContractService) event(msg string) {
	if s.notify != nil {
		go s.notify.Send(msg)
	}
}

// --- helpers ---

type requestIDKey struct{}

// WithRequestID tags ctx so ledger rows can be correlated with HTTP requests.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ParseAccount parses a caller-supplied account or contract address and
// reports failures as ErrInvalidParam.
func ParseAccount(s string) (common.Address, error) {
	addr, err := contracts.ParseAddress(s)
	if err != nil {
		return common.Address{}, contracts.InvalidParam(fmt.Sprintf("account: %s parse failed", s))
	}
	return addr, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []byte:
		return hexutil.Encode(t)
	case [32]byte:
		return hexutil.Encode(t[:])
	default:
		return fmt.Sprint(v)
	}
}
