package api

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/kjannette/contract-gateway/internal/contracts"
	"github.com/kjannette/contract-gateway/internal/ethereum"
)

var weiPerEther = big.NewInt(1_000_000_000_000_000_000)

type sendTransactionRequest struct {
	From     string          `json:"from"`
	To       *string         `json:"to,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

type sendRawTransactionRequest struct {
	Raw hexutil.Bytes `json:"raw"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.node.Accounts(r.Context())
	if err != nil {
		s.fail(w, r, "Error fetching accounts", err)
		return
	}
	if accounts == nil {
		accounts = []common.Address{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// handleBalance reports whole ether, truncating the wei remainder.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := ethereum.ParseAccount(r.PathValue("account"))
	if err != nil {
		s.fail(w, r, "Invalid account", err)
		return
	}

	wei, err := s.node.Balance(r.Context(), account)
	if err != nil {
		s.fail(w, r, "Error fetching balance", err)
		return
	}
	writeJSON(w, http.StatusOK, new(big.Int).Quo(wei, weiPerEther).String())
}

func (s *Server) handleSendTransaction(w http.ResponseWriter, r *http.Request) {
	var req sendTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, "Invalid transaction", err)
		return
	}

	from, err := ethereum.ParseAccount(req.From)
	if err != nil {
		s.fail(w, r, "Invalid transaction", err)
		return
	}
	tx := ethereum.TxArgs{From: from, Data: req.Data}
	if req.To != nil {
		to, err := ethereum.ParseAccount(*req.To)
		if err != nil {
			s.fail(w, r, "Invalid transaction", err)
			return
		}
		tx.To = &to
	}
	if req.Value != nil {
		tx.Value = req.Value.ToInt()
	}
	if req.Gas != nil {
		tx.Gas = uint64(*req.Gas)
	}
	if req.GasPrice != nil {
		tx.GasPrice = req.GasPrice.ToInt()
	}

	hash, err := s.node.SendTransaction(r.Context(), tx)
	if err != nil {
		s.fail(w, r, "Error sending transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, hash.Hex())
}

func (s *Server) handleSendRawTransaction(w http.ResponseWriter, r *http.Request) {
	var req sendRawTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, "Invalid raw transaction", err)
		return
	}
	if len(req.Raw) == 0 {
		s.fail(w, r, "Invalid raw transaction", contracts.InvalidParam("raw is required"))
		return
	}

	hash, err := s.node.SendRawTransaction(r.Context(), req.Raw)
	if err != nil {
		s.fail(w, r, "Error sending raw transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, hash.Hex())
}
