package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/kjannette/contract-gateway/internal/contracts"
)

type Options struct {
	RPCURL        string
	PrivateKey    string
	ChainID       int64
	GasLimit      int
	GasMultiplier float64
	ReceiptPoll   time.Duration
}

// Client is the gateway's handle on one JSON-RPC node. Transactions are
// signed by the node's unlocked accounts unless a private key is configured,
// in which case transactions from that key's address are signed locally.
type Client struct {
	rpc        *ethclient.Client
	privateKey *ecdsa.PrivateKey
	wallet     common.Address
	chainID    *big.Int
	gasLimit   uint64
	gasMul     float64
	poll       time.Duration
}

// TxArgs describes a transaction. A nil To creates a contract.
type TxArgs struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
	Data     []byte
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	rpc, err := ethclient.DialContext(ctx, opts.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	c := &Client{
		rpc:      rpc,
		chainID:  big.NewInt(opts.ChainID),
		gasLimit: uint64(opts.GasLimit),
		gasMul:   opts.GasMultiplier,
		poll:     opts.ReceiptPoll,
	}
	if c.gasMul <= 0 {
		c.gasMul = 1
	}
	if c.poll <= 0 {
		c.poll = 10 * time.Second
	}

	if opts.PrivateKey != "" {
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(opts.PrivateKey, "0x"))
		if err != nil {
			rpc.Close()
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.privateKey = pk
		c.wallet = crypto.PubkeyToAddress(pk.PublicKey)
	}
	return c, nil
}

// WalletAddress is the locally signing account, or the zero address when
// signing is left to the node.
func (c *Client) WalletAddress() common.Address { return c.wallet }
func (c *Client) Close()                         { c.rpc.Close() }

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.rpc.BlockNumber(ctx)
	return err
}

func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.Client().CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Balance returns the latest balance of account in wei.
func (c *Client) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.rpc.BalanceAt(ctx, account, nil)
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	// Apply multiplier
	mul := new(big.Float).SetFloat64(c.gasMul)
	adjusted := new(big.Float).Mul(new(big.Float).SetInt(price), mul)
	result, _ := adjusted.Int(nil)
	return result, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx TxArgs) (common.Hash, error) {
	if c.privateKey != nil && tx.From == c.wallet {
		return c.signAndSend(ctx, tx)
	}

	msg := map[string]any{
		"from": tx.From.Hex(),
	}
	if tx.To != nil {
		msg["to"] = tx.To.Hex()
	}
	if tx.Value != nil {
		msg["value"] = hexutil.EncodeBig(tx.Value)
	}
	if tx.Gas > 0 {
		msg["gas"] = hexutil.EncodeUint64(tx.Gas)
	}
	if tx.GasPrice != nil {
		msg["gasPrice"] = hexutil.EncodeBig(tx.GasPrice)
	}
	if len(tx.Data) > 0 {
		msg["data"] = hexutil.Encode(tx.Data)
	}

	var hash common.Hash
	if err := c.rpc.Client().CallContext(ctx, &hash, "eth_sendTransaction", msg); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return hash, nil
}

// signAndSend signs a legacy EIP-155 transaction with the configured key and broadcasts it.
func (c *Client) signAndSend(ctx context.Context, args TxArgs) (common.Hash, error) {
	nonce, err := c.rpc.PendingNonceAt(ctx, c.wallet)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice := args.GasPrice
	if gasPrice == nil {
		if gasPrice, err = c.GasPrice(ctx); err != nil {
			return common.Hash{}, fmt.Errorf("get gas price: %w", err)
		}
	}
	gas := args.Gas
	if gas == 0 {
		gas = c.gasLimit
	}
	value := args.Value
	if value == nil {
		value = new(big.Int)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       args.To,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     args.Data,
	})

	signer := types.NewEIP155Signer(c.chainID)
	signed, err := types.SignTx(tx, signer, c.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return signed.Hash(), nil
}

// SendRawTransaction broadcasts an already signed, RLP or typed-envelope encoded transaction.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, contracts.InvalidParam(fmt.Sprintf("decode raw transaction: %v", err))
	}
	if err := c.rpc.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("send raw tx: %w", err)
	}
	return tx.Hash(), nil
}

// CallContract performs a read-only eth_call against the latest block and returns the raw result.
func (c *Client) CallContract(ctx context.Context, from *common.Address, to common.Address, data []byte) ([]byte, error) {
	msg := map[string]any{
		"to":   to.Hex(),
		"data": hexutil.Encode(data),
	}
	if from != nil {
		msg["from"] = from.Hex()
	}
	var result hexutil.Bytes
	if err := c.rpc.Client().CallContext(ctx, &result, "eth_call", msg, "latest"); err != nil {
		return nil, err
	}
	return result, nil
}

// WaitForReceipt polls until hash is mined and followed by confirmations blocks.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if confirmations == 0 {
				return receipt, nil
			}
			head, err := c.rpc.BlockNumber(ctx)
			if err != nil {
				return nil, fmt.Errorf("block number: %w", err)
			}
			if head >= receipt.BlockNumber.Uint64()+confirmations {
				return receipt, nil
			}
		case !errors.Is(err, geth.NotFound):
			return nil, fmt.Errorf("get receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
