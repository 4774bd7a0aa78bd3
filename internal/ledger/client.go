// Package ledger reads and writes price alerts on the PriceAlert contract.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	DefaultRPCURL         = "https://api.avax-test.network/ext/bc/C/rpc"
	DefaultConfirmTimeout = 2 * time.Minute
)

// ErrConfiguration matches any ConfigurationError.
var ErrConfiguration = errors.New("ledger configuration error")

// ConfigurationError reports a missing or malformed ledger setting.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Backend is the chain access the client needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

type Options struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string // hex, optional 0x prefix; only needed for writes
	ConfirmTimeout  time.Duration
}

// Client talks to one PriceAlert deployment. Configuration problems surface
// per call so read-only setups keep working without a signing key.
type Client struct {
	backend        Backend
	abi            abi.ABI
	contract       string
	privateKey     string
	confirmTimeout time.Duration
}

// Dial connects to opts.RPCURL (or the Fuji default).
func Dial(ctx context.Context, opts Options) (*Client, error) {
	url := opts.RPCURL
	if url == "" {
		url = DefaultRPCURL
	}
	ec, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing rpc %s: %w", url, err)
	}
	return New(ec, opts)
}

// New builds a client over an existing backend.
func New(backend Backend, opts Options) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(priceAlertABI))
	if err != nil {
		return nil, fmt.Errorf("parsing PriceAlert ABI: %w", err)
	}
	timeout := opts.ConfirmTimeout
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	return &Client{
		backend:        backend,
		abi:            parsed,
		contract:       strings.TrimSpace(opts.ContractAddress),
		privateKey:     strings.TrimSpace(opts.PrivateKey),
		confirmTimeout: timeout,
	}, nil
}

func (c *Client) bound() (*bind.BoundContract, error) {
	if c.contract == "" {
		return nil, &ConfigurationError{Msg: "CONTRACT_ADDRESS is not set."}
	}
	if !common.IsHexAddress(c.contract) {
		return nil, &ConfigurationError{Msg: "CONTRACT_ADDRESS is not a valid address."}
	}
	addr := common.HexToAddress(c.contract)
	return bind.NewBoundContract(addr, c.abi, c.backend, c.backend, c.backend), nil
}

func (c *Client) signer() (*ecdsa.PrivateKey, error) {
	if c.privateKey == "" {
		return nil, &ConfigurationError{Msg: "PRIVATE_KEY is not set."}
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.privateKey, "0x"))
	if err != nil {
		return nil, &ConfigurationError{Msg: "PRIVATE_KEY is not a valid hex key."}
	}
	return key, nil
}

// AlertsByOwner returns every alert registered by owner, in contract order.
func (c *Client) AlertsByOwner(ctx context.Context, owner string) ([]Alert, error) {
	contract, err := c.bound()
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}

	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAlertsByOwner", common.HexToAddress(owner)); err != nil {
		return nil, fmt.Errorf("reading alerts: %w", err)
	}
	if len(out) == 0 {
		return []Alert{}, nil
	}
	alerts := *abi.ConvertType(out[0], new([]Alert)).(*[]Alert)
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

// CreateAlert submits createAlert and blocks until the transaction is mined or
// the confirmation timeout expires. The target is rounded to whole dollars.
func (c *Client) CreateAlert(ctx context.Context, symbol string, targetUSD float64, isAbove bool) (string, error) {
	contract, err := c.bound()
	if err != nil {
		return "", err
	}
	key, err := c.signer()
	if err != nil {
		return "", err
	}
	if targetUSD < 0 || math.IsNaN(targetUSD) || math.IsInf(targetUSD, 0) {
		return "", fmt.Errorf("invalid target price %v", targetUSD)
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("reading chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return "", fmt.Errorf("creating transactor: %w", err)
	}
	opts.Context = ctx

	target, _ := new(big.Float).SetFloat64(math.Round(targetUSD)).Int(nil)
	tx, err := contract.Transact(opts, "createAlert", strings.ToUpper(symbol), target, isAbove)
	if err != nil {
		return "", fmt.Errorf("submitting createAlert: %w", err)
	}
	hash := tx.Hash().Hex()
	slog.Info("alert transaction submitted", "tx", hash, "symbol", strings.ToUpper(symbol))

	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		return "", fmt.Errorf("waiting for transaction %s: %w", hash, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("transaction %s reverted", hash)
	}
	return hash, nil
}
