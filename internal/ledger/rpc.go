package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math/big"
	"net/http"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	jsonrpcVersion = "2.0"
)

// RPCErrorCode represents an error code returned by the ledger gateway.
type RPCErrorCode int

const (
	RPCNotFound          RPCErrorCode = -32010
	RPCUnauthorized      RPCErrorCode = -32011
	RPCInvalidState      RPCErrorCode = -32012
	RPCInsufficientFunds RPCErrorCode = -32013
)

// RPCError represents an error that is used as a part of a JSON-RPC Response object.
type RPCError struct {
	Code    RPCErrorCode `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (e RPCError) Error() string {
	return fmt.Sprintf("%d:%s", e.Code, e.Message)
}

func (e RPCError) failure() error {
	switch e.Code {
	case RPCNotFound:
		return failure.New(failure.NotFound, "ledger: %s", e.Message)
	case RPCUnauthorized:
		return failure.New(failure.Unauthorized, "ledger: %s", e.Message)
	case RPCInvalidState:
		return failure.New(failure.InvalidState, "ledger: %s", e.Message)
	case RPCInsufficientFunds:
		return failure.New(failure.InsufficientFunds, "ledger: %s", e.Message)
	}
	return errors.WithStack(e)
}

type rpcRequest struct {
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Id      int64       `json:"id"`
	JsonRpc string      `json:"jsonrpc"`
}

type rpcResponse struct {
	Id     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPC reaches the ledger gateway over JSON-RPC.
type RPC struct {
	url        string
	httpClient *retryablehttp.Client
	timeout    time.Duration
	debug      bool
}

func NewRPC(url string, timeout int, debug bool) (*RPC, error) {
	if len(url) == 0 {
		return nil, errors.New("bad call missing argument host")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 3

	return &RPC{
		url:        url,
		httpClient: retryClient,
		timeout:    time.Duration(timeout) * time.Second,
		debug:      debug,
	}, nil
}

func (c *RPC) OwnerOf(ctx context.Context, contract common.Address, tokenId *big.Int) (common.Address, error) {
	var owner common.Address
	err := c.call(ctx, "ledger_ownerOf", &owner, contract, tokenId)
	return owner, err
}

func (c *RPC) IsApprovedOrOwner(ctx context.Context, contract, spender common.Address, tokenId *big.Int) (bool, error) {
	var approved bool
	err := c.call(ctx, "ledger_isApprovedOrOwner", &approved, contract, spender, tokenId)
	return approved, err
}

func (c *RPC) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	balance := new(big.Int)
	if err := c.call(ctx, "ledger_balanceOf", balance, token, account); err != nil {
		return nil, err
	}
	return balance, nil
}

func (c *RPC) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	allowance := new(big.Int)
	if err := c.call(ctx, "ledger_allowance", allowance, token, owner, spender); err != nil {
		return nil, err
	}
	return allowance, nil
}

func (c *RPC) ContractOwner(ctx context.Context, contract common.Address) (common.Address, error) {
	var owner common.Address
	err := c.call(ctx, "ledger_contractOwner", &owner, contract)
	return owner, err
}

func (c *RPC) Apply(ctx context.Context, ops []Op) error {
	var applied bool
	if err := c.call(ctx, "ledger_applyBatch", &applied, ops); err != nil {
		return err
	}
	if !applied {
		return failure.New(failure.InvalidState, "ledger rejected batch of %d ops", len(ops))
	}
	return nil
}

func (c *RPC) call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	rpcR := rpcRequest{method, params, time.Now().UnixNano(), jsonrpcVersion}
	payloadBuffer := &bytes.Buffer{}
	if err := json.NewEncoder(payloadBuffer).Encode(rpcR); err != nil {
		return errors.WithStack(err)
	}

	zap.L().With(zap.String("request", rpcR.Method)).Debug("Ledger: RPC Request")
	if c.debug {
		zap.L().With(zap.String("request", payloadBuffer.String())).Debug("Ledger: RPC Request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequest(http.MethodPost, c.url, payloadBuffer)
	if err != nil {
		return errors.WithStack(err)
	}
	req = req.WithContext(ctx)
	req.Header.Add("Content-Type", "application/json;charset=utf-8")
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("request", rpcR.Method)).Warn("Ledger: RPC Failure")
		return errors.Wrapf(err, "ledger rpc %s", method)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}

	if c.debug {
		zap.L().With(zap.String("response", string(data))).Debug("Ledger: RPC Response")
	}

	var rr rpcResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		return errors.Wrapf(err, "ledger rpc %s: decode response", method)
	}
	if rr.Error != nil {
		return rr.Error.failure()
	}

	return errors.WithStack(json.Unmarshal(rr.Result, result))
}
