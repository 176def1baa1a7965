// Package node is a client for the chain node foreign API v2. It covers the
// two read paths the ledger needs: the chain tip and kernel lookup.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/grinex/grinex/core"
)

type Config struct {
	URL      string `valid:"required"`
	Username string
	Secret   string
	Timeout  time.Duration
}

// Error is the normalized failure of one node call. The API reports errors as
// either a JSON-RPC error object or a result.Err payload; both, plus non-2xx
// transport responses, collapse into this one type.
type Error struct {
	Method string
	Code   *int
	Reason string
}

func (e *Error) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("node %s failed with code %d: %s", e.Method, *e.Code, e.Reason)
	}

	return fmt.Sprintf("node %s failed: %s", e.Method, e.Reason)
}

func New(cfg Config, logger *slog.Logger) *Client {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	http := resty.New().SetTimeout(cfg.Timeout)
	if cfg.Username != "" {
		http.SetBasicAuth(cfg.Username, cfg.Secret)
	}

	return &Client{
		cfg:    cfg,
		http:   http,
		logger: logger.With("service", "node"),
	}
}

type Client struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger
}

var _ core.ChainClient = (*Client)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcEnvelope struct {
	Error  *rpcError       `json:"error"`
	Result json.RawMessage `json:"result"`
}

type okErrResult struct {
	Ok  json.RawMessage `json:"Ok"`
	Err json.RawMessage `json:"Err"`
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		Post(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", method, err)
	}

	if resp.IsError() {
		code := resp.StatusCode()
		return nil, &Error{Method: method, Code: &code, Reason: resp.Status()}
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, &Error{Method: method, Reason: fmt.Sprintf("malformed response: %v", err)}
	}

	if envelope.Error != nil {
		code := envelope.Error.Code
		return nil, &Error{Method: method, Code: &code, Reason: envelope.Error.Message}
	}

	var result okErrResult
	if len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, &result); err != nil {
			return nil, &Error{Method: method, Reason: fmt.Sprintf("malformed result: %v", err)}
		}
	}

	if len(result.Err) > 0 {
		return nil, &Error{Method: method, Reason: string(result.Err)}
	}

	return result.Ok, nil
}

func (c *Client) Tip(ctx context.Context) (*core.ChainTip, error) {
	result, err := c.call(ctx, "get_tip", []any{})
	if err != nil {
		return nil, err
	}

	var tip core.ChainTip
	if err := json.Unmarshal(result, &tip); err != nil {
		return nil, &Error{Method: "get_tip", Reason: fmt.Sprintf("malformed tip: %v", err)}
	}

	return &tip, nil
}

// Kernel looks up a transaction kernel by its excess commitment, scanning the
// height range [minHeight, maxHeight]. A kernel the node does not know about
// yields core.ErrKernelNotFound.
func (c *Client) Kernel(ctx context.Context, excess string, minHeight, maxHeight uint64) (*core.LocatedKernel, error) {
	result, err := c.call(ctx, "get_kernel", []any{excess, minHeight, maxHeight})
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || string(result) == "null" {
		return nil, core.ErrKernelNotFound
	}

	var located core.LocatedKernel
	if err := json.Unmarshal(result, &located); err != nil {
		return nil, &Error{Method: "get_kernel", Reason: fmt.Sprintf("malformed kernel: %v", err)}
	}

	return &located, nil
}
