// Package wallet is a client for the wallet owner API v3. All calls except
// session establishment travel through the encrypted transport negotiated in
// Session.
package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/go-resty/resty/v2"
	"github.com/grinex/grinex/core"
)

type Config struct {
	URL      string `valid:"required"`
	Username string `valid:"required"`
	Secret   string `valid:"required"`
	Name     string
	Password string
	Timeout  time.Duration
}

// Error is the normalized failure of one wallet call. The upstream API
// reports errors in two shapes (a JSON-RPC error object and a result.Err
// payload); both, plus non-2xx transport responses, collapse into this one
// type. Code is nil when the failure carried none.
type Error struct {
	Method string
	Params any
	Code   *int
	Reason string
}

func (e *Error) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("wallet %s failed with code %d: %s", e.Method, *e.Code, e.Reason)
	}

	return fmt.Sprintf("wallet %s failed: %s", e.Method, e.Reason)
}

func New(cfg Config, logger *slog.Logger) *Client {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &Client{
		cfg: cfg,
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetBasicAuth(cfg.Username, cfg.Secret),
		logger: logger.With("service", "wallet"),
	}
}

// Client holds one encrypted session: construct, call Session once, use,
// discard. It is not safe for concurrent use during Session.
type Client struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger

	secret []byte
	token  string
}

var _ core.WalletClient = (*Client)(nil)

// Session performs the handshake: ephemeral secp256k1 ECDH with
// init_secure_api, then open_wallet over the encrypted channel to obtain the
// token attached to every later call.
func (c *Client) Session(ctx context.Context) error {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate session key: %w", err)
	}

	result, err := c.post(ctx, "init_secure_api", map[string]any{
		"ecdh_pubkey": hex.EncodeToString(key.PubKey().SerializeCompressed()),
	})
	if err != nil {
		return err
	}

	var remoteHex string
	if err := json.Unmarshal(result, &remoteHex); err != nil {
		return fmt.Errorf("decode remote pubkey: %w", err)
	}

	raw, err := hex.DecodeString(remoteHex)
	if err != nil {
		return fmt.Errorf("decode remote pubkey: %w", err)
	}

	remote, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return fmt.Errorf("parse remote pubkey: %w", err)
	}

	c.secret = secp256k1.GenerateSharedSecret(key, remote)
	key.Zero()

	result, err = c.postEncrypted(ctx, "open_wallet", map[string]any{
		"name":     c.cfg.Name,
		"password": c.cfg.Password,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(result, &c.token); err != nil {
		return fmt.Errorf("decode wallet token: %w", err)
	}

	return nil
}

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

// decodeResult normalizes the two error shapes the upstream API emits into
// one *Error and returns the Ok payload otherwise.
func decodeResult(method string, params any, body []byte) (json.RawMessage, error) {
	var envelope rpcEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &Error{Method: method, Params: params, Reason: fmt.Sprintf("malformed response: %v", err)}
	}

	if envelope.Error != nil {
		code := envelope.Error.Code
		return nil, &Error{Method: method, Params: params, Code: &code, Reason: envelope.Error.Message}
	}

	var result okErrResult
	if len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, &result); err != nil {
			return nil, &Error{Method: method, Params: params, Reason: fmt.Sprintf("malformed result: %v", err)}
		}
	}

	if len(result.Err) > 0 {
		return nil, &Error{Method: method, Params: params, Reason: string(result.Err)}
	}

	return result.Ok, nil
}

func (c *Client) post(ctx context.Context, method string, params any) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		Post(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", method, err)
	}

	if resp.IsError() {
		code := resp.StatusCode()
		return nil, &Error{Method: method, Params: params, Code: &code, Reason: resp.Status()}
	}

	return decodeResult(method, params, resp.Body())
}

func (c *Client) postEncrypted(ctx context.Context, method string, params any) (json.RawMessage, error) {
	inner, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	bodyEnc, err := encrypt(c.secret, inner, nonce)
	if err != nil {
		return nil, err
	}

	result, err := c.post(ctx, "encrypted_request_v3", map[string]any{
		"nonce":    hex.EncodeToString(nonce),
		"body_enc": bodyEnc,
	})
	if err != nil {
		return nil, err
	}

	var sealed struct {
		Nonce   string `json:"nonce"`
		BodyEnc string `json:"body_enc"`
	}

	if err := json.Unmarshal(result, &sealed); err != nil {
		return nil, &Error{Method: method, Params: params, Reason: fmt.Sprintf("malformed encrypted response: %v", err)}
	}

	respNonce, err := hex.DecodeString(sealed.Nonce)
	if err != nil {
		return nil, &Error{Method: method, Params: params, Reason: fmt.Sprintf("malformed response nonce: %v", err)}
	}

	plaintext, err := decrypt(c.secret, sealed.BodyEnc, respNonce)
	if err != nil {
		return nil, &Error{Method: method, Params: params, Reason: err.Error()}
	}

	return decodeResult(method, params, plaintext)
}

func (c *Client) IssueInvoice(ctx context.Context, amount uint64) (*core.Slate, error) {
	result, err := c.postEncrypted(ctx, "issue_invoice_tx", map[string]any{
		"token": c.token,
		"args": map[string]any{
			"amount": fmt.Sprintf("%d", amount),
		},
	})
	if err != nil {
		return nil, err
	}

	return decodeSlate(result)
}

func (c *Client) InitSend(ctx context.Context, args core.SendArgs) (*core.Slate, error) {
	initArgs := map[string]any{
		"amount":                        fmt.Sprintf("%d", args.Amount),
		"minimum_confirmations":         args.MinimumConfirmations,
		"max_outputs":                   args.MaxOutputs,
		"num_change_outputs":            args.NumChangeOutputs,
		"selection_strategy_is_use_all": args.SelectionStrategyIsUseAll,
	}

	if args.PaymentProofRecipientAddress != "" {
		initArgs["payment_proof_recipient_address"] = args.PaymentProofRecipientAddress
	}

	result, err := c.postEncrypted(ctx, "init_send_tx", map[string]any{
		"token": c.token,
		"args":  initArgs,
	})
	if err != nil {
		return nil, err
	}

	return decodeSlate(result)
}

func contractArgs(netChange int64, isPayjoin bool, numParticipants int) map[string]any {
	return map[string]any{
		"setup_args": map[string]any{
			"net_change":       netChange,
			"num_participants": numParticipants,
			"early_lock":       false,
			"is_payjoin":       isPayjoin,
			"use_inputs":       nil,
		},
	}
}

func (c *Client) ContractNew(ctx context.Context, netChange int64, isPayjoin bool, numParticipants int) (*core.Slate, error) {
	result, err := c.postEncrypted(ctx, "contract_new", map[string]any{
		"token": c.token,
		"args":  contractArgs(netChange, isPayjoin, numParticipants),
	})
	if err != nil {
		return nil, err
	}

	return decodeSlate(result)
}

func (c *Client) ContractSign(ctx context.Context, expectedNetChange int64, slate *core.Slate, isPayjoin bool, numParticipants int) (*core.Slate, error) {
	result, err := c.postEncrypted(ctx, "contract_sign", map[string]any{
		"token": c.token,
		"slate": slate,
		"args":  contractArgs(expectedNetChange, isPayjoin, numParticipants),
	})
	if err != nil {
		return nil, err
	}

	return decodeSlate(result)
}

func (c *Client) Finalize(ctx context.Context, slate *core.Slate) (*core.Slate, error) {
	result, err := c.postEncrypted(ctx, "finalize_tx", map[string]any{
		"token": c.token,
		"slate": slate,
	})
	if err != nil {
		return nil, err
	}

	return decodeSlate(result)
}

func (c *Client) Post(ctx context.Context, slate *core.Slate, fluff bool) error {
	_, err := c.postEncrypted(ctx, "post_tx", map[string]any{
		"token": c.token,
		"slate": slate,
		"fluff": fluff,
	})

	return err
}

func (c *Client) Cancel(ctx context.Context, txSlateID string) error {
	_, err := c.postEncrypted(ctx, "cancel_tx", map[string]any{
		"token":       c.token,
		"tx_id":       nil,
		"tx_slate_id": txSlateID,
	})

	return err
}

func (c *Client) RetrieveTxs(ctx context.Context, txSlateID string, refresh bool) ([]*core.TxLogEntry, error) {
	params := map[string]any{
		"token":             c.token,
		"refresh_from_node": refresh,
		"tx_id":             nil,
		"tx_slate_id":       txSlateID,
	}

	result, err := c.postEncrypted(ctx, "retrieve_txs", params)
	if err != nil {
		return nil, err
	}

	// result is [refreshed, entries]
	var pair [2]json.RawMessage
	if err := json.Unmarshal(result, &pair); err != nil {
		return nil, &Error{Method: "retrieve_txs", Params: params, Reason: fmt.Sprintf("malformed result: %v", err)}
	}

	var refreshed bool
	if err := json.Unmarshal(pair[0], &refreshed); err != nil {
		return nil, &Error{Method: "retrieve_txs", Params: params, Reason: fmt.Sprintf("malformed result: %v", err)}
	}

	if refresh && !refreshed {
		// asked the wallet to sync with the node first, and it could not
		return nil, &Error{Method: "retrieve_txs", Params: params, Reason: "failed to refresh data from the node"}
	}

	var entries []*core.TxLogEntry
	if err := json.Unmarshal(pair[1], &entries); err != nil {
		return nil, &Error{Method: "retrieve_txs", Params: params, Reason: fmt.Sprintf("malformed entries: %v", err)}
	}

	return entries, nil
}

func (c *Client) SlateFromSlatepack(ctx context.Context, message string, secretIndices []int) (*core.Slate, error) {
	result, err := c.postEncrypted(ctx, "slate_from_slatepack_message", map[string]any{
		"token":          c.token,
		"message":        message,
		"secret_indices": secretIndices,
	})
	if err != nil {
		return nil, err
	}

	return decodeSlate(result)
}

func (c *Client) DecodeSlatepack(ctx context.Context, message string, secretIndices []int) (*core.Slatepack, error) {
	result, err := c.postEncrypted(ctx, "decode_slatepack_message", map[string]any{
		"token":          c.token,
		"message":        message,
		"secret_indices": secretIndices,
	})
	if err != nil {
		return nil, err
	}

	var slatepack core.Slatepack
	if err := json.Unmarshal(result, &slatepack); err != nil {
		return nil, fmt.Errorf("decode slatepack: %w", err)
	}

	return &slatepack, nil
}

func (c *Client) CreateSlatepack(ctx context.Context, slate *core.Slate, recipients []string, senderIndex *int) (string, error) {
	result, err := c.postEncrypted(ctx, "create_slatepack_message", map[string]any{
		"token":        c.token,
		"slate":        slate,
		"recipients":   recipients,
		"sender_index": senderIndex,
	})
	if err != nil {
		return "", err
	}

	var message string
	if err := json.Unmarshal(result, &message); err != nil {
		return "", fmt.Errorf("decode slatepack message: %w", err)
	}

	return message, nil
}

func decodeSlate(raw json.RawMessage) (*core.Slate, error) {
	var slate core.Slate
	if err := json.Unmarshal(raw, &slate); err != nil {
		return nil, fmt.Errorf("decode slate: %w", err)
	}

	return &slate, nil
}
