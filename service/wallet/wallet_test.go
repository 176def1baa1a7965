package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/grinex/grinex/core"
	"github.com/stretchr/testify/require"
)

// fakeWallet speaks the owner API v3 secure transport: ECDH on
// init_secure_api, then AES-GCM framed JSON-RPC on encrypted_request_v3.
type fakeWallet struct {
	t      *testing.T
	secret []byte
	handle func(method string, params json.RawMessage) (any, *rpcError)
}

func (f *fakeWallet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}

	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

	switch req.Method {
	case "init_secure_api":
		var params struct {
			ECDHPubkey string `json:"ecdh_pubkey"`
		}

		require.NoError(f.t, json.Unmarshal(req.Params, &params))

		raw, err := hex.DecodeString(params.ECDHPubkey)
		require.NoError(f.t, err)

		clientPub, err := secp256k1.ParsePubKey(raw)
		require.NoError(f.t, err)

		key, err := secp256k1.GeneratePrivateKey()
		require.NoError(f.t, err)

		f.secret = secp256k1.GenerateSharedSecret(key, clientPub)

		writeOk(f.t, w, hex.EncodeToString(key.PubKey().SerializeCompressed()))
	case "encrypted_request_v3":
		var params struct {
			Nonce   string `json:"nonce"`
			BodyEnc string `json:"body_enc"`
		}

		require.NoError(f.t, json.Unmarshal(req.Params, &params))

		nonce, err := hex.DecodeString(params.Nonce)
		require.NoError(f.t, err)

		plaintext, err := decrypt(f.secret, params.BodyEnc, nonce)
		require.NoError(f.t, err)

		var inner struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}

		require.NoError(f.t, json.Unmarshal(plaintext, &inner))

		result, rpcErr := f.handle(inner.Method, inner.Params)

		var body []byte
		if rpcErr != nil {
			body, err = json.Marshal(map[string]any{"error": rpcErr})
		} else {
			body, err = json.Marshal(map[string]any{"result": map[string]any{"Ok": result}})
		}

		require.NoError(f.t, err)

		respNonce := make([]byte, 12)
		_, err = rand.Read(respNonce)
		require.NoError(f.t, err)

		sealed, err := encrypt(f.secret, body, respNonce)
		require.NoError(f.t, err)

		writeOk(f.t, w, map[string]any{
			"nonce":    hex.EncodeToString(respNonce),
			"body_enc": sealed,
		})
	default:
		f.t.Errorf("unexpected plaintext method %q", req.Method)
	}
}

func writeOk(t *testing.T, w http.ResponseWriter, result any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"result": map[string]any{"Ok": result},
	}))
}

func newTestClient(t *testing.T, handle func(method string, params json.RawMessage) (any, *rpcError)) *Client {
	t.Helper()

	fake := &fakeWallet{t: t, handle: handle}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := New(Config{
		URL:      server.URL,
		Username: "grin",
		Secret:   "owner-secret",
		Password: "wallet-pass",
	}, slog.Default())

	return client
}

func TestSessionAndSlateRoundTrip(t *testing.T) {
	handle := func(method string, params json.RawMessage) (any, *rpcError) {
		switch method {
		case "open_wallet":
			var p struct {
				Name     string `json:"name"`
				Password string `json:"password"`
			}

			require.NoError(t, json.Unmarshal(params, &p))
			require.Equal(t, "default", p.Name)
			require.Equal(t, "wallet-pass", p.Password)

			return "session-token", nil
		case "contract_new":
			var p struct {
				Token string `json:"token"`
			}

			require.NoError(t, json.Unmarshal(params, &p))
			require.Equal(t, "session-token", p.Token)

			return json.RawMessage(`{"id":"slate-id","sta":"S1","amt":"3000000000"}`), nil
		default:
			t.Errorf("unexpected method %q", method)
			return nil, nil
		}
	}

	client := newTestClient(t, handle)
	ctx := context.Background()

	require.NoError(t, client.Session(ctx))

	slate, err := client.ContractNew(ctx, -3_000_000_000, false, 2)
	require.NoError(t, err)
	require.Equal(t, "slate-id", slate.ID)
	require.Equal(t, core.SlateStateSend1, slate.Sta)
	require.EqualValues(t, 3_000_000_000, slate.Amt)
}

func TestRetrieveTxs(t *testing.T) {
	handle := func(method string, params json.RawMessage) (any, *rpcError) {
		switch method {
		case "open_wallet":
			return "session-token", nil
		case "retrieve_txs":
			var p struct {
				Refresh   bool   `json:"refresh_from_node"`
				TxSlateID string `json:"tx_slate_id"`
			}

			require.NoError(t, json.Unmarshal(params, &p))
			require.False(t, p.Refresh)
			require.Equal(t, "slate-7", p.TxSlateID)

			return json.RawMessage(`[false,[{"id":4,"tx_slate_id":"slate-7","kernel_excess":"08deadbeef","confirmed":true,"confirmation_ts":"2024-05-01T00:00:00Z"}]]`), nil
		default:
			t.Errorf("unexpected method %q", method)
			return nil, nil
		}
	}

	client := newTestClient(t, handle)
	ctx := context.Background()
	require.NoError(t, client.Session(ctx))

	entries, err := client.RetrieveTxs(ctx, "slate-7", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "08deadbeef", entries[0].KernelExcess)
	require.True(t, entries[0].Confirmed)
}

func TestRetrieveTxsRefreshFailed(t *testing.T) {
	handle := func(method string, params json.RawMessage) (any, *rpcError) {
		switch method {
		case "open_wallet":
			return "session-token", nil
		case "retrieve_txs":
			// wallet could not sync with the node
			return json.RawMessage(`[false,[]]`), nil
		default:
			return nil, nil
		}
	}

	client := newTestClient(t, handle)
	ctx := context.Background()
	require.NoError(t, client.Session(ctx))

	_, err := client.RetrieveTxs(ctx, "slate-8", true)

	var walletErr *Error
	require.ErrorAs(t, err, &walletErr)
	require.Equal(t, "retrieve_txs", walletErr.Method)
	require.Nil(t, walletErr.Code)
}

func TestProtocolErrorNormalization(t *testing.T) {
	handle := func(method string, params json.RawMessage) (any, *rpcError) {
		switch method {
		case "open_wallet":
			return "session-token", nil
		case "cancel_tx":
			return nil, &rpcError{Code: -32700, Message: "TransactionDoesntExist"}
		default:
			return nil, nil
		}
	}

	client := newTestClient(t, handle)
	ctx := context.Background()
	require.NoError(t, client.Session(ctx))

	err := client.Cancel(ctx, "gone")

	var walletErr *Error
	require.ErrorAs(t, err, &walletErr)
	require.NotNil(t, walletErr.Code)
	require.Equal(t, -32700, *walletErr.Code)
	require.Contains(t, walletErr.Reason, "TransactionDoesntExist")
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := New(Config{
		URL:      server.URL,
		Username: "grin",
		Secret:   "owner-secret",
	}, slog.Default())

	err := client.Session(context.Background())

	var walletErr *Error
	require.True(t, errors.As(err, &walletErr))
	require.NotNil(t, walletErr.Code)
	require.Equal(t, http.StatusBadGateway, *walletErr.Code)
}

func TestDecodeResultErrShape(t *testing.T) {
	result, err := decodeResult("post_tx", nil, []byte(`{"result":{"Err":"NotEnoughFunds"}}`))
	require.Nil(t, result)

	var walletErr *Error
	require.ErrorAs(t, err, &walletErr)
	require.Nil(t, walletErr.Code)
	require.Contains(t, walletErr.Reason, "NotEnoughFunds")
}
