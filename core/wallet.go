package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Slate state tags. A slate must be in the expected position of the
// interactive exchange before a handler may act on it.
const (
	SlateStateSend1 = "S1"
	SlateStateSend2 = "S2"
	SlateStateSend3 = "S3"

	SlateStateInvoice1 = "I1"
	SlateStateInvoice2 = "I2"
	SlateStateInvoice3 = "I3"
)

// Slate is the partial transaction exchanged between parties. Only the
// fields the exchange inspects are decoded; the full document is kept
// verbatim so re-sending it to the wallet loses nothing.
type Slate struct {
	ID  string
	Sta string
	Amt uint64

	raw json.RawMessage
}

func (s *Slate) UnmarshalJSON(b []byte) error {
	var v struct {
		ID  string `json:"id"`
		Sta string `json:"sta"`
		Amt string `json:"amt"`
	}

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	s.ID = v.ID
	s.Sta = v.Sta
	s.Amt = 0

	if v.Amt != "" {
		n, err := strconv.ParseUint(v.Amt, 10, 64)
		if err != nil {
			return fmt.Errorf("slate amt: %w", err)
		}

		s.Amt = n
	}

	s.raw = append(s.raw[:0], b...)
	return nil
}

func (s Slate) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}

	v := map[string]string{"id": s.ID, "sta": s.Sta}
	if s.Amt > 0 {
		v["amt"] = strconv.FormatUint(s.Amt, 10)
	}

	return json.Marshal(v)
}

// Slatepack is the decoded header of an armored slate envelope.
type Slatepack struct {
	Mode   int    `json:"mode"`
	Sender string `json:"sender"`
}

// TxLogEntry is the wallet's record of one transaction.
type TxLogEntry struct {
	ID             uint32 `json:"id"`
	TxType         string `json:"tx_type"`
	TxSlateID      string `json:"tx_slate_id"`
	KernelExcess   string `json:"kernel_excess"`
	Confirmed      bool   `json:"confirmed"`
	ConfirmationTs string `json:"confirmation_ts"`
	AmountCredited string `json:"amount_credited"`
	AmountDebited  string `json:"amount_debited"`
}

// SendArgs parameterizes init_send_tx.
type SendArgs struct {
	Amount                       uint64
	MinimumConfirmations         uint64
	SelectionStrategyIsUseAll    bool
	NumChangeOutputs             uint32
	MaxOutputs                   uint32
	PaymentProofRecipientAddress string
}

// WalletClient drives the interactive slate protocol against an external
// wallet service over an encrypted session. One instance owns one session:
// construct, establish, use, discard.
type WalletClient interface {
	// IssueInvoice produces an unsigned request-for-payment slate (I1).
	IssueInvoice(ctx context.Context, amount uint64) (*Slate, error)
	// InitSend produces an unsigned payment slate (S1).
	InitSend(ctx context.Context, args SendArgs) (*Slate, error)
	// ContractNew builds a fresh contract slate; netChange is signed,
	// positive when the wallet receives.
	ContractNew(ctx context.Context, netChange int64, isPayjoin bool, numParticipants int) (*Slate, error)
	// ContractSign adds this wallet's signature to a received contract
	// slate, enforcing the expected signed net change.
	ContractSign(ctx context.Context, expectedNetChange int64, slate *Slate, isPayjoin bool, numParticipants int) (*Slate, error)
	// Finalize completes a two party slate into a postable transaction.
	Finalize(ctx context.Context, slate *Slate) (*Slate, error)
	// Post broadcasts a finalized transaction.
	Post(ctx context.Context, slate *Slate, fluff bool) error
	// Cancel abandons a transaction, releasing wallet-side reservations.
	Cancel(ctx context.Context, txSlateID string) error
	// RetrieveTxs fetches transaction records by slate id. With refresh the
	// wallet syncs from the node first; a refresh that could not complete
	// is an error, distinct from an empty result.
	RetrieveTxs(ctx context.Context, txSlateID string, refresh bool) ([]*TxLogEntry, error)
	SlateFromSlatepack(ctx context.Context, message string, secretIndices []int) (*Slate, error)
	DecodeSlatepack(ctx context.Context, message string, secretIndices []int) (*Slatepack, error)
	// CreateSlatepack armors a slate for the given recipients. A nil
	// senderIndex leaves the envelope unencrypted.
	CreateSlatepack(ctx context.Context, slate *Slate, recipients []string, senderIndex *int) (string, error)
}
