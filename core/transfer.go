package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Direction uint8

const (
	_ Direction = iota
	DirectionDeposit
	DirectionWithdrawal
)

func (d Direction) String() string {
	switch d {
	case DirectionDeposit:
		return "deposit"
	case DirectionWithdrawal:
		return "withdrawal"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "deposit":
		*d = DirectionDeposit
	case "withdrawal":
		*d = DirectionWithdrawal
	default:
		return fmt.Errorf("unknown direction %q", b)
	}

	return nil
}

type TransferStatus uint8

const (
	_ TransferStatus = iota
	TransferStatusAwaitingSignature
	TransferStatusAwaitingConfirmation
	TransferStatusFinished
	TransferStatusCanceled
)

func (s TransferStatus) String() string {
	switch s {
	case TransferStatusAwaitingSignature:
		return "awaiting_signature"
	case TransferStatusAwaitingConfirmation:
		return "awaiting_confirmation"
	case TransferStatusFinished:
		return "finished"
	case TransferStatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("TransferStatus(%d)", uint8(s))
	}
}

func (s TransferStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TransferStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "awaiting_signature":
		*s = TransferStatusAwaitingSignature
	case "awaiting_confirmation":
		*s = TransferStatusAwaitingConfirmation
	case "finished":
		*s = TransferStatusFinished
	case "canceled":
		*s = TransferStatusCanceled
	default:
		return fmt.Errorf("unknown transfer status %q", b)
	}

	return nil
}

// Transfer is a deposit or withdrawal, distinguished by Direction. TxSlateID
// correlates it with one interactive protocol run; KernelExcess stays empty
// until the broadcast transaction is known to the wallet.
type Transfer struct {
	ID            uint64          `json:"id,omitempty"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
	Direction     Direction       `json:"direction,omitempty"`
	Status        TransferStatus  `json:"status,omitempty"`
	BalanceID     uint64          `json:"balance_id,omitempty"`
	UserID        string          `json:"user_id,omitempty"`
	CurrencyID    uint64          `json:"currency_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int             `json:"confirmations"`
	TxSlateID     string          `json:"tx_slate_id,omitempty"`
	KernelExcess  string          `json:"kernel_excess,omitempty"`
}

// ErrBalanceConstraint reports a transition whose balance side effect would
// take amount or locked_amount out of bounds. The enclosing transaction is
// rolled back, nothing is partially applied.
var ErrBalanceConstraint = errors.New("balance constraint violated")

type TransferStore interface {
	// Create inserts the transfer and applies change to its balance in one
	// transaction.
	Create(ctx context.Context, transfer *Transfer, change BalanceChange) error
	// UpdateStatus moves the transfer to the given status and applies
	// change to its balance in one transaction. The update is optimistic:
	// it matches on the previous status and fails if another writer got
	// there first.
	UpdateStatus(ctx context.Context, transfer *Transfer, to TransferStatus, change BalanceChange) error
	UpdateConfirmations(ctx context.Context, transfer *Transfer, confirmations int) error
	SetKernelExcess(ctx context.Context, transfer *Transfer, excess string) error
	// Delete removes the transfer and applies change to its balance in one
	// transaction.
	Delete(ctx context.Context, transfer *Transfer, change BalanceChange) error
	Find(ctx context.Context, id uint64) (*Transfer, error)
	FindSlate(ctx context.Context, txSlateID string) (*Transfer, error)
	// FindPending locates the at-most-one in-flight transfer of a user in a
	// currency with the given status and confirmation count.
	FindPending(ctx context.Context, userID string, currencyID uint64, direction Direction, status TransferStatus, confirmations int) (*Transfer, error)
	// ListUnconfirmed returns transfers awaiting confirmation with fewer
	// than max confirmations, oldest first.
	ListUnconfirmed(ctx context.Context, max int) ([]*Transfer, error)
	// ListStale returns transfers in the given status created before the
	// cutoff, oldest first.
	ListStale(ctx context.Context, status TransferStatus, before time.Time, limit int) ([]*Transfer, error)
	List(ctx context.Context, userID string, limit int) ([]*Transfer, error)
}

// Ledger is the single authority over balance mutation. Every transfer state
// change goes through it so the balance side effect and the status write
// commit together.
type Ledger interface {
	// CreateTransfer persists the transfer in its entry status, applies the
	// entry status balance effect and grants the owning user read access to
	// the record.
	CreateTransfer(ctx context.Context, transfer *Transfer) error
	// Transition moves the transfer to the given status, applying the
	// balance effect of that edge. Calling it with an edge outside the
	// state machine is a programming error and panics.
	Transition(ctx context.Context, transfer *Transfer, to TransferStatus) error
	// SetConfirmations persists a new confirmation count, applying the
	// finished transition once the configured threshold is reached.
	SetConfirmations(ctx context.Context, transfer *Transfer, confirmations int) error
	// Delete removes an in-flight transfer and reverses whatever hold it
	// has on its balance.
	Delete(ctx context.Context, transfer *Transfer) error
}
