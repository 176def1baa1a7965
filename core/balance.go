package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the custodial holding of one user in one currency. Amount is
// spendable, LockedAmount is reserved by in-flight transfers. Both stay in
// [0, 2^64] and are mutated only through the Ledger.
type Balance struct {
	ID           uint64          `json:"id,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	CurrencyID   uint64          `json:"currency_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	LockedAmount decimal.Decimal `json:"locked_amount"`
}

// BalanceChange is the side effect one transfer transition has on its
// balance. Deltas are signed; applying them must keep both fields within
// bounds or the whole transition rolls back.
type BalanceChange struct {
	Amount decimal.Decimal
	Locked decimal.Decimal
}

func (c BalanceChange) IsZero() bool {
	return c.Amount.IsZero() && c.Locked.IsZero()
}

type BalanceStore interface {
	Find(ctx context.Context, userID string, currencyID uint64) (*Balance, error)
	FindSymbol(ctx context.Context, userID, symbol string) (*Balance, error)
	List(ctx context.Context, userID string) ([]*Balance, error)
	// MaterializeUser inserts a zero balance for every currency the user
	// does not have one for yet.
	MaterializeUser(ctx context.Context, userID string) error
	// MaterializeCurrency inserts a zero balance in the given currency for
	// every known user.
	MaterializeCurrency(ctx context.Context, currencyID uint64) error
}
