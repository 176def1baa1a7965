package core

import (
	"context"
	"time"
)

type Currency struct {
	ID        uint64    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Name      string    `json:"name,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
}

type CurrencyStore interface {
	// Create inserts the currency and materializes a zero balance for
	// every known user within the same transaction, so the one balance
	// per (user, currency) invariant holds from the moment the currency
	// exists.
	Create(ctx context.Context, currency *Currency) error
	Find(ctx context.Context, symbol string) (*Currency, error)
	List(ctx context.Context) ([]*Currency, error)
}
