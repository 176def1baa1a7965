package balance

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.BalanceStore {
	return &balanceStore{db: db}
}

type balanceStore struct {
	db *nap.DB
}

var columns = []string{"id", "created_at", "user_id", "currency_id", "amount", "locked_amount"}

func scanBalance(row sq.RowScanner, balance *core.Balance) error {
	return row.Scan(
		&balance.ID,
		&balance.CreatedAt,
		&balance.UserID,
		&balance.CurrencyID,
		&balance.Amount,
		&balance.LockedAmount,
	)
}

func (s *balanceStore) Find(ctx context.Context, userID string, currencyID uint64) (*core.Balance, error) {
	b := store.Builder.Select(columns...).
		From("balances").
		Where(sq.Eq{"user_id": userID, "currency_id": currencyID})

	var balance core.Balance
	if err := scanBalance(b.RunWith(s.db).QueryRowContext(ctx), &balance); err != nil {
		return nil, err
	}

	return &balance, nil
}

func (s *balanceStore) FindSymbol(ctx context.Context, userID, symbol string) (*core.Balance, error) {
	b := store.Builder.Select(
		"b.id", "b.created_at", "b.user_id", "b.currency_id", "b.amount", "b.locked_amount",
	).
		From("balances b").
		Join("currencies c ON c.id = b.currency_id").
		Where("b.user_id = ? AND c.symbol = ?", userID, symbol)

	var balance core.Balance
	if err := scanBalance(b.RunWith(s.db).QueryRowContext(ctx), &balance); err != nil {
		return nil, err
	}

	return &balance, nil
}

func (s *balanceStore) List(ctx context.Context, userID string) ([]*core.Balance, error) {
	b := store.Builder.Select(columns...).
		From("balances").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("currency_id")

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var balances []*core.Balance
	for rows.Next() {
		var balance core.Balance
		if err := scanBalance(rows, &balance); err != nil {
			return nil, err
		}

		balances = append(balances, &balance)
	}

	return balances, rows.Err()
}

func (s *balanceStore) MaterializeUser(ctx context.Context, userID string) error {
	const stmt = `
		INSERT INTO balances (user_id, currency_id, amount, locked_amount)
		SELECT $1, id, 0, 0 FROM currencies
		ON CONFLICT (user_id, currency_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, stmt, userID)
	return err
}

func (s *balanceStore) MaterializeCurrency(ctx context.Context, currencyID uint64) error {
	const stmt = `
		INSERT INTO balances (user_id, currency_id, amount, locked_amount)
		SELECT DISTINCT user_id, $1, 0, 0 FROM balances
		ON CONFLICT (user_id, currency_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, stmt, currencyID)
	return err
}
