package currency

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/generic"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.CurrencyStore {
	return &currencyStore{
		db:         db,
		currencies: generic.Try(lru.New[string, *core.Currency](64)),
	}
}

type currencyStore struct {
	db         *nap.DB
	currencies *lru.Cache[string, *core.Currency]
}

var columns = []string{"id", "created_at", "name", "symbol"}

func (s *currencyStore) Create(ctx context.Context, currency *core.Currency) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	defer tx.Rollback()

	b := store.Builder.Insert("currencies").
		Columns("name", "symbol").
		Values(currency.Name, currency.Symbol).
		Suffix("RETURNING id, created_at")

	if err := b.RunWith(tx).QueryRowContext(ctx).Scan(&currency.ID, &currency.CreatedAt); err != nil {
		return err
	}

	// Keep the one balance per (user, currency) invariant: every user seen
	// in any existing balance gets a zero balance in the new currency.
	const materialize = `
		INSERT INTO balances (user_id, currency_id, amount, locked_amount)
		SELECT DISTINCT user_id, $1, 0, 0 FROM balances
		ON CONFLICT (user_id, currency_id) DO NOTHING`

	if _, err := tx.ExecContext(ctx, materialize, currency.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *currencyStore) Find(ctx context.Context, symbol string) (*core.Currency, error) {
	if c, ok := s.currencies.Get(symbol); ok {
		return c, nil
	}

	c, err := s.find(ctx, symbol)
	if err != nil {
		return nil, err
	}

	s.currencies.Add(symbol, c)
	return c, nil
}

func (s *currencyStore) find(ctx context.Context, symbol string) (*core.Currency, error) {
	b := store.Builder.Select(columns...).
		From("currencies").
		Where(sq.Eq{"symbol": symbol})

	row := b.RunWith(s.db).QueryRowContext(ctx)

	var currency core.Currency
	if err := row.Scan(&currency.ID, &currency.CreatedAt, &currency.Name, &currency.Symbol); err != nil {
		return nil, err
	}

	return &currency, nil
}

func (s *currencyStore) List(ctx context.Context) ([]*core.Currency, error) {
	b := store.Builder.Select(columns...).
		From("currencies").
		OrderBy("id")

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var currencies []*core.Currency
	for rows.Next() {
		var currency core.Currency
		if err := rows.Scan(&currency.ID, &currency.CreatedAt, &currency.Name, &currency.Symbol); err != nil {
			return nil, err
		}

		currencies = append(currencies, &currency)
	}

	return currencies, rows.Err()
}
