package transfer

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.TransferStore {
	return &transferStore{db: db}
}

type transferStore struct {
	db *nap.DB
}

// applyChange adds the deltas to the owning balance. The bounds predicates
// live in the WHERE clause, so a change that would take either field out of
// [0, 2^64] simply matches no row.
func applyChange(ctx context.Context, r sq.BaseRunner, balanceID uint64, change core.BalanceChange) error {
	if change.IsZero() {
		return nil
	}

	b := store.Builder.Update("balances").
		Set("amount", sq.Expr("amount + ?", change.Amount)).
		Set("locked_amount", sq.Expr("locked_amount + ?", change.Locked)).
		Where("id = ?", balanceID).
		Where("amount + ? BETWEEN 0 AND ?", change.Amount, core.MaxBalanceAmount).
		Where("locked_amount + ? BETWEEN 0 AND ?", change.Locked, core.MaxBalanceAmount)

	result, err := b.RunWith(r).ExecContext(ctx)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return core.ErrBalanceConstraint
	}

	return nil
}

func insert(ctx context.Context, r sq.BaseRunner, transfer *core.Transfer) error {
	b := store.Builder.Insert("transfers").
		Columns("direction", "status", "balance_id", "amount", "confirmations", "tx_slate_id", "kernel_excess").
		Values(transfer.Direction, transfer.Status, transfer.BalanceID, transfer.Amount, transfer.Confirmations, transfer.TxSlateID, nullExcess(transfer.KernelExcess)).
		Suffix("RETURNING id, created_at")

	return b.RunWith(r).QueryRowContext(ctx).Scan(&transfer.ID, &transfer.CreatedAt)
}

func update(ctx context.Context, r sq.BaseRunner, transfer *core.Transfer, to core.TransferStatus) error {
	b := store.Builder.Update("transfers").
		Set("status", to).
		Set("confirmations", transfer.Confirmations).
		Set("kernel_excess", nullExcess(transfer.KernelExcess)).
		Where("id = ? AND status = ?", transfer.ID, transfer.Status)

	result, err := b.RunWith(r).ExecContext(ctx)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("optimistic lock failed")
	}

	return nil
}

func (s *transferStore) Create(ctx context.Context, transfer *core.Transfer, change core.BalanceChange) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := insert(ctx, tx, transfer); err != nil {
		return err
	}

	if err := applyChange(ctx, tx, transfer.BalanceID, change); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *transferStore) UpdateStatus(ctx context.Context, transfer *core.Transfer, to core.TransferStatus, change core.BalanceChange) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := update(ctx, tx, transfer, to); err != nil {
		return err
	}

	if err := applyChange(ctx, tx, transfer.BalanceID, change); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	transfer.Status = to
	return nil
}

func (s *transferStore) UpdateConfirmations(ctx context.Context, transfer *core.Transfer, confirmations int) error {
	b := store.Builder.Update("transfers").
		Set("confirmations", confirmations).
		Where("id = ? AND status = ?", transfer.ID, transfer.Status)

	result, err := b.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("optimistic lock failed")
	}

	transfer.Confirmations = confirmations
	return nil
}

func (s *transferStore) SetKernelExcess(ctx context.Context, transfer *core.Transfer, excess string) error {
	b := store.Builder.Update("transfers").
		Set("kernel_excess", nullExcess(excess)).
		Where("id = ?", transfer.ID)

	if _, err := b.RunWith(s.db).ExecContext(ctx); err != nil {
		return err
	}

	transfer.KernelExcess = excess
	return nil
}

func (s *transferStore) Delete(ctx context.Context, transfer *core.Transfer, change core.BalanceChange) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	defer tx.Rollback()

	b := store.Builder.Delete("transfers").Where("id = ?", transfer.ID)
	if _, err := b.RunWith(tx).ExecContext(ctx); err != nil {
		return err
	}

	if err := applyChange(ctx, tx, transfer.BalanceID, change); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *transferStore) Find(ctx context.Context, id uint64) (*core.Transfer, error) {
	return s.findOne(ctx, sq.Eq{"t.id": id})
}

func (s *transferStore) FindSlate(ctx context.Context, txSlateID string) (*core.Transfer, error) {
	return s.findOne(ctx, sq.Eq{"t.tx_slate_id": txSlateID})
}

func (s *transferStore) FindPending(ctx context.Context, userID string, currencyID uint64, direction core.Direction, status core.TransferStatus, confirmations int) (*core.Transfer, error) {
	return s.findOne(ctx, sq.Eq{
		"b.user_id":       userID,
		"b.currency_id":   currencyID,
		"t.direction":     direction,
		"t.status":        status,
		"t.confirmations": confirmations,
	})
}

func (s *transferStore) findOne(ctx context.Context, pred any) (*core.Transfer, error) {
	b := store.Builder.Select(scanColumns...).
		From(joinedTable).
		Where(pred).
		OrderBy("t.created_at").
		Limit(1)

	row := b.RunWith(s.db).QueryRowContext(ctx)

	var transfer core.Transfer
	if err := scanTransfer(row, &transfer); err != nil {
		return nil, err
	}

	return &transfer, nil
}

func (s *transferStore) ListUnconfirmed(ctx context.Context, max int) ([]*core.Transfer, error) {
	b := store.Builder.Select(scanColumns...).
		From(joinedTable).
		Where("t.status = ? AND t.confirmations < ?", core.TransferStatusAwaitingConfirmation, max).
		OrderBy("t.created_at")

	return s.list(ctx, b)
}

func (s *transferStore) ListStale(ctx context.Context, status core.TransferStatus, before time.Time, limit int) ([]*core.Transfer, error) {
	b := store.Builder.Select(scanColumns...).
		From(joinedTable).
		Where("t.status = ? AND t.created_at < ?", status, before).
		OrderBy("t.created_at").
		Limit(uint64(limit))

	return s.list(ctx, b)
}

func (s *transferStore) List(ctx context.Context, userID string, limit int) ([]*core.Transfer, error) {
	b := store.Builder.Select(scanColumns...).
		From(joinedTable).
		Where("b.user_id = ? AND t.status <> ?", userID, core.TransferStatusAwaitingSignature).
		OrderBy("t.created_at DESC").
		Limit(uint64(limit))

	return s.list(ctx, b)
}

func (s *transferStore) list(ctx context.Context, b sq.SelectBuilder) ([]*core.Transfer, error) {
	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var transfers []*core.Transfer
	for rows.Next() {
		var transfer core.Transfer
		if err := scanTransfer(rows, &transfer); err != nil {
			return nil, err
		}

		transfers = append(transfers, &transfer)
	}

	return transfers, rows.Err()
}
