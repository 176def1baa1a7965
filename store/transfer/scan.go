package transfer

import (
	"database/sql"

	"github.com/grinex/grinex/core"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// Transfers carry their owner through the balances join so callers never
// need a second lookup to check ownership.
var scanColumns = []string{
	"t.id",
	"t.created_at",
	"t.direction",
	"t.status",
	"t.balance_id",
	"b.user_id",
	"b.currency_id",
	"t.amount",
	"t.confirmations",
	"t.tx_slate_id",
	"t.kernel_excess",
}

const joinedTable = "transfers t JOIN balances b ON b.id = t.balance_id"

func scanTransfer(scanner scanner, transfer *core.Transfer) error {
	var excess sql.NullString

	if err := scanner.Scan(
		&transfer.ID,
		&transfer.CreatedAt,
		&transfer.Direction,
		&transfer.Status,
		&transfer.BalanceID,
		&transfer.UserID,
		&transfer.CurrencyID,
		&transfer.Amount,
		&transfer.Confirmations,
		&transfer.TxSlateID,
		&excess,
	); err != nil {
		return err
	}

	transfer.KernelExcess = excess.String
	return nil
}

func nullExcess(excess string) sql.NullString {
	return sql.NullString{String: excess, Valid: excess != ""}
}
