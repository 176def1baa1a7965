// Package cleaner expires abandoned protocol runs. A transfer that sits in
// awaiting signature past its TTL will never be completed by its user; the
// cleaner cancels it wallet-side and removes it from the ledger.
package cleaner

import (
	"context"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/grinex/grinex/core"
)

type Config struct {
	TTL time.Duration `valid:"required"`
}

func New(
	transfers core.TransferStore,
	ledgerz core.Ledger,
	wallets core.WalletClient,
	logger *slog.Logger,
	cfg Config,
) *Cleaner {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Cleaner{
		transfers: transfers,
		ledgerz:   ledgerz,
		wallets:   wallets,
		logger:    logger.With("worker", "cleaner"),
		cfg:       cfg,
	}
}

type Cleaner struct {
	transfers core.TransferStore
	ledgerz   core.Ledger
	wallets   core.WalletClient
	logger    *slog.Logger
	cfg       Config
}

func (w *Cleaner) Run(ctx context.Context) error {
	w.logger.Info("cleaner start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Minute):
			_ = w.run(ctx)
		}
	}
}

func (w *Cleaner) run(ctx context.Context) error {
	const limit = 100
	cutoff := time.Now().Add(-w.cfg.TTL)

	transfers, err := w.transfers.ListStale(ctx, core.TransferStatusAwaitingSignature, cutoff, limit)
	if err != nil {
		w.logger.Error("transfers.ListStale", "err", err)
		return err
	}

	for _, transfer := range transfers {
		logger := w.logger.With("transfer", transfer.TxSlateID)

		// the wallet cancel is best effort; the ledger delete is what
		// frees the slot for a new protocol run
		if err := w.wallets.Cancel(ctx, transfer.TxSlateID); err != nil {
			logger.Warn("wallets.Cancel", "err", err)
		}

		if err := w.ledgerz.Delete(ctx, transfer); err != nil {
			logger.Error("ledgerz.Delete", "err", err)
			continue
		}

		logger.Info("expired stale transfer", "direction", transfer.Direction, "created_at", transfer.CreatedAt)
	}

	return nil
}
