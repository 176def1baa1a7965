// Package confirmer reconciles in-flight transfers against the chain. Once
// per minute it sweeps every transfer awaiting confirmation, locates its
// kernel on chain and advances its confirmation count through the ledger.
package confirmer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/grinex/grinex/core"
)

const (
	propertyLastHeight = "confirmer_last_height"

	// kernel lookups scan at most a week of blocks below the tip
	kernelSearchWindow = 60 * 24 * 7

	sweepInterval = time.Minute
)

type Config struct {
	RequiredConfirmations int `valid:"required"`
}

func New(
	transfers core.TransferStore,
	ledgerz core.Ledger,
	wallets core.WalletClient,
	chain core.ChainClient,
	properties core.PropertyStore,
	logger *slog.Logger,
	cfg Config,
) *Confirmer {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Confirmer{
		transfers:  transfers,
		ledgerz:    ledgerz,
		wallets:    wallets,
		chain:      chain,
		properties: properties,
		logger:     logger.With("worker", "confirmer"),
		cfg:        cfg,
	}
}

type Confirmer struct {
	transfers  core.TransferStore
	ledgerz    core.Ledger
	wallets    core.WalletClient
	chain      core.ChainClient
	properties core.PropertyStore
	logger     *slog.Logger
	cfg        Config
}

func (w *Confirmer) Run(ctx context.Context) error {
	w.logger.Info("confirmer start")

	for {
		_ = w.run(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sweepInterval):
		}
	}
}

// run executes one sweep. The tip is captured once so every transfer in the
// sweep is judged against the same chain head; a tip fetch failure aborts the
// whole sweep, any other failure is confined to its transfer.
func (w *Confirmer) run(ctx context.Context) error {
	tip, err := w.chain.Tip(ctx)
	if err != nil {
		w.logger.Error("chain.Tip", "err", err)
		return err
	}

	var lastHeight uint64
	if err := w.properties.Get(ctx, propertyLastHeight, &lastHeight); err != nil {
		w.logger.Error("properties.Get", "err", err)
	} else if tip.Height == lastHeight {
		// no new block since the last sweep, counts cannot have changed
		return nil
	}

	transfers, err := w.transfers.ListUnconfirmed(ctx, w.cfg.RequiredConfirmations)
	if err != nil {
		w.logger.Error("transfers.ListUnconfirmed", "err", err)
		return err
	}

	for _, transfer := range transfers {
		if err := w.handleTransfer(ctx, tip, transfer); err != nil {
			w.logger.Error("handle transfer", "transfer", transfer.TxSlateID, "err", err)
		}
	}

	if err := w.properties.Set(ctx, propertyLastHeight, tip.Height); err != nil {
		w.logger.Error("properties.Set", "err", err)
		return err
	}

	return nil
}

func (w *Confirmer) handleTransfer(ctx context.Context, tip *core.ChainTip, transfer *core.Transfer) error {
	if transfer.KernelExcess == "" {
		ok, err := w.backfillKernelExcess(ctx, transfer)
		if err != nil || !ok {
			return err
		}
	}

	var minHeight uint64
	if tip.Height > kernelSearchWindow {
		minHeight = tip.Height - kernelSearchWindow
	}

	located, err := w.chain.Kernel(ctx, transfer.KernelExcess, minHeight, tip.Height)
	if err != nil {
		if errors.Is(err, core.ErrKernelNotFound) {
			// not mined yet, try again next sweep
			return nil
		}

		return err
	}

	if located.Height > tip.Height {
		// the node advanced past our captured tip mid-sweep; recount
		// against a consistent head next sweep
		return nil
	}

	confirmations := int(tip.Height - located.Height + 1)
	return w.ledgerz.SetConfirmations(ctx, transfer, confirmations)
}

// backfillKernelExcess asks the wallet for the kernel excess of the transfer.
// The wallet is not forced to refresh from the node: the excess is fixed at
// finalize time and the chain lookup happens here anyway. Only records the
// wallet reports as confirmed with a timestamp are trusted. Returns false
// when the wallet does not know the excess yet.
func (w *Confirmer) backfillKernelExcess(ctx context.Context, transfer *core.Transfer) (bool, error) {
	entries, err := w.wallets.RetrieveTxs(ctx, transfer.TxSlateID, false)
	if err != nil {
		return false, err
	}

	var excess string
	for _, entry := range entries {
		if !entry.Confirmed || entry.ConfirmationTs == "" {
			continue
		}

		if entry.KernelExcess != "" {
			excess = entry.KernelExcess
			break
		}
	}

	if excess == "" {
		return false, nil
	}

	if err := w.transfers.SetKernelExcess(ctx, transfer, excess); err != nil {
		return false, err
	}

	transfer.KernelExcess = excess
	return true, nil
}
