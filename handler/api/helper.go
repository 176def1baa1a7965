package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
)

// findBalance resolves the balance of the user in the given currency,
// materializing zero balances on first contact.
func (s *Server) findBalance(w http.ResponseWriter, r *http.Request, userID, symbol string) (*core.Balance, bool) {
	ctx := r.Context()

	balance, err := s.balances.FindSymbol(ctx, userID, symbol)
	if err == nil {
		return balance, true
	}

	if !store.IsErrNotFound(err) {
		s.logger.Error("balances.FindSymbol", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load balance")
		return nil, false
	}

	if _, err := s.currencies.Find(ctx, symbol); err != nil {
		if store.IsErrNotFound(err) {
			renderError(w, http.StatusBadRequest, "unknown currency "+symbol)
			return nil, false
		}

		s.logger.Error("currencies.Find", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load currency")
		return nil, false
	}

	if err := s.balances.MaterializeUser(ctx, userID); err != nil {
		s.logger.Error("balances.MaterializeUser", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load balance")
		return nil, false
	}

	balance, err = s.balances.FindSymbol(ctx, userID, symbol)
	if err != nil {
		s.logger.Error("balances.FindSymbol", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load balance")
		return nil, false
	}

	return balance, true
}

// supersedePending discards the user's previous in-flight transfer in this
// currency, if any. Starting over voids the earlier protocol run: the wallet
// cancel is best effort, the ledger delete is authoritative.
func (s *Server) supersedePending(ctx context.Context, logger *slog.Logger, balance *core.Balance, direction core.Direction, status core.TransferStatus) bool {
	previous, err := s.transfers.FindPending(ctx, balance.UserID, balance.CurrencyID, direction, status, 0)
	if err != nil {
		if store.IsErrNotFound(err) {
			return true
		}

		logger.Error("transfers.FindPending", "err", err)
		return false
	}

	if err := s.wallets.Cancel(ctx, previous.TxSlateID); err != nil {
		logger.Warn("wallets.Cancel", "transfer", previous.TxSlateID, "err", err)
	}

	if err := s.ledgerz.Delete(ctx, previous); err != nil {
		logger.Error("ledgerz.Delete", "transfer", previous.TxSlateID, "err", err)
		return false
	}

	logger.Info("superseded previous transfer", "transfer", previous.TxSlateID)
	return true
}

// armorFor wraps a slate in a slatepack envelope, encrypted to the recipient
// when an address is known and plain otherwise.
func (s *Server) armorFor(ctx context.Context, slate *core.Slate, recipient string) (string, error) {
	if recipient == "" {
		return s.wallets.CreateSlatepack(ctx, slate, nil, nil)
	}

	senderIndex := 0
	return s.wallets.CreateSlatepack(ctx, slate, []string{recipient}, &senderIndex)
}

// backfillExcess records the kernel excess of a just-posted transaction so
// the reconciliation sweep can find it on chain without another wallet round
// trip. Failure is tolerated, the sweep retries on its own.
func (s *Server) backfillExcess(ctx context.Context, logger *slog.Logger, transfer *core.Transfer) {
	entries, err := s.wallets.RetrieveTxs(ctx, transfer.TxSlateID, true)
	if err != nil {
		logger.Warn("wallets.RetrieveTxs", "transfer", transfer.TxSlateID, "err", err)
		return
	}

	for _, entry := range entries {
		if entry.KernelExcess == "" {
			continue
		}

		if err := s.transfers.SetKernelExcess(ctx, transfer, entry.KernelExcess); err != nil {
			logger.Warn("transfers.SetKernelExcess", "transfer", transfer.TxSlateID, "err", err)
			return
		}

		transfer.KernelExcess = entry.KernelExcess
		return
	}
}
