package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/asaskevich/govalidator"
	"github.com/grinex/grinex/core"
)

type Config struct {
	RequiredConfirmations int `valid:"required"`
}

func New(
	transfers core.TransferStore,
	grants core.GrantStore,
	logger *slog.Logger,
	cfg Config,
) core.Ledger {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &service{
		transfers: transfers,
		grants:    grants,
		logger:    logger.With("service", "ledger"),
		cfg:       cfg,
	}
}

type service struct {
	transfers core.TransferStore
	grants    core.GrantStore
	logger    *slog.Logger
	cfg       Config
}

// edgeChange returns the balance side effect of one transition of the state
// machine. Edges outside the table are programming errors.
func edgeChange(t *core.Transfer, from, to core.TransferStatus) core.BalanceChange {
	switch {
	case from == core.TransferStatusAwaitingSignature && to == core.TransferStatusAwaitingConfirmation:
		if t.Direction == core.DirectionWithdrawal {
			// funds leave the spendable balance into the pending payout
			return core.BalanceChange{Amount: t.Amount.Neg(), Locked: t.Amount}
		}

		return core.BalanceChange{Locked: t.Amount}
	case from == core.TransferStatusAwaitingConfirmation && to == core.TransferStatusFinished:
		if t.Direction == core.DirectionWithdrawal {
			return core.BalanceChange{Locked: t.Amount.Neg()}
		}

		return core.BalanceChange{Amount: t.Amount, Locked: t.Amount.Neg()}
	default:
		panic(fmt.Sprintf("invalid %s transition %s -> %s", t.Direction, from, to))
	}
}

// entryChange returns the balance side effect of creating a transfer
// directly in the given status. A transfer born awaiting confirmation has
// skipped the signature step, so it carries that edge's lock with it.
func entryChange(t *core.Transfer) core.BalanceChange {
	switch t.Status {
	case core.TransferStatusAwaitingSignature:
		return core.BalanceChange{}
	case core.TransferStatusAwaitingConfirmation:
		return edgeChange(t, core.TransferStatusAwaitingSignature, core.TransferStatusAwaitingConfirmation)
	default:
		panic(fmt.Sprintf("invalid %s entry status %s", t.Direction, t.Status))
	}
}

// deleteChange reverses whatever hold the transfer has on its balance.
func deleteChange(t *core.Transfer) core.BalanceChange {
	if t.Status != core.TransferStatusAwaitingConfirmation {
		return core.BalanceChange{}
	}

	if t.Direction == core.DirectionWithdrawal {
		return core.BalanceChange{Amount: t.Amount, Locked: t.Amount.Neg()}
	}

	return core.BalanceChange{Locked: t.Amount.Neg()}
}

func grantObject(d core.Direction) string {
	if d == core.DirectionWithdrawal {
		return "view_withdrawal"
	}

	return "view_deposit"
}

func (s *service) CreateTransfer(ctx context.Context, transfer *core.Transfer) error {
	if !transfer.Amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive, got %s", transfer.Amount)
	}

	if err := s.transfers.Create(ctx, transfer, entryChange(transfer)); err != nil {
		return err
	}

	if err := s.grants.Grant(ctx, transfer.UserID, grantObject(transfer.Direction), transfer.ID); err != nil {
		s.logger.Error("grants.Grant", "transfer", transfer.TxSlateID, "err", err)
		return err
	}

	return nil
}

func (s *service) Transition(ctx context.Context, transfer *core.Transfer, to core.TransferStatus) error {
	return s.transfers.UpdateStatus(ctx, transfer, to, edgeChange(transfer, transfer.Status, to))
}

func (s *service) SetConfirmations(ctx context.Context, transfer *core.Transfer, confirmations int) error {
	if confirmations > s.cfg.RequiredConfirmations {
		confirmations = s.cfg.RequiredConfirmations
	}

	if confirmations < s.cfg.RequiredConfirmations {
		return s.transfers.UpdateConfirmations(ctx, transfer, confirmations)
	}

	// threshold reached: the confirmation write and the finished
	// transition commit together
	transfer.Confirmations = confirmations
	return s.Transition(ctx, transfer, core.TransferStatusFinished)
}

func (s *service) Delete(ctx context.Context, transfer *core.Transfer) error {
	return s.transfers.Delete(ctx, transfer, deleteChange(transfer))
}
