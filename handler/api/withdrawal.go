package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
	"github.com/shopspring/decimal"
)

type withdrawalView struct {
	Withdrawal *core.Transfer `json:"withdrawal"`
	Slatepack  string         `json:"slatepack,omitempty"`
}

// startWithdrawal opens a payout: the exchange builds the first half of the
// contract (S1, negative net change) and hands the user an encrypted
// slatepack to sign.
func (s *Server) startWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symbol  string          `json:"symbol"`
		Address string          `json:"address"`
		Amount  decimal.Decimal `json:"amount"`
	}

	if !decodeBody(r, &body) {
		renderError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if body.Address == "" {
		renderError(w, http.StatusBadRequest, "address is required")
		return
	}

	if body.Amount.LessThan(core.MinTransferAmount) {
		renderError(w, http.StatusBadRequest, "amount below minimum "+core.MinTransferAmount.String())
		return
	}

	if body.Amount.GreaterThan(core.MaxTransferAmount) {
		renderError(w, http.StatusBadRequest, "amount above maximum "+core.MaxTransferAmount.String())
		return
	}

	ctx := r.Context()
	userID := requestUser(r)
	logger := s.logger.With("user", userID, "flow", "withdrawal")

	balance, ok := s.findBalance(w, r, userID, body.Symbol)
	if !ok {
		return
	}

	if balance.Amount.LessThan(body.Amount) {
		renderError(w, http.StatusBadRequest, "insufficient balance")
		return
	}

	if !s.supersedePending(ctx, logger, balance, core.DirectionWithdrawal, core.TransferStatusAwaitingSignature) {
		renderError(w, http.StatusInternalServerError, "cannot supersede previous withdrawal")
		return
	}

	slate, err := s.wallets.ContractNew(ctx, -int64(core.ToNanogrin(body.Amount)), false, 2)
	if err != nil {
		s.renderUpstreamError(w, logger, "wallets.ContractNew", err)
		return
	}

	transfer := &core.Transfer{
		Direction:  core.DirectionWithdrawal,
		Status:     core.TransferStatusAwaitingSignature,
		BalanceID:  balance.ID,
		UserID:     balance.UserID,
		CurrencyID: balance.CurrencyID,
		Amount:     body.Amount,
		TxSlateID:  slate.ID,
	}

	if err := s.ledgerz.CreateTransfer(ctx, transfer); err != nil {
		logger.Error("ledgerz.CreateTransfer", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot record withdrawal")
		return
	}

	message, err := s.armorFor(ctx, slate, body.Address)
	if err != nil {
		s.renderUpstreamError(w, logger, "wallets.CreateSlatepack", err)
		return
	}

	renderJSON(w, http.StatusOK, withdrawalView{Withdrawal: transfer, Slatepack: message})
}

// finishWithdrawal completes the payout: the user returns the countersigned
// slate (S2), the exchange adds its signature, posts and debits the balance
// into a confirmation hold.
func (s *Server) finishWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SlatepackMsg string `json:"slatepack_msg"`
	}

	if !decodeBody(r, &body) || body.SlatepackMsg == "" {
		renderError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx := r.Context()
	userID := requestUser(r)
	logger := s.logger.With("user", userID, "flow", "withdrawal")

	slate, err := s.wallets.SlateFromSlatepack(ctx, body.SlatepackMsg, []int{0})
	if err != nil {
		renderError(w, http.StatusBadRequest, "cannot decode slatepack message")
		return
	}

	if slate.Sta != core.SlateStateSend2 {
		renderError(w, http.StatusBadRequest, "unexpected slate state "+slate.Sta)
		return
	}

	if _, err := uuid.Parse(slate.ID); err != nil {
		renderError(w, http.StatusBadRequest, "invalid slate id")
		return
	}

	transfer, err := s.transfers.FindSlate(ctx, slate.ID)
	if err != nil {
		if store.IsErrNotFound(err) {
			renderError(w, http.StatusNotFound, "withdrawal not found")
			return
		}

		logger.Error("transfers.FindSlate", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load withdrawal")
		return
	}

	if transfer.UserID != userID || transfer.Direction != core.DirectionWithdrawal {
		renderError(w, http.StatusNotFound, "withdrawal not found")
		return
	}

	if transfer.Status != core.TransferStatusAwaitingSignature {
		renderError(w, http.StatusBadRequest, "withdrawal is not awaiting a signature")
		return
	}

	v, err, _ := s.sf.Do(slate.ID, func() (any, error) {
		netChange := -int64(core.ToNanogrin(transfer.Amount))

		signed, err := s.wallets.ContractSign(ctx, netChange, slate, false, 2)
		if err != nil {
			return nil, err
		}

		if err := s.wallets.Post(ctx, signed, false); err != nil {
			return nil, err
		}

		s.backfillExcess(ctx, logger, transfer)

		return transfer, s.ledgerz.Transition(ctx, transfer, core.TransferStatusAwaitingConfirmation)
	})
	if err != nil {
		if errors.Is(err, core.ErrBalanceConstraint) {
			renderError(w, http.StatusBadRequest, "insufficient balance")
			return
		}

		s.renderUpstreamError(w, logger, "finish withdrawal", err)
		return
	}

	renderJSON(w, http.StatusOK, withdrawalView{Withdrawal: v.(*core.Transfer)})
}
