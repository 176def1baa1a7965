package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
	"github.com/shopspring/decimal"
)

type depositView struct {
	Deposit   *core.Transfer `json:"deposit"`
	Slatepack string         `json:"slatepack,omitempty"`
}

// startDeposit opens a deposit. With a slatepack the sender has already built
// a payment slate (S1) and one round trip completes the signature; with a
// bare amount the exchange issues an invoice slate the user signs later via
// finishDeposit.
func (s *Server) startDeposit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symbol       string          `json:"symbol"`
		SlatepackMsg string          `json:"slatepack_msg"`
		Amount       decimal.Decimal `json:"amount"`
	}

	if !decodeBody(r, &body) {
		renderError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	balance, ok := s.findBalance(w, r, requestUser(r), body.Symbol)
	if !ok {
		return
	}

	if body.SlatepackMsg != "" {
		s.startPaymentDeposit(w, r, balance, body.SlatepackMsg)
		return
	}

	s.startInvoiceDeposit(w, r, balance, body.Amount)
}

func (s *Server) startPaymentDeposit(w http.ResponseWriter, r *http.Request, balance *core.Balance, msg string) {
	ctx := r.Context()
	logger := s.logger.With("user", balance.UserID, "flow", "deposit")

	slate, err := s.wallets.SlateFromSlatepack(ctx, msg, []int{0})
	if err != nil {
		renderError(w, http.StatusBadRequest, "cannot decode slatepack message")
		return
	}

	if slate.Sta != core.SlateStateSend1 {
		renderError(w, http.StatusBadRequest, "unexpected slate state "+slate.Sta)
		return
	}

	if _, err := uuid.Parse(slate.ID); err != nil {
		renderError(w, http.StatusBadRequest, "invalid slate id")
		return
	}

	amount := core.FromNanogrin(slate.Amt)
	if amount.LessThan(core.MinTransferAmount) {
		renderError(w, http.StatusBadRequest, "amount below minimum "+core.MinTransferAmount.String())
		return
	}

	if amount.GreaterThan(core.MaxTransferAmount) {
		renderError(w, http.StatusBadRequest, "amount above maximum "+core.MaxTransferAmount.String())
		return
	}

	envelope, err := s.wallets.DecodeSlatepack(ctx, msg, []int{0})
	if err != nil {
		renderError(w, http.StatusBadRequest, "cannot decode slatepack message")
		return
	}

	if !s.supersedePending(ctx, logger, balance, core.DirectionDeposit, core.TransferStatusAwaitingConfirmation) {
		renderError(w, http.StatusInternalServerError, "cannot supersede previous deposit")
		return
	}

	signed, err := s.wallets.ContractSign(ctx, int64(slate.Amt), slate, false, 2)
	if err != nil {
		s.renderUpstreamError(w, logger, "wallets.ContractSign", err)
		return
	}

	transfer := &core.Transfer{
		Direction:  core.DirectionDeposit,
		Status:     core.TransferStatusAwaitingConfirmation,
		BalanceID:  balance.ID,
		UserID:     balance.UserID,
		CurrencyID: balance.CurrencyID,
		Amount:     amount,
		TxSlateID:  slate.ID,
	}

	if err := s.ledgerz.CreateTransfer(ctx, transfer); err != nil {
		logger.Error("ledgerz.CreateTransfer", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot record deposit")
		return
	}

	message, err := s.armorFor(ctx, signed, envelope.Sender)
	if err != nil {
		s.renderUpstreamError(w, logger, "wallets.CreateSlatepack", err)
		return
	}

	renderJSON(w, http.StatusOK, depositView{Deposit: transfer, Slatepack: message})
}

func (s *Server) startInvoiceDeposit(w http.ResponseWriter, r *http.Request, balance *core.Balance, amount decimal.Decimal) {
	ctx := r.Context()
	logger := s.logger.With("user", balance.UserID, "flow", "deposit")

	if amount.LessThan(core.MinTransferAmount) {
		renderError(w, http.StatusBadRequest, "amount below minimum "+core.MinTransferAmount.String())
		return
	}

	if amount.GreaterThan(core.MaxTransferAmount) {
		renderError(w, http.StatusBadRequest, "amount above maximum "+core.MaxTransferAmount.String())
		return
	}

	if !s.supersedePending(ctx, logger, balance, core.DirectionDeposit, core.TransferStatusAwaitingSignature) {
		renderError(w, http.StatusInternalServerError, "cannot supersede previous deposit")
		return
	}

	slate, err := s.wallets.IssueInvoice(ctx, core.ToNanogrin(amount))
	if err != nil {
		s.renderUpstreamError(w, logger, "wallets.IssueInvoice", err)
		return
	}

	transfer := &core.Transfer{
		Direction:  core.DirectionDeposit,
		Status:     core.TransferStatusAwaitingSignature,
		BalanceID:  balance.ID,
		UserID:     balance.UserID,
		CurrencyID: balance.CurrencyID,
		Amount:     amount,
		TxSlateID:  slate.ID,
	}

	if err := s.ledgerz.CreateTransfer(ctx, transfer); err != nil {
		logger.Error("ledgerz.CreateTransfer", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot record deposit")
		return
	}

	message, err := s.armorFor(ctx, slate, "")
	if err != nil {
		s.renderUpstreamError(w, logger, "wallets.CreateSlatepack", err)
		return
	}

	renderJSON(w, http.StatusOK, depositView{Deposit: transfer, Slatepack: message})
}

// finishDeposit closes the invoice flow: the user returns the signed slate
// (I2), the exchange finalizes, posts and starts counting confirmations.
func (s *Server) finishDeposit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SlatepackMsg string `json:"slatepack_msg"`
	}

	if !decodeBody(r, &body) || body.SlatepackMsg == "" {
		renderError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx := r.Context()
	userID := requestUser(r)
	logger := s.logger.With("user", userID, "flow", "deposit")

	slate, err := s.wallets.SlateFromSlatepack(ctx, body.SlatepackMsg, []int{0})
	if err != nil {
		renderError(w, http.StatusBadRequest, "cannot decode slatepack message")
		return
	}

	if slate.Sta != core.SlateStateInvoice2 {
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
			renderError(w, http.StatusNotFound, "deposit not found")
			return
		}

		logger.Error("transfers.FindSlate", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load deposit")
		return
	}

	if transfer.UserID != userID || transfer.Direction != core.DirectionDeposit {
		renderError(w, http.StatusNotFound, "deposit not found")
		return
	}

	if transfer.Status != core.TransferStatusAwaitingSignature {
		renderError(w, http.StatusBadRequest, "deposit is not awaiting a signature")
		return
	}

	v, err, _ := s.sf.Do(slate.ID, func() (any, error) {
		finalized, err := s.wallets.Finalize(ctx, slate)
		if err != nil {
			return nil, err
		}

		if err := s.wallets.Post(ctx, finalized, false); err != nil {
			return nil, err
		}

		s.backfillExcess(ctx, logger, transfer)

		return transfer, s.ledgerz.Transition(ctx, transfer, core.TransferStatusAwaitingConfirmation)
	})
	if err != nil {
		s.renderUpstreamError(w, logger, "finish deposit", err)
		return
	}

	renderJSON(w, http.StatusOK, depositView{Deposit: v.(*core.Transfer)})
}
