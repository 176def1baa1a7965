package api

import (
	"net/http"

	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/store"
)

const listTransfersLimit = 100

func (s *Server) listBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestUser(r)

	if err := s.balances.MaterializeUser(ctx, userID); err != nil {
		s.logger.Error("balances.MaterializeUser", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load balances")
		return
	}

	balances, err := s.balances.List(ctx, userID)
	if err != nil {
		s.logger.Error("balances.List", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load balances")
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.currencies.List(r.Context())
	if err != nil {
		s.logger.Error("currencies.List", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load currencies")
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"currencies": currencies})
}

func (s *Server) createCurrency(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}

	if !decodeBody(r, &body) || body.Name == "" || body.Symbol == "" {
		renderError(w, http.StatusBadRequest, "name and symbol are required")
		return
	}

	if _, err := s.currencies.Find(r.Context(), body.Symbol); err == nil {
		renderError(w, http.StatusBadRequest, "currency "+body.Symbol+" already exists")
		return
	} else if !store.IsErrNotFound(err) {
		s.logger.Error("currencies.Find", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load currency")
		return
	}

	currency := &core.Currency{Name: body.Name, Symbol: body.Symbol}
	if err := s.currencies.Create(r.Context(), currency); err != nil {
		s.logger.Error("currencies.Create", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot create currency")
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"currency": currency})
}

// listTransfers returns the user's deposit and withdrawal history. Transfers
// still awaiting a signature are excluded; they have had no balance effect
// yet and may be silently superseded.
func (s *Server) listTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.transfers.List(r.Context(), requestUser(r), listTransfersLimit)
	if err != nil {
		s.logger.Error("transfers.List", "err", err)
		renderError(w, http.StatusInternalServerError, "cannot load transfers")
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"transfers":              transfers,
		"required_confirmations": s.cfg.RequiredConfirmations,
	})
}
