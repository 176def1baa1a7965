// Package api is the REST surface of the exchange custody core. Requests are
// already authenticated upstream; handlers trust the user id header set by
// the fronting proxy.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grinex/grinex/core"
	"golang.org/x/sync/singleflight"
)

const userIDHeader = "X-User-Id"

type Config struct {
	RequiredConfirmations int `valid:"required"`
}

func New(
	currencies core.CurrencyStore,
	balances core.BalanceStore,
	transfers core.TransferStore,
	ledgerz core.Ledger,
	wallets core.WalletClient,
	logger *slog.Logger,
	cfg Config,
) *Server {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Server{
		currencies: currencies,
		balances:   balances,
		transfers:  transfers,
		ledgerz:    ledgerz,
		wallets:    wallets,
		logger:     logger.With("server", "api"),
		sf:         &singleflight.Group{},
		cfg:        cfg,
	}
}

type Server struct {
	currencies core.CurrencyStore
	balances   core.BalanceStore
	transfers  core.TransferStore
	ledgerz    core.Ledger
	wallets    core.WalletClient
	logger     *slog.Logger
	sf         *singleflight.Group
	cfg        Config
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(authenticate)

	r.Route("/deposits", func(r chi.Router) {
		r.Post("/start", s.startDeposit)
		r.Post("/finish", s.finishDeposit)
	})

	r.Route("/withdrawals", func(r chi.Router) {
		r.Post("/start", s.startWithdrawal)
		r.Post("/finish", s.finishWithdrawal)
	})

	r.Get("/balances", s.listBalances)
	r.Get("/currencies", s.listCurrencies)
	r.Post("/currencies", s.createCurrency)
	r.Get("/transfers", s.listTransfers)

	return r
}

type ctxKey int

const userIDKey ctxKey = iota

// authenticate lifts the upstream proxy's user id header into the request
// context. Requests without one never reach a handler.
func authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			renderError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func requestUser(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

func decodeBody(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func renderError(w http.ResponseWriter, status int, msg string) {
	renderJSON(w, status, map[string]string{"error": msg})
}

// renderUpstreamError hides wallet and node protocol detail from clients;
// the full error goes to the log only.
func (s *Server) renderUpstreamError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	logger.Error(op, "err", err)
	renderError(w, http.StatusInternalServerError, "upstream wallet operation failed")
}
