package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	"github.com/grinex/grinex/handler/api"
	"github.com/grinex/grinex/handler/hc"
	"github.com/rs/cors"
	"github.com/spf13/viper"
)

var serverSet = wire.NewSet(
	provideApiConfig,
	api.New,
	provideServer,
)

func provideApiConfig(v *viper.Viper) api.Config {
	v.SetDefault("ledger.required_confirmations", 10)

	return api.Config{
		RequiredConfirmations: v.GetInt("ledger.required_confirmations"),
	}
}

func provideServer(apiHandler *api.Server) *http.Server {
	m := chi.NewMux()
	m.Use(cors.AllowAll().Handler)

	m.Mount("/api", apiHandler.Handler())
	m.Mount("/hc", hc.Handler(version))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", opt.port),
		Handler: m,
	}
}
