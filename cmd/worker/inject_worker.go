package main

import (
	"time"

	"github.com/google/wire"
	"github.com/grinex/grinex/worker/cleaner"
	"github.com/grinex/grinex/worker/confirmer"
	"github.com/spf13/viper"
)

var workerSet = wire.NewSet(
	provideConfirmerConfig,
	provideCleanerConfig,
	confirmer.New,
	cleaner.New,
)

func provideConfirmerConfig(v *viper.Viper) confirmer.Config {
	v.SetDefault("ledger.required_confirmations", 10)

	return confirmer.Config{
		RequiredConfirmations: v.GetInt("ledger.required_confirmations"),
	}
}

func provideCleanerConfig(v *viper.Viper) cleaner.Config {
	v.SetDefault("cleaner.ttl", 24*time.Hour)

	return cleaner.Config{
		TTL: v.GetDuration("cleaner.ttl"),
	}
}
