package main

import (
	"github.com/google/wire"
	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/service/ledger"
	"github.com/grinex/grinex/service/wallet"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	provideWalletConfig,
	provideLedgerConfig,
	wallet.New,
	ledger.New,
	wire.Bind(new(core.WalletClient), new(*wallet.Client)),
)

func provideWalletConfig(v *viper.Viper) wallet.Config {
	v.SetDefault("wallet.name", "default")

	return wallet.Config{
		URL:      v.GetString("wallet.url"),
		Username: v.GetString("wallet.username"),
		Secret:   v.GetString("wallet.secret"),
		Name:     v.GetString("wallet.name"),
		Password: v.GetString("wallet.password"),
		Timeout:  v.GetDuration("wallet.timeout"),
	}
}

func provideLedgerConfig(v *viper.Viper) ledger.Config {
	v.SetDefault("ledger.required_confirmations", 10)

	return ledger.Config{
		RequiredConfirmations: v.GetInt("ledger.required_confirmations"),
	}
}
