package main

import (
	"github.com/google/wire"
	"github.com/grinex/grinex/core"
	"github.com/grinex/grinex/service/ledger"
	"github.com/grinex/grinex/service/node"
	"github.com/grinex/grinex/service/wallet"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	provideWalletConfig,
	provideNodeConfig,
	provideLedgerConfig,
	wallet.New,
	node.New,
	ledger.New,
	wire.Bind(new(core.WalletClient), new(*wallet.Client)),
	wire.Bind(new(core.ChainClient), new(*node.Client)),
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

func provideNodeConfig(v *viper.Viper) node.Config {
	return node.Config{
		URL:      v.GetString("node.url"),
		Username: v.GetString("node.username"),
		Secret:   v.GetString("node.secret"),
		Timeout:  v.GetDuration("node.timeout"),
	}
}

func provideLedgerConfig(v *viper.Viper) ledger.Config {
	v.SetDefault("ledger.required_confirmations", 10)

	return ledger.Config{
		RequiredConfirmations: v.GetInt("ledger.required_confirmations"),
	}
}
