package main

import (
	"github.com/google/wire"
	"github.com/grinex/grinex/store/db"
	"github.com/grinex/grinex/store/grant"
	"github.com/grinex/grinex/store/property"
	"github.com/grinex/grinex/store/transfer"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
)

var storeSet = wire.NewSet(
	provideDB,
	grant.New,
	property.New,
	transfer.New,
)

func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.driver", "postgres")

	driver := v.GetString("db.driver")
	dsn := v.GetString("db.dsn")

	for _, replica := range v.GetStringSlice("db.replicas") {
		dsn += ";" + replica
	}

	conn, err := nap.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(conn.Master()); err != nil {
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}
