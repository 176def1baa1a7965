package cmd

import (
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var currencyOpt struct {
	name   string
	symbol string
}

// currencyCmd represents the currency command
var currencyCmd = &cobra.Command{
	Use:   "currency",
	Short: "list currencies, or create one with --name and --symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		if currencyOpt.symbol == "" {
			return call(cmd, func(r *resty.Request) (*resty.Response, error) {
				return r.Get("/currencies")
			})
		}

		return call(cmd, func(r *resty.Request) (*resty.Response, error) {
			return r.SetBody(map[string]string{
				"name":   currencyOpt.name,
				"symbol": currencyOpt.symbol,
			}).Post("/currencies")
		})
	},
}

func init() {
	rootCmd.AddCommand(currencyCmd)

	currencyCmd.Flags().StringVar(&currencyOpt.name, "name", "", "currency name")
	currencyCmd.Flags().StringVar(&currencyOpt.symbol, "symbol", "", "currency symbol")
}
