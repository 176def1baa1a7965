package cmd

import (
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// balancesCmd represents the balances command
var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "list balances of the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, func(r *resty.Request) (*resty.Response, error) {
			return r.Get("/balances")
		})
	},
}

// transfersCmd represents the transfers command
var transfersCmd = &cobra.Command{
	Use:   "transfers",
	Short: "list deposits and withdrawals of the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, func(r *resty.Request) (*resty.Response, error) {
			return r.Get("/transfers")
		})
	},
}

func init() {
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(transfersCmd)
}
