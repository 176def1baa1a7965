package cmd

import (
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var depositOpt struct {
	symbol    string
	amount    string
	slatepack string
}

// depositCmd represents the deposit command
var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "start a deposit from a slatepack or an invoice amount",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"symbol": depositOpt.symbol}
		if depositOpt.slatepack != "" {
			body["slatepack_msg"] = depositOpt.slatepack
		} else {
			body["amount"] = depositOpt.amount
		}

		return call(cmd, func(r *resty.Request) (*resty.Response, error) {
			return r.SetBody(body).Post("/deposits/start")
		})
	},
}

// depositFinishCmd represents the deposit finish command
var depositFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "finish an invoice deposit with the signed slatepack",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, func(r *resty.Request) (*resty.Response, error) {
			return r.SetBody(map[string]string{
				"symbol":        depositOpt.symbol,
				"slatepack_msg": depositOpt.slatepack,
			}).Post("/deposits/finish")
		})
	},
}

func init() {
	rootCmd.AddCommand(depositCmd)
	depositCmd.AddCommand(depositFinishCmd)

	depositCmd.PersistentFlags().StringVar(&depositOpt.symbol, "symbol", "GRIN", "currency symbol")
	depositCmd.PersistentFlags().StringVar(&depositOpt.slatepack, "slatepack", "", "slatepack message")
	depositCmd.Flags().StringVar(&depositOpt.amount, "amount", "0", "invoice amount")
}
