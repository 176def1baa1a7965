package cmd

import (
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var withdrawOpt struct {
	symbol    string
	address   string
	amount    string
	slatepack string
}

// withdrawCmd represents the withdraw command
var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "start a withdrawal to a slatepack address",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, func(r *resty.Request) (*resty.Response, error) {
			return r.SetBody(map[string]string{
				"symbol":  withdrawOpt.symbol,
				"address": withdrawOpt.address,
				"amount":  withdrawOpt.amount,
			}).Post("/withdrawals/start")
		})
	},
}

// withdrawFinishCmd represents the withdraw finish command
var withdrawFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "finish a withdrawal with the countersigned slatepack",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, func(r *resty.Request) (*resty.Response, error) {
			return r.SetBody(map[string]string{
				"symbol":        withdrawOpt.symbol,
				"slatepack_msg": withdrawOpt.slatepack,
			}).Post("/withdrawals/finish")
		})
	},
}

func init() {
	rootCmd.AddCommand(withdrawCmd)
	withdrawCmd.AddCommand(withdrawFinishCmd)

	withdrawCmd.PersistentFlags().StringVar(&withdrawOpt.symbol, "symbol", "GRIN", "currency symbol")
	withdrawCmd.Flags().StringVar(&withdrawOpt.address, "address", "", "destination slatepack address")
	withdrawCmd.Flags().StringVar(&withdrawOpt.amount, "amount", "0", "amount")
	withdrawFinishCmd.Flags().StringVar(&withdrawOpt.slatepack, "slatepack", "", "slatepack message")
}
