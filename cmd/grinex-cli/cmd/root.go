package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "grinex-cli",
	Short: "api cmd for the grinex custody service",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("endpoint", "l", "http://localhost:8080/api", "api endpoint")
	rootCmd.PersistentFlags().StringP("user", "u", "", "user id")
	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func getClient() *resty.Client {
	return resty.New().
		SetBaseURL(viper.GetString("endpoint")).
		SetHeader("X-User-Id", viper.GetString("user"))
}

// call runs one API request and prints the JSON response. Non-2xx responses
// carry the server's error payload.
func call(cmd *cobra.Command, fn func(r *resty.Request) (*resty.Response, error)) error {
	resp, err := fn(getClient().R().SetContext(cmd.Context()))
	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("%s: %s", resp.Status(), resp.String())
	}

	var v any
	if err := json.Unmarshal(resp.Body(), &v); err != nil {
		return err
	}

	return printJson(cmd, v)
}

func printJson(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(b))
	return nil
}
