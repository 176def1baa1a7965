package main

import "github.com/grinex/grinex/cmd/grinex-cli/cmd"

func main() {
	cmd.Execute()
}
