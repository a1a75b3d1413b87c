package main

import (
	"fmt"
	"os"

	"fjacquet/spend-ledger/cmd/accounts"
	"fjacquet/spend-ledger/cmd/export"
	"fjacquet/spend-ledger/cmd/record"
	"fjacquet/spend-ledger/cmd/root"
	"fjacquet/spend-ledger/cmd/serve"
	"fjacquet/spend-ledger/cmd/summary"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(record.Cmd)
	root.Cmd.AddCommand(accounts.Cmd)
	root.Cmd.AddCommand(summary.Cmd)
	root.Cmd.AddCommand(export.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
