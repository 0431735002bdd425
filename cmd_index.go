package main

import (
	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
)

var argparserIndex = &cobra.Command{
	Use:   "index {[flags]|SUBCOMMAND...}",
	Short: "Query a Python \"simple repository API\" package index",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserIndex)
}
