package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/reqfile"
)

func init() {
	var flags struct {
		Output string
	}
	cmd := &cobra.Command{
		Use:   "diff [flags] OLD_FILE NEW_FILE",
		Short: "Compare two requirements files as requirement sets",
		Long: "Compare two requirements files as requirement sets, rather than as " +
			"text: requirements are matched up by normalized package name, so " +
			"reordering lines or rewriting \"Jupyter_Client\" as \"jupyter-client\" " +
			"is not a difference, while changing a constraint, a comment, or " +
			"commenting a line out is." +
			"\n\n" +
			"Like diff(1), the exit status is 1 when the files differ.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldFile, err := OpenStrictManifest(args[0])
			if err != nil {
				return err
			}
			newFile, err := OpenStrictManifest(args[1])
			if err != nil {
				return err
			}

			report := reqfile.Diff(oldFile, newFile)

			if flags.Output != "text" {
				out, err := marshalOutput(flags.Output, report)
				if err != nil {
					return err
				}
				if _, err := os.Stdout.Write(out); err != nil {
					return err
				}
			} else {
				for _, entry := range report.Removed {
					fmt.Printf("- %s\n", entry.Old)
				}
				for _, entry := range report.Added {
					fmt.Printf("+ %s\n", entry.New)
				}
				for _, entry := range report.Changed {
					fmt.Printf("~ %s -> %s\n", entry.Old, entry.New)
				}
			}

			if !report.Empty() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "text",
		"Output `FORMAT`: one of \"text\", \"json\", or \"yaml\"")

	argparser.AddCommand(cmd)
}
