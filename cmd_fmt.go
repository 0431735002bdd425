package main

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/reqfile"
)

func init() {
	var flags struct {
		Diff  bool
		Write bool
	}
	cmd := &cobra.Command{
		Use:   "fmt [flags] FILE...",
		Short: "Rewrite requirements files in canonical form",
		Long: "Rewrite requirements files in canonical form: no stray whitespace, " +
			"normalized version constraints, and end-of-line comments set off with " +
			"two spaces.  Lines that do not parse are left as they are; `reqtool " +
			"lint` is the command that complains about those." +
			"\n\n" +
			"By default the canonical text is written to stdout, which only works " +
			"with a single FILE.  --diff instead prints a unified diff of what would " +
			"change, and exits 1 if anything would; --write instead rewrites the " +
			"files in place.",
		Args: cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.Diff && flags.Write {
				return fmt.Errorf("the --diff and --write flags are mutually exclusive")
			}
			if !flags.Diff && !flags.Write && len(args) != 1 {
				return fmt.Errorf("without --diff or --write, exactly one FILE must be given")
			}

			changed := false
			for _, filename := range args {
				if filename == "-" && flags.Write {
					return fmt.Errorf("--write cannot rewrite stdin")
				}
				file, err := OpenManifest(filename)
				if err != nil {
					return err
				}
				canonical := reqfile.Canonicalize(file)
				switch {
				case flags.Diff:
					diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
						A:        difflib.SplitLines(file.String()),
						B:        difflib.SplitLines(canonical.String()),
						FromFile: file.Name,
						ToFile:   file.Name + " (canonical)",
						Context:  3,
					})
					if err != nil {
						return err
					}
					if diff != "" {
						changed = true
						fmt.Print(diff)
					}
				case flags.Write:
					if canonical.String() != file.String() {
						if err := canonical.WriteFile(filename); err != nil {
							return err
						}
					}
				default:
					if err := canonical.Write(os.Stdout); err != nil {
						return err
					}
				}
			}
			if changed {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.Diff, "diff", false,
		"Print a unified diff instead of the full text; exit 1 if files need reformatting")
	cmd.Flags().BoolVar(&flags.Write, "write", false,
		"Rewrite the files in place instead of printing to stdout")

	argparser.AddCommand(cmd)
}
