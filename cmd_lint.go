package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/reqfile"
)

func init() {
	var flags struct {
		Strict    bool
		Recursive bool
	}
	cmd := &cobra.Command{
		Use:   "lint [flags] FILE...",
		Short: "Check requirements files for mistakes",
		Long: "Check requirements files for mistakes: lines that do not parse, " +
			"packages that are listed twice, constraints with no lower bound, " +
			"malformed --hash options, and the like.  Findings are printed one per " +
			"line as" +
			"\n\n" +
			"    FILE:LINE: SEVERITY: CODE: MESSAGE" +
			"\n\n" +
			"The exit status is 1 if (and only if) there are any error-severity " +
			"findings.",
		Args: cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []*reqfile.File
			for _, filename := range args {
				if flags.Recursive {
					root, included, err := reqfile.LoadTree(cmd.Context(), filename)
					if err != nil {
						return err
					}
					if root != nil {
						files = append(files, root)
					}
					files = append(files, included...)
				} else {
					file, err := OpenManifest(filename)
					if err != nil {
						return err
					}
					files = append(files, file)
				}
			}
			var problems []reqfile.Problem
			for _, file := range files {
				problems = append(problems, reqfile.Lint(file)...)
			}
			if flags.Strict {
				for i := range problems {
					if problems[i].Severity == reqfile.SeverityWarning {
						problems[i].Severity = reqfile.SeverityError
					}
				}
			}
			sort.SliceStable(problems, func(i, j int) bool {
				if problems[i].File != problems[j].File {
					return problems[i].File < problems[j].File
				}
				return problems[i].Line < problems[j].Line
			})

			fail := false
			for _, problem := range problems {
				fmt.Println(problem)
				if problem.Severity == reqfile.SeverityError {
					fail = true
				}
			}
			if fail {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.Strict, "strict", false,
		"Treat warning-severity findings as errors")
	cmd.Flags().BoolVarP(&flags.Recursive, "recursive", "r", false,
		"Also lint files pulled in with \"-r\"/\"-c\" options")

	argparser.AddCommand(cmd)
}
