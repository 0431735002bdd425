package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/reqfile"
)

// A listRow is one requirement in `reqtool list` output; the YAML field
// names double as the JSON field names.
type listRow struct {
	Name       string   `yaml:"name"`
	Extras     []string `yaml:"extras,omitempty"`
	Constraint string   `yaml:"constraint,omitempty"`
	Comment    string   `yaml:"comment,omitempty"`
	Disabled   bool     `yaml:"disabled,omitempty"`
}

// displayName is the name as the table output shows it, with any extras
// tacked back on in their normalized spelling.
func (row listRow) displayName() string {
	if len(row.Extras) == 0 {
		return row.Name
	}
	return row.Name + "[" + strings.Join(row.Extras, ",") + "]"
}

func init() {
	var flags struct {
		Output string
		All    bool
	}
	cmd := &cobra.Command{
		Use:   "list [flags] FILE",
		Short: "List the requirements in a requirements file",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := OpenStrictManifest(args[0])
			if err != nil {
				return err
			}

			var rows []listRow
			for _, line := range file.Lines {
				if line.Requirement == nil {
					continue
				}
				if line.Kind == reqfile.KindDisabled && !flags.All {
					continue
				}
				req := line.Requirement
				row := listRow{
					Name:     req.Dependency.Name,
					Extras:   req.Dependency.SortedExtras(),
					Comment:  req.Comment,
					Disabled: line.Kind == reqfile.KindDisabled,
				}
				switch {
				case req.Dependency.DirectURL != "":
					row.Constraint = "@ " + req.Dependency.DirectURL
				case req.Dependency.Specifier != nil:
					row.Constraint = req.Dependency.Specifier.String()
				}
				rows = append(rows, row)
			}

			if flags.Output != "table" {
				out, err := marshalOutput(flags.Output, rows)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(out)
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			if flags.All {
				fmt.Fprintln(w, "NAME\tCONSTRAINT\tCOMMENT\tDISABLED")
				for _, row := range rows {
					disabled := ""
					if row.Disabled {
						disabled = "yes"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						row.displayName(), row.Constraint, row.Comment, disabled)
				}
			} else {
				fmt.Fprintln(w, "NAME\tCONSTRAINT\tCOMMENT")
				for _, row := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\n", row.displayName(), row.Constraint, row.Comment)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "table",
		"Output `FORMAT`: one of \"table\", \"json\", or \"yaml\"")
	cmd.Flags().BoolVar(&flags.All, "all", false,
		"Include commented-out (disabled) requirements")

	argparser.AddCommand(cmd)
}
