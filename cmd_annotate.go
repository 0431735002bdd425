package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/freeze"
	"github.com/datawire/reqtool/pkg/python/pep503"
	"github.com/datawire/reqtool/pkg/python/reqfile"
)

func init() {
	var flags struct {
		Environment environmentFlags
		Write       bool
	}
	cmd := &cobra.Command{
		Use:   "annotate [flags] MANIFEST",
		Short: "Record installed versions as end-of-line comments",
		Long: "Set each active requirement's end-of-line comment to the version that " +
			"is actually installed, in the manifest's \"numpy>=1.11.0  # 0.13.1\" " +
			"convention.  Requirements that are not installed, and direct (URL) " +
			"installs with no version to speak of, keep whatever comment they " +
			"already have." +
			"\n\n" +
			"The annotated manifest is printed to stdout in canonical form, or " +
			"rewritten in place with --write.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if flags.Write && args[0] == "-" {
				return fmt.Errorf("--write cannot rewrite stdin")
			}
			file, err := OpenStrictManifest(args[0])
			if err != nil {
				return err
			}
			pins, err := flags.Environment.Load(ctx)
			if err != nil {
				return err
			}

			byName := make(map[string]freeze.Pin, len(pins))
			for _, pin := range pins {
				norm := pep503.NormalizeName(pin.Name)
				if _, seen := byName[norm]; !seen {
					byName[norm] = pin
				}
			}

			for _, line := range file.Lines {
				if line.Kind != reqfile.KindRequirement || line.Requirement == nil {
					continue
				}
				pin, installed := byName[pep503.NormalizeName(line.Requirement.Dependency.Name)]
				if !installed || pin.Direct != "" {
					continue
				}
				line.Requirement.Comment = pin.Version.String()
			}

			canonical := reqfile.Canonicalize(file)
			if flags.Write {
				return canonical.WriteFile(args[0])
			}
			return canonical.Write(os.Stdout)
		},
	}
	flags.Environment.Register(cmd.Flags())
	cmd.Flags().BoolVar(&flags.Write, "write", false,
		"Rewrite the manifest in place instead of printing to stdout")

	argparser.AddCommand(cmd)
}
