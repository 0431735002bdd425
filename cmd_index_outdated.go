package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pep503"
	"github.com/datawire/reqtool/pkg/python/pep592"
	"github.com/datawire/reqtool/pkg/python/pep629"
)

// writtenMinimum extracts the version of the specifier's lower-bound
// clause; in the manifest's "name>=X.Y" convention that is the X.Y.
func writtenMinimum(spec pep440.Specifier) *pep440.Version {
	for _, clause := range spec {
		switch clause.CmpOp {
		case pep440.CmpOp_GE, pep440.CmpOp_GT, pep440.CmpOp_Compatible,
			pep440.CmpOp_StrictMatch, pep440.CmpOp_PrefixMatch:
			ver := clause.Version
			return &ver
		}
	}
	return nil
}

func init() {
	var flags struct {
		BaseURL string
	}
	cmd := &cobra.Command{
		Use:   "outdated [flags] MANIFEST",
		Short: "Compare a manifest's minimums against the index's newest releases",
		Long: "For each active requirement in the manifest, look up the newest " +
			"release that the index serves (skipping pre-releases, and releases " +
			"whose files have all been yanked) and compare it against the " +
			"requirement's written lower bound." +
			"\n\n" +
			"This is informational only; being behind the index is not an error.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file, err := OpenStrictManifest(args[0])
			if err != nil {
				return err
			}
			client := pep503.Client{
				BaseURL:  flags.BaseURL,
				HTMLHook: pep629.HTMLVersionCheck,
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "PACKAGE\tWRITTEN\tNEWEST\tSTATUS")
			for _, req := range file.Requirements() {
				versions, files, err := client.ProjectVersions(ctx, req.Dependency.Name)
				if err != nil {
					return fmt.Errorf("%s: %w", req.Dependency.Name, err)
				}

				var spec pep440.Specifier
				newest := spec.Select(versions, pep440.MultiExcluder{
					pep440.ExcludePreReleases{},
					pep592.ExcludeYanked(files),
				})
				minimum := writtenMinimum(req.Dependency.Specifier)

				written := "-"
				if minimum != nil {
					written = minimum.String()
				}
				latest := "-"
				if newest != nil {
					latest = newest.String()
				}
				status := "-"
				if minimum != nil && newest != nil {
					switch cmp := minimum.Cmp(*newest); {
					case cmp < 0:
						status = "behind"
					case cmp == 0:
						status = "current"
					default:
						status = "ahead"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					req.Dependency.Name, written, latest, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", pep503.PyPIBaseURL,
		"The `URL` of the simple repository API to query")

	argparserIndex.AddCommand(cmd)
}
