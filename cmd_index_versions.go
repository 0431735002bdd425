package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/pep425"
	"github.com/datawire/reqtool/pkg/python/pep503"
	"github.com/datawire/reqtool/pkg/python/pep508"
	"github.com/datawire/reqtool/pkg/python/pep592"
	"github.com/datawire/reqtool/pkg/python/pep629"
	"github.com/datawire/reqtool/pkg/python/pypa/bdist"
	"github.com/datawire/reqtool/pkg/python/pypa/sdist"
)

// versionSupported reports whether any of a version's files could be
// installed by an installer that supports the given tags: either a wheel
// with a compatible tag, or a source release (which can be built for
// anything).
func versionSupported(files []pep503.FileLink, installer pep425.Installer) bool {
	for _, file := range files {
		if data, err := bdist.ParseFilename(file.Text); err == nil {
			if installer.Supports(data.CompatibilityTag) {
				return true
			}
			continue
		}
		if _, err := sdist.ParseFilename(file.Text); err == nil {
			return true
		}
	}
	return false
}

func yankedReason(files []pep503.FileLink) string {
	for _, file := range files {
		if reason := pep592.YankedReason(file); reason != "" {
			return reason
		}
	}
	return ""
}

func init() {
	var flags struct {
		BaseURL  string
		Pre      bool
		Yanked   bool
		Supports []string
		JSON     bool
	}
	cmd := &cobra.Command{
		Use:   "versions [flags] PACKAGE[SPECIFIER]",
		Short: "List the versions that an index serves for a package",
		Long: "List the versions of PACKAGE that the index serves, oldest first.  " +
			"With a SPECIFIER (as in \"reqtool index versions 'numpy>=1.11,<2'\"), " +
			"only the versions that match it are listed." +
			"\n\n" +
			"Pre-releases and yanked releases are excluded unless --pre or --yanked " +
			"says otherwise.  --supports=TAG limits the list to versions that " +
			"publish either a source release or a wheel compatible with one of the " +
			"given PEP 425 tags.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dep, err := pep508.ParseDependency(args[0])
			if err != nil {
				return err
			}
			if dep.DirectURL != "" || dep.Marker != nil || len(dep.Extras) > 0 {
				return fmt.Errorf(
					"the argument must be a package name with an optional version specifier: %q",
					args[0])
			}

			var installer pep425.Installer
			for _, tagStr := range flags.Supports {
				tag, err := pep425.ParseTag(tagStr)
				if err != nil {
					return err
				}
				installer = append(installer, tag)
			}

			client := pep503.Client{
				BaseURL:  flags.BaseURL,
				HTMLHook: pep629.HTMLVersionCheck,
			}
			versions, files, err := client.ProjectVersions(ctx, dep.Name)
			if err != nil {
				return err
			}

			byVersion := make(map[string][]pep503.FileLink)
			for _, file := range files {
				ver, err := file.Version()
				if err != nil {
					continue
				}
				byVersion[ver.String()] = append(byVersion[ver.String()], file)
			}

			notYanked := pep592.ExcludeYanked(files)
			var lines []string
			for _, ver := range versions {
				if dep.Specifier != nil && !dep.Specifier.Match(ver) {
					continue
				}
				if ver.IsPreRelease() && !flags.Pre {
					continue
				}
				if installer != nil && !versionSupported(byVersion[ver.String()], installer) {
					continue
				}
				line := ver.String()
				if !notYanked.Allow(ver) {
					if !flags.Yanked {
						continue
					}
					if reason := yankedReason(byVersion[ver.String()]); reason != "" {
						line += " (yanked: " + reason + ")"
					} else {
						line += " (yanked)"
					}
				}
				lines = append(lines, line)
			}

			if flags.JSON {
				out, err := marshalOutput("json", lines)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(out)
				return err
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", pep503.PyPIBaseURL,
		"The `URL` of the simple repository API to query")
	cmd.Flags().BoolVar(&flags.Pre, "pre", false,
		"Include pre-releases and developmental releases")
	cmd.Flags().BoolVar(&flags.Yanked, "yanked", false,
		"Include versions whose files the index has all yanked")
	cmd.Flags().StringArrayVar(&flags.Supports, "supports", nil,
		"Only list versions installable by an installer that supports the PEP 425 `TAG` (repeatable)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false,
		"Print a JSON array instead of plain lines")

	argparserIndex.AddCommand(cmd)
}
