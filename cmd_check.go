package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/datawire/reqtool/pkg/cliutil"
	"github.com/datawire/reqtool/pkg/python/freeze"
)

// markerEnvironFile is the schema of the --marker-env file: the PEP 508
// environment marker variables, by their marker-language names.
type markerEnvironFile struct {
	ImplementationName           string `json:"implementation_name,omitempty"`
	ImplementationVersion        string `json:"implementation_version,omitempty"`
	OSName                       string `json:"os_name,omitempty"`
	PlatformMachine              string `json:"platform_machine,omitempty"`
	PlatformRelease              string `json:"platform_release,omitempty"`
	PlatformSystem               string `json:"platform_system,omitempty"`
	PlatformVersion              string `json:"platform_version,omitempty"`
	PlatformPythonImplementation string `json:"platform_python_implementation,omitempty"`
	PythonFullVersion            string `json:"python_full_version,omitempty"`
	PythonVersion                string `json:"python_version,omitempty"`
	SysPlatform                  string `json:"sys_platform,omitempty"`
	Extra                        string `json:"extra,omitempty"`
}

func readMarkerEnviron(filename string) (map[string]string, error) {
	yamlBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var parsed markerEnvironFile
	if err := yaml.Unmarshal(yamlBytes, &parsed, yaml.DisallowUnknownFields); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	// Unset variables stay unset (rather than becoming "") so that a
	// marker that needs one is an error instead of silently comparing
	// against the empty string.
	env := make(map[string]string)
	for key, val := range map[string]string{
		"implementation_name":            parsed.ImplementationName,
		"implementation_version":         parsed.ImplementationVersion,
		"os_name":                        parsed.OSName,
		"platform_machine":               parsed.PlatformMachine,
		"platform_release":               parsed.PlatformRelease,
		"platform_system":                parsed.PlatformSystem,
		"platform_version":               parsed.PlatformVersion,
		"platform_python_implementation": parsed.PlatformPythonImplementation,
		"python_full_version":            parsed.PythonFullVersion,
		"python_version":                 parsed.PythonVersion,
		"sys_platform":                   parsed.SysPlatform,
		"extra":                          parsed.Extra,
	} {
		if val != "" {
			env[key] = val
		}
	}
	return env, nil
}

func init() {
	var flags struct {
		Environment environmentFlags
		MarkerEnv   string
		Extras      bool
	}
	cmd := &cobra.Command{
		Use:   "check [flags] MANIFEST",
		Short: "Verify an installed environment against a manifest",
		Long: "Verify that a Python environment's installed packages satisfy a " +
			"requirements manifest.  Nothing is installed or changed; this only " +
			"reports." +
			"\n\n" +
			"Requirements whose environment markers do not apply to the environment " +
			"are skipped; the markers are evaluated against --marker-env if given, " +
			"else against the live --python interpreter, else not at all." +
			"\n\n" +
			"Only requirements that fail are printed.  The exit status is 1 if any " +
			"requirement is violated or missing; extra installed packages never " +
			"fail the check.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file, err := OpenStrictManifest(args[0])
			if err != nil {
				return err
			}
			pins, err := flags.Environment.Load(ctx)
			if err != nil {
				return err
			}

			var markerEnv map[string]string
			switch {
			case flags.MarkerEnv != "":
				markerEnv, err = readMarkerEnviron(flags.MarkerEnv)
			case flags.Environment.Python != "":
				markerEnv, err = freeze.MarkerEnviron(ctx, flags.Environment.Python)
			}
			if err != nil {
				return err
			}
			reqs, err := freeze.Applicable(file.Requirements(), markerEnv)
			if err != nil {
				return err
			}

			report := freeze.Check(reqs, pins)

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			printedHeader := false
			header := func() {
				if !printedHeader {
					fmt.Fprintln(w, "PACKAGE\tWANT\tHAVE\tSTATUS")
					printedHeader = true
				}
			}
			for _, result := range report.Results {
				if result.Status == freeze.Satisfied {
					continue
				}
				want := result.Requirement.Dependency.String()
				have := "-"
				if result.Pin != nil {
					have = result.Pin.String()
				}
				header()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					result.Requirement.Dependency.Name, want, have, result.Status)
			}
			if flags.Extras {
				for _, pin := range report.Extra {
					header()
					fmt.Fprintf(w, "%s\t-\t%s\textra\n", pin.Name, pin)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !report.OK() {
				os.Exit(1)
			}
			return nil
		},
	}
	flags.Environment.Register(cmd.Flags())
	cmd.Flags().StringVar(&flags.MarkerEnv, "marker-env", "",
		"Evaluate requirements' environment markers against the variables in `ENVFILE` (YAML)")
	cmd.Flags().BoolVar(&flags.Extras, "extras", false,
		"Also report installed packages that the manifest does not list")

	argparser.AddCommand(cmd)
}
