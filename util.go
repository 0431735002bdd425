package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/datawire/reqtool/pkg/python/freeze"
	"github.com/datawire/reqtool/pkg/python/reqfile"
)

// OpenManifest parses the named requirements file; "-" means stdin.
func OpenManifest(filename string) (*reqfile.File, error) {
	if filename == "-" {
		return reqfile.Parse("-", os.Stdin)
	}
	return reqfile.ParseFile(filename)
}

// OpenStrictManifest is OpenManifest, but malformed lines are hard errors
// rather than lint findings.
func OpenStrictManifest(filename string) (*reqfile.File, error) {
	file, err := OpenManifest(filename)
	if err != nil {
		return nil, err
	}
	if err := file.Err(); err != nil {
		return nil, err
	}
	return file, nil
}

// environmentFlags selects the Python environment that a command verifies
// the manifest against: either a saved `pip freeze` listing, or a live
// interpreter.
type environmentFlags struct {
	Freeze string
	Python string
}

func (f *environmentFlags) Register(flagset *pflag.FlagSet) {
	flagset.StringVar(&f.Freeze, "freeze", "",
		"Read the pin list from `PINSFILE` (saved \"pip freeze\" output; \"-\" means stdin)")
	flagset.StringVar(&f.Python, "python", "",
		"Read the pin list from the live environment of `INTERPRETER` (runs \"INTERPRETER -m pip freeze\")")
}

func (f *environmentFlags) Load(ctx context.Context) ([]freeze.Pin, error) {
	switch {
	case f.Freeze != "" && f.Python != "":
		return nil, fmt.Errorf("the --freeze and --python flags are mutually exclusive")
	case f.Freeze == "-":
		return freeze.Parse("-", os.Stdin)
	case f.Freeze != "":
		fp, err := os.Open(f.Freeze)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = fp.Close()
		}()
		return freeze.Parse(f.Freeze, fp)
	case f.Python != "":
		return freeze.FromEnvironment(ctx, f.Python)
	default:
		return nil, fmt.Errorf("one of the --freeze or --python flags is required")
	}
}

// marshalOutput renders data for an `-o json` or `-o yaml` flag.  The JSON
// rendering is derived from the YAML rendering, so the two always agree on
// field names.
func marshalOutput(format string, data interface{}) ([]byte, error) {
	yamlBytes, err := yaml.Marshal(data)
	if err != nil {
		return nil, err
	}
	switch format {
	case "yaml":
		return yamlBytes, nil
	case "json":
		jsonBytes, err := sigsyaml.YAMLToJSON(yamlBytes)
		if err != nil {
			return nil, err
		}
		return append(jsonBytes, '\n'), nil
	default:
		return nil, fmt.Errorf("invalid output format: %q", format)
	}
}
