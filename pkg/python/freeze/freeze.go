// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package freeze handles `pip freeze` pin lists: the "name==version" lines
// that say what a Python environment actually has installed, as opposed to
// the requirements file that says what ought to be installed.
package freeze

import (
	"fmt"
	"io"
	"strings"

	"github.com/datawire/reqtool/pkg/python/pep440"
)

// A Pin is one installed package, as reported by `pip freeze`.
type Pin struct {
	Name     string
	Version  pep440.Version // zero when Direct is set
	Direct   string         // URL or path, for direct and editable installs
	Editable bool
}

func (p Pin) String() string {
	switch {
	case p.Editable:
		return "-e " + p.Direct
	case p.Direct != "":
		return p.Name + " @ " + p.Direct
	default:
		return p.Name + "==" + p.Version.String()
	}
}

// Parse parses `pip freeze` output.  The name is only used in error
// messages; use "-" for stdin.
//
// Accepted lines are "name==version", "name @ url", and
// "-e url#egg=name"; blank lines and comments (including pip's own
// "## FIXME" chatter) are ignored.
func Parse(name string, r io.Reader) ([]Pin, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var ret []Pin
	for i, physical := range strings.Split(string(input), "\n") {
		number := i + 1
		text := strings.TrimSpace(strings.TrimSuffix(physical, "\r"))
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var pin Pin
		if strings.HasPrefix(text, "-e ") || strings.HasPrefix(text, "--editable ") {
			pin, err = parseEditable(text)
		} else {
			pin, err = parsePlain(text)
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, number, err)
		}
		ret = append(ret, pin)
	}
	return ret, nil
}

func parseEditable(text string) (Pin, error) {
	url := text
	switch {
	case strings.HasPrefix(url, "--editable"):
		url = url[len("--editable"):]
	case strings.HasPrefix(url, "-e"):
		url = url[len("-e"):]
	}
	url = strings.TrimSpace(url)

	// pip names the project in the URL's "#egg=" fragment
	idx := strings.Index(url, "#egg=")
	if idx < 0 {
		return Pin{}, fmt.Errorf("editable install has no #egg= name: %q", url)
	}
	eggName := url[idx+len("#egg="):]
	if amp := strings.IndexByte(eggName, '&'); amp >= 0 {
		eggName = eggName[:amp]
	}
	if eggName == "" {
		return Pin{}, fmt.Errorf("editable install has no #egg= name: %q", url)
	}
	return Pin{Name: eggName, Direct: url, Editable: true}, nil
}

func parsePlain(text string) (Pin, error) {
	if idx := strings.Index(text, " @ "); idx >= 0 {
		return Pin{
			Name:   strings.TrimSpace(text[:idx]),
			Direct: strings.TrimSpace(text[idx+len(" @ "):]),
		}, nil
	}
	idx := strings.Index(text, "==")
	if idx < 1 {
		return Pin{}, fmt.Errorf("unrecognized pip-freeze line: %q", text)
	}
	ver, err := pep440.ParseVersion(text[idx+len("=="):])
	if err != nil {
		return Pin{}, err
	}
	return Pin{
		Name:    strings.TrimSpace(text[:idx]),
		Version: *ver,
	}, nil
}
