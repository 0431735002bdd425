// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package freeze

import (
	"fmt"

	"github.com/datawire/reqtool/pkg/python/pep503"
	"github.com/datawire/reqtool/pkg/python/reqfile"
)

// A Status classifies one requirement against a pin list.
type Status int

const (
	// Satisfied means a pin exists and matches the requirement's
	// specifier.
	Satisfied Status = iota
	// Violated means a pin exists but fails the specifier.
	Violated
	// Missing means no pin exists for the requirement.
	Missing
)

func (s Status) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case Violated:
		return "violated"
	case Missing:
		return "missing"
	default:
		return "invalid"
	}
}

// A Result pairs a requirement with the pin (if any) that does or does not
// satisfy it.
type Result struct {
	Requirement reqfile.Requirement
	Pin         *Pin // nil when Status is Missing
	Status      Status
}

// A CheckReport is the result of verifying a pin list against a manifest.
type CheckReport struct {
	Results []Result
	Extra   []Pin // installed but not in the manifest
}

// OK reports whether every requirement checked out.  Extra pins are
// informational and do not count against it.
func (r CheckReport) OK() bool {
	for _, result := range r.Results {
		if result.Status != Satisfied {
			return false
		}
	}
	return true
}

// Check verifies a pin list (what is installed) against a manifest's
// requirements (what ought to be).  It never installs anything.
//
// Names are compared in normalized form.  A direct or editable pin has no
// version to compare, so it satisfies any specifier; so does any pin when
// the requirement has no specifier at all.
func Check(reqs []reqfile.Requirement, pins []Pin) CheckReport {
	byName := make(map[string]*Pin, len(pins))
	for i := range pins {
		norm := pep503.NormalizeName(pins[i].Name)
		if _, seen := byName[norm]; !seen {
			byName[norm] = &pins[i]
		}
	}

	var ret CheckReport
	listed := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		listed[pep503.NormalizeName(req.Dependency.Name)] = true
		result := Result{
			Requirement: req,
			Pin:         byName[pep503.NormalizeName(req.Dependency.Name)],
		}
		switch {
		case result.Pin == nil:
			result.Status = Missing
		case result.Pin.Direct != "" || req.Dependency.Specifier == nil:
			result.Status = Satisfied
		case req.Dependency.Specifier.Match(result.Pin.Version):
			result.Status = Satisfied
		default:
			result.Status = Violated
		}
		ret.Results = append(ret.Results, result)
	}

	for i := range pins {
		if !listed[pep503.NormalizeName(pins[i].Name)] {
			ret.Extra = append(ret.Extra, pins[i])
		}
	}
	return ret
}

// Applicable filters a requirement list down to the requirements whose
// environment markers hold in the given environment (per
// pep508.Marker.Eval).  Requirements without a marker always apply, and a
// nil env skips marker evaluation entirely.
//
// pip defines "extra" as the empty string when it is not otherwise set, so
// Applicable does too.
func Applicable(reqs []reqfile.Requirement, env map[string]string) ([]reqfile.Requirement, error) {
	if env == nil {
		return reqs, nil
	}
	if _, ok := env["extra"]; !ok {
		withExtra := make(map[string]string, len(env)+1)
		for key, val := range env {
			withExtra[key] = val
		}
		withExtra["extra"] = ""
		env = withExtra
	}

	ret := make([]reqfile.Requirement, 0, len(reqs))
	for _, req := range reqs {
		if req.Dependency.Marker != nil {
			applies, err := req.Dependency.Marker.Eval(env)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", req.Dependency.Name, err)
			}
			if !applies {
				continue
			}
		}
		ret = append(ret, req)
	}
	return ret, nil
}
