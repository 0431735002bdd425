// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package reqfile

import (
	"sort"

	"github.com/datawire/reqtool/pkg/python/pep503"
)

// A DiffEntry is one requirement's before-and-after in a Report.  Old and
// New are canonical spellings (per Requirement.String, with a leading "# "
// when the line is disabled), or empty when the requirement is absent from
// that side.
type DiffEntry struct {
	Name string `json:"name" yaml:"name"`
	Old  string `json:"old,omitempty" yaml:"old,omitempty"`
	New  string `json:"new,omitempty" yaml:"new,omitempty"`
}

// A Report is the result of comparing two requirements files.
type Report struct {
	Added   []DiffEntry `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []DiffEntry `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed []DiffEntry `json:"changed,omitempty" yaml:"changed,omitempty"`
}

func (r Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Diff compares two requirements files as sets keyed by PEP 503 normalized
// name, each list sorted by name.  A requirement counts as Changed when its
// constraint, its comment, or its enabled/disabled state differs.  Nothing
// is resolved or installed; this is pure reporting.
func Diff(oldFile, newFile *File) Report {
	oldReqs := spellings(oldFile)
	newReqs := spellings(newFile)

	var ret Report
	for name, oldSpelling := range oldReqs {
		newSpelling, stillThere := newReqs[name]
		switch {
		case !stillThere:
			ret.Removed = append(ret.Removed, DiffEntry{Name: name, Old: oldSpelling})
		case oldSpelling != newSpelling:
			ret.Changed = append(ret.Changed, DiffEntry{
				Name: name,
				Old:  oldSpelling,
				New:  newSpelling,
			})
		}
	}
	for name, newSpelling := range newReqs {
		if _, wasThere := oldReqs[name]; !wasThere {
			ret.Added = append(ret.Added, DiffEntry{Name: name, New: newSpelling})
		}
	}
	sortEntries(ret.Added)
	sortEntries(ret.Removed)
	sortEntries(ret.Changed)
	return ret
}

func sortEntries(entries []DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}

// spellings indexes a file's requirements by normalized name.  When a name
// appears more than once, the first active occurrence wins; a disabled
// occurrence is used only if the name has no active line at all.
func spellings(f *File) map[string]string {
	active := make(map[string]string)
	disabled := make(map[string]string)
	for _, line := range f.Lines {
		if line.Requirement == nil {
			continue
		}
		norm := pep503.NormalizeName(line.Requirement.Dependency.Name)
		switch line.Kind {
		case KindRequirement:
			if _, seen := active[norm]; !seen {
				active[norm] = line.Requirement.String()
			}
		case KindDisabled:
			if _, seen := disabled[norm]; !seen {
				disabled[norm] = "# " + line.Requirement.String()
			}
		}
	}
	for norm, spelling := range disabled {
		if _, seen := active[norm]; !seen {
			active[norm] = spelling
		}
	}
	return active
}
