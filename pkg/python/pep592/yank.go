// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep592 implements PEP 592 -- Adding "Yank" Support to the Simple API.
//
// https://www.python.org/dev/peps/pep-0592/
package pep592

import (
	"github.com/datawire/reqtool/pkg/python/pep440"
	"github.com/datawire/reqtool/pkg/python/pep503"
)

// IsYanked reports whether the index has yanked the file.
func IsYanked(l pep503.FileLink) bool {
	_, yanked := l.DataAttrs["data-yanked"]
	return yanked
}

// YankedReason returns the index's stated reason for yanking the file; PEP 592 allows the reason
// to be empty.
func YankedReason(l pep503.FileLink) string {
	return l.DataAttrs["data-yanked"]
}

type excludeYanked struct {
	yankedVersions map[string]bool
}

// ExcludeYanked returns an ExclusionBehavior that keeps pep440.Specifier.Select from handing out
// a version that the index has yanked.
//
// A version counts as yanked only if every one of its files is yanked; as long as one file is
// still good, the version is still installable.  Versions with no corresponding link at all are
// allowed.  Select's fall-back to excluded versions provides PEP 592's "when the only version
// that can be used is a yanked version, then it may be used".
func ExcludeYanked(links []pep503.FileLink) pep440.ExclusionBehavior {
	ret := excludeYanked{
		yankedVersions: make(map[string]bool),
	}
	for _, link := range links {
		ver, err := link.Version()
		if err != nil {
			continue
		}
		key := ver.String()
		if _, seen := ret.yankedVersions[key]; !seen {
			ret.yankedVersions[key] = true
		}
		if !IsYanked(link) {
			ret.yankedVersions[key] = false
		}
	}
	return ret
}

func (e excludeYanked) Allow(v pep440.Version) bool {
	return !e.yankedVersions[v.String()]
}
