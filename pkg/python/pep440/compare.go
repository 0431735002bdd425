// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// The ordering rules live here.  The relevant lines of the spec, compressed:
//
//	Within a numeric release (1.0, 2.7.3), the suffixes are ordered
//	    .devN, aN, bN, rcN, <no suffix>, .postN
//	and `c` sorts as if it were `rc`.  Shorter release segments are
//	zero-padded before comparison.  Epochs dominate everything.

// preRank orders pre-release phases below the (absent => 0) final release.
// The alternative spellings are listed so that hand-built structures that
// were never normalized still order correctly.
//
//nolint:gochecknoglobals // Would be 'const'.
var preRank = map[string]int{
	"a": -3, "alpha": -3,
	"b": -2, "beta": -2,
	"rc": -1, "c": -1, "pre": -1, "preview": -1,
}

const devOnlyRank = -4 // X.Y.devN sorts below any pre-release of X.Y

func (ver PublicVersion) prePhase() (rank, n int) {
	switch {
	case ver.Pre != nil:
		rank, ok := preRank[ver.Pre.L]
		if !ok {
			panic(fmt.Errorf("invalid pre-release string: %q", ver.Pre.L))
		}
		return rank, ver.Pre.N
	case ver.Dev != nil && ver.Post == nil:
		return devOnlyRank, 0
	default:
		return 0, 0
	}
}

func cmpEpoch(a, b PublicVersion) int {
	return a.Epoch - b.Epoch
}

func cmpRelease(a, b PublicVersion) int {
	for i := 0; i < len(a.Release) || i < len(b.Release); i++ {
		if d := a.releaseSegment(i) - b.releaseSegment(i); d != 0 {
			return d
		}
	}
	return 0
}

func cmpPrePhase(a, b PublicVersion) int {
	aRank, aN := a.prePhase()
	bRank, bN := b.prePhase()
	if aRank != bRank {
		return aRank - bRank
	}
	return aN - bN
}

func cmpPost(a, b PublicVersion) int {
	// absent sorts below .post0
	aPost, bPost := -1, -1
	if a.Post != nil {
		aPost = *a.Post
	}
	if b.Post != nil {
		bPost = *b.Post
	}
	return aPost - bPost
}

func cmpDev(a, b PublicVersion) int {
	// absent sorts above any .devN
	switch {
	case a.Dev == nil && b.Dev == nil:
		return 0
	case a.Dev == nil:
		return 1
	case b.Dev == nil:
		return -1
	default:
		return (*a.Dev) - (*b.Dev)
	}
}

// Cmp returns a number < 0 if version 'a' is less than version 'b', > 0 if
// 'a' is greater than 'b', or 0 if they are equal.  This is similar to the
// C-language strcmp.  Only the sign is defined; the magnitude may be
// anything.
func (a PublicVersion) Cmp(b PublicVersion) int {
	if d := cmpEpoch(a, b); d != 0 {
		return d
	}
	if d := cmpRelease(a, b); d != 0 {
		return d
	}
	if d := cmpPrePhase(a, b); d != 0 {
		return d
	}
	if d := cmpPost(a, b); d != 0 {
		return d
	}
	return cmpDev(a, b)
}

// Local version ordering: each dot-separated segment is compared
// separately; numeric segments compare numerically and sort above
// lexicographic ones; a version with more segments sorts above a version
// that is a strict prefix of it.

func cmpLocalSegment(a, b *intstr.IntOrString) int {
	switch {
	case a == nil && b == nil:
		panic("should not happen: cmpLocalLabel shouldn't have bothered calling this")
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch {
	case a.Type == intstr.Int && b.Type == intstr.Int:
		return int(a.IntVal - b.IntVal)
	case a.Type == intstr.String && b.Type == intstr.String:
		switch {
		case a.StrVal < b.StrVal:
			return -1
		case a.StrVal > b.StrVal:
			return 1
		default:
			return 0
		}
	case a.Type == intstr.Int && b.Type == intstr.String:
		return 1
	case a.Type == intstr.String && b.Type == intstr.Int:
		return -1
	default:
		panic("should not happen: invalid intstr.IntOrString")
	}
}

func cmpLocalLabel(a, b LocalVersion) int {
	for i := 0; i < len(a.Local) || i < len(b.Local); i++ {
		var aSeg, bSeg *intstr.IntOrString
		if i < len(a.Local) {
			aSeg = &(a.Local[i])
		}
		if i < len(b.Local) {
			bSeg = &(b.Local[i])
		}
		if d := cmpLocalSegment(aSeg, bSeg); d != 0 {
			return d
		}
	}
	return 0
}

// Cmp returns a number < 0 if version 'a' is less than version 'b', > 0 if
// 'a' is greater than 'b', or 0 if they are equal.  This is similar to the
// C-language strcmp.  Only the sign is defined; the magnitude may be
// anything.
func (a LocalVersion) Cmp(b LocalVersion) int {
	if d := a.PublicVersion.Cmp(b.PublicVersion); d != 0 {
		return d
	}
	return cmpLocalLabel(a, b)
}
