package testutil

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/datawire/reqtool/pkg/python/reqfile"
)

//nolint:gochecknoglobals // Would be 'const'.
var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

func unifiedDiff(expStr, actStr string) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expStr),
		B:        difflib.SplitLines(actStr),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	return diff
}

// AssertEqualFiles asserts that two requirements files are equal, both as
// text and as parsed structures.
func AssertEqualFiles(t *testing.T, exp, act *reqfile.File) bool {
	t.Helper()

	// First just compare the text, in order to "fail fast" and give more readable output.
	expStr := exp.String()
	actStr := act.String()
	if expStr != actStr {
		t.Errorf("Text diff:\n%s", unifiedDiff(expStr, actStr))
		return false
	}

	// OK, that passed, now compare the parsed structures, which can disagree even when the
	// text agrees: line numbers, parse errors, what got recognized as a requirement.
	expStr = spewConfig.Sdump(exp.Lines)
	actStr = spewConfig.Sdump(act.Lines)
	if expStr != actStr {
		t.Errorf("Structure diff:\n%s", unifiedDiff(expStr, actStr))
		return false
	}

	return true
}
