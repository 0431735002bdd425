package pep508_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/reqtool/pkg/python/pep508"
)

func TestParseMarker(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		InStr  string
		OutStr string // canonical String(); "" means expect OutErr
		OutErr string
	}{
		"simple": {
			InStr:  `python_version >= '3.6'`,
			OutStr: `python_version >= "3.6"`,
		},
		"alias": {
			InStr:  `os.name == 'posix'`,
			OutStr: `os_name == "posix"`,
		},
		"precedence": {
			InStr:  `extra == "x" or os_name == "nt" and sys_platform == "win32"`,
			OutStr: `extra == "x" or os_name == "nt" and sys_platform == "win32"`,
		},
		"parens": {
			InStr:  `(extra == "x" or os_name == "nt") and sys_platform == "win32"`,
			OutStr: `(extra == "x" or os_name == "nt") and sys_platform == "win32"`,
		},
		"redundant-parens": {
			InStr:  `((python_version < "3"))`,
			OutStr: `python_version < "3"`,
		},
		"in": {
			InStr:  `"linux" in sys_platform`,
			OutStr: `"linux" in sys_platform`,
		},
		"not-in": {
			InStr:  `platform_machine not in "x86_64 amd64"`,
			OutStr: `platform_machine not in "x86_64 amd64"`,
		},
		"unknown-var": {
			InStr:  `favorite_color == "blue"`,
			OutErr: `pep508.ParseMarker: unknown environment marker variable: "favorite_color"`,
		},
		"unterminated": {
			InStr:  `os_name == "posix`,
			OutErr: `pep508.ParseMarker: unterminated string: "posix`,
		},
		"bad-op": {
			InStr:  `os_name =!= "posix"`,
			OutErr: `pep508.ParseMarker: invalid operator: "=!="`,
		},
		"missing-rparen": {
			InStr:  `(os_name == "posix"`,
			OutErr: `pep508.ParseMarker: expected ")", got ""`,
		},
		"dangling": {
			InStr:  `os_name == "posix" and`,
			OutErr: `pep508.ParseMarker: expected a variable or quoted string, got ""`,
		},
		"trailing": {
			InStr:  `os_name == "posix" os_name`,
			OutErr: `pep508.ParseMarker: unexpected "os_name"`,
		},
		"not-without-in": {
			InStr:  `os_name not like "posix"`,
			OutErr: `pep508.ParseMarker: expected "in" after "not", got "like"`,
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			marker, err := pep508.ParseMarker(tc.InStr)
			if tc.OutErr != "" {
				assert.Nil(t, marker)
				assert.EqualError(t, err, tc.OutErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.OutStr, marker.String())

			// canonical spelling must round-trip
			marker2, err := pep508.ParseMarker(marker.String())
			require.NoError(t, err)
			assert.Equal(t, marker.String(), marker2.String())
		})
	}
}

func TestMarkerEval(t *testing.T) {
	t.Parallel()
	// mimics a CPython 3.7.9 on Linux
	env := map[string]string{
		"os_name":                        "posix",
		"sys_platform":                   "linux",
		"platform_machine":               "x86_64",
		"platform_python_implementation": "CPython",
		"platform_release":               "5.10.0",
		"platform_system":                "Linux",
		"platform_version":               "#1 SMP Debian",
		"python_version":                 "3.7",
		"python_full_version":            "3.7.9",
		"implementation_name":            "cpython",
		"implementation_version":         "3.7.9",
		"extra":                          "",
	}
	testcases := map[string]struct {
		InStr  string
		OutVal bool
		OutErr string
	}{
		"version-ge":  {InStr: `python_version >= "3.6"`, OutVal: true},
		"version-lt":  {InStr: `python_version < "3.6"`, OutVal: false},
		"version-eq":  {InStr: `python_version == "3.7"`, OutVal: true},
		"version-pad": {InStr: `python_full_version == "3.7.9.0"`, OutVal: true},

		// "3.7.9" < "3.7.10" is false as strings; PEP 440 semantics must win
		"not-stringly": {InStr: `python_full_version < "3.7.10"`, OutVal: true},

		// "#1 SMP Debian" is nothing like a version; Python string semantics apply
		"stringly": {InStr: `platform_version < "$"`, OutVal: true},

		"in":     {InStr: `"linux" in sys_platform`, OutVal: true},
		"not-in": {InStr: `platform_machine not in "arm64 aarch64"`, OutVal: true},

		"and":   {InStr: `os_name == "posix" and sys_platform == "linux"`, OutVal: true},
		"or":    {InStr: `os_name == "nt" or sys_platform == "linux"`, OutVal: true},
		"both":  {InStr: `extra == "x" or os_name == "posix" and sys_platform == "linux"`, OutVal: true},
		"group": {InStr: `(extra == "x" or os_name == "posix") and sys_platform == "win32"`, OutVal: false},

		"extra-empty": {InStr: `extra == ""`, OutVal: true},

		"undefined-cmp": {
			InStr:  `os_name ~= "posix"`,
			OutErr: `undefined comparison os_name ~= "posix"`,
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			marker, err := pep508.ParseMarker(tc.InStr)
			require.NoError(t, err)
			got, err := marker.Eval(env)
			if tc.OutErr != "" {
				assert.EqualError(t, err, tc.OutErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.OutVal, got)
		})
	}
}

func TestMarkerEvalUndefinedVariable(t *testing.T) {
	t.Parallel()
	marker, err := pep508.ParseMarker(`extra == "socks"`)
	require.NoError(t, err)
	_, err = marker.Eval(map[string]string{"os_name": "posix"})
	assert.EqualError(t, err, `undefined environment variable in marker: "extra"`)
}
