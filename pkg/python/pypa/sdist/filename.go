// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package sdist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datawire/reqtool/pkg/python/pep440"
)

type FileNameData struct {
	Distribution string
	Version      pep440.Version
}

// FileExtensions are the archive extensions that have historically been used for sdists, in spite
// of ``.tar.gz`` being the only one that current tools are permitted to produce.
//
//nolint:gochecknoglobals // Would be 'const'.
var FileExtensions = []string{
	".tar.gz",
	".tgz",
	".tar.bz2",
	".tar.xz",
	".tar",
	".zip",
}

func ParseFilename(filename string) (*FileNameData, error) {
	stem := ""
	for _, ext := range FileExtensions {
		if strings.HasSuffix(filename, ext) {
			stem = strings.TrimSuffix(filename, ext)
			break
		}
	}
	if stem == "" {
		return nil, fmt.Errorf("invalid sdist filename: %q", filename)
	}

	// Old tools did not escape dashes in the distribution name, so the name/version split is
	// ambiguous; take the left-most dash that is followed by a valid version, so that
	// "python-dateutil-2.8.2" splits at the second dash but "foo-1.0-1" parses the "1.0-1" as
	// an (unnormalized) version rather than eating the "-1".
	for i := 0; i < len(stem); i++ {
		if stem[i] != '-' {
			continue
		}
		ver, err := pep440.ParseVersion(stem[i+1:])
		if err != nil {
			continue
		}
		return &FileNameData{
			Distribution: stem[:i],
			Version:      *ver,
		}, nil
	}
	return nil, fmt.Errorf("invalid sdist filename: %q", filename)
}

func GenerateFilename(data FileNameData) (string, error) {
	// The distribution name gets the same escaping as in wheel filenames: PEP 503
	// normalisation, followed by replacing ``-`` with ``_``.
	name := regexp.MustCompile("[-_.]+").ReplaceAllLiteralString(strings.ToLower(data.Distribution), "_")
	ver, err := data.Version.Normalize()
	if err != nil {
		return "", err
	}
	return name + "-" + ver.String() + ".tar.gz", nil
}
