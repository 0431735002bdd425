// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package reqfile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/datawire/dlib/dlog"
)

// LoadTree parses the named requirements file and, recursively, every file
// that it includes with "-r"/"--requirement" or "-c"/"--constraint".
// Include paths are resolved relative to the file that names them.  Each
// file is loaded once, so include cycles are safe; the returned includes
// are in depth-first order.
func LoadTree(ctx context.Context, filename string) (*File, []*File, error) {
	seen := make(map[string]bool)
	return loadTree(ctx, seen, filename)
}

func loadTree(ctx context.Context, seen map[string]bool, filename string) (*File, []*File, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, nil, err
	}
	if seen[abs] {
		dlog.Debugf(ctx, "already loaded %q, skipping", filename)
		return nil, nil, nil
	}
	seen[abs] = true

	dlog.Infof(ctx, "loading %q", filename)
	file, err := ParseFile(filename)
	if err != nil {
		return nil, nil, err
	}

	var included []*File
	for _, include := range file.Includes() {
		target := include
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(filename), target)
		}
		sub, subIncluded, err := loadTree(ctx, seen, target)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", file.Name, err)
		}
		if sub != nil {
			included = append(included, sub)
			included = append(included, subIncluded...)
		}
	}
	return file, included, nil
}
