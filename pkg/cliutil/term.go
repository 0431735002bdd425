// Copyright (C) 2020  Ambassador Labs (for Telepresence)
// Copyright (C) 2022  Ambassador Labs (for reqtool)
//
// SPDX-License-Identifier: Apache-2.0
//
// Based on
// https://github.com/telepresenceio/telepresence/blob/b6dfa04ff014915b47386191cc3d8b1352522fea/pkg/client/cli/command_group.go#L35-L63

package cliutil

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// GetTerminalWidth returns the width of the terminal that you should wrap text to.
//
// This is based on what Docker does (github.com/docker/cli/cli/cobra.go), with a few corrections.
func GetTerminalWidth() int {
	// Obey COLUMNS if the shell or the user set it.  (Docker doesn't.)
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
		return cols
	}

	// Ask the OS how wide stdout is.  (Docker asks about stdin, not stdout.)
	stdout := int(os.Stdout.Fd())
	if cols, _, err := term.GetSize(stdout); err == nil {
		return cols
	}

	// Stdout is a terminal, but we couldn't get its size; assume the traditional 80.
	if term.IsTerminal(stdout) {
		return 80
	}

	// Stdout isn't a terminal; return 0, meaning "don't wrap".  (Docker wraps anyway.)
	return 0
}
