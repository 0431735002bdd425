// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package freeze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/datawire/dlib/dexec"
)

// FromEnvironment asks a live Python environment what it has installed, by
// running `interpreter -m pip freeze`.
func FromEnvironment(ctx context.Context, interpreter string) ([]Pin, error) {
	cmd := dexec.CommandContext(ctx, interpreter, "-m", "pip", "freeze")
	cmd.DisableLogging = true
	bs, err := cmd.Output()
	if err != nil {
		var exitErr *dexec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("%w:\n > %s", err,
				strings.Join(strings.Split(string(exitErr.Stderr), "\n"), "\n > "))
		}
		return nil, fmt.Errorf("running pip freeze: %w", err)
	}
	return Parse(interpreter+" -m pip freeze", bytes.NewReader(bs))
}

// MarkerEnviron asks a live Python environment for its environment marker
// variables, suitable for pep508.Marker.Eval.  The probe is the environment
// PEP 508 itself prescribes.
func MarkerEnviron(ctx context.Context, interpreter string) (map[string]string, error) {
	cmd := dexec.CommandContext(ctx, interpreter, "-c", `
import json
import os
import platform
import sys

def format_full_version(info):
    version = '{0.major}.{0.minor}.{0.micro}'.format(info)
    kind = info.releaselevel
    if kind != 'final':
        version += kind[0] + str(info.serial)
    return version

if hasattr(sys, 'implementation'):
    implementation_version = format_full_version(sys.implementation.version)
    implementation_name = sys.implementation.name
else:
    implementation_version = '0'
    implementation_name = ''

json.dump({
    'implementation_name': implementation_name,
    'implementation_version': implementation_version,
    'os_name': os.name,
    'platform_machine': platform.machine(),
    'platform_release': platform.release(),
    'platform_system': platform.system(),
    'platform_version': platform.version(),
    'platform_python_implementation': platform.python_implementation(),
    'python_full_version': platform.python_version(),
    'python_version': '.'.join(platform.python_version_tuple()[:2]),
    'sys_platform': sys.platform,
}, sys.stdout)
`)
	cmd.DisableLogging = true
	bs, err := cmd.Output()
	if err != nil {
		var exitErr *dexec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("%w:\n > %s", err,
				strings.Join(strings.Split(string(exitErr.Stderr), "\n"), "\n > "))
		}
		return nil, fmt.Errorf("running Python: %w", err)
	}
	var env map[string]string
	if err := json.Unmarshal(bs, &env); err != nil {
		return nil, err
	}
	return env, nil
}
