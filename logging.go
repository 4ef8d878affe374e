// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger is the structured logger interface the core writes the two §7
// diagnostic sites through: fatal corruption (filename, declared vs.
// computed hashes, offsets, sizes) and non-fatal pruning/validation
// mismatches. Callers may pass their own hclog.Logger; nil disables
// logging entirely via a discard logger.
type Logger = hclog.Logger

// NewLogger builds a standard hclog.Logger. level may be empty, which
// defaults to "warn"; output defaults to os.Stderr.
func NewLogger(name string, level string, output io.Writer) Logger {
	if output == nil {
		output = os.Stderr
	}
	if level == "" {
		level = "warn"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(level),
		Output: output,
	})
}
