// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"github.com/hashicorp/go-hclog"
	"github.com/woozymasta/pathrules"
)

// Config reifies the per-archive global state the archive-producer side
// keeps as a settings singleton: the index-retention policy, pruning
// wildcards, and validation toggles (Design Notes "per-archive global
// state"). It is constructed once by the caller from its own config
// collaborator and passed by value to NewPakFile.
type Config struct {
	// KeepFullDirectory loads the full directory index blob even when the
	// archive also carries a path-hash index. Without it (and without
	// ValidatePruning or DelayPruning) only the path-hash blob is read.
	KeepFullDirectory bool
	// ValidatePruning cross-checks the pruned index against the full one
	// after pruning and logs any mismatch.
	ValidatePruning bool
	// DelayPruning defers pruning until an explicit PrunePostMount call.
	DelayPruning bool
	// EnableDirectoryTree also builds the radix-tree mirror of the
	// directory index.
	EnableDirectoryTree bool

	// DirectoryIndexKeepFiles are file-path wildcards kept by the pruner.
	DirectoryIndexKeepFiles []string
	// DirectoryIndexKeepEmptyDirectories are directory-path wildcards kept
	// even when they contain no kept files.
	DirectoryIndexKeepEmptyDirectories []string
	// IndexValidationIgnore are wildcards excluded from the pruning
	// cross-check comparison.
	IndexValidationIgnore []string

	// MatcherOptions controls how the above wildcard lists are compiled.
	MatcherOptions pathrules.MatcherOptions

	// MaxRetriesOnHashMismatch bounds the transient-hash-mismatch reread
	// discipline §4.4 requires; zero means the default of one retry.
	MaxRetriesOnHashMismatch int

	// ReaderPoolIdleTimeoutSeconds is an idle timeout for pooled readers;
	// zero means the default. applyDefaults fills it, but nothing in this
	// package reads it: ReleaseOldReaders takes its age limit as an
	// argument.
	ReaderPoolIdleTimeoutSeconds int64

	Logger Logger
}

// DefaultMaxRetriesOnHashMismatch is the retry count applied when
// Config.MaxRetriesOnHashMismatch is zero.
const DefaultMaxRetriesOnHashMismatch = 1

// DefaultReaderPoolIdleTimeoutSeconds is the idle timeout applied when
// Config.ReaderPoolIdleTimeoutSeconds is zero.
const DefaultReaderPoolIdleTimeoutSeconds = 300

// applyDefaults fills zero-valued config fields with defaults.
func (c *Config) applyDefaults() {
	if c.MaxRetriesOnHashMismatch == 0 {
		c.MaxRetriesOnHashMismatch = DefaultMaxRetriesOnHashMismatch
	}
	if c.ReaderPoolIdleTimeoutSeconds == 0 {
		c.ReaderPoolIdleTimeoutSeconds = DefaultReaderPoolIdleTimeoutSeconds
	}
	if c.MatcherOptions == (pathrules.MatcherOptions{}) {
		c.MatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
}

// backendKind resolves the IndexBackendKind this config implies.
func (c *Config) backendKind() IndexBackendKind {
	switch {
	case c.EnableDirectoryTree && c.KeepFullDirectory:
		return BackendBoth
	case c.EnableDirectoryTree:
		return BackendTree
	default:
		return BackendMap
	}
}
