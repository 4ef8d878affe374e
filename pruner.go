// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// Pruner collapses a full directory index into a pruned subset driven by
// wildcard keep policy (§4.5), reusing the same allow-list matcher idiom
// the archive producer side uses for its own compression rules.
type Pruner struct {
	fileMatcher *pathrules.Matcher
	dirMatcher  *pathrules.Matcher
	empty       bool
}

// NewPruner compiles the keep-file and keep-directory wildcard lists. An
// empty pair of lists is valid and produces a Pruner that erases the
// directory index entirely, per §4.5 rule 5.
func NewPruner(keepFiles, keepDirs []string, opts pathrules.MatcherOptions) (*Pruner, error) {
	p := &Pruner{empty: len(keepFiles) == 0 && len(keepDirs) == 0}

	if len(keepFiles) > 0 {
		m, err := pathrules.NewMatcher(toKeepRules(keepFiles), opts)
		if err != nil {
			return nil, fmt.Errorf("pak: compile file keep rules: %w", err)
		}
		p.fileMatcher = m
	}
	if len(keepDirs) > 0 {
		m, err := pathrules.NewMatcher(toKeepRules(keepDirs), opts)
		if err != nil {
			return nil, fmt.Errorf("pak: compile directory keep rules: %w", err)
		}
		p.dirMatcher = m
	}

	return p, nil
}

func toKeepRules(patterns []string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: p})
	}
	return rules
}

// joinMountRelative joins a directory-form mount point (trailing "/")
// with an already-rooted relative path (leading "/"), collapsing the
// duplicated separator rather than producing "//" the way a bare
// PakPathCombine of the two would.
func joinMountRelative(mount, relative string) string {
	return mount + strings.TrimPrefix(relative, "/")
}

func (p *Pruner) matchesFile(path string) bool {
	return p.fileMatcher != nil && p.fileMatcher.Included(path, false)
}

func (p *Pruner) matchesDir(path string) bool {
	return p.dirMatcher != nil && p.dirMatcher.Included(path, false)
}

// Prune walks the full index rooted at mount and returns the pruned
// directory map (and, when tree is non-nil, its tree mirror). It is
// idempotent: running it again over its own output yields the same
// result, since every kept path still matches its own keep rule and every
// ancestor is still present.
func (p *Pruner) Prune(mount string, full directoryLister, tree *DirectoryTreeIndex) (DirectoryIndex, *DirectoryTreeIndex, error) {
	if p.empty {
		if tree != nil {
			return DirectoryIndex{}, NewDirectoryTreeIndex(), nil
		}
		return DirectoryIndex{}, nil, nil
	}

	kept := make(map[string]PakDirectory)

	for _, dir := range full.Directories() {
		files, _ := full.DirectoryAt(dir)
		keptFiles := PakDirectory{}
		for leaf, loc := range files {
			fullPath := joinMountRelative(mount, PakPathCombine(dir, leaf))
			if p.matchesFile(fullPath) {
				keptFiles[leaf] = loc
			}
		}

		dirFullPath := joinMountRelative(mount, dir)
		if len(keptFiles) > 0 || p.matchesDir(dirFullPath) {
			kept[dir] = keptFiles
		}
	}

	// Parent-chain closure: every kept directory's ancestors up to (but
	// not including) the mount point must also be present.
	for dir := range kept {
		ancestor := dir
		for {
			parent, _, ok := SplitPathInline(strings.TrimSuffix(ancestor, "/"))
			if !ok || parent == "/" {
				break
			}
			if _, exists := kept[parent]; !exists {
				kept[parent] = PakDirectory{}
			}
			ancestor = parent
		}
	}

	prunedMap := DirectoryIndex(kept)

	if tree == nil {
		return prunedMap, nil, nil
	}

	prunedTree := NewDirectoryTreeIndex()
	for dir, files := range kept {
		prunedTree.EnsureDirectory(dir)
		for leaf, loc := range files {
			prunedTree.Insert(dir, leaf, loc)
		}
	}
	prunedTree.Commit()

	return prunedMap, prunedTree, nil
}

// Validate cross-checks a pruned index against the full index (§4.4
// "validatePruning"), skipping paths matched by any ignore wildcard.
// It returns every mismatch found; an empty slice means the pruned index
// is a sound subset.
func (p *Pruner) Validate(mount string, full directoryLister, pruned DirectoryIndex, ignore *pathrules.Matcher) []string {
	var mismatches []string
	for dir, files := range pruned {
		fullFiles, ok := full.DirectoryAt(dir)
		if !ok {
			mismatches = append(mismatches, dir)
			continue
		}
		for leaf, loc := range files {
			fullPath := joinMountRelative(mount, PakPathCombine(dir, leaf))
			if ignore != nil && ignore.Included(fullPath, false) {
				continue
			}
			if other, ok := fullFiles[leaf]; !ok || other != loc {
				mismatches = append(mismatches, fullPath)
			}
		}
	}
	return mismatches
}
