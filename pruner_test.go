// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"testing"

	"github.com/woozymasta/pathrules"
)

func defaultMatcherOpts() pathrules.MatcherOptions {
	return pathrules.MatcherOptions{CaseInsensitive: true, DefaultAction: pathrules.ActionExclude}
}

func sampleFullIndex() DirectoryIndex {
	return DirectoryIndex{
		"/":            PakDirectory{},
		"/scripts/":    PakDirectory{"a.cpp": EncodedOffsetLocation(0), "b.cpp": EncodedOffsetLocation(8)},
		"/scripts/fx/": PakDirectory{"glow.paa": EncodedOffsetLocation(16)},
		"/sounds/":     PakDirectory{"shot.ogg": EncodedOffsetLocation(24)},
	}
}

func TestPrunerKeepsMatchedFiles(t *testing.T) {
	t.Parallel()

	p, err := NewPruner([]string{"*.cpp"}, nil, defaultMatcherOpts())
	if err != nil {
		t.Fatalf("NewPruner: %v", err)
	}

	pruned, _, err := p.Prune("/mod/", sampleFullIndex(), nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}

	files, ok := pruned["/scripts/"]
	if !ok {
		t.Fatalf("expected /scripts/ to survive pruning, got %v", pruned)
	}
	if _, ok := files["a.cpp"]; !ok {
		t.Fatalf("expected a.cpp to survive pruning")
	}
	if _, ok := pruned["/sounds/"]; ok {
		t.Fatalf("expected /sounds/ to be pruned away entirely")
	}
}

// TestPrunerParentClosure checks §4.5's requirement that a kept
// directory's ancestors remain present even when they carry no kept
// files of their own.
func TestPrunerParentClosure(t *testing.T) {
	t.Parallel()

	p, err := NewPruner([]string{"*.paa"}, nil, defaultMatcherOpts())
	if err != nil {
		t.Fatalf("NewPruner: %v", err)
	}

	pruned, _, err := p.Prune("/mod/", sampleFullIndex(), nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if _, ok := pruned["/scripts/fx/"]; !ok {
		t.Fatalf("expected /scripts/fx/ (holds the kept .paa) to survive")
	}
	if _, ok := pruned["/scripts/"]; !ok {
		t.Fatalf("expected ancestor /scripts/ to survive via parent closure, got %v", pruned)
	}
}

// TestPrunerIdempotent checks that pruning an already-pruned index
// reproduces the same result (§8 property 5).
func TestPrunerIdempotent(t *testing.T) {
	t.Parallel()

	p, err := NewPruner([]string{"*.cpp"}, []string{"/sounds/*"}, defaultMatcherOpts())
	if err != nil {
		t.Fatalf("NewPruner: %v", err)
	}

	full := sampleFullIndex()
	first, _, err := p.Prune("/mod/", full, nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	second, _, err := p.Prune("/mod/", first, nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("non-idempotent: first=%v second=%v", first, second)
	}
	for dir, files := range first {
		otherFiles, ok := second[dir]
		if !ok {
			t.Fatalf("directory %q dropped on second pass", dir)
		}
		if len(files) != len(otherFiles) {
			t.Fatalf("directory %q changed size: %v vs %v", dir, files, otherFiles)
		}
	}
}

// TestPrunerEmptyRulesErasesIndex exercises §4.5 rule 5: with no keep
// wildcards configured at all, the pruned index is empty.
func TestPrunerEmptyRulesErasesIndex(t *testing.T) {
	t.Parallel()

	p, err := NewPruner(nil, nil, defaultMatcherOpts())
	if err != nil {
		t.Fatalf("NewPruner: %v", err)
	}

	pruned, _, err := p.Prune("/mod/", sampleFullIndex(), nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(pruned) != 0 {
		t.Fatalf("expected empty pruned index, got %v", pruned)
	}
}

// TestPrunerValidateSoundness checks Validate reports no mismatches for a
// pruned index legitimately derived from full via Prune (§8 property 4).
func TestPrunerValidateSoundness(t *testing.T) {
	t.Parallel()

	p, err := NewPruner([]string{"*.cpp"}, nil, defaultMatcherOpts())
	if err != nil {
		t.Fatalf("NewPruner: %v", err)
	}

	full := sampleFullIndex()
	pruned, _, err := p.Prune("/mod/", full, nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}

	mismatches := p.Validate("/mod/", full, pruned, nil)
	if len(mismatches) != 0 {
		t.Fatalf("expected sound pruned index, got mismatches: %v", mismatches)
	}
}

func TestPrunerValidateDetectsTampering(t *testing.T) {
	t.Parallel()

	p, err := NewPruner([]string{"*.cpp"}, nil, defaultMatcherOpts())
	if err != nil {
		t.Fatalf("NewPruner: %v", err)
	}

	full := sampleFullIndex()
	pruned, _, err := p.Prune("/mod/", full, nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	pruned["/scripts/"]["a.cpp"] = EncodedOffsetLocation(999) // diverge from full

	mismatches := p.Validate("/mod/", full, pruned, nil)
	if len(mismatches) == 0 {
		t.Fatalf("expected Validate to catch the tampered location")
	}
}
