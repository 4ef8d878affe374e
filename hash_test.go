// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"strconv"
	"testing"
)

func TestHashPathDeterministic(t *testing.T) {
	t.Parallel()

	const seed uint64 = 0x1234
	a := HashPath("metricz/scripts/5_Mission/config.cpp", seed, FormatFnv64BugFix)
	b := HashPath("metricz/scripts/5_Mission/config.cpp", seed, FormatFnv64BugFix)
	if a != b {
		t.Fatalf("HashPath is not deterministic: %d != %d", a, b)
	}
}

func TestHashPathCaseInsensitive(t *testing.T) {
	t.Parallel()

	const seed uint64 = 42
	lower := HashPath("a/b/c.txt", seed, FormatFnv64BugFix)
	upper := HashPath("A/B/C.TXT", seed, FormatFnv64BugFix)
	if lower != upper {
		t.Fatalf("HashPath should fold case: %d != %d", lower, upper)
	}
}

func TestHashPathSeedChangesHash(t *testing.T) {
	t.Parallel()

	a := HashPath("a/b/c.txt", 1, FormatFnv64BugFix)
	b := HashPath("a/b/c.txt", 2, FormatFnv64BugFix)
	if a == b {
		t.Fatalf("HashPath should vary with seed, both produced %d", a)
	}
}

// TestHashPathLegacyVariantDiffers checks that the pre-bugfix constant
// swap actually changes the result for at least one representative path;
// otherwise the "legacy" branch would be dead code.
func TestHashPathLegacyVariantDiffers(t *testing.T) {
	t.Parallel()

	modern := HashPath("a/b/c.txt", 7, FormatFnv64BugFix)
	legacy := HashPath("a/b/c.txt", 7, FormatPathHashIndex)
	if modern == legacy {
		t.Fatalf("expected legacy and modern FNV constant orderings to diverge, both gave %d", modern)
	}
}

// TestHashPathInjectivitySample is a coarse collision sanity check over a
// modest sample of distinct paths: with seed and version held constant,
// distinct relative paths should hash to distinct values overwhelmingly
// often. This is not a proof of injectivity, just a regression guard for
// an accidental constant-folding bug in fnv64.
func TestHashPathInjectivitySample(t *testing.T) {
	t.Parallel()

	const seed uint64 = 99
	seen := make(map[uint64]string)
	for i := 0; i < 2000; i++ {
		path := sampleDistinctPath(i)
		h := HashPath(path, seed, FormatFnv64BugFix)
		if prev, ok := seen[h]; ok && prev != path {
			t.Fatalf("collision between %q and %q at hash %d", prev, path, h)
		}
		seen[h] = path
	}
}

func sampleDistinctPath(i int) string {
	dirs := []string{"a", "bb", "ccc", "dddd"}
	dir := dirs[i%len(dirs)]
	return dir + "/file" + strconv.Itoa(i) + ".txt"
}
