// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import "testing"

func TestMakeDirectoryFromPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: "mount", want: "mount/"},
		{name: "already slashed", in: "mount/", want: "mount/"},
		{name: "empty", in: "", want: "/"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := MakeDirectoryFromPath(tc.in); got != tc.want {
				t.Fatalf("MakeDirectoryFromPath(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPakPathCombine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		parent string
		child  string
		want   string
	}{
		{name: "root parent", parent: "/", child: "foo/bar.txt", want: "foo/bar.txt"},
		{name: "root child", parent: "/a/b/", child: "/", want: "/a/b/"},
		{name: "normal", parent: "/a/b/", child: "c.txt", want: "/a/b/c.txt"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PakPathCombine(tc.parent, tc.child); got != tc.want {
				t.Fatalf("PakPathCombine(%q,%q)=%q, want %q", tc.parent, tc.child, got, tc.want)
			}
		})
	}
}

func TestSplitPathInline(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		in         string
		wantParent string
		wantLeaf   string
		wantOK     bool
	}{
		{name: "root", in: "/", wantParent: "", wantLeaf: "", wantOK: false},
		{name: "empty", in: "", wantParent: "", wantLeaf: "", wantOK: false},
		{name: "bare leaf", in: "/config.cpp", wantParent: "/", wantLeaf: "config.cpp", wantOK: true},
		{name: "nested", in: "/a/b/c.txt", wantParent: "/a/b/", wantLeaf: "c.txt", wantOK: true},
		{name: "directory with trailing slash", in: "/a/b/", wantParent: "/a/", wantLeaf: "b", wantOK: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			parent, leaf, ok := SplitPathInline(tc.in)
			if parent != tc.wantParent || leaf != tc.wantLeaf || ok != tc.wantOK {
				t.Fatalf("SplitPathInline(%q)=(%q,%q,%v), want (%q,%q,%v)",
					tc.in, parent, leaf, ok, tc.wantParent, tc.wantLeaf, tc.wantOK)
			}
		})
	}
}

// TestSplitPathInlineParentClosure checks that repeatedly splitting a
// directory's own parent eventually reaches the root sentinel, the
// invariant the pruner's ancestor-closure loop relies on.
func TestSplitPathInlineParentClosure(t *testing.T) {
	t.Parallel()

	dir := "/a/b/c/"
	var visited []string
	for {
		parent, _, ok := SplitPathInline(dir[:len(dir)-1])
		if !ok {
			break
		}
		visited = append(visited, parent)
		if len(visited) > 10 {
			t.Fatalf("parent closure did not terminate, visited=%v", visited)
		}
		dir = parent
	}

	want := []string{"/a/b/", "/a/", "/"}
	if len(visited) != len(want) {
		t.Fatalf("visited=%v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited=%v, want %v", visited, want)
		}
	}
}
