// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

// IndexBackendKind selects which directory-index representation(s) an
// IndexBackend maintains, per Design Notes' "dual polymorphic indexes"
// guidance: a tagged variant rather than runtime interface dispatch.
type IndexBackendKind uint8

const (
	BackendMap  IndexBackendKind = iota // plain DirectoryIndex only
	BackendTree                         // DirectoryTreeIndex only
	BackendBoth                         // both, kept equivalent
)

// IndexBackend wraps one or both directory-index representations behind a
// single insertion/lookup surface, so callers never branch on which
// representation is active.
type IndexBackend struct {
	Kind IndexBackendKind
	Map  DirectoryIndex
	Tree *DirectoryTreeIndex
}

// NewIndexBackend constructs an empty backend of the requested kind.
func NewIndexBackend(kind IndexBackendKind) IndexBackend {
	b := IndexBackend{Kind: kind}
	if kind != BackendTree {
		b.Map = DirectoryIndex{}
	}
	if kind != BackendMap {
		b.Tree = NewDirectoryTreeIndex()
	}
	return b
}

// EnsureDirectory makes dir exist (with an empty PakDirectory) in every
// representation this backend maintains.
func (b *IndexBackend) EnsureDirectory(dir string) {
	if b.Map != nil {
		if _, ok := b.Map[dir]; !ok {
			b.Map[dir] = PakDirectory{}
		}
	}
	if b.Tree != nil {
		b.Tree.EnsureDirectory(dir)
	}
}

// Insert records loc under dir/leaf in every representation this backend
// maintains.
func (b *IndexBackend) Insert(dir, leaf string, loc EntryLocation) {
	if b.Map != nil {
		d, ok := b.Map[dir]
		if !ok {
			d = PakDirectory{}
			b.Map[dir] = d
		}
		d[leaf] = loc
	}
	if b.Tree != nil {
		b.Tree.Insert(dir, leaf, loc)
	}
}

// Commit finalizes the tree representation's pending transaction, a no-op
// when only the map representation is active.
func (b *IndexBackend) Commit() {
	if b.Tree != nil {
		b.Tree.Commit()
	}
}

// Lookup resolves dir/leaf, preferring the map representation when both
// are present (they are required to agree; see §8 property 3).
func (b *IndexBackend) Lookup(dir, leaf string) (EntryLocation, bool) {
	if b.Map != nil {
		if d, ok := b.Map[dir]; ok {
			loc, ok := d[leaf]
			return loc, ok
		}
		return EntryLocation{}, false
	}
	if d, ok := b.Tree.Get(dir); ok {
		loc, ok := d[leaf]
		return loc, ok
	}
	return EntryLocation{}, false
}

// Directories returns every directory path known to this backend, in
// lexical order.
func (b *IndexBackend) Directories() []string {
	if b.Map != nil {
		return b.Map.SortedDirectories()
	}
	var out []string
	b.Tree.WalkPrefix("", func(dir string, _ PakDirectory) bool {
		out = append(out, dir)
		return false
	})
	return out
}

// DirectoryAt returns the PakDirectory stored at dir, if any.
func (b *IndexBackend) DirectoryAt(dir string) (PakDirectory, bool) {
	if b.Map != nil {
		d, ok := b.Map[dir]
		return d, ok
	}
	return b.Tree.Get(dir)
}

// Len reports the total entry count across every directory, summed from
// whichever representation is active.
func (b *IndexBackend) Len() int {
	n := 0
	for _, dir := range b.Directories() {
		d, _ := b.DirectoryAt(dir)
		n += len(d)
	}
	return n
}

// DirectoryCount reports the number of directories known to this backend.
// It is zero when the backend was never populated, the signal
// PrunePostMount uses to tell "nothing loaded into Backend" apart from
// "loaded but genuinely empty".
func (b *IndexBackend) DirectoryCount() int {
	if b.Map != nil {
		return len(b.Map)
	}
	if b.Tree != nil {
		return b.Tree.Len()
	}
	return 0
}
