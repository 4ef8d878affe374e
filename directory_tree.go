// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import iradix "github.com/hashicorp/go-immutable-radix/v2"

// DirectoryTreeIndex is the optional radix-tree mirror of DirectoryIndex,
// keyed by directory path, for faster prefix queries (§4.3). It is built
// through a transaction and committed to an immutable snapshot so that
// pruning can swap in a new tree under a lock without disturbing readers
// walking the previous one.
type DirectoryTreeIndex struct {
	tree *iradix.Tree[PakDirectory]
	txn  *iradix.Txn[PakDirectory]
}

// NewDirectoryTreeIndex returns an empty tree ready for building.
func NewDirectoryTreeIndex() *DirectoryTreeIndex {
	t := iradix.New[PakDirectory]()
	return &DirectoryTreeIndex{tree: t, txn: t.Txn()}
}

// EnsureDirectory inserts an empty PakDirectory at dir if absent.
func (t *DirectoryTreeIndex) EnsureDirectory(dir string) {
	if _, ok := t.txn.Get([]byte(dir)); !ok {
		t.txn.Insert([]byte(dir), PakDirectory{})
	}
}

// Insert records loc under dir/leaf, creating dir if needed.
func (t *DirectoryTreeIndex) Insert(dir, leaf string, loc EntryLocation) {
	existing, ok := t.txn.Get([]byte(dir))
	if !ok {
		existing = PakDirectory{}
	}
	existing[leaf] = loc
	t.txn.Insert([]byte(dir), existing)
}

// Commit finalizes pending mutations into an immutable snapshot and opens
// a fresh transaction on top of it.
func (t *DirectoryTreeIndex) Commit() {
	t.tree = t.txn.Commit()
	t.txn = t.tree.Txn()
}

// Get returns the PakDirectory stored at dir, if any.
func (t *DirectoryTreeIndex) Get(dir string) (PakDirectory, bool) {
	return t.tree.Get([]byte(dir))
}

// DirectoryAt is Get under the name the directoryLister interface
// (iterate.go) expects, so a tree can stand in anywhere a plain
// DirectoryIndex or IndexBackend does.
func (t *DirectoryTreeIndex) DirectoryAt(dir string) (PakDirectory, bool) {
	return t.Get(dir)
}

// WalkPrefix visits every directory whose path has the given prefix, in
// lexical order, until fn returns true.
func (t *DirectoryTreeIndex) WalkPrefix(prefix string, fn func(dir string, files PakDirectory) bool) {
	t.tree.Root().WalkPrefix([]byte(prefix), func(k []byte, v PakDirectory) bool {
		return fn(string(k), v)
	})
}

// Directories returns every directory path in the committed snapshot, in
// lexical order.
func (t *DirectoryTreeIndex) Directories() []string {
	var out []string
	t.WalkPrefix("", func(dir string, _ PakDirectory) bool {
		out = append(out, dir)
		return false
	})
	return out
}

// Len reports the number of directories in the committed snapshot, used by
// IndexBackend.DirectoryCount as the O(1) path when only the tree
// representation is active.
func (t *DirectoryTreeIndex) Len() int { return t.tree.Len() }
