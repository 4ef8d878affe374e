// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import "sort"

// directoryLister is the shape IndexBackend, DirectoryIndex, and
// DirectoryTreeIndex all expose, letting Iterator walk whichever
// directory-index representation a store actually populated instead of
// assuming the plain map (§8 property 3: map and tree backings must
// enumerate identically).
type directoryLister interface {
	Directories() []string
	DirectoryAt(dir string) (PakDirectory, bool)
}

// prunedLister picks whichever pruned representation the store carries,
// preferring the map when both are present, falling back to an empty map
// when pruning has not run.
func prunedLister(store *IndexStore) directoryLister {
	if store.PrunedDirectoryIndex != nil {
		return store.PrunedDirectoryIndex
	}
	if store.PrunedTree != nil {
		return store.PrunedTree
	}
	return DirectoryIndex{}
}

// IterateBacking selects which index Iterator walks (Design Notes
// "iterator hierarchy": a tagged cursor over the three distinct backings
// rather than a base-class hierarchy).
type IterateBacking uint8

const (
	IteratePathHash      IterateBacking = iota // filenames are absent
	IterateDirectoryMap                        // uses the live directory backend (map or tree)
	IteratePrunedMap                           // uses the pruned map or tree, if any
)

// Iterator is a finite, non-restartable sequence of (filename?, location)
// pairs produced by PakFile.Iterate.
type Iterator struct {
	store          *IndexStore
	version        FormatVersion
	backing        IterateBacking
	includeDeleted bool

	// path-hash cursor
	phKeys []uint64
	phPos  int

	// directory cursor
	dirs     []string
	dirIndex directoryLister
	dirPos   int
	curFiles PakDirectory
	leaves   []string
	leafPos  int

	curName string
	curLoc  EntryLocation
	done    bool
	err     error

	// release, when set, unlocks the directory-index read lock held for
	// this iterator's lifetime (§5). It is called once, on exhaustion or
	// on an explicit Close, whichever comes first.
	release func()
}

// NewIterator builds an iterator over one of the store's backings.
func NewIterator(store *IndexStore, version FormatVersion, backing IterateBacking, includeDeleted bool) *Iterator {
	it := &Iterator{store: store, version: version, backing: backing, includeDeleted: includeDeleted}

	switch backing {
	case IteratePathHash:
		it.phKeys = make([]uint64, 0, len(store.PathHashIndex))
		for h := range store.PathHashIndex {
			it.phKeys = append(it.phKeys, h)
		}
		sort.Slice(it.phKeys, func(i, j int) bool { return it.phKeys[i] < it.phKeys[j] })
	case IterateDirectoryMap:
		it.dirIndex = &store.Backend
		it.dirs = it.dirIndex.Directories()
	case IteratePrunedMap:
		it.dirIndex = prunedLister(store)
		it.dirs = it.dirIndex.Directories()
	}

	return it
}

// Next advances the cursor, skipping delete-records unless includeDeleted
// was requested. It returns false once the sequence is exhausted or a
// resolution error occurred; check Err in the latter case.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	for {
		name, loc, ok := it.advance()
		if !ok {
			it.Close()
			return false
		}
		if !it.includeDeleted && !loc.IsValid() {
			continue
		}
		if !it.includeDeleted && loc.IsValid() {
			entry, err := it.store.ResolveEntry(loc, it.version)
			if err != nil {
				it.err = err
				it.Close()
				return false
			}
			if entry.Deleted {
				continue
			}
		}
		it.curName, it.curLoc = name, loc
		return true
	}
}

func (it *Iterator) advance() (string, EntryLocation, bool) {
	if it.backing == IteratePathHash {
		if it.phPos >= len(it.phKeys) {
			return "", EntryLocation{}, false
		}
		h := it.phKeys[it.phPos]
		it.phPos++
		return "", it.store.PathHashIndex[h], true
	}

	for {
		if it.leafPos >= len(it.leaves) {
			if it.dirPos >= len(it.dirs) {
				return "", EntryLocation{}, false
			}
			dir := it.dirs[it.dirPos]
			it.dirPos++
			it.curFiles, _ = it.dirIndex.DirectoryAt(dir)
			it.leaves = make([]string, 0, len(it.curFiles))
			for leaf := range it.curFiles {
				it.leaves = append(it.leaves, leaf)
			}
			sort.Strings(it.leaves)
			it.leafPos = 0
			continue
		}
		leaf := it.leaves[it.leafPos]
		it.leafPos++
		dir := it.dirs[it.dirPos-1]
		return dir + leaf, it.curFiles[leaf], true
	}
}

// Filename returns the current entry's mount-relative path. Calling it on
// a path-hash-backed iterator is misuse (§7 taxonomy item 6); it returns
// "" rather than panicking.
func (it *Iterator) Filename() string { return it.curName }

// Location returns the current entry's location.
func (it *Iterator) Location() EntryLocation { return it.curLoc }

// Err returns any error encountered while resolving an entry during
// iteration.
func (it *Iterator) Err() error { return it.err }

// Close releases the directory-index read lock held for a
// directory-backed iterator's lifetime, if any. It is idempotent and is
// called automatically on exhaustion; callers abandoning an iterator
// early (breaking out of a Next loop) must call it explicitly.
func (it *Iterator) Close() {
	it.done = true
	if it.release != nil {
		it.release()
		it.release = nil
	}
}
