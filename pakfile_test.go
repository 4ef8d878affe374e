// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"crypto/sha1"
	"io"
	"testing"
)

type memFactory struct{ data []byte }

func (f *memFactory) OpenReaderAt() (io.ReaderAt, io.Closer, error) {
	return byteReaderAt(f.data), io.NopCloser(nil), nil
}

func (f *memFactory) Size() (int64, error) { return int64(len(f.data)), nil }

func newTestPakFile(data []byte) *PakFile {
	pf := NewPakFile(Config{}, &memFactory{data: data}, nil, nil, nil)
	pf.cfg.applyDefaults()
	pf.pool = NewReaderPool(pf.factory, nil, 1<<20, pf.cfg.Logger)
	pf.version = FormatFnv64BugFix
	pf.trailer = &Trailer{CompressionMethods: []string{"", "Zlib", "Oodle"}}
	pf.valid = true
	return pf
}

func storeWithDirectory(mount string) *IndexStore {
	s := NewIndexStore(mount, 0x1, BackendMap)
	s.EnablePathHashIndex()
	return s
}

func TestPakFileFindViaDirectoryIndex(t *testing.T) {
	t.Parallel()

	pf := newTestPakFile(nil)
	pf.store = NewIndexStore("/mod/", 0x1, BackendMap)

	entry := FileEntry{Offset: 10, UncompressedSize: 20, CompressedSize: 20, Verified: true}
	loc := ListIndexLocation(len(pf.store.Files))
	pf.store.Files = append(pf.store.Files, entry)
	if err := pf.store.AddEntryToIndex(pf.version, "scripts/a.cpp", loc); err != nil {
		t.Fatalf("AddEntryToIndex: %v", err)
	}
	pf.store.Backend.Commit()

	result, got, err := pf.Find("/mod/scripts/a.cpp")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if result != FindFound {
		t.Fatalf("result=%v, want FindFound", result)
	}
	if got.Offset != entry.Offset {
		t.Fatalf("Offset=%d, want %d", got.Offset, entry.Offset)
	}
}

func TestPakFileFindMissing(t *testing.T) {
	t.Parallel()

	pf := newTestPakFile(nil)
	pf.store = storeWithDirectory("/mod/")
	pf.store.Backend.Commit()

	result, _, err := pf.Find("/mod/nope.txt")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if result != FindNotFound {
		t.Fatalf("result=%v, want FindNotFound", result)
	}
}

func TestPakFileFindDeleted(t *testing.T) {
	t.Parallel()

	pf := newTestPakFile(nil)
	pf.store = storeWithDirectory("/mod/")

	loc := ListIndexLocation(len(pf.store.Files))
	pf.store.Files = append(pf.store.Files, FileEntry{Deleted: true, Verified: true})
	if err := pf.store.AddEntryToIndex(pf.version, "gone.cpp", loc); err != nil {
		t.Fatalf("AddEntryToIndex: %v", err)
	}
	pf.store.Backend.Commit()

	result, _, err := pf.Find("/mod/gone.cpp")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if result != FindFoundDeleted {
		t.Fatalf("result=%v, want FindFoundDeleted", result)
	}
}

func TestPakFileAddSpecialFileThenFind(t *testing.T) {
	t.Parallel()

	pf := newTestPakFile(nil)
	pf.store = storeWithDirectory("/mod/")
	pf.store.Backend.Commit()

	entry := FileEntry{Offset: 5, UncompressedSize: 5, CompressedSize: 5}
	if err := pf.AddSpecialFile(entry, "debug/extra.txt"); err != nil {
		t.Fatalf("AddSpecialFile: %v", err)
	}

	result, got, err := pf.Find("/mod/debug/extra.txt")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if result != FindFound {
		t.Fatalf("result=%v, want FindFound", result)
	}
	if got.Offset != 5 {
		t.Fatalf("Offset=%d, want 5", got.Offset)
	}
}

func TestPakFileIterateDirectoryBacking(t *testing.T) {
	t.Parallel()

	pf := newTestPakFile(nil)
	pf.store = storeWithDirectory("/mod/")

	paths := []string{"a.cpp", "scripts/b.cpp", "scripts/c.cpp"}
	for _, p := range paths {
		loc := ListIndexLocation(len(pf.store.Files))
		pf.store.Files = append(pf.store.Files, FileEntry{Verified: true})
		if err := pf.store.AddEntryToIndex(pf.version, p, loc); err != nil {
			t.Fatalf("AddEntryToIndex(%q): %v", p, err)
		}
	}
	pf.store.Backend.Commit()

	it := pf.Iterate(false, false)
	var seen []string
	for it.Next() {
		seen = append(seen, it.Filename())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Iterator.Err: %v", err)
	}
	if len(seen) != len(paths) {
		t.Fatalf("iterated %v, want %d entries", seen, len(paths))
	}
}

func TestPakFileIterateSkipsDeletedUnlessRequested(t *testing.T) {
	t.Parallel()

	pf := newTestPakFile(nil)
	pf.store = storeWithDirectory("/mod/")

	liveLoc := ListIndexLocation(len(pf.store.Files))
	pf.store.Files = append(pf.store.Files, FileEntry{Verified: true})
	if err := pf.store.AddEntryToIndex(pf.version, "live.cpp", liveLoc); err != nil {
		t.Fatalf("AddEntryToIndex: %v", err)
	}
	deadLoc := ListIndexLocation(len(pf.store.Files))
	pf.store.Files = append(pf.store.Files, FileEntry{Deleted: true, Verified: true})
	if err := pf.store.AddEntryToIndex(pf.version, "dead.cpp", deadLoc); err != nil {
		t.Fatalf("AddEntryToIndex: %v", err)
	}
	pf.store.Backend.Commit()

	it := pf.Iterate(false, false)
	count := 0
	for it.Next() {
		count++
	}
	if count != 1 {
		t.Fatalf("iterated %d entries excluding deleted, want 1", count)
	}

	it2 := pf.Iterate(true, false)
	count = 0
	for it2.Next() {
		count++
	}
	if count != 2 {
		t.Fatalf("iterated %d entries including deleted, want 2", count)
	}
}

func TestPakFileCheckUnsignedDetectsCorruption(t *testing.T) {
	t.Parallel()

	goodPayload := []byte("hello world, this is a packaged file")
	goodSum := sha1.Sum(goodPayload)

	badPayload := []byte("this payload got corrupted on disk!!")

	archive := append(append([]byte{}, goodPayload...), badPayload...)
	pf := newTestPakFile(archive)
	pf.store = storeWithDirectory("/mod/")

	goodEntry := FileEntry{Offset: 0, CompressedSize: int64(len(goodPayload)), UncompressedSize: int64(len(goodPayload)), Hash: goodSum, Verified: false}
	badEntry := FileEntry{Offset: int64(len(goodPayload)), CompressedSize: int64(len(badPayload)), UncompressedSize: int64(len(badPayload)), Hash: goodSum, Verified: false}

	goodLoc := ListIndexLocation(len(pf.store.Files))
	pf.store.Files = append(pf.store.Files, goodEntry)
	if err := pf.store.AddEntryToIndex(pf.version, "good.bin", goodLoc); err != nil {
		t.Fatalf("AddEntryToIndex: %v", err)
	}
	badLoc := ListIndexLocation(len(pf.store.Files))
	pf.store.Files = append(pf.store.Files, badEntry)
	if err := pf.store.AddEntryToIndex(pf.version, "bad.bin", badLoc); err != nil {
		t.Fatalf("AddEntryToIndex: %v", err)
	}
	pf.store.Backend.Commit()

	ok, failures, err := pf.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ok {
		t.Fatalf("expected Check to report a failure")
	}
	if failures != 1 {
		t.Fatalf("failures=%d, want 1", failures)
	}
}

func TestPakFileUsedCompressionMethods(t *testing.T) {
	t.Parallel()

	pf := newTestPakFile(nil)
	pf.store = storeWithDirectory("/mod/")

	loc := ListIndexLocation(len(pf.store.Files))
	pf.store.Files = append(pf.store.Files, FileEntry{HasCompression: true, CompressionMethod: 1, Verified: true})
	if err := pf.store.AddEntryToIndex(pf.version, "a.pak", loc); err != nil {
		t.Fatalf("AddEntryToIndex: %v", err)
	}
	pf.store.Backend.Commit()

	methods := pf.UsedCompressionMethods()
	if len(methods) != 1 || methods[0] != "Zlib" {
		t.Fatalf("UsedCompressionMethods=%v, want [Zlib]", methods)
	}
}
