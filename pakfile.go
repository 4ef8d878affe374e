// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"bytes"
	"crypto/sha1"
	"io"
	"strings"
	"sync"

	"github.com/woozymasta/pathrules"
)

// FindResult is the three-valued outcome of Find (§4.7).
type FindResult uint8

const (
	FindNotFound     FindResult = iota
	FindFound                   // entry is live
	FindFoundDeleted            // path resolves to a delete-record
)

// PakFile composes the Index Loader, Index Store, Pruner, and Reader Pool
// behind the public surface described in §4.7.
type PakFile struct {
	cfg             Config
	factory         ReaderAtFactory
	keyStore        KeyStore
	decryptor       Decryptor
	verifierFactory func(io.ReaderAt) ChunkVerifier
	payloadDecoders []PayloadDecoder

	pool *ReaderPool

	// dirLock guards the directory index: Find takes it for the duration
	// of one lookup, Iterate holds it for the iterator's lifetime, and
	// PrunePostMount/AddSpecialFile take its exclusive side (§5).
	dirLock sync.RWMutex

	trailer       *Trailer
	version       FormatVersion
	store         *IndexStore
	fileSize      int64
	signChunkSize int64

	pruner      *Pruner
	ignoreRules *Pruner // reuses the file-matcher slot for IndexValidationIgnore

	valid   bool
	initErr error
}

// NewPakFile constructs a facade that has not yet been mounted. decryptor
// and verifierFactory may be nil when the archive is unencrypted and
// unsigned respectively. decoders are consulted by Check for compressed
// payload verification; a nil or empty slice means Check skips compressed
// entries.
func NewPakFile(cfg Config, factory ReaderAtFactory, keyStore KeyStore, decryptor Decryptor, verifierFactory func(io.ReaderAt) ChunkVerifier, decoders ...PayloadDecoder) *PakFile {
	return &PakFile{
		cfg:             cfg,
		factory:         factory,
		keyStore:        keyStore,
		decryptor:       decryptor,
		verifierFactory: verifierFactory,
		payloadDecoders: decoders,
	}
}

// IsValid reports whether the index is loaded and lookups are live.
func (pf *PakFile) IsValid() bool { return pf.valid }

// InitError returns the fatal corruption error from Initialize, if any.
// It is nil both before Initialize runs and when index load was merely
// deferred for a missing key.
func (pf *PakFile) InitError() error { return pf.initErr }

// Initialize mounts the archive: negotiates the trailer, loads the
// primary and secondary indexes, and runs pruning unless
// Config.DelayPruning defers it. A non-nil return means fatal corruption;
// a missing decryption key is not an error — check IsValid after.
func (pf *PakFile) Initialize() error {
	pf.cfg.applyDefaults()

	size, err := pf.factory.Size()
	if err != nil {
		return err
	}
	pf.fileSize = size

	pf.signChunkSize = 1 << 20
	pf.pool = NewReaderPool(pf.factory, pf.verifierFactory, pf.signChunkSize, pf.cfg.Logger)

	reader, err := pf.pool.GetSharedReader()
	if err != nil {
		return err
	}
	defer reader.Release()

	trailer, err := NegotiateTrailer(reader, size)
	if err != nil {
		pf.fatal(err, "negotiating trailer")
		return err
	}
	if err := trailer.ValidateBounds(size); err != nil {
		pf.fatal(err, "validating index bounds")
		return err
	}
	pf.trailer = trailer
	pf.version = trailer.Version

	if trailer.HasEncryptionKeyGUID && (pf.keyStore == nil || !pf.keyStore.HasKey(trailer.EncryptionKeyGUID)) {
		pf.valid = false
		pf.initErr = nil
		return nil
	}

	primaryRef := SecondaryIndexRef{Offset: trailer.IndexOffset, Size: trailer.IndexSize, Hash: trailer.Hash}
	raw, err := fetchSecondaryBlob(reader, primaryRef, size, trailer, pf.keyStore, pf.decryptor, pf.cfg.MaxRetriesOnHashMismatch)
	if err != nil {
		pf.fatal(err, "loading primary index")
		return err
	}

	pi, err := ParsePrimaryIndex(raw, pf.version)
	if err != nil {
		pf.fatal(err, "parsing primary index")
		return err
	}

	store := NewIndexStore(pi.MountPoint, pi.PathHashSeed, pf.cfg.backendKind())

	if err := pf.loadIndexes(reader, pi, store); err != nil {
		pf.fatal(err, "loading secondary indexes")
		return err
	}
	store.Backend.Commit()
	pf.store = store

	if err := pf.initPruner(); err != nil {
		return err
	}

	if !pf.cfg.DelayPruning {
		if err := pf.PrunePostMount(); err != nil {
			return err
		}
	}

	pf.valid = true
	pf.initErr = nil
	return nil
}

func (pf *PakFile) fatal(err error, context string) {
	pf.valid = false
	pf.initErr = err
	if pf.cfg.Logger != nil {
		pf.cfg.Logger.Error("fatal archive corruption", "context", context, "error", err,
			"indexOffset", pf.safeIndexOffset(), "indexSize", pf.safeIndexSize())
	}
}

func (pf *PakFile) safeIndexOffset() int64 {
	if pf.trailer == nil {
		return -1
	}
	return pf.trailer.IndexOffset
}

func (pf *PakFile) safeIndexSize() int64 {
	if pf.trailer == nil {
		return -1
	}
	return pf.trailer.IndexSize
}

// loadIndexes implements §4.4's secondary-index selection policy.
func (pf *PakFile) loadIndexes(reader io.ReaderAt, pi *PrimaryIndex, store *IndexStore) error {
	if pi.Legacy {
		return pf.loadLegacyIndex(pi, store)
	}

	store.EncodedEntries = pi.EncodedEntries
	store.Files = pi.Files

	needFDI := pf.cfg.KeepFullDirectory || pf.cfg.ValidatePruning || pf.cfg.DelayPruning

	switch {
	case pi.HasPathHashIndex && pi.HasFullDirectoryIndex:
		if err := pf.loadPathHashBlob(reader, pi, store); err != nil {
			return err
		}
		if needFDI {
			if err := pf.loadFullDirectoryBlob(reader, pi, store); err != nil {
				return err
			}
		}
	case pi.HasPathHashIndex:
		if err := pf.loadPathHashBlob(reader, pi, store); err != nil {
			return err
		}
	case pi.HasFullDirectoryIndex:
		if err := pf.loadFullDirectoryBlob(reader, pi, store); err != nil {
			return err
		}
	default:
		return ErrNoSecondaryIndex
	}

	return nil
}

func (pf *PakFile) loadPathHashBlob(reader io.ReaderAt, pi *PrimaryIndex, store *IndexStore) error {
	buf, err := fetchSecondaryBlob(reader, pi.PathHashIndexRef, pf.fileSize, pf.trailer, pf.keyStore, pf.decryptor, pf.cfg.MaxRetriesOnHashMismatch)
	if err != nil {
		return err
	}
	hashes, prunedStream, err := parsePathHashBlob(buf)
	if err != nil {
		return err
	}
	store.EnablePathHashIndex()
	for h, offset := range hashes {
		store.AssignPathHash(h, locationFromWireOffset(offset))
	}
	if prunedStream != nil {
		store.PrunedDirectoryIndex = directoryIndexFromStream(prunedStream)
	}
	return nil
}

func (pf *PakFile) loadFullDirectoryBlob(reader io.ReaderAt, pi *PrimaryIndex, store *IndexStore) error {
	buf, err := fetchSecondaryBlob(reader, pi.FullDirectoryIndexRef, pf.fileSize, pf.trailer, pf.keyStore, pf.decryptor, pf.cfg.MaxRetriesOnHashMismatch)
	if err != nil {
		return err
	}
	stream, err := parseDirectoryIndexStream(bytes.NewReader(buf))
	if err != nil {
		return err
	}
	for dir, files := range stream {
		for leaf, offset := range files {
			store.AssignDirectory(dir, leaf, locationFromWireOffset(offset))
		}
	}
	return nil
}

func directoryIndexFromStream(stream map[string]map[string]int64) DirectoryIndex {
	out := make(DirectoryIndex, len(stream))
	for dir, files := range stream {
		pd := make(PakDirectory, len(files))
		for leaf, offset := range files {
			pd[leaf] = locationFromWireOffset(offset)
		}
		out[dir] = pd
	}
	return out
}

// loadLegacyIndex implements §4.4's legacy path: encode each (path,
// entry) pair, falling back to the overflow list when encoding fails, and
// populate the directory index directly.
func (pf *PakFile) loadLegacyIndex(pi *PrimaryIndex, store *IndexStore) error {
	wantHash := len(pf.cfg.DirectoryIndexKeepFiles) > 0 || len(pf.cfg.DirectoryIndexKeepEmptyDirectories) > 0 || pf.cfg.ValidatePruning
	if wantHash {
		store.EnablePathHashIndex()
	}

	for _, pe := range pi.LegacyEntries {
		if pe.Entry.Deleted {
			continue
		}

		var buf bytes.Buffer
		var loc EntryLocation
		ok, err := EncodeEntry(&buf, pe.Entry)
		if err != nil {
			return err
		}
		if ok {
			loc = EncodedOffsetLocation(int64(len(store.EncodedEntries)))
			store.EncodedEntries = append(store.EncodedEntries, buf.Bytes()...)
		} else {
			entry := pe.Entry
			entry.Verified = true
			loc = ListIndexLocation(len(store.Files))
			store.Files = append(store.Files, entry)
		}

		if err := store.AddEntryToIndex(pf.version, pe.Path, loc); err != nil {
			return err
		}
	}

	return nil
}

func (pf *PakFile) initPruner() error {
	pruner, err := NewPruner(pf.cfg.DirectoryIndexKeepFiles, pf.cfg.DirectoryIndexKeepEmptyDirectories, pf.cfg.MatcherOptions)
	if err != nil {
		return err
	}
	pf.pruner = pruner

	if len(pf.cfg.IndexValidationIgnore) > 0 {
		ignore, err := NewPruner(pf.cfg.IndexValidationIgnore, nil, pf.cfg.MatcherOptions)
		if err != nil {
			return err
		}
		pf.ignoreRules = ignore
	}
	return nil
}

// PrunePostMount runs the pruner over the currently loaded full directory
// index. Callers using Config.DelayPruning must call this explicitly
// before relying on the pruned view; Check always inspects whatever view
// is currently live and does not call this itself.
func (pf *PakFile) PrunePostMount() error {
	pf.dirLock.Lock()
	defer pf.dirLock.Unlock()

	if pf.store.Backend.DirectoryCount() == 0 {
		// The full directory index was never loaded (needFDI was false);
		// loadPathHashBlob already populated PrunedDirectoryIndex from the
		// path-hash blob's embedded pruned stream, if it had one. Pruning an
		// unloaded backend would overwrite that with nothing.
		return nil
	}

	pruned, prunedTree, err := pf.pruner.Prune(pf.store.Mount, &pf.store.Backend, pf.store.Backend.Tree)
	if err != nil {
		return err
	}
	pf.store.PrunedDirectoryIndex = pruned
	pf.store.PrunedTree = prunedTree

	if pf.cfg.ValidatePruning {
		var ignoreMatcher *pathrules.Matcher
		if pf.ignoreRules != nil {
			ignoreMatcher = pf.ignoreRules.fileMatcher
		}
		mismatches := pf.pruner.Validate(pf.store.Mount, &pf.store.Backend, pruned, ignoreMatcher)
		if len(mismatches) > 0 && pf.cfg.Logger != nil {
			pf.cfg.Logger.Warn("pruned index validation mismatch", "count", len(mismatches), "examples", mismatches[:min(len(mismatches), 5)])
		}
	}

	return nil
}

// Find resolves fullPath using the path-hash index when available,
// falling back to the directory index otherwise (§4.7).
func (pf *PakFile) Find(fullPath string) (FindResult, FileEntry, error) {
	if !pf.valid {
		return FindNotFound, FileEntry{}, ErrNotValid
	}

	rel := pf.relativePath(fullPath)

	pf.dirLock.RLock()
	defer pf.dirLock.RUnlock()

	loc, found := pf.lookupLocked(rel)
	if !found {
		return FindNotFound, FileEntry{}, nil
	}
	if !loc.IsValid() {
		return FindFoundDeleted, FileEntry{}, nil
	}

	entry, err := pf.store.ResolveEntry(loc, pf.version)
	if err != nil {
		return FindNotFound, FileEntry{}, err
	}
	if entry.Deleted {
		return FindFoundDeleted, entry, nil
	}
	return FindFound, entry, nil
}

func (pf *PakFile) relativePath(fullPath string) string {
	rel := fullPath
	if pf.store.Mount != "" && pf.store.Mount != "/" && strings.HasPrefix(rel, pf.store.Mount) {
		rel = rel[len(pf.store.Mount):]
	}
	return strings.TrimPrefix(rel, "/")
}

func (pf *PakFile) lookupLocked(rel string) (EntryLocation, bool) {
	usePathHash := pf.store.PathHashIndex != nil
	useDir := pf.store.Backend.DirectoryCount() > 0

	if usePathHash && useDir && pf.cfg.ValidatePruning {
		h := HashPath(rel, pf.store.Seed, pf.version)
		hashLoc, hashFound := pf.store.PathHashIndex[h]
		dir, leaf, existed := SplitPathInline("/" + rel)
		var dirLoc EntryLocation
		var dirFound bool
		if existed {
			dirLoc, dirFound = pf.store.Backend.Lookup(dir, leaf)
		}
		if hashFound != dirFound || (hashFound && dirFound && hashLoc != dirLoc) {
			if pf.cfg.Logger != nil {
				pf.cfg.Logger.Warn("path-hash and directory index disagree", "path", rel)
			}
		}
		if hashFound {
			return hashLoc, true
		}
		return dirLoc, dirFound
	}

	if usePathHash {
		h := HashPath(rel, pf.store.Seed, pf.version)
		loc, ok := pf.store.PathHashIndex[h]
		return loc, ok
	}

	dir, leaf, existed := SplitPathInline("/" + rel)
	if !existed {
		return EntryLocation{}, false
	}
	return pf.store.Backend.Lookup(dir, leaf)
}

// Iterate returns a lazy, non-restartable sequence over the selected
// backing. When usePathHash, filenames are absent from the result.
// Directory-backed iteration holds the directory-index read lock for the
// iterator's lifetime (§5); callers must drain it or call its Close.
func (pf *PakFile) Iterate(includeDeleted, usePathHash bool) *Iterator {
	backing := IteratePathHash
	if !usePathHash {
		backing = IterateDirectoryMap
		if pf.store.Backend.DirectoryCount() == 0 {
			backing = IteratePrunedMap
		}
	}
	if !usePathHash {
		pf.dirLock.RLock()
	}
	it := NewIterator(pf.store, pf.version, backing, includeDeleted)
	if !usePathHash {
		it.release = pf.dirLock.RUnlock
	}
	return it
}

// FindPrunedFilesAtPath walks the pruned directory index from path,
// appending matched file and directory paths to files/dirs.
func (pf *PakFile) FindPrunedFilesAtPath(path string, recursive bool, files, dirs *[]string) {
	pf.dirLock.RLock()
	defer pf.dirLock.RUnlock()

	root := MakeDirectoryFromPath(path)
	var idx directoryLister = pf.store.PrunedDirectoryIndex
	if pf.store.PrunedDirectoryIndex == nil {
		if pf.store.PrunedTree != nil {
			idx = pf.store.PrunedTree
		} else {
			idx = &pf.store.Backend
		}
	}

	for _, dir := range idx.Directories() {
		if dir != root && !strings.HasPrefix(dir, root) {
			continue
		}
		if !recursive && dir != root {
			continue
		}
		if dir != root {
			*dirs = append(*dirs, dir)
		}
		leaves, _ := idx.DirectoryAt(dir)
		leafNames := make([]string, 0, len(leaves))
		for leaf := range leaves {
			leafNames = append(leafNames, leaf)
		}
		for _, leaf := range leafNames {
			*files = append(*files, dir+leaf)
		}
	}
}

// GetSharedReader is the Reader Pool entry point.
func (pf *PakFile) GetSharedReader() (*SharedReader, error) {
	return pf.pool.GetSharedReader()
}

// AddSpecialFile is a debug-only insertion, not thread-safe with
// concurrent readers: callers must ensure no concurrent lookups are in
// flight.
func (pf *PakFile) AddSpecialFile(entry FileEntry, name string) error {
	pf.dirLock.Lock()
	defer pf.dirLock.Unlock()

	var buf bytes.Buffer
	ok, err := EncodeEntry(&buf, entry)
	if err != nil {
		return err
	}

	var loc EntryLocation
	if ok {
		loc = EncodedOffsetLocation(int64(len(pf.store.EncodedEntries)))
		pf.store.EncodedEntries = append(pf.store.EncodedEntries, buf.Bytes()...)
	} else {
		e := entry
		e.Verified = true
		loc = ListIndexLocation(len(pf.store.Files))
		pf.store.Files = append(pf.store.Files, e)
	}

	return pf.store.AddEntryToIndex(pf.version, name, loc)
}

// Files returns every mount-relative path currently indexed, supplementing
// §4.7 with the reference implementation's own convenience query.
func (pf *PakFile) Files() []string {
	pf.dirLock.RLock()
	defer pf.dirLock.RUnlock()

	var out []string
	var idx directoryLister = &pf.store.Backend
	if pf.store.Backend.DirectoryCount() == 0 {
		idx = prunedLister(pf.store)
	}
	for _, dir := range idx.Directories() {
		leaves, _ := idx.DirectoryAt(dir)
		for leaf := range leaves {
			out = append(out, dir+leaf)
		}
	}
	return out
}

// UsedCompressionMethods reports the distinct compression method names
// actually referenced by at least one indexed entry, supplementing §4.7
// with the reference implementation's own used_compression query.
func (pf *PakFile) UsedCompressionMethods() []string {
	counts := make(map[uint8]int)
	walk := func(loc EntryLocation) {
		entry, err := pf.store.ResolveEntry(loc, pf.version)
		if err != nil || !entry.HasCompression {
			return
		}
		counts[entry.CompressionMethod]++
	}

	for _, loc := range pf.store.PathHashIndex {
		walk(loc)
	}
	if pf.store.PathHashIndex == nil {
		for _, dir := range pf.store.Backend.Directories() {
			d, _ := pf.store.Backend.DirectoryAt(dir)
			for _, loc := range d {
				walk(loc)
			}
		}
	}

	var names []string
	for method := range counts {
		if name := pf.trailer.CompressionMethodName(method); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Check performs the §4.7 integrity scan: for signed archives it reads
// one byte at each signing-chunk boundary and counts verifier failures;
// for unsigned archives it SHA-1-validates every entry not marked Verified,
// that is the overflow Files records read from the primary index.
// Bit-packed-decoded entries and the overflow entries built from a legacy
// index are marked Verified and skipped.
func (pf *PakFile) Check() (bool, int, error) {
	if !pf.valid {
		return false, 0, ErrNotValid
	}

	reader, err := pf.GetSharedReader()
	if err != nil {
		return false, 0, err
	}
	defer reader.Release()

	if pf.verifierFactory != nil {
		return pf.checkSigned(reader)
	}
	return pf.checkUnsigned(reader)
}

func (pf *PakFile) checkSigned(reader *SharedReader) (bool, int, error) {
	sar, ok := reader.pr.ra.(*SignedArchiveReader)
	if !ok {
		return false, 0, ErrNilDecryptor
	}
	buf := make([]byte, 1)
	for off := int64(0); off < pf.fileSize; off += pf.signChunkSize {
		if _, err := sar.ReadAt(buf, off); err != nil && err != io.EOF {
			return false, sar.verifier.Failed(), err
		}
	}
	failed := sar.verifier.Failed()
	return failed == 0, failed, nil
}

func (pf *PakFile) checkUnsigned(reader *SharedReader) (bool, int, error) {
	failures := 0
	visit := func(loc EntryLocation) error {
		if !loc.IsValid() {
			return nil
		}
		entry, err := pf.store.ResolveEntry(loc, pf.version)
		if err != nil {
			return err
		}
		if entry.Deleted || entry.Verified {
			return nil
		}
		ok, err := pf.checkEntryHash(reader, entry)
		if err != nil {
			return err
		}
		if !ok {
			failures++
		}
		return nil
	}

	if pf.store.PathHashIndex != nil {
		for _, loc := range pf.store.PathHashIndex {
			if err := visit(loc); err != nil {
				return false, failures, err
			}
		}
	} else {
		for _, dir := range pf.store.Backend.Directories() {
			d, _ := pf.store.Backend.DirectoryAt(dir)
			for _, loc := range d {
				if err := visit(loc); err != nil {
					return false, failures, err
				}
			}
		}
	}

	return failures == 0, failures, nil
}

func (pf *PakFile) checkEntryHash(reader *SharedReader, entry FileEntry) (bool, error) {
	raw := make([]byte, entry.CompressedSize)
	if _, err := reader.ReadAt(raw, entry.Offset); err != nil {
		return false, err
	}

	payload := raw
	if entry.HasCompression {
		decoder := pf.decoderFor(entry.CompressionMethod)
		if decoder == nil {
			return true, nil // decompression out of scope; not a reportable failure
		}
		decoded, err := decoder.Decode(entry.CompressionMethod, raw, entry.UncompressedSize)
		if err != nil {
			return false, nil
		}
		payload = decoded
	}

	sum := sha1.Sum(payload)
	return bytes.Equal(sum[:], entry.Hash[:]), nil
}

func (pf *PakFile) decoderFor(method uint8) PayloadDecoder {
	for _, d := range pf.payloadDecoders {
		if d.Supports(method) {
			return d
		}
	}
	return nil
}

// Close releases every pooled reader.
func (pf *PakFile) Close() error {
	if pf.pool == nil {
		return nil
	}
	return pf.pool.Close()
}
