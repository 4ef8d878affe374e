// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"bytes"
	"crypto/sha1"
	"io"
)

// SecondaryIndexRef locates and authenticates one secondary index blob
// (PathHash or FullDirectory) from inside the primary index stream.
type SecondaryIndexRef struct {
	Offset int64
	Size   int64
	Hash   [20]byte
}

// PrimaryIndex is the deserialized form of §6's primary-index stream,
// before the secondary indexes it references have been fetched.
type PrimaryIndex struct {
	MountPoint   string
	NumEntries   int32
	PathHashSeed uint64

	HasPathHashIndex bool
	PathHashIndexRef SecondaryIndexRef

	HasFullDirectoryIndex bool
	FullDirectoryIndexRef SecondaryIndexRef

	EncodedEntries []byte
	Files          []FileEntry

	// Legacy is true for pre-PathHashIndex archives, whose index blob
	// enumerates (path, FileEntry) pairs directly instead of the fields
	// above.
	Legacy        bool
	LegacyEntries []legacyPathEntry
}

type legacyPathEntry struct {
	Path  string
	Entry FileEntry
}

// ParsePrimaryIndex decodes §6's primary-index stream.
func ParsePrimaryIndex(data []byte, version FormatVersion) (*PrimaryIndex, error) {
	r := bytes.NewReader(data)

	mountPoint, err := readPakString(r)
	if err != nil {
		return nil, err
	}
	if len(mountPoint) > MaxMountPointLength {
		return nil, ErrMountPointTooLong
	}

	count, err := readI32(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, ErrNegativeCount
	}

	pi := &PrimaryIndex{MountPoint: MakeDirectoryFromPath(mountPoint), NumEntries: count}

	if version.Major() < MajorPathHashIndex {
		pi.Legacy = true
		pi.LegacyEntries = make([]legacyPathEntry, 0, count)
		for i := int32(0); i < count; i++ {
			path, err := readPakString(r)
			if err != nil {
				return nil, err
			}
			entry, err := ReadLegacyEntry(r, version)
			if err != nil {
				return nil, err
			}
			pi.LegacyEntries = append(pi.LegacyEntries, legacyPathEntry{Path: path, Entry: entry})
		}
		return pi, nil
	}

	seed, err := readU64(r)
	if err != nil {
		return nil, err
	}
	pi.PathHashSeed = seed

	hasPHI, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if hasPHI != 0 {
		pi.HasPathHashIndex = true
		if pi.PathHashIndexRef, err = readSecondaryRef(r); err != nil {
			return nil, err
		}
	}

	hasFDI, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if hasFDI != 0 {
		pi.HasFullDirectoryIndex = true
		if pi.FullDirectoryIndexRef, err = readSecondaryRef(r); err != nil {
			return nil, err
		}
	}

	encodedSize, err := readU32(r)
	if err != nil {
		return nil, err
	}
	encoded := make([]byte, encodedSize)
	if _, err := io.ReadFull(r, encoded); err != nil {
		return nil, err
	}
	pi.EncodedEntries = encoded

	filesLen, err := readI32(r)
	if err != nil {
		return nil, err
	}
	if filesLen < 0 {
		return nil, ErrNegativeCount
	}
	pi.Files = make([]FileEntry, 0, filesLen)
	for i := int32(0); i < filesLen; i++ {
		e, err := ReadLegacyEntry(r, version)
		if err != nil {
			return nil, err
		}
		pi.Files = append(pi.Files, e)
	}

	return pi, nil
}

func readSecondaryRef(r io.Reader) (SecondaryIndexRef, error) {
	var ref SecondaryIndexRef
	var err error
	if ref.Offset, err = readI64(r); err != nil {
		return ref, err
	}
	if ref.Size, err = readI64(r); err != nil {
		return ref, err
	}
	if _, err = io.ReadFull(r, ref.Hash[:]); err != nil {
		return ref, err
	}
	return ref, nil
}

// locationFromWireOffset applies the negative-offset-means-overflow-index
// convention: a non-negative offset addresses EncodedEntries directly; a
// negative one addresses the overflow Files list at -(offset)-1.
func locationFromWireOffset(offset int64) EntryLocation {
	if offset >= 0 {
		return EncodedOffsetLocation(offset)
	}
	return ListIndexLocation(int(-offset - 1))
}

// fetchSecondaryBlob reads, decrypts, and SHA-1 validates one secondary
// index blob, retrying up to maxRetries times on a read, decrypt, or hash
// failure before declaring fatal corruption (§4.4's transient-mismatch
// discipline).
func fetchSecondaryBlob(ra io.ReaderAt, ref SecondaryIndexRef, fileSize int64, trailer *Trailer, keyStore KeyStore, decryptor Decryptor, maxRetries int) ([]byte, error) {
	if ref.Offset < 0 || ref.Size < 0 || ref.Offset+ref.Size > fileSize {
		return nil, ErrIndexBounds
	}
	if ref.Size > (1 << 31) {
		return nil, ErrIndexTooLarge
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		buf := make([]byte, ref.Size)
		if _, err := ra.ReadAt(buf, ref.Offset); err != nil {
			lastErr = err
			continue
		}
		if trailer.Encrypted {
			if decryptor == nil {
				return nil, ErrNilDecryptor
			}
			key, ok := keyStore.Key(trailer.EncryptionKeyGUID)
			if !ok {
				return nil, ErrMissingKey
			}
			if err := decryptor.Decrypt(trailer.EncryptionKeyGUID, key, buf); err != nil {
				lastErr = err
				continue
			}
		}
		sum := sha1.Sum(buf)
		if bytes.Equal(sum[:], ref.Hash[:]) {
			return buf, nil
		}
		lastErr = ErrHashMismatch
	}
	return nil, lastErr
}

// parseDirectoryIndexStream decodes §6's directory-index stream, shared by
// the FullDirectoryIndex blob and the pruned index embedded in the
// PathHash blob.
func parseDirectoryIndexStream(r io.Reader) (map[string]map[string]int64, error) {
	dirCount, err := readI32(r)
	if err != nil {
		return nil, err
	}
	if dirCount < 0 {
		return nil, ErrNegativeCount
	}
	out := make(map[string]map[string]int64, dirCount)
	for i := int32(0); i < dirCount; i++ {
		dirName, err := readPakString(r)
		if err != nil {
			return nil, err
		}
		fileCount, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if fileCount < 0 {
			return nil, ErrNegativeCount
		}
		files := make(map[string]int64, fileCount)
		for j := int32(0); j < fileCount; j++ {
			leaf, err := readPakString(r)
			if err != nil {
				return nil, err
			}
			loc, err := readI64(r)
			if err != nil {
				return nil, err
			}
			files[leaf] = loc
		}
		out[dirName] = files
	}
	return out, nil
}

// parsePathHashBlob decodes §6's path-hash-index stream: the hash map
// followed by its embedded pruned directory index.
func parsePathHashBlob(data []byte) (map[uint64]int64, map[string]map[string]int64, error) {
	r := bytes.NewReader(data)
	count, err := readU32(r)
	if err != nil {
		return nil, nil, err
	}
	hashes := make(map[uint64]int64, count)
	for i := uint32(0); i < count; i++ {
		h, err := readU64(r)
		if err != nil {
			return nil, nil, err
		}
		offset, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		hashes[h] = int64(offset)
	}

	pruned, err := parseDirectoryIndexStream(r)
	if err != nil {
		// Older archives may not carry the embedded pruned index; treat
		// an exhausted stream as "no pruned index", not corruption.
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return hashes, nil, nil
		}
		return nil, nil, err
	}
	return hashes, pruned, nil
}
