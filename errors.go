// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import "errors"

// Sentinel errors for pak operations. Use errors.Is in callers.
var (
	// ErrMagicMismatch means no known trailer version's magic matched at EOF.
	ErrMagicMismatch = errors.New("pak: trailer magic mismatch, unsupported or encrypted archive")
	// ErrVersionMismatch means the trailer's embedded version field disagrees with the trial version.
	ErrVersionMismatch = errors.New("pak: trailer version field mismatch")
	// ErrIndexBounds means the trailer's index offset/size fall outside the file.
	ErrIndexBounds = errors.New("pak: index offset or size out of bounds")
	// ErrIndexTooLarge means the index size exceeds the 2^31 byte limit.
	ErrIndexTooLarge = errors.New("pak: index size exceeds limit")
	// ErrHashMismatch means a decrypted index block's SHA-1 does not match its declared hash.
	ErrHashMismatch = errors.New("pak: index hash mismatch")
	// ErrMountPointTooLong means the mount point string exceeds 65535 bytes.
	ErrMountPointTooLong = errors.New("pak: mount point exceeds maximum length")
	// ErrNegativeCount means a deserialized count field is negative.
	ErrNegativeCount = errors.New("pak: negative count field")
	// ErrNoSecondaryIndex means neither a path-hash nor a full-directory index is present.
	ErrNoSecondaryIndex = errors.New("pak: archive has no usable secondary index")
	// ErrHashCollision means two distinct relative paths hashed to the same path-hash value.
	ErrHashCollision = errors.New("pak: path hash collision between distinct paths")
	// ErrMissingKey means the archive's encryption key GUID is not present in the key store.
	ErrMissingKey = errors.New("pak: encryption key not available")
	// ErrNotValid means the archive failed to load and only metadata queries are available.
	ErrNotValid = errors.New("pak: archive is not valid")
	// ErrEntryDeleted means a path resolves to a delete-record.
	ErrEntryDeleted = errors.New("pak: entry is a delete record")
	// ErrDanglingLocation means an EntryLocation does not resolve in the Entry Codec.
	ErrDanglingLocation = errors.New("pak: dangling entry location")
	// ErrInvalidEntryLocation means an EntryLocation carries an unrecognized tag.
	ErrInvalidEntryLocation = errors.New("pak: invalid entry location")
	// ErrClosed means the reader pool or reader has already been closed.
	ErrClosed = errors.New("pak: reader closed")
	// ErrNilFactory means no ReaderAtFactory was configured.
	ErrNilFactory = errors.New("pak: nil reader-at factory")
	// ErrSizeOverflow means a 64-bit size could not be represented in the requested width.
	ErrSizeOverflow = errors.New("pak: size exceeds representable width")
	// ErrNilDecryptor means an encrypted index was encountered but no Decryptor was configured.
	ErrNilDecryptor = errors.New("pak: encrypted index but no decryptor configured")
)
