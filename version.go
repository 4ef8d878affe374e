// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

// FormatVersion enumerates the known on-disk trailer formats, oldest to
// newest. Archives are negotiated by trying versions from FormatLatest down
// to FormatInitial (see trailer.go) since the trailer's serialized size
// grew with each version and an older archive must still parse under a
// newer reader.
type FormatVersion int32

// Known trailer formats. V8A and V8B share a VersionMajor but differ in how
// many fixed 32-byte compression-method name slots the trailer carries (4
// vs. 5), so they are kept as distinct trial candidates during negotiation.
const (
	FormatUnknown FormatVersion = iota
	FormatInitial
	FormatNoTimestamps
	FormatCompressionEncryption
	FormatIndexEncryption
	FormatRelativeChunkOffsets
	FormatDeleteRecords
	FormatEncryptionKeyGUID
	FormatFNameBasedCompressionA
	FormatFNameBasedCompressionB
	FormatFrozenIndex
	FormatPathHashIndex
	FormatFnv64BugFix

	formatVersionCount
)

// FormatLatest is the newest format this package knows how to negotiate.
const FormatLatest = FormatFnv64BugFix

// FormatInitialVersion is the oldest format this package knows how to negotiate.
const FormatInitialVersion = FormatInitial

// VersionMajor groups FormatVersion values that share load-path semantics;
// V8A/V8B collapse to the same major.
type VersionMajor int

// Semantic version gates used throughout the index loader and entry codec.
const (
	MajorUnknown VersionMajor = iota
	MajorInitial
	MajorNoTimestamps
	MajorCompressionEncryption
	MajorIndexEncryption
	MajorRelativeChunkOffsets
	MajorDeleteRecords
	MajorEncryptionKeyGUID
	MajorFNameBasedCompression
	MajorFrozenIndex
	MajorPathHashIndex
	MajorFnv64BugFix
)

// Major maps a FormatVersion to its semantic major version.
func (v FormatVersion) Major() VersionMajor {
	switch v {
	case FormatUnknown:
		return MajorUnknown
	case FormatInitial:
		return MajorInitial
	case FormatNoTimestamps:
		return MajorNoTimestamps
	case FormatCompressionEncryption:
		return MajorCompressionEncryption
	case FormatIndexEncryption:
		return MajorIndexEncryption
	case FormatRelativeChunkOffsets:
		return MajorRelativeChunkOffsets
	case FormatDeleteRecords:
		return MajorDeleteRecords
	case FormatEncryptionKeyGUID:
		return MajorEncryptionKeyGUID
	case FormatFNameBasedCompressionA, FormatFNameBasedCompressionB:
		return MajorFNameBasedCompression
	case FormatFrozenIndex:
		return MajorFrozenIndex
	case FormatPathHashIndex:
		return MajorPathHashIndex
	case FormatFnv64BugFix:
		return MajorFnv64BugFix
	default:
		return MajorUnknown
	}
}

// Valid reports whether v is one of the known trial versions.
func (v FormatVersion) Valid() bool {
	return v >= FormatInitial && v < formatVersionCount
}

// compressionNameSlots returns how many fixed 32-byte compression-method
// name slots the trailer of this version carries.
func (v FormatVersion) compressionNameSlots() int {
	switch {
	case v < FormatFNameBasedCompressionA:
		return 0
	case v < FormatFNameBasedCompressionB:
		return 4
	default:
		return 5
	}
}

// TrailerSize returns the fixed byte size of this version's trailer,
// mirroring the producer side's own version-dependent extension layout:
// magic(4) + versionMajor(4) + indexOffset(8) + indexSize(8) + hash(20),
// plus an encryption-key GUID (16) from EncryptionKeyGUID on, an encrypted
// flag (1) from IndexEncryption on, a frozen flag (1) at exactly
// FrozenIndex, and the compression-method name table from
// FNameBasedCompression on.
func (v FormatVersion) TrailerSize() int64 {
	size := int64(4 + 4 + 8 + 8 + 20)
	if v.Major() >= MajorEncryptionKeyGUID {
		size += 16
	}
	if v.Major() >= MajorIndexEncryption {
		size++
	}
	if v.Major() == MajorFrozenIndex {
		size++
	}
	size += int64(v.compressionNameSlots()) * 32
	return size
}

// String renders a short human-readable name, used in negotiation logs.
func (v FormatVersion) String() string {
	names := [...]string{
		"Unknown", "Initial", "NoTimestamps", "CompressionEncryption",
		"IndexEncryption", "RelativeChunkOffsets", "DeleteRecords",
		"EncryptionKeyGUID", "FNameBasedCompressionA", "FNameBasedCompressionB",
		"FrozenIndex", "PathHashIndex", "Fnv64BugFix",
	}
	if v >= 0 && int(v) < len(names) {
		return names[v]
	}
	return "Invalid"
}
