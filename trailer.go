// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the fixed 32-bit constant every trailer must carry.
const Magic uint32 = 0x5A6F12E1

// Trailer is the fixed-layout metadata block located at a known,
// version-dependent offset from EOF (§3 "Info").
type Trailer struct {
	Version FormatVersion

	HasEncryptionKeyGUID bool
	EncryptionKeyGUID    [16]byte
	Encrypted            bool

	Magic        uint32
	VersionMajor VersionMajor

	IndexOffset int64
	IndexSize   int64
	Hash        [20]byte

	Frozen bool

	// CompressionMethods are the fixed 32-byte ASCII slot names this
	// version's trailer carries, trimmed of trailing NUL, in slot order;
	// an all-NUL slot decodes to "". Versions before FNameBasedCompression
	// carry no name table and get the implicit list Zlib, Gzip, Oodle.
	CompressionMethods []string
}

// NegotiateTrailer implements §4.4's trial negotiation: starting at the
// newest known format and walking down to the oldest, read the
// version-sized trailer at EOF and accept the first one whose magic
// matches. It is an error (ErrMagicMismatch) if none do.
func NegotiateTrailer(ra io.ReaderAt, fileSize int64) (*Trailer, error) {
	for v := FormatLatest; v >= FormatInitialVersion; v-- {
		size := v.TrailerSize()
		if size > fileSize {
			continue
		}
		buf := make([]byte, size)
		if _, err := ra.ReadAt(buf, fileSize-size); err != nil {
			continue
		}
		t, err := decodeTrailer(buf, v)
		if err != nil {
			continue
		}
		return t, nil
	}
	return nil, ErrMagicMismatch
}

func decodeTrailer(data []byte, v FormatVersion) (*Trailer, error) {
	r := bytes.NewReader(data)
	t := &Trailer{Version: v}

	if v.Major() >= MajorEncryptionKeyGUID {
		if _, err := io.ReadFull(r, t.EncryptionKeyGUID[:]); err != nil {
			return nil, err
		}
		t.HasEncryptionKeyGUID = t.EncryptionKeyGUID != [16]byte{}
	}

	if v.Major() >= MajorIndexEncryption {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		t.Encrypted = b != 0
	}

	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, err
	}
	t.Magic = binary.LittleEndian.Uint32(u32[:])
	if t.Magic != Magic {
		return nil, ErrMagicMismatch
	}

	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, err
	}
	t.VersionMajor = VersionMajor(binary.LittleEndian.Uint32(u32[:]))
	if t.VersionMajor != v.Major() {
		return nil, ErrVersionMismatch
	}

	var u64 [8]byte
	if _, err := io.ReadFull(r, u64[:]); err != nil {
		return nil, err
	}
	t.IndexOffset = int64(binary.LittleEndian.Uint64(u64[:]))
	if _, err := io.ReadFull(r, u64[:]); err != nil {
		return nil, err
	}
	t.IndexSize = int64(binary.LittleEndian.Uint64(u64[:]))

	if _, err := io.ReadFull(r, t.Hash[:]); err != nil {
		return nil, err
	}

	if v.Major() == MajorFrozenIndex {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		t.Frozen = b != 0
	}

	slots := v.compressionNameSlots()
	t.CompressionMethods = make([]string, 0, slots)
	nameBuf := make([]byte, 32)
	for i := 0; i < slots; i++ {
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, err
		}
		t.CompressionMethods = append(t.CompressionMethods, trimNulName(nameBuf))
	}
	if v.Major() < MajorFNameBasedCompression {
		t.CompressionMethods = append(t.CompressionMethods, "Zlib", "Gzip", "Oodle")
	}

	return t, nil
}

func trimNulName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ValidateBounds checks the trailer's index offset/size against the
// archive's file size, per §3's invariant.
func (t *Trailer) ValidateBounds(fileSize int64) error {
	if t.IndexOffset < 0 || t.IndexSize < 0 {
		return ErrIndexBounds
	}
	if t.IndexSize > (1 << 31) {
		return ErrIndexTooLarge
	}
	end := t.IndexOffset + t.IndexSize
	if end < t.IndexOffset || end > fileSize {
		return ErrIndexBounds
	}
	return nil
}

// CompressionMethodName resolves a decoded compression-method slot index
// (§4.1's 6-bit field, already shifted to be zero-based) to its recorded
// name, or "" if the slot is unused or out of range.
func (t *Trailer) CompressionMethodName(method uint8) string {
	if int(method) >= len(t.CompressionMethods) {
		return ""
	}
	return t.CompressionMethods[method]
}

// String renders a short diagnostic summary, used in fatal-corruption logs.
func (t *Trailer) String() string {
	return fmt.Sprintf("trailer{version=%s indexOffset=%d indexSize=%d encrypted=%v}",
		t.Version, t.IndexOffset, t.IndexSize, t.Encrypted)
}
