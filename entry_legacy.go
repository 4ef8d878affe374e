// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"encoding/binary"
	"io"
)

// ReadLegacyEntry decodes one full (non bit-packed) entry record, the
// format used by every secondary-index-less archive and by the overflow
// Files list inside the primary index stream. Field presence is gated by
// version the same way the bit-packed codec gates it by the flags word,
// except here every field is always the same fixed width.
func ReadLegacyEntry(r io.Reader, version FormatVersion) (FileEntry, error) {
	var buf [8]byte

	readU64 := func() (int64, error) {
		if _, err := io.ReadFull(r, buf[:8]); err != nil {
			return 0, err
		}
		return int64(binary.LittleEndian.Uint64(buf[:8])), nil
	}

	offset, err := readU64()
	if err != nil {
		return FileEntry{}, err
	}
	compressed, err := readU64()
	if err != nil {
		return FileEntry{}, err
	}
	uncompressed, err := readU64()
	if err != nil {
		return FileEntry{}, err
	}

	var methodField uint32
	if version == FormatFNameBasedCompressionA {
		if _, err := io.ReadFull(r, buf[:1]); err != nil {
			return FileEntry{}, err
		}
		methodField = uint32(buf[0])
	} else {
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return FileEntry{}, err
		}
		methodField = binary.LittleEndian.Uint32(buf[:4])
	}
	hasCompression := methodField != 0
	var method uint8
	if hasCompression {
		method = uint8(methodField - 1)
	}

	var timestamp *int64
	if version.Major() == MajorInitial {
		ts, err := readU64()
		if err != nil {
			return FileEntry{}, err
		}
		timestamp = &ts
	}

	var hash [20]byte
	if _, err := io.ReadFull(r, hash[:]); err != nil {
		return FileEntry{}, err
	}

	var blocks []Block
	if version.Major() >= MajorCompressionEncryption && hasCompression {
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return FileEntry{}, err
		}
		count := binary.LittleEndian.Uint32(buf[:4])
		blocks = make([]Block, 0, count)
		for i := uint32(0); i < count; i++ {
			start, err := readU64()
			if err != nil {
				return FileEntry{}, err
			}
			end, err := readU64()
			if err != nil {
				return FileEntry{}, err
			}
			blocks = append(blocks, Block{Start: start, End: end})
		}
	}

	var compressionBlockSize uint32
	var flags uint8
	if version.Major() >= MajorCompressionEncryption {
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return FileEntry{}, err
		}
		compressionBlockSize = binary.LittleEndian.Uint32(buf[:4])
		if _, err := io.ReadFull(r, buf[:1]); err != nil {
			return FileEntry{}, err
		}
		flags = buf[0]
	}

	return FileEntry{
		Offset:               offset,
		CompressedSize:       compressed,
		UncompressedSize:     uncompressed,
		HasCompression:       hasCompression,
		CompressionMethod:    method,
		Blocks:               blocks,
		CompressionBlockSize: compressionBlockSize,
		Encrypted:            flags&1 != 0,
		Deleted:              (flags>>1)&1 != 0,
		Hash:                 hash,
		Verified:             false,
		Timestamp:            timestamp,
	}, nil
}

// WriteLegacyEntry writes e back out in the full record format, the inverse
// of ReadLegacyEntry; the core never emits new archives and does not call
// it itself.
func WriteLegacyEntry(w io.Writer, e FileEntry, version FormatVersion) error {
	var buf [8]byte

	writeU64 := func(v int64) error {
		binary.LittleEndian.PutUint64(buf[:8], uint64(v))
		_, err := w.Write(buf[:8])
		return err
	}

	if err := writeU64(e.Offset); err != nil {
		return err
	}
	if err := writeU64(e.CompressedSize); err != nil {
		return err
	}
	if err := writeU64(e.UncompressedSize); err != nil {
		return err
	}

	method := uint32(0)
	if e.HasCompression {
		method = uint32(e.CompressionMethod) + 1
	}
	if version == FormatFNameBasedCompressionA {
		if _, err := w.Write([]byte{byte(method)}); err != nil {
			return err
		}
	} else {
		binary.LittleEndian.PutUint32(buf[:4], method)
		if _, err := w.Write(buf[:4]); err != nil {
			return err
		}
	}

	if version.Major() == MajorInitial {
		var ts int64
		if e.Timestamp != nil {
			ts = *e.Timestamp
		}
		if err := writeU64(ts); err != nil {
			return err
		}
	}

	if _, err := w.Write(e.Hash[:]); err != nil {
		return err
	}

	if version.Major() >= MajorCompressionEncryption {
		if e.HasCompression {
			binary.LittleEndian.PutUint32(buf[:4], uint32(len(e.Blocks)))
			if _, err := w.Write(buf[:4]); err != nil {
				return err
			}
			for _, blk := range e.Blocks {
				if err := writeU64(blk.Start); err != nil {
					return err
				}
				if err := writeU64(blk.End); err != nil {
					return err
				}
			}
		}
		binary.LittleEndian.PutUint32(buf[:4], e.CompressionBlockSize)
		if _, err := w.Write(buf[:4]); err != nil {
			return err
		}
		var flags byte
		if e.Encrypted {
			flags |= 1
		}
		if e.Deleted {
			flags |= 2
		}
		if _, err := w.Write([]byte{flags}); err != nil {
			return err
		}
	}

	return nil
}
