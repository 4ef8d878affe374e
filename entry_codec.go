// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"encoding/binary"
	"io"
)

// blockSizeOverflow is the block-size-code sentinel meaning "an explicit
// 32-bit block size follows the flags word".
const blockSizeOverflow = 0x3f

// legacyHeaderSize reproduces the full (non bit-packed) record's serialized
// byte size for a given version, compression presence, and block count. It
// is not itself a wire format this codec emits; decode uses it purely as
// the synthetic base offset from which relative compression-block offsets
// are reconstructed, matching the archive producer's own convention of
// addressing blocks as if the legacy header preceded the payload.
func legacyHeaderSize(version FormatVersion, hasCompression bool, blockCount int) int64 {
	size := int64(8 + 8 + 8) // offset, compressed, uncompressed
	if version == FormatFNameBasedCompressionA {
		size++
	} else {
		size += 4
	}
	if version.Major() == MajorInitial {
		size += 8 // timestamp
	}
	size += 20 // hash
	if hasCompression {
		size += 4 + int64(blockCount)*16
	}
	size++ // encrypted flag byte
	if version.Major() >= MajorCompressionEncryption {
		size += 4 // compression block size field
	}
	return size
}

// EncodeEntry writes the bit-packed §4.1 representation of e. It returns
// false (with no bytes written) when e cannot be represented: a
// compression method index that does not fit six bits, 65536 or more
// compression blocks, or a per-block compressed length that overflows 32
// bits.
func EncodeEntry(w io.Writer, e FileEntry) (bool, error) {
	if e.HasCompression && e.CompressionMethod >= 63 {
		return false, nil
	}
	if len(e.Blocks) >= 65536 {
		return false, nil
	}

	blockSizeCode := uint32(e.CompressionBlockSize>>11) & 0x3f
	explicitBlockSize := (blockSizeCode << 11) != e.CompressionBlockSize
	if explicitBlockSize {
		blockSizeCode = blockSizeOverflow
	}

	blockCount := 0
	if e.HasCompression {
		blockCount = len(e.Blocks)
	}

	if e.HasCompression && (len(e.Blocks) > 1 || e.Encrypted) {
		for _, blk := range e.Blocks {
			if length := blk.Length(); length < 0 || length > 0xffffffff {
				return false, nil
			}
		}
	}

	isOffset32 := e.Offset >= 0 && e.Offset <= 0xffffffff
	isUncompressed32 := e.UncompressedSize >= 0 && e.UncompressedSize <= 0xffffffff
	isCompressed32 := e.CompressedSize >= 0 && e.CompressedSize <= 0xffffffff

	method := uint32(0)
	if e.HasCompression {
		method = uint32(e.CompressionMethod) + 1
	}

	flags := blockSizeCode |
		(uint32(blockCount) << 6) |
		(b2u32(e.Encrypted) << 22) |
		(method << 23) |
		(b2u32(isCompressed32) << 29) |
		(b2u32(isUncompressed32) << 30) |
		(b2u32(isOffset32) << 31)

	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], flags)
	if _, err := w.Write(buf[:4]); err != nil {
		return false, err
	}

	if explicitBlockSize {
		binary.LittleEndian.PutUint32(buf[:4], e.CompressionBlockSize)
		if _, err := w.Write(buf[:4]); err != nil {
			return false, err
		}
	}

	if err := writeVarInt(w, uint64(e.Offset), isOffset32); err != nil {
		return false, err
	}
	if err := writeVarInt(w, uint64(e.UncompressedSize), isUncompressed32); err != nil {
		return false, err
	}

	if e.HasCompression {
		if err := writeVarInt(w, uint64(e.CompressedSize), isCompressed32); err != nil {
			return false, err
		}
		if len(e.Blocks) > 1 || e.Encrypted {
			for _, blk := range e.Blocks {
				binary.LittleEndian.PutUint32(buf[:4], uint32(blk.Length()))
				if _, err := w.Write(buf[:4]); err != nil {
					return false, err
				}
			}
		}
	}

	return true, nil
}

func writeVarInt(w io.Writer, v uint64, narrow bool) error {
	var buf [8]byte
	if narrow {
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		_, err := w.Write(buf[:4])
		return err
	}
	binary.LittleEndian.PutUint64(buf[:8], v)
	_, err := w.Write(buf[:8])
	return err
}

func b2u32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// DecodeEntry reads one bit-packed §4.1 record. The decoded entry always
// has Hash zeroed and Verified set to true; the codec never stores a
// payload hash inline.
func DecodeEntry(r io.Reader, version FormatVersion) (FileEntry, error) {
	var buf [8]byte

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return FileEntry{}, err
	}
	bits := binary.LittleEndian.Uint32(buf[:4])

	methodField := (bits >> 23) & 0x3f
	hasCompression := methodField != 0
	var method uint8
	if hasCompression {
		method = uint8(methodField - 1)
	}

	encrypted := (bits & (1 << 22)) != 0
	blockCount := int((bits >> 6) & 0xffff)
	blockSizeCode := bits & 0x3f

	var compressionBlockSize uint32
	if blockSizeCode == blockSizeOverflow {
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return FileEntry{}, err
		}
		compressionBlockSize = binary.LittleEndian.Uint32(buf[:4])
	} else {
		compressionBlockSize = blockSizeCode << 11
	}

	readVarInt := func(bit uint) (uint64, error) {
		narrow := (bits & (1 << bit)) != 0
		if narrow {
			if _, err := io.ReadFull(r, buf[:4]); err != nil {
				return 0, err
			}
			return uint64(binary.LittleEndian.Uint32(buf[:4])), nil
		}
		if _, err := io.ReadFull(r, buf[:8]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(buf[:8]), nil
	}

	offset, err := readVarInt(31)
	if err != nil {
		return FileEntry{}, err
	}
	uncompressed, err := readVarInt(30)
	if err != nil {
		return FileEntry{}, err
	}

	var compressed uint64
	if !hasCompression {
		compressed = uncompressed
	} else {
		compressed, err = readVarInt(29)
		if err != nil {
			return FileEntry{}, err
		}
	}

	offsetBase := legacyHeaderSize(version, hasCompression, blockCount)
	if version.Major() < MajorRelativeChunkOffsets {
		offsetBase += int64(offset)
	}

	var blocks []Block
	switch {
	case blockCount == 1 && !encrypted:
		blocks = []Block{{Start: offsetBase, End: offsetBase + int64(compressed)}}
	case blockCount > 0:
		blocks = make([]Block, 0, blockCount)
		index := offsetBase
		for i := 0; i < blockCount; i++ {
			if _, err := io.ReadFull(r, buf[:4]); err != nil {
				return FileEntry{}, err
			}
			blockSize := int64(binary.LittleEndian.Uint32(buf[:4]))
			blocks = append(blocks, Block{Start: index, End: index + blockSize})
			if encrypted {
				blockSize = align(blockSize)
			}
			index += blockSize
		}
	}

	if blockCount == 1 {
		compressionBlockSize = uint32(uncompressed)
	}

	return FileEntry{
		Offset:               int64(offset),
		CompressedSize:       int64(compressed),
		UncompressedSize:     int64(uncompressed),
		HasCompression:       hasCompression,
		CompressionMethod:    method,
		Blocks:               blocks,
		CompressionBlockSize: compressionBlockSize,
		Encrypted:            encrypted,
		Verified:             true,
	}, nil
}
