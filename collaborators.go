// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"io"
)

// ReaderAtFactory produces a fresh seekable byte handle onto the archive.
// The core never opens files itself; every handle comes from a factory
// supplied by the caller, which owns filesystem or network access. Size
// reports the archive's total byte length, used to locate the trailer.
type ReaderAtFactory interface {
	OpenReaderAt() (io.ReaderAt, io.Closer, error)
	Size() (int64, error)
}

// KeyStore answers key-presence queries and returns decryption keys by
// GUID. A zero GUID denotes the archive's default key: HasKey is not asked
// about it at mount, but Key is asked for it when an index is encrypted.
type KeyStore interface {
	HasKey(guid [16]byte) bool
	Key(guid [16]byte) ([]byte, bool)
}

// Decryptor performs symmetric decryption of index or payload bytes keyed
// by a GUID resolved through a KeyStore. Implementations decrypt data in
// place, leaving its length unchanged.
type Decryptor interface {
	Decrypt(guid [16]byte, key, data []byte) error
}

// ChunkVerifier validates one signing-chunk's bytes against an externally
// supplied signature and reports failures asynchronously through Failed.
type ChunkVerifier interface {
	VerifyChunk(chunkIndex int, data []byte) bool
	Failed() int
}

// PayloadDecoder decompresses one entry's whole compressed payload for a
// given method index. Check uses it, when configured, to validate payload hashes for
// compressed entries; Find and iteration never decompress.
type PayloadDecoder interface {
	// Supports reports whether this decoder handles the given method index.
	Supports(method uint8) bool
	Decode(method uint8, compressed []byte, uncompressedSize int64) ([]byte, error)
}
