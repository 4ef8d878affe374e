// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"bytes"
	"fmt"

	"github.com/woozymasta/lzss"
)

// LzssDecoder is the one concrete PayloadDecoder this module ships,
// covering the legacy LZSS compression slot older archives may register in
// their trailer's compression-method table. Check consults it, when
// supplied, to validate the payload hash of entries compressed with that
// slot; Find and iteration never decompress.
//
// The wire format identifies compression methods by a per-archive slot
// index resolved through the trailer's own name table (see
// Trailer.CompressionMethodName), not a fixed constant, so a LzssDecoder is
// bound to whichever slot index that particular archive's trailer assigns
// to "LZSS" at mount time.
type LzssDecoder struct {
	Method uint8
}

// Supports reports whether method is the slot this decoder was bound to.
func (d LzssDecoder) Supports(method uint8) bool { return method == d.Method }

// Decode inflates one LZSS-compressed payload to its known uncompressed
// length.
func (d LzssDecoder) Decode(method uint8, compressed []byte, uncompressedSize int64) ([]byte, error) {
	if method != d.Method {
		return nil, fmt.Errorf("pak: LzssDecoder bound to method %d, got %d", d.Method, method)
	}
	var out bytes.Buffer
	out.Grow(int(uncompressedSize))
	if _, err := lzss.DecompressToWriter(&out, bytes.NewReader(compressed), int(uncompressedSize), nil); err != nil {
		return nil, fmt.Errorf("pak: lzss decompress: %w", err)
	}
	return out.Bytes(), nil
}
