// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

package pak

import (
	"encoding/binary"
	"io"
	"unicode/utf16"
)

// readPakString reads one length-prefixed string as the archive's index
// streams encode them: a signed 32-bit length, then that many code units
// plus a terminating NUL. A positive length means ANSI bytes (one byte per
// unit); a negative length means UTF-16LE (two bytes per unit, magnitude
// given). Older archives' directory-index leaf names arrive via the
// UTF-16LE form and are transcoded to UTF-8 here, satisfying §6's
// "older archives use wide-char strings transcoded to UTF-8 on load".
func readPakString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if n == 0 {
		return "", nil
	}
	if n > 0 {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		return string(buf[:len(buf)-1]), nil // drop trailing NUL
	}

	count := int(-n)
	buf := make([]byte, count*2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	units := make([]uint16, count-1) // drop trailing NUL unit
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return string(utf16.Decode(units)), nil
}

// writePakString writes s in the ANSI form of readPakString's convention,
// used only to build fixture index streams in tests.
func writePakString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(int32(len(s)+1)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readI32(r io.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readI64(r io.Reader) (int64, error) {
	v, err := readU64(r)
	return int64(v), err
}
