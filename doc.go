// SPDX-License-Identifier: MIT
// Copyright (c) 2026 pakcore authors

/*
Package pak mounts a single packaged archive ("pak") file: it validates the
trailer, decrypts and verifies the indexes, decodes the bit-packed per-file
entry representation, and answers path lookups and directory enumeration.

It does not write new archives, decompress payloads, move bytes over a
network, or discover plugins — those stay with the caller. What it consumes
from the caller are a handful of narrow collaborator interfaces
(ReaderAtFactory, KeyStore, Decryptor, ChunkVerifier, PayloadDecoder, see
collaborators.go) rather than owning those concerns itself.

# Mounting

	pf := pak.NewPakFile(pak.Config{}, myReaderAtFactory, myKeyStore, myDecryptor, nil)
	if err := pf.Initialize(); err != nil {
	    return err
	}
	if !pf.IsValid() {
	    // index load deferred (missing key) or fatally corrupt; see pf.InitError()
	}

# Lookup

	result, entry, err := pf.Find("/textures/wall.uasset")
	switch result {
	case pak.FindFound:
	    // entry.Offset, entry.CompressedSize, ... read payload via pf.GetSharedReader()
	case pak.FindFoundDeleted:
	    // path existed but was deleted
	case pak.FindNotFound:
	    // no such path
	}

# Enumeration

	it := pf.Iterate(false, false)
	for it.Next() {
	    name, loc := it.Filename(), it.Location()
	    _ = name
	    _ = loc
	}

# Pruning

Pruning collapses the full directory index to a runtime subset driven by
keep-wildcards (Config.DirectoryIndexKeepFiles /
DirectoryIndexKeepEmptyDirectories). It runs automatically during
Initialize unless Config.DelayPruning is set, in which case the caller runs
it explicitly:

	if err := pf.PrunePostMount(); err != nil {
	    return err
	}
*/
package pak
