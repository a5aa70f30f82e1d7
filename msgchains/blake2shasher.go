/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package msgchains

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2s"
)

// Blake2sHasher is a non-canonical alternate Hasher, built the same way
// device/cookie.go and device/noise-protocol.go construct a keyed BLAKE2s
// instance (blake2s.New256(nil)). It exists to demonstrate that Hasher is a
// genuine capability boundary rather than a fixed algorithm: two devices
// configured with different Hasher implementations simply can't validate
// each other's chains, which is exactly the property the interface is
// supposed to enforce. Production deployments exchanging digests across
// devices must agree on Sha256Hasher; this type is for tests and the demo
// only.
type Blake2sHasher[D Device[D]] struct{}

// NewBlake2sHasher returns the non-canonical alternate Hasher.
func NewBlake2sHasher[D Device[D]]() Blake2sHasher[D] {
	return Blake2sHasher[D]{}
}

func (Blake2sHasher[D]) HashMessage(prev *Digest, recipients []D, message []byte) Digest {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err)
	}

	if prev != nil {
		h.Write([]byte("prev"))
		h.Write(prev[:])
	} else {
		h.Write([]byte("no_prev"))
	}

	var idxBuf [8]byte
	for i, r := range recipients {
		binary.BigEndian.PutUint64(idxBuf[:], uint64(i))
		h.Write(idxBuf[:])
		h.Write(r.Bytes())
	}

	h.Write([]byte("message"))
	h.Write(message)

	var out Digest
	h.Sum(out[:0])
	return out
}
