/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package msgchains

import (
	"crypto/sha256"
	"encoding/binary"
)

// Sha256Hasher is the canonical Hasher required for interoperability
// (§4.4): domain-separated by literal tags so that a prefix collision
// between "no predecessor" and a recipient list, or between a recipient
// list and the message body, can't produce a colliding digest. The device
// itself reaches for crypto/sha256 the same way, e.g.
// manager/webui.go's session-token hashing; there's no third-party SHA-256
// implementation in the pack that improves on the standard library one for
// a one-shot domain-separated digest like this.
type Sha256Hasher[D Device[D]] struct{}

// NewSha256Hasher returns the canonical Hasher.
func NewSha256Hasher[D Device[D]]() Sha256Hasher[D] {
	return Sha256Hasher[D]{}
}

func (Sha256Hasher[D]) HashMessage(prev *Digest, recipients []D, message []byte) Digest {
	h := sha256.New()

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
