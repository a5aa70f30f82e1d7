/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package msgchains

// Digest is a fixed-width 32-byte canonical message digest. Unlike the
// reference implementation's generic associated Output type, this
// specification fixes the digest width at 32 bytes, so a plain array does
// the job without the corresponding generic plumbing.
type Digest [32]byte

// zeroDigest is the sentinel base digest pending_messages is seeded with,
// so chain computation always has a predecessor to absorb.
var zeroDigest Digest

// Hasher computes the chained digest of a message, given the digest it is
// chained onto (nil for the first message in a chain) and the recipient
// set it was addressed to. Implementations are capability records chosen
// at MessageChains construction, the same pattern eventgraph.Inspector
// uses: no global registry, no dynamic dispatch beyond the interface call
// itself.
type Hasher[D Device[D]] interface {
	HashMessage(prev *Digest, recipients []D, message []byte) Digest
}
