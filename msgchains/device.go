/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

// Package msgchains maintains, for every peer device other than the local
// one, an ordered hash chain of messages exchanged with that peer. It
// queues locally-sent messages pending server echo, ingests received
// messages with order/self-presence/recipient-sort validation, produces
// validation payloads to piggy-back on outbound messages, and validates and
// trims peer chains on receipt of those payloads.
package msgchains

// Device is the constraint a device identifier type must satisfy: totally
// ordered (for the strict-ascending recipient check), comparable (for chain
// map keys and self-recognition), and byte-addressable (for hashing). The
// self-referential type parameter mirrors how golang.zx2c4.com/wireguard's
// Peer handle is parameterized over its own identity type.
type Device[D any] interface {
	comparable

	// Less reports whether this device sorts strictly before other.
	Less(other D) bool

	// Bytes returns the raw identifier bytes absorbed into the hash.
	Bytes() []byte
}

// DeviceID is a convenience string-backed Device implementation, suitable
// for tests and demos that don't need a richer identifier type.
type DeviceID string

func (d DeviceID) Less(other DeviceID) bool { return d < other }
func (d DeviceID) Bytes() []byte            { return []byte(d) }
