/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package msgchains

import "errors"

// Sentinel errors for the MessageChains error taxonomy (§7 of the
// specification this package implements), following the same package-level
// sentinel style as eventgraph's errors.go and
// golang.zx2c4.com/wireguard/device's errMessageLengthMismatch.
var (
	// ErrTooFewRecipients is returned when a message's recipient set is
	// empty.
	ErrTooFewRecipients = errors.New("msgchains: message has no recipients")

	// ErrMissingSelfRecipient is returned when the recipient set does
	// not include the local device.
	ErrMissingSelfRecipient = errors.New("msgchains: recipient set omits local device")

	// ErrInvalidRecipientsOrder is returned when the recipient set is
	// not in strict ascending order, or contains a duplicate.
	ErrInvalidRecipientsOrder = errors.New("msgchains: recipients not in strict ascending order")

	// ErrOwnMessageInvalidReordered is returned when an echoed message
	// attributed to the local device does not match the head of the
	// locally queued pending messages.
	ErrOwnMessageInvalidReordered = errors.New("msgchains: own echoed message does not match pending head")

	// ErrInvariantViolated is returned when a validation payload
	// references an unknown peer, an out-of-range sequence number, or a
	// mismatched digest.
	ErrInvariantViolated = errors.New("msgchains: validation payload violates chain invariant")

	// ErrUnknownDevice is returned by queries about a peer the chain has
	// never interacted with.
	ErrUnknownDevice = errors.New("msgchains: unknown device")
)
