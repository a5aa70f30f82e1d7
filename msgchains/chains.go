/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package msgchains

import "sort"

// chainEntry is one message recorded in a peer's chain: localSeq is the
// global, per-local-device sequence number assigned when the message was
// inserted (shared across every peer's chain, so it is not contiguous
// within any single chain); digest is the chained hash for that message in
// this peer's pairwise chain.
type chainEntry struct {
	localSeq int
	digest   Digest
}

// peerChain is one peer's pairwise hash chain. offset is the peer-relative
// sequence number of entries[0]: entries[i] always has peer-relative
// sequence number offset+i. validatedLocalSeq is the smallest local
// sequence number not yet confirmed, in the global local_seq space, by a
// validation payload from this peer.
type peerChain struct {
	offset            int
	validatedLocalSeq int
	entries           []chainEntry
}

// Payload is a validation payload: a peer-relative sequence number and the
// digest the sender claims is at that position in the chain, piggy-backed
// on an outbound message so its recipient can confirm the sender's view of
// their pairwise chain.
type Payload struct {
	Seq    int
	Digest Digest
}

// MessageChains is a single device's view of its pairwise message chains
// with every other device it has exchanged messages with. It is not safe
// for concurrent use.
type MessageChains[D Device[D]] struct {
	ownDevice D
	hasher    Hasher[D]

	// pendingMessages holds digests for locally-sent messages not yet
	// echoed back by the server, seeded with the all-zero sentinel so
	// the first comparison in InsertMessage always has a predecessor.
	pendingMessages []Digest

	chains map[D]*peerChain

	// localSeq is the next sequence number to assign to an ingested
	// message, global across every peer chain for this device.
	localSeq int
}

// New returns a MessageChains for ownDevice using hasher to compute chain
// digests.
func New[D Device[D]](ownDevice D, hasher Hasher[D]) *MessageChains[D] {
	return &MessageChains[D]{
		ownDevice:       ownDevice,
		hasher:          hasher,
		pendingMessages: []Digest{zeroDigest},
		chains:          make(map[D]*peerChain),
	}
}

// SortRecipients stably sorts recipients in place by Less. insert_message
// demands strict ascending order; this is the helper callers use to
// produce it.
func SortRecipients[D Device[D]](recipients []D) {
	sort.SliceStable(recipients, func(i, j int) bool { return recipients[i].Less(recipients[j]) })
}

// SendMessage pre-registers a locally-generated message: it computes the
// digest the message would chain onto in the outgoing direction (using the
// same hash recurrence as peer chains, chained onto the back of
// pendingMessages) and appends it, so that the eventual echo of this
// message back from the server can be matched against it in InsertMessage.
// It does not touch any peer chain and performs no recipient validation:
// send_message is a local pre-registration only.
func (m *MessageChains[D]) SendMessage(message []byte, recipients []D) Digest {
	prev := m.pendingMessages[len(m.pendingMessages)-1]
	digest := m.hasher.HashMessage(&prev, recipients, message)
	m.pendingMessages = append(m.pendingMessages, digest)
	return digest
}

// InsertMessage ingests a received message (including one echoed back by
// the server for a message this device itself sent) and returns the local
// sequence number assigned to it.
func (m *MessageChains[D]) InsertMessage(sender D, message []byte, recipients []D) (int, error) {
	sawSelf := false
	for i, r := range recipients {
		if i > 0 && !recipients[i-1].Less(r) {
			return 0, ErrInvalidRecipientsOrder
		}
		if r == m.ownDevice {
			sawSelf = true
		}
	}

	if len(recipients) == 0 {
		return 0, ErrTooFewRecipients
	}
	if !sawSelf {
		return 0, ErrMissingSelfRecipient
	}

	if sender == m.ownDevice {
		if len(m.pendingMessages) < 2 {
			return 0, ErrOwnMessageInvalidReordered
		}
		prev := m.pendingMessages[0]
		expect := m.hasher.HashMessage(&prev, recipients, message)
		if expect != m.pendingMessages[1] {
			return 0, ErrOwnMessageInvalidReordered
		}
		m.pendingMessages = m.pendingMessages[1:]
	}

	localSeq := m.localSeq
	m.localSeq++

	for _, r := range recipients {
		if r == m.ownDevice {
			continue
		}
		pc, ok := m.chains[r]
		if !ok {
			pc = &peerChain{}
			m.chains[r] = pc
		}

		var prev *Digest
		if n := len(pc.entries); n > 0 {
			prev = &pc.entries[n-1].digest
		}
		digest := m.hasher.HashMessage(prev, recipients, message)
		pc.entries = append(pc.entries, chainEntry{localSeq: localSeq, digest: digest})
	}

	return localSeq, nil
}

// ValidationPayload returns the validation payload for the last message
// currently held in recipient's chain, or ok=false if no chain exists for
// recipient or it is empty after trimming.
func (m *MessageChains[D]) ValidationPayload(recipient D) (payload Payload, ok bool) {
	pc, exists := m.chains[recipient]
	if !exists || len(pc.entries) == 0 {
		return Payload{}, false
	}
	last := pc.entries[len(pc.entries)-1]
	return Payload{Seq: pc.offset + len(pc.entries) - 1, Digest: last.digest}, true
}

// ValidateChain checks a validation payload against the local chain for
// validationSender. Its only state change is, on success, advancing the
// chain's validated local sequence number past the referenced entry, which
// DeviceValidatedEvent reports on; it never trims. A nil payload always
// succeeds ("nothing to verify"); a payload attributed to the local device
// always succeeds (by contract it should never be supplied in that case).
func (m *MessageChains[D]) ValidateChain(validationSender D, payload *Payload) error {
	if validationSender == m.ownDevice {
		return nil
	}
	if payload == nil {
		return nil
	}

	pc, ok := m.chains[validationSender]
	if !ok {
		return ErrInvariantViolated
	}

	if payload.Seq < pc.offset || payload.Seq >= pc.offset+len(pc.entries) {
		return ErrInvariantViolated
	}

	entry := pc.entries[payload.Seq-pc.offset]
	if entry.digest != payload.Digest {
		return ErrInvariantViolated
	}

	if want := entry.localSeq + 1; want > pc.validatedLocalSeq {
		pc.validatedLocalSeq = want
	}

	return nil
}

// ValidateTrimChain validates payload exactly as ValidateChain does, and on
// success trims validationSender's chain up to (but excluding) the
// referenced sequence number, returning the number of entries removed. As
// with ValidateChain, validationSender == the local device is a no-op:
// there is no local-device chain to trim.
func (m *MessageChains[D]) ValidateTrimChain(validationSender D, payload *Payload) (int, error) {
	if err := m.ValidateChain(validationSender, payload); err != nil {
		return 0, err
	}

	if payload == nil || validationSender == m.ownDevice {
		return 0, nil
	}

	pc := m.chains[validationSender]
	trimmed := 0
	for pc.offset < payload.Seq {
		pc.offset++
		pc.entries = pc.entries[1:]
		trimmed++
	}
	return trimmed, nil
}

// DeviceValidatedEvent reports whether the message assigned eventLocalSeq
// has been confirmed, by a validation payload, as known to device.
func (m *MessageChains[D]) DeviceValidatedEvent(device D, eventLocalSeq int) (bool, error) {
	pc, ok := m.chains[device]
	if !ok {
		return false, ErrUnknownDevice
	}
	return eventLocalSeq < pc.validatedLocalSeq, nil
}
