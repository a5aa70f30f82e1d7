/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package eventgraph

import "github.com/princeton-sns/frida-go/thinmap"

// knownSet is the compressed representation of the thin indices known to a
// single non-local device: an exclusive upper bound `base` of an initial
// contiguous prefix [0, base), plus a sorted deque `gaps` of indices >= base
// that are also known. The pack carries no off-the-shelf ordered-set
// container with a binary-search membership contract, so this is built
// directly on a sorted slice (a hand-written binary search for lookups, slice insert for the
// rare non-contiguous mark) rather than reaching for a third-party
// structure that doesn't actually fit the shape required here.
type knownSet struct {
	base thinmap.Index
	gaps []thinmap.Index
}

// contains reports whether idx is known, in O(log len(gaps)).
func (k *knownSet) contains(idx thinmap.Index) bool {
	if idx < k.base {
		return true
	}
	return binarySearch(k.gaps, idx) >= 0
}

// mark records idx as known. If idx continues the contiguous prefix, base
// advances and any now-contiguous run at the front of gaps is absorbed with
// it, in amortized O(1 + k) where k is the length of that run. Otherwise idx
// is spliced into gaps at its sorted position. Marking an index that is
// already known is a programming error.
func (k *knownSet) mark(idx thinmap.Index) {
	if idx < k.base {
		panic("eventgraph: marking index already known (double insertion)")
	}
	if idx == k.base {
		k.base++
		n := 0
		for n < len(k.gaps) && k.gaps[n] == k.base {
			k.base++
			n++
		}
		k.gaps = k.gaps[n:]
		return
	}

	pos := sortedInsertPos(k.gaps, idx)
	if pos < len(k.gaps) && k.gaps[pos] == idx {
		panic("eventgraph: marking index already known (double insertion)")
	}
	k.gaps = append(k.gaps, 0)
	copy(k.gaps[pos+1:], k.gaps[pos:])
	k.gaps[pos] = idx
}

// binarySearch returns the index of target within the sorted slice s, or -1
// if absent.
func binarySearch(s []thinmap.Index, target thinmap.Index) int {
	pos := sortedInsertPos(s, target)
	if pos < len(s) && s[pos] == target {
		return pos
	}
	return -1
}

// sortedInsertPos returns the position at which target should be inserted
// into the sorted slice s to keep it sorted (the first position whose
// element is >= target).
func sortedInsertPos(s []thinmap.Index, target thinmap.Index) int {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
