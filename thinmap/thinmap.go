/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

// Package thinmap implements a two-level map that, in addition to the usual
// key lookup, assigns every live key a dense, monotonically increasing
// numeric surrogate ("thin index") drawn from an internal counter. It is the
// leaf data structure underlying the event graph: vertices are addressed by
// a content digest, but edges and sequencing are cheapest to express as
// small integers rather than repeatedly hashing or comparing long digests.
package thinmap

import "math"

// Index is the dense surrogate Map assigns to each live key. Indices are
// never reused for the lifetime of a Map, and double as monotonic local
// sequence numbers for callers that insert in arrival order.
type Index = uint64

type slot[V any] struct {
	idx Index
	val V
}

// Map binds keys of type K to values of type V, while also maintaining the
// reverse mapping from Index back to K. It is not safe for concurrent use;
// callers serialize access the same way the rest of this module does.
type Map[K comparable, V any] struct {
	next     Index
	keyByIdx map[Index]K
	byKey    map[K]slot[V]
}

// New returns an empty Map whose first insertion is assigned index 0.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		keyByIdx: make(map[Index]K),
		byKey:    make(map[K]slot[V]),
	}
}

// NextIndex peeks at the index that the next Insert/InsertWith call will
// assign, without consuming it.
func (m *Map[K, V]) NextIndex() Index {
	return m.next
}

// Len reports the number of live keys.
func (m *Map[K, V]) Len() int {
	return len(m.byKey)
}

// Insert binds k to v, assigning it the next thin index. If k was already
// present, its prior value is returned and its old index is invalidated
// atomically with the new binding: no observer sees both indices live.
func (m *Map[K, V]) Insert(k K, v V) (Index, *V) {
	return m.InsertWith(k, func(Index) V { return v })
}

// InsertWith is like Insert, but the value is produced by f(idx) so that it
// may embed its own freshly assigned index.
func (m *Map[K, V]) InsertWith(k K, f func(Index) V) (Index, *V) {
	idx := m.next
	if idx == math.MaxUint64 {
		panic("thinmap: index counter overflow")
	}
	m.next = idx + 1

	v := f(idx)
	prior, hadPrior := m.byKey[k]
	m.byKey[k] = slot[V]{idx: idx, val: v}
	m.keyByIdx[idx] = k

	if hadPrior {
		delete(m.keyByIdx, prior.idx)
		return idx, &prior.val
	}
	return idx, nil
}

// Get looks up a key, returning its thin index and value.
func (m *Map[K, V]) Get(k K) (Index, V, bool) {
	s, ok := m.byKey[k]
	if !ok {
		var zero V
		return 0, zero, false
	}
	return s.idx, s.val, true
}

// GetByIndex looks up a value by its thin index, returning the key it is
// currently bound to as well.
func (m *Map[K, V]) GetByIndex(idx Index) (K, V, bool) {
	k, ok := m.keyByIdx[idx]
	if !ok {
		var zero K
		var zeroV V
		return zero, zeroV, false
	}
	s := m.byKey[k]
	return k, s.val, true
}

// Update replaces the value bound to an existing key without reassigning
// its thin index. It reports false (and does nothing) if k is not present.
func (m *Map[K, V]) Update(k K, v V) bool {
	s, ok := m.byKey[k]
	if !ok {
		return false
	}
	s.val = v
	m.byKey[k] = s
	return true
}

// UpdateByIndex is Update addressed by thin index.
func (m *Map[K, V]) UpdateByIndex(idx Index, v V) bool {
	k, ok := m.keyByIdx[idx]
	if !ok {
		return false
	}
	s := m.byKey[k]
	s.val = v
	m.byKey[k] = s
	return true
}

// Contains reports whether k is currently bound.
func (m *Map[K, V]) Contains(k K) bool {
	_, ok := m.byKey[k]
	return ok
}

// ContainsIndex reports whether idx currently names a live key.
func (m *Map[K, V]) ContainsIndex(idx Index) bool {
	_, ok := m.keyByIdx[idx]
	return ok
}

// Remove scrubs k from both directions of the map, returning its prior
// index and value.
func (m *Map[K, V]) Remove(k K) (Index, V, bool) {
	s, ok := m.byKey[k]
	if !ok {
		var zero V
		return 0, zero, false
	}
	delete(m.byKey, k)
	delete(m.keyByIdx, s.idx)
	return s.idx, s.val, true
}

// RemoveByIndex is Remove addressed by thin index.
func (m *Map[K, V]) RemoveByIndex(idx Index) (K, V, bool) {
	k, ok := m.keyByIdx[idx]
	if !ok {
		var zero K
		var zeroV V
		return zero, zeroV, false
	}
	s := m.byKey[k]
	delete(m.byKey, k)
	delete(m.keyByIdx, idx)
	return k, s.val, true
}

// Range calls f for every live (index, key, value) triple. f must not
// mutate the Map; like the event graph built on top of it, Map offers no
// iterator invalidation guarantees under concurrent modification.
func (m *Map[K, V]) Range(f func(idx Index, k K, v V) bool) {
	for k, s := range m.byKey {
		if !f(s.idx, k, s.val) {
			return
		}
	}
}
