/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

// Package eventgraph maintains a self-referential DAG of content-addressed
// events, together with per-device bookkeeping of which events a peer
// device has already seen. It lets a receiving device reconstruct the
// partial order of events exchanged over an untrusted relay, compute which
// dependencies a new outbound event should declare for a given recipient
// set, and safely garbage-collect vertices once every device is known to
// have witnessed a successor.
//
// The graph is represented as a dense-index map (thinmap.Map) plus edge
// lists of those indices: vertices conceptually point at each other, but
// ownership stays flat, since the map owns every vertex and edges are
// indices rather than references. This sidesteps cyclic ownership and keeps
// removal O(1) per vertex, the same trick golang.zx2c4.com/wireguard/device
// uses for its index-addressed keypair and peer tables.
package eventgraph

import (
	"github.com/princeton-sns/frida-go/corelog"
	"github.com/princeton-sns/frida-go/thinmap"
)

// eventNode is the per-vertex record: deps are the thin indices of this
// event's declared dependencies, in the order the sender declared them;
// revDeps are the thin indices of vertices that declare this one as a
// dependency.
type eventNode struct {
	deps    []thinmap.Index
	revDeps []thinmap.Index
}

// Graph is a single device's view of the event DAG. It is not safe for
// concurrent use or for re-entrant calls from an Inspector callback.
type Graph[D comparable, L comparable] struct {
	localDevice D

	events *thinmap.Map[L, *eventNode]
	roots  map[thinmap.Index]struct{}

	deviceLeaves map[D]map[thinmap.Index]struct{}
	leafDevice   map[thinmap.Index]D

	deviceKnown map[D]*knownSet

	insp Inspector[D, L]
	log  *corelog.Logger
}

// New returns a Graph for localDevice with no inspector and no logging.
func New[D comparable, L comparable](localDevice D) *Graph[D, L] {
	return NewWithInspector[D, L](localDevice, NopInspector[D, L]{}, nil)
}

// NewWithInspector returns a Graph for localDevice that notifies insp of
// every structural change. A nil logger disables Verbosef logging.
func NewWithInspector[D comparable, L comparable](localDevice D, insp Inspector[D, L], logger *corelog.Logger) *Graph[D, L] {
	if insp == nil {
		insp = NopInspector[D, L]{}
	}
	logger = corelog.Of(logger)
	return &Graph[D, L]{
		localDevice:  localDevice,
		events:       thinmap.New[L, *eventNode](),
		roots:        make(map[thinmap.Index]struct{}),
		deviceLeaves: make(map[D]map[thinmap.Index]struct{}),
		leafDevice:   make(map[thinmap.Index]D),
		deviceKnown:  make(map[D]*knownSet),
		insp:         insp,
		log:          logger,
	}
}

// InsertEvent records a new event authored by sender, identified by label,
// declaring declaredDeps as its causal dependencies (in sender-declared
// order). It assumes the event's hash has already been computed or verified
// by the caller and that declaredDeps is exactly what that hash covers.
//
// On success, the event is inserted with a freshly assigned thin index,
// any of its dependencies that were leaves are unmarked, the event itself
// becomes a leaf owned by sender, and sender's known-events set gains this
// event plus every transitive dependency it didn't already know about.
func (g *Graph[D, L]) InsertEvent(sender D, label L, declaredDeps []L) error {
	if g.events.Contains(label) {
		return ErrReplayedEvent
	}

	// Resolve each declared dependency to its thin index, verifying along
	// the way that the sequence of indices is non-decreasing: since thin
	// indices are assigned in local arrival order, a decrease means the
	// sender's declared order can't be consistent with what we've actually
	// observed.
	var currentSeq thinmap.Index
	depThin := make([]thinmap.Index, 0, len(declaredDeps))
	for _, dep := range declaredDeps {
		idx, _, ok := g.events.Get(dep)
		if !ok {
			return ErrDependencyUnknown
		}
		if idx >= currentSeq {
			currentSeq = idx
		} else {
			inOrderLabel, _, _ := g.events.GetByIndex(currentSeq)
			return &DependencyOrderMismatchError[L]{FirstInOrder: inOrderLabel, Offending: dep}
		}
		depThin = append(depThin, idx)
	}

	// ---------- graph update phase ----------

	g.notifyAddVertex(label)
	for _, dep := range declaredDeps {
		g.notifyAddEdge(dep, label)
	}

	for _, depIdx := range depThin {
		dev, wasLeaf := g.leafDevice[depIdx]
		if !wasLeaf {
			continue
		}
		depLabel, _, _ := g.events.GetByIndex(depIdx)
		g.notifySetLeaf(depLabel, false)
		delete(g.leafDevice, depIdx)
		if leaves := g.deviceLeaves[dev]; leaves != nil {
			delete(leaves, depIdx)
		}
	}

	eventIdx, _ := g.events.Insert(label, &eventNode{deps: depThin})

	for _, depIdx := range depThin {
		_, depNode, _ := g.events.GetByIndex(depIdx)
		depNode.revDeps = append(depNode.revDeps, eventIdx)
	}

	if len(declaredDeps) == 0 {
		g.roots[eventIdx] = struct{}{}
		g.notifySetRoot(label, true)
	}

	g.leafDevice[eventIdx] = sender
	if g.deviceLeaves[sender] == nil {
		g.deviceLeaves[sender] = make(map[thinmap.Index]struct{})
	}
	g.deviceLeaves[sender][eventIdx] = struct{}{}
	g.notifySetLeaf(label, true)

	// ---------- device known-events update phase ----------

	g.markKnownTransitively(sender, eventIdx)

	return nil
}

// stackFrame is one level of the explicit (non-recursive) dependency walk
// used to update a sender's known-events set after InsertEvent. depPos is
// the index of the next not-yet-checked dependency of the event at idx.
type stackFrame struct {
	idx    thinmap.Index
	depPos int
}

// markKnownTransitively marks eventIdx, and every transitive dependency of
// it not already known to sender, as known to sender — deepest-first, so
// contiguous runs fold into a knownSet's base rather than piling up in its
// gaps. Walked iteratively with an explicit stack to avoid recursion depth
// tied to dependency chain length.
func (g *Graph[D, L]) markKnownTransitively(sender D, eventIdx thinmap.Index) {
	if sender == g.localDevice {
		// The local device's "known" set is implicit: everything with a
		// thin index below the next one to be assigned.
		return
	}

	stack := []stackFrame{{idx: eventIdx}}
	for len(stack) > 0 {
		top := len(stack) - 1
		idx := stack[top].idx
		depPos := stack[top].depPos
		_, node, _ := g.events.GetByIndex(idx)

		if depPos == len(node.deps) {
			g.markDeviceKnown(sender, idx)
			label, _, _ := g.events.GetByIndex(idx)
			g.notifyDeviceKnows(sender, label)
			stack = stack[:top]
			continue
		}

		pushedChild := false
		for depPos < len(node.deps) {
			if !g.deviceKnows(sender, node.deps[depPos]) {
				stack[top].depPos = depPos
				stack = append(stack, stackFrame{idx: node.deps[depPos]})
				pushedChild = true
				break
			}
			depPos++
		}
		if !pushedChild {
			stack[top].depPos = depPos
		}
	}
}

// deviceKnows reports whether device has this event's thin index in its
// known-events set (for the local device: whether it has been assigned at
// all).
func (g *Graph[D, L]) deviceKnows(device D, idx thinmap.Index) bool {
	if device == g.localDevice {
		return idx < g.events.NextIndex()
	}
	ks, ok := g.deviceKnown[device]
	if !ok {
		return false
	}
	return ks.contains(idx)
}

func (g *Graph[D, L]) markDeviceKnown(device D, idx thinmap.Index) {
	if device == g.localDevice {
		return
	}
	ks, ok := g.deviceKnown[device]
	if !ok {
		ks = &knownSet{}
		g.deviceKnown[device] = ks
	}
	ks.mark(idx)
}

// NewEventDeps returns the union, across recipients, of the current leaf
// events authored by each recipient — the dependency set a new outbound
// event addressed to recipients should declare. Order is unspecified and
// duplicates across recipients are not removed; callers that need a
// deduplicated set should do so themselves. The returned sequence is lazy
// and must not be iterated while the graph is mutated.
func (g *Graph[D, L]) NewEventDeps(recipients []D) func(yield func(L) bool) {
	return func(yield func(L) bool) {
		for _, r := range recipients {
			for idx := range g.deviceLeaves[r] {
				label, _, ok := g.events.GetByIndex(idx)
				if !ok {
					continue
				}
				if !yield(label) {
					return
				}
			}
		}
	}
}

// IterEdges yields every forward edge (dependency -> dependent) currently
// held in the graph.
func (g *Graph[D, L]) IterEdges(yield func(from, to L) bool) {
	g.events.Range(func(_ thinmap.Index, label L, node *eventNode) bool {
		for _, depIdx := range node.deps {
			depLabel, _, ok := g.events.GetByIndex(depIdx)
			if !ok {
				continue
			}
			if !yield(depLabel, label) {
				return false
			}
		}
		return true
	})
}

// TrimGraph garbage-collects vertices for which every device the graph has
// heard from knows at least one reverse-dependency, seeding the work queue
// from the current roots and promoting new roots as vertices are removed.
// It never removes a leaf: a root with no reverse-dependencies is skipped.
func (g *Graph[D, L]) TrimGraph() {
	pending := make([]thinmap.Index, 0, len(g.roots))
	for idx := range g.roots {
		pending = append(pending, idx)
	}

	for len(pending) > 0 {
		rootIdx := pending[0]
		pending = pending[1:]

		rootLabel, rootNode, ok := g.events.GetByIndex(rootIdx)
		if !ok {
			panic("eventgraph: root index missing from event graph")
		}

		if len(rootNode.revDeps) == 0 {
			// Never delete a leaf.
			continue
		}

		if !g.allDevicesKnowAnyOf(rootNode.revDeps) {
			continue
		}

		for _, revDepIdx := range rootNode.revDeps {
			if g.hasOtherSurvivingDep(revDepIdx, rootIdx) {
				continue
			}
			g.roots[revDepIdx] = struct{}{}
			pending = append(pending, revDepIdx)
			revDepLabel, _, _ := g.events.GetByIndex(revDepIdx)
			g.notifySetRoot(revDepLabel, true)
		}

		for _, revDepIdx := range rootNode.revDeps {
			revDepLabel, _, _ := g.events.GetByIndex(revDepIdx)
			g.notifyRemoveEdge(rootLabel, revDepLabel)
		}
		g.notifySetRoot(rootLabel, false)
		g.notifyRemoveVertex(rootLabel)
		g.events.RemoveByIndex(rootIdx)
		delete(g.roots, rootIdx)
		g.log.Verbosef("eventgraph: trimmed vertex (thin index %d)", rootIdx)
	}
}

// allDevicesKnowAnyOf reports whether every device the graph has heard from
// knows at least one of the given thin indices.
func (g *Graph[D, L]) allDevicesKnowAnyOf(indices []thinmap.Index) bool {
	for device := range g.deviceKnown {
		knowsAny := false
		for _, idx := range indices {
			if g.deviceKnows(device, idx) {
				knowsAny = true
				break
			}
		}
		if !knowsAny {
			return false
		}
	}
	return true
}

// hasOtherSurvivingDep reports whether the event at idx has a declared
// dependency other than exclude that is still present in the graph.
func (g *Graph[D, L]) hasOtherSurvivingDep(idx, exclude thinmap.Index) bool {
	_, node, ok := g.events.GetByIndex(idx)
	if !ok {
		panic("eventgraph: reverse dependency missing from event graph")
	}
	for _, depIdx := range node.deps {
		if depIdx != exclude && g.events.ContainsIndex(depIdx) {
			return true
		}
	}
	return false
}
