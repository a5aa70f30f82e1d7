/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package eventgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for the parameterless members of the InsertEvent error
// taxonomy (§7 of the specification this package implements), in the same
// style as golang.zx2c4.com/wireguard/device's errMessageLengthMismatch and
// similar package-level sentinels.
var (
	// ErrReplayedEvent is returned when a label already present in the
	// graph is inserted again.
	ErrReplayedEvent = errors.New("eventgraph: event already present (replayed)")

	// ErrDependencyUnknown is returned when a declared dependency is not
	// held locally.
	ErrDependencyUnknown = errors.New("eventgraph: declared dependency not held locally")

	// ErrDependencyHashCollision is reserved for a dependency equal to the
	// event's own label. In practice this is always caught by
	// ErrReplayedEvent first, since such a dependency could only resolve
	// if the label were already in the graph; InsertEvent never returns
	// this error, but it is kept so callers pattern-matching on the full
	// taxonomy have something to match against.
	ErrDependencyHashCollision = errors.New("eventgraph: dependency hash collision")
)

// DependencyOrderMismatchError reports that an event's declared
// dependencies do not form a non-decreasing sequence of local arrival
// order. FirstInOrder is the label of the last dependency that was still in
// order; Offending is the label of the first dependency that broke it.
type DependencyOrderMismatchError[L comparable] struct {
	FirstInOrder L
	Offending    L
}

func (e *DependencyOrderMismatchError[L]) Error() string {
	return fmt.Sprintf(
		"eventgraph: dependency order mismatch: last in-order dependency %v, offending dependency %v",
		e.FirstInOrder, e.Offending,
	)
}
