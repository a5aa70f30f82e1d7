/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

// Package corelog provides the small logging capability threaded through
// the event graph engine and the chainsim demo, in the same shape as the
// *device.Logger used throughout golang.zx2c4.com/wireguard/device: a
// struct of formatting funcs rather than an interface, so callers can wire
// up whatever backend they like (or silence it) without an adapter type.
package corelog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// LogLevelFunc matches the signature of log.Printf.
type LogLevelFunc func(format string, args ...any)

// Logger is passed into the event graph's constructor. Verbosef carries
// its diagnostic lines (one per trimmed vertex, and any panicking
// inspector callback); the message chain engine takes no Logger and logs
// nothing. Errorf is available to callers building on top of the
// engines but is never invoked internally, since engine errors are always
// returned rather than logged-and-swallowed.
type Logger struct {
	Verbosef LogLevelFunc
	Errorf   LogLevelFunc
}

// NewLogger constructs a Logger that writes to w, prepending tag to every
// line, mirroring device.NewLogger's level/prepend convention.
func NewLogger(w io.Writer, tag string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.New(w, tag, log.LstdFlags)
	return &Logger{
		Verbosef: func(format string, args ...any) {
			logger.Output(2, fmt.Sprintf(format, args...)) //nolint:errcheck
		},
		Errorf: func(format string, args ...any) {
			logger.Output(2, "ERROR: "+fmt.Sprintf(format, args...)) //nolint:errcheck
		},
	}
}

// NewEmpty returns a Logger whose funcs discard everything. Engines must
// never dereference a nil *Logger, so every constructor falls back to this
// when the caller passes nil.
func NewEmpty() *Logger {
	return &Logger{
		Verbosef: func(string, ...any) {},
		Errorf:   func(string, ...any) {},
	}
}

func orEmpty(l *Logger) *Logger {
	if l == nil {
		return NewEmpty()
	}
	return l
}

// Of is a small helper engines use internally so that a nil Logger
// argument at construction time never has to be special-cased again.
func Of(l *Logger) *Logger {
	return orEmpty(l)
}
