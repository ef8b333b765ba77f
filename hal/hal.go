// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hal defines the hardware access contract used to drive
// electrochromic segments through a single multiplexed analog channel.
//
// All voltages crossing this boundary are expressed in DAC/ADC counts, from 0
// to 2^bits-1. Conversion to and from physical units is done with Scale, and
// only by the board specific implementation.
package hal

import (
	"errors"
	"fmt"
	"time"
)

// Pin is a multiplexer channel. Channel 0 is wired to the common electrode
// and cannot be addressed as a segment.
type Pin uint8

const (
	// Common is the multiplexer channel of the common electrode.
	Common Pin = 0
	// MaxPin is the highest addressable segment channel.
	MaxPin Pin = 15
)

var (
	// ErrInvalidPin is returned when a channel outside 1..15 is addressed.
	ErrInvalidPin = errors.New("hal: invalid segment pin")
	// ErrInvalidHold is returned when a write is requested with a non
	// positive hold time.
	ErrInvalidHold = errors.New("hal: invalid hold time")
)

// Valid reports whether p is an addressable segment channel.
func (p Pin) Valid() bool {
	return p > Common && p <= MaxPin
}

func (p Pin) String() string {
	if p == Common {
		return "COM"
	}
	return fmt.Sprintf("SEG%d", uint8(p))
}

// Bus is the single channel hardware access used by segment drivers.
//
// Only one pin can be addressed at a time. Implementations are not required
// to be safe for concurrent use.
type Bus interface {
	// DigitalWrite drives pin p high or low for hold while the common
	// electrode is held at common (in analog counts).
	DigitalWrite(p Pin, high bool, hold time.Duration, common uint16) error
	// AnalogRead samples the voltage of pin p in analog counts.
	AnalogRead(p Pin) (uint16, error)
}
