// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ecd drives electrochromic display segments.
//
// An electrochromic segment is bistable: once colored or bleached it keeps its
// state without power, but the charge slowly leaks. Segments are driven one
// at a time through a single multiplexed channel (see package hal), either
// with fixed pulses (Passive) or with pulses verified by analog read back
// (Active).
//
// A Dev holds two state vectors. The next states are edited freely by the
// application; Update is the only call touching the hardware and brings the
// current states in line with the next states.
package ecd

import (
	"fmt"
	"io"

	"github.com/GermanBionicSystems/ecd/hal"
)

// Display is the contract shared by every segment display model.
type Display interface {
	// Init computes and validates the drive configuration and builds the
	// driver. It panics on an invalid configuration.
	Init()
	// Reset requests every segment bleached.
	Reset()
	// Set requests every segment colored.
	Set()
	// SetStates requests explicit segment states.
	SetStates(states []bool)
	// Toggle requests the inverse of the current states.
	Toggle()
	// Update drives the hardware toward the requested states.
	Update() Result
	// PrintConfig writes the drive configuration.
	PrintConfig(w io.Writer) error
	// SegmentCount returns the number of segments.
	SegmentCount() int
	// States returns a copy of the current states.
	States() []bool
	// NextStates returns a copy of the requested states.
	NextStates() []bool
}

// Dev is a segment display.
type Dev struct {
	pins    []hal.Pin
	states  []bool
	next    []bool
	config  Config
	profile Profile
	driver  Driver
	app     *AppConfig
}

// New returns a display driving pins. Segment i is wired to pins[i].
//
// It panics if app or p is nil, if pins is empty or if a pin is not an
// addressable segment channel: these are integration bugs.
func New(pins []hal.Pin, app *AppConfig, p Profile) *Dev {
	if app == nil {
		panic("ecd: nil application config")
	}
	if p == nil {
		panic("ecd: nil profile")
	}
	if len(pins) == 0 || len(pins) > int(hal.MaxPin) {
		panic(fmt.Sprintf("ecd: invalid segment count %d", len(pins)))
	}
	for _, pin := range pins {
		if !pin.Valid() {
			panic(fmt.Sprintf("ecd: invalid segment pin %d", pin))
		}
	}
	return &Dev{
		pins:    append([]hal.Pin(nil), pins...),
		states:  make([]bool, len(pins)),
		next:    make([]bool, len(pins)),
		profile: p,
		app:     app,
	}
}

// Init implements Display.
func (d *Dev) Init() {
	d.config = d.profile(int(d.app.Scale().MaxCount()))
	if err := d.config.Validate(); err != nil {
		panic(err)
	}
	base := drive{cfg: &d.config, pins: d.pins, bus: d.app.Bus, log: d.app.logger()}
	if d.app.ActiveDriving {
		d.driver = &Active{drive: base}
	} else {
		d.driver = &Passive{drive: base}
	}
}

// Reset implements Display.
func (d *Dev) Reset() {
	for i := range d.next {
		d.next[i] = false
	}
}

// Set implements Display.
func (d *Dev) Set() {
	for i := range d.next {
		d.next[i] = true
	}
}

// SetStates implements Display. It panics if len(states) differs from the
// segment count.
func (d *Dev) SetStates(states []bool) {
	if len(states) != len(d.next) {
		panic(fmt.Sprintf("ecd: got %d states for %d segments", len(states), len(d.next)))
	}
	copy(d.next, states)
}

// SetSegment requests the state of segment i.
func (d *Dev) SetSegment(i int, on bool) {
	d.next[i] = on
}

// Toggle implements Display.
func (d *Dev) Toggle() {
	for i, s := range d.states {
		d.next[i] = !s
	}
}

// Update implements Display.
func (d *Dev) Update() Result {
	if d.driver == nil {
		panic("ecd: Update called before Init")
	}
	return d.driver.Drive(d.states, d.next)
}

// PrintConfig implements Display.
func (d *Dev) PrintConfig(w io.Writer) error {
	return d.config.Print(w)
}

// Config returns the drive configuration computed by Init.
func (d *Dev) Config() Config {
	return d.config
}

// Driver returns the driver built by Init.
func (d *Dev) Driver() Driver {
	return d.driver
}

// SegmentCount implements Display.
func (d *Dev) SegmentCount() int {
	return len(d.pins)
}

// Pins returns a copy of the segment pins.
func (d *Dev) Pins() []hal.Pin {
	return append([]hal.Pin(nil), d.pins...)
}

// States implements Display.
func (d *Dev) States() []bool {
	return append([]bool(nil), d.states...)
}

// NextStates implements Display.
func (d *Dev) NextStates() []bool {
	return append([]bool(nil), d.next...)
}

func (d *Dev) String() string {
	return fmt.Sprintf("ecd{%d}", len(d.pins))
}

var _ Display = &Dev{}
