// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package displays implements the electrochromic display models of the
// evaluation kit on top of package ecd.
//
// Each model is an ecd.Dev with a fixed pin map and drive profile, plus the
// model specific helpers to compose its next states (digits, bar position).
package displays

import (
	"github.com/GermanBionicSystems/ecd/ecd"
	"github.com/GermanBionicSystems/ecd/hal"
)

// DigitMask is the 7-segment encoding of the digits 0 to 9. Bit i drives
// digit segment i.
var DigitMask = [10]uint8{
	0b1111011, // 0
	0b1100000, // 1
	0b1011101, // 2
	0b1110101, // 3
	0b1100110, // 4
	0b0110111, // 5
	0b0111111, // 6
	0b1100001, // 7
	0b1111111, // 8
	0b1110111, // 9
}

// digit writes the encoding of n to the 7 segments starting at offset.
func digit(d *ecd.Dev, offset int, n uint8) {
	m := DigitMask[n%10]
	for i := range 7 {
		d.SetSegment(offset+i, m>>i&1 == 1)
	}
}

// Single is a one segment display.
type Single struct {
	*ecd.Dev
}

// NewSingle returns a single segment display.
func NewSingle(pins []hal.Pin, app *ecd.AppConfig) *Single {
	return &Single{Dev: ecd.New(pins, app, ecd.StandardProfile)}
}

// On requests the segment colored.
func (s *Single) On() {
	s.SetSegment(0, true)
}

// Off requests the segment bleached.
func (s *Single) Off() {
	s.SetSegment(0, false)
}

// IsOn reports whether the segment is requested colored.
func (s *Single) IsOn() bool {
	return s.NextStates()[0]
}

// Bar is a bar graph display.
type Bar struct {
	*ecd.Dev
	pos int
}

// NewBar returns a bar graph display with one segment per pin.
func NewBar(pins []hal.Pin, app *ecd.AppConfig) *Bar {
	return &Bar{Dev: ecd.New(pins, app, ecd.StandardProfile)}
}

// Increment grows the bar by one segment, wrapping to empty after full-1.
func (b *Bar) Increment() {
	b.pos++
	b.fill()
}

// Decrement shrinks the bar by one segment, wrapping from empty to full-1.
func (b *Bar) Decrement() {
	b.pos--
	b.fill()
}

// Position lights exactly one segment, pos modulo the segment count.
func (b *Bar) Position(pos int) {
	b.pos = b.wrap(pos)
	for i := range b.SegmentCount() {
		b.SetSegment(i, i == b.pos)
	}
}

// Pos returns the current bar position.
func (b *Bar) Pos() int {
	return b.pos
}

// ResetPos moves the bar back to position 0 without touching the states.
func (b *Bar) ResetPos() {
	b.pos = 0
}

// fill lights segments 0..pos-1 and clears the rest.
func (b *Bar) fill() {
	b.pos = b.wrap(b.pos)
	for i := range b.SegmentCount() {
		b.SetSegment(i, i < b.pos)
	}
}

func (b *Bar) wrap(pos int) int {
	n := b.SegmentCount()
	return (pos%n + n) % n
}

// DotNumber is a single 7-segment digit with a dot on segment 0.
type DotNumber struct {
	*ecd.Dev
}

// NewDotNumber returns a dot number display. pins must hold 8 pins.
func NewDotNumber(pins []hal.Pin, app *ecd.AppConfig) *DotNumber {
	mustCount(pins, 8)
	return &DotNumber{Dev: ecd.New(pins, app, ecd.StandardProfile)}
}

// Show requests digit n modulo 10 and the dot.
func (d *DotNumber) Show(n uint8, dot bool) {
	d.SetSegment(0, dot)
	digit(d.Dev, 1, n)
}

// DecimalNumber is a two digit display with a decimal point on segment 0,
// the tens on segments 1..7 and the ones on segments 8..14.
type DecimalNumber struct {
	*ecd.Dev
}

// NewDecimalNumber returns a two digit display. pins must hold 15 pins.
func NewDecimalNumber(pins []hal.Pin, app *ecd.AppConfig) *DecimalNumber {
	mustCount(pins, 15)
	return &DecimalNumber{Dev: ecd.New(pins, app, ecd.FastProfile)}
}

// Show requests the two digits, each modulo 10. The point is cleared.
func (d *DecimalNumber) Show(tens, ones uint8) {
	d.SetSegment(0, false)
	digit(d.Dev, 1, tens)
	digit(d.Dev, 8, ones)
}

// SignedNumber is a two digit display with a minus sign on segment 0.
type SignedNumber struct {
	*ecd.Dev
}

// NewSignedNumber returns a signed two digit display. pins must hold 15
// pins.
func NewSignedNumber(pins []hal.Pin, app *ecd.AppConfig) *SignedNumber {
	mustCount(pins, 15)
	return &SignedNumber{Dev: ecd.New(pins, app, ecd.FastProfile)}
}

// Show requests the two digits, each modulo 10, and the sign.
func (d *SignedNumber) Show(tens, ones uint8, minus bool) {
	d.SetSegment(0, minus)
	digit(d.Dev, 1, tens)
	digit(d.Dev, 8, ones)
}

// Walk is a diagnostic display with one segment per multiplexer channel.
type Walk struct {
	*ecd.Dev
}

// NewWalk returns a diagnostic display.
func NewWalk(pins []hal.Pin, app *ecd.AppConfig) *Walk {
	return &Walk{Dev: ecd.New(pins, app, ecd.FastProfile)}
}

// Show requests only segment pos modulo the segment count colored.
func (w *Walk) Show(pos int) {
	n := w.SegmentCount()
	pos = (pos%n + n) % n
	for i := range n {
		w.SetSegment(i, i == pos)
	}
}

func mustCount(pins []hal.Pin, n int) {
	if len(pins) != n {
		panic("displays: invalid pin count for display model")
	}
}
