// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package anim

import (
	"github.com/GermanBionicSystems/ecd/displays"
	"github.com/GermanBionicSystems/ecd/ecd"
)

// Toggler inverts every segment.
type Toggler struct {
	D ecd.Display
}

// Transition implements Transitioner.
func (t *Toggler) Transition() {
	t.D.Toggle()
}

// OnOff blinks a single segment.
type OnOff struct {
	D *displays.Single
}

// Transition implements Transitioner.
func (o *OnOff) Transition() {
	if o.D.IsOn() {
		o.D.Off()
	} else {
		o.D.On()
	}
}

// counter steps through lo..hi, wrapping in both directions.
type counter struct {
	n, last int
	started bool
}

// step returns the value to show, first on the initial call, and advances.
func (c *counter) step(first, lo, hi int, down bool) int {
	if !c.started {
		c.n, c.started = first, true
	}
	c.last = c.n
	size := hi - lo + 1
	d := 1
	if down {
		d = size - 1
	}
	c.n = lo + (c.n-lo+d)%size
	return c.last
}

// DecimalCounter counts on a two digit display over 0 to 99.
//
// Counting up shows 1 first and ends the cycle on 0. Counting down shows 99
// first, reaches 0 after 1 and then wraps to 99; 0 is part of both cycles.
type DecimalCounter struct {
	D    *displays.DecimalNumber
	Down bool

	c counter
}

// Transition implements Transitioner.
func (d *DecimalCounter) Transition() {
	first := 1
	if d.Down {
		first = 99
	}
	n := d.c.step(first, 0, 99, d.Down)
	d.D.Show(uint8(n/10), uint8(n%10))
}

// Value returns the last shown number.
func (d *DecimalCounter) Value() int {
	return d.c.last
}

// SignedCounter counts on a signed two digit display.
//
// Positive counters run over 0 to 99 like DecimalCounter. Negative counters
// show the minus sign and run over -1 to -99, never showing -0; counting
// up grows the magnitude.
type SignedCounter struct {
	D        *displays.SignedNumber
	Negative bool
	Down     bool

	c counter
}

// Transition implements Transitioner.
func (s *SignedCounter) Transition() {
	lo, first := 0, 1
	if s.Negative {
		lo = 1
	}
	if s.Down {
		first = 99
	}
	n := s.c.step(first, lo, 99, s.Down)
	s.D.Show(uint8(n/10), uint8(n%10), s.Negative)
}

// Value returns the last shown number, negative for negative counters.
func (s *SignedCounter) Value() int {
	if s.Negative {
		return -s.c.last
	}
	return s.c.last
}

// DotCounter counts 0 to 9 on a dot number display. Counting up shows 1
// first; counting down shows 9 first.
type DotCounter struct {
	D    *displays.DotNumber
	Down bool

	c counter
}

// Transition implements Transitioner.
func (d *DotCounter) Transition() {
	first := 1
	if d.Down {
		first = 9
	}
	d.D.Show(uint8(d.c.step(first, 0, 9, d.Down)), false)
}

// BarCounter grows or shrinks a bar graph by one segment per transition.
type BarCounter struct {
	D    *displays.Bar
	Down bool
}

// Transition implements Transitioner.
func (c *BarCounter) Transition() {
	if c.Down {
		c.D.Decrement()
	} else {
		c.D.Increment()
	}
}

// barCycle is the segment order of BarCycle.
var barCycle = [...]int{1, 0, 2}

// BarCycle moves a single lit segment over a three segment bar, middle
// first.
type BarCycle struct {
	D *displays.Bar

	i int
}

// Transition implements Transitioner.
func (c *BarCycle) Transition() {
	c.D.Position(barCycle[c.i])
	c.i = (c.i + 1) % len(barCycle)
}

// Walker lights one segment at a time, in segment order.
type Walker struct {
	D *displays.Walk

	pos int
}

// Transition implements Transitioner.
func (w *Walker) Transition() {
	w.D.Show(w.pos)
	w.pos = (w.pos + 1) % w.D.SegmentCount()
}
