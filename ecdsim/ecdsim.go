// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ecdsim implements a simulated electrochromic panel behind a
// hal.Bus, and renders it to the terminal (stdout) using ANSI color codes.
//
// Useful while you are waiting for your evaluation kit to come by mail.
//
// Each segment holds an analog level in 0..Max. A coloring pulse (segment
// high) moves the level toward Max, a bleaching pulse (segment low) toward 0,
// both proportionally to the pulse length and to the potential across the
// segment. Left alone, a level relaxes toward Max/2.
package ecdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"sync"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/GermanBionicSystems/ecd/hal"
)

// Opts represents the options available for the simulation.
type Opts struct {
	// Bits is the analog resolution. Defaults to 12.
	Bits uint8
	// Tau is the pulse length that fully switches a segment at full scale
	// potential. Defaults to 250ms.
	Tau time.Duration
	// Relax is the time constant of the charge leak. Defaults to 1 minute.
	Relax time.Duration
	// Palette renders the levels. Defaults to ansi256.Default.
	Palette *ansi256.Palette
	// W receives Render output. Defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a simulated panel. It implements hal.Bus.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	palette ansi256.Palette
	max     float64
	tau     time.Duration
	relax   time.Duration
	levels  [hal.MaxPin + 1]float64
	faults  map[hal.Pin]error
	writes  int
	reads   int

	buf bytes.Buffer
}

// New returns a simulated panel with every segment at Max/2.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	bits := opts.Bits
	if bits == 0 || bits > 16 {
		bits = 12
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       opts.W,
		palette: *p,
		max:     float64(uint32(1)<<bits - 1),
		tau:     opts.Tau,
		relax:   opts.Relax,
		faults:  map[hal.Pin]error{},
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
	}
	if d.tau <= 0 {
		d.tau = 250 * time.Millisecond
	}
	if d.relax <= 0 {
		d.relax = time.Minute
	}
	for i := range d.levels {
		d.levels[i] = d.max / 2
	}
	return d
}

func (d *Dev) String() string {
	return "ECDSim"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// DigitalWrite implements hal.Bus. The pulse is applied instantly.
func (d *Dev) DigitalWrite(p hal.Pin, high bool, hold time.Duration, common uint16) error {
	if !p.Valid() {
		return fmt.Errorf("%w %d", hal.ErrInvalidPin, uint8(p))
	}
	if hold <= 0 {
		return fmt.Errorf("%w %s", hal.ErrInvalidHold, hold)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	if err := d.faults[p]; err != nil {
		return err
	}
	c := math.Min(float64(common), d.max)
	l := d.levels[p]
	if high {
		l += (d.max - l) * d.strength(hold, d.max-c)
	} else {
		l -= l * d.strength(hold, c)
	}
	d.levels[p] = l
	return nil
}

// AnalogRead implements hal.Bus.
func (d *Dev) AnalogRead(p hal.Pin) (uint16, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w %d", hal.ErrInvalidPin, uint8(p))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if err := d.faults[p]; err != nil {
		return 0, err
	}
	return uint16(math.Round(d.levels[p])), nil
}

// Decay lets the charge of every segment leak for elapsed.
func (d *Dev) Decay(elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := math.Exp(-float64(elapsed) / float64(d.relax))
	mid := d.max / 2
	for i := range d.levels {
		d.levels[i] = mid + (d.levels[i]-mid)*k
	}
}

// Level returns the level of segment p.
func (d *Dev) Level(p hal.Pin) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint16(math.Round(d.levels[p]))
}

// SetLevel forces the level of segment p.
func (d *Dev) SetLevel(p hal.Pin, v uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.levels[p] = math.Min(float64(v), d.max)
}

// Fail makes every operation on segment p return err. A nil err clears the
// fault.
func (d *Dev) Fail(p hal.Pin, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.faults, p)
		return
	}
	d.faults[p] = err
}

// Stats returns the number of writes and reads served so far.
func (d *Dev) Stats() (writes, reads int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes, d.reads
}

// Color returns the rendering color of a level: pale when bleached, deep
// blue when colored.
func (d *Dev) Color(v uint16) color.NRGBA {
	t := math.Min(float64(v)/d.max, 1)
	lerp := func(a, b float64) uint8 {
		return uint8(math.Round(a + (b-a)*t))
	}
	return color.NRGBA{lerp(235, 20), lerp(235, 40), lerp(225, 140), 255}
}

// Render writes one block per segment of pins, in order, on the current
// terminal line.
func (d *Dev) Render(pins []hal.Pin) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for _, p := range pins {
		c := d.Color(uint16(math.Round(d.levels[p])))
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, err := d.buf.WriteTo(d.w)
	return err
}

// strength is the switched fraction of a pulse of length hold with drive
// counts across the segment.
func (d *Dev) strength(hold time.Duration, drive float64) float64 {
	return math.Min(1, float64(hold)/float64(d.tau)*drive/d.max)
}

var _ hal.Bus = &Dev{}
var _ fmt.Stringer = &Dev{}
