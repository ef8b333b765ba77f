// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package evalkit implements hal.Bus on the electrochromic display
// evaluation kit: a CD74HC4067 multiplexer routes one segment at a time to a
// digital output or an ADC, while an MCP4725 DAC holds the common electrode.
package evalkit

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ecd/hal"
)

// Mux is the segment multiplexer.
type Mux interface {
	Select(ch uint8) error
	Enable() error
	Disable() error
	Out(l gpio.Level) error
	Read() (analog.Sample, error)
}

// DAC drives the common electrode. Its resolution is independent of the
// Bus scale.
type DAC interface {
	WritePotential(v physic.ElectricPotential) error
}

// Opts holds the optional settings of a Bus.
type Opts struct {
	// Logger receives clamping warnings and per operation traces. Nil
	// disables logging.
	Logger *zerolog.Logger
	// Sleep waits for the hold time of a write. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Bus drives segments through a multiplexer and a DAC.
type Bus struct {
	mu    sync.Mutex
	mux   Mux
	dac   DAC
	scale hal.Scale
	sleep func(time.Duration)
	log   *zerolog.Logger
}

// New returns a Bus. scale converts the segment voltage limit to counts.
func New(mux Mux, dac DAC, scale hal.Scale, opts *Opts) *Bus {
	b := &Bus{mux: mux, dac: dac, scale: scale, sleep: time.Sleep}
	if opts != nil {
		b.log = opts.Logger
		if opts.Sleep != nil {
			b.sleep = opts.Sleep
		}
	}
	if b.log == nil {
		l := zerolog.Nop()
		b.log = &l
	}
	return b
}

// DigitalWrite implements hal.Bus.
//
// The common level is clamped so that the potential across the segment never
// exceeds the scale's MaxSegment. The multiplexer is always disabled on
// return.
func (b *Bus) DigitalWrite(p hal.Pin, high bool, hold time.Duration, common uint16) error {
	if !p.Valid() {
		return fmt.Errorf("%w %d", hal.ErrInvalidPin, uint8(p))
	}
	if hold <= 0 {
		return fmt.Errorf("%w %s", hal.ErrInvalidHold, hold)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.clamp(high, common)
	if c != common {
		b.log.Warn().Stringer("pin", p).Bool("high", high).Uint16("common", common).Uint16("clamped", c).Msg("evalkit: common voltage out of range")
	}
	b.log.Debug().Stringer("pin", p).Bool("high", high).Dur("hold", hold).Uint16("common", c).Msg("evalkit: write")

	if err := b.dac.WritePotential(b.scale.ToPotential(c)); err != nil {
		return fmt.Errorf("evalkit: common: %w", err)
	}
	if err := b.mux.Select(uint8(p)); err != nil {
		return fmt.Errorf("evalkit: %w", err)
	}
	if err := b.mux.Enable(); err != nil {
		return fmt.Errorf("evalkit: %w", err)
	}
	defer func() { _ = b.mux.Disable() }()
	if err := b.mux.Out(gpio.Level(high)); err != nil {
		return fmt.Errorf("evalkit: %w", err)
	}
	b.sleep(hold)
	return nil
}

// AnalogRead implements hal.Bus.
func (b *Bus) AnalogRead(p hal.Pin) (uint16, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w %d", hal.ErrInvalidPin, uint8(p))
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.mux.Select(uint8(p)); err != nil {
		return 0, fmt.Errorf("evalkit: %w", err)
	}
	if err := b.mux.Enable(); err != nil {
		return 0, fmt.Errorf("evalkit: %w", err)
	}
	defer func() { _ = b.mux.Disable() }()
	s, err := b.mux.Read()
	if err != nil {
		return 0, fmt.Errorf("evalkit: %w", err)
	}
	v := b.count(s)
	b.log.Debug().Stringer("pin", p).Uint16("value", v).Msg("evalkit: read")
	return v, nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("evalkit{%v}", b.mux)
}

// clamp limits the common level so that |segment - common| <= MaxSegment.
func (b *Bus) clamp(high bool, common uint16) uint16 {
	maxSeg := b.scale.MaxSegmentCount()
	highPin := b.scale.MaxCount()
	if high && int(highPin)-int(common) > int(maxSeg) {
		return highPin - maxSeg
	}
	if !high && common > maxSeg {
		return maxSeg
	}
	return common
}

// count converts a sample to counts, preferring the measured potential.
func (b *Bus) count(s analog.Sample) uint16 {
	if s.V > 0 {
		return b.scale.ToCount(s.V)
	}
	m := int32(b.scale.MaxCount())
	switch {
	case s.Raw < 0:
		return 0
	case s.Raw > m:
		return uint16(m)
	}
	return uint16(s.Raw)
}

var _ hal.Bus = &Bus{}
