// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cd74hc4067 controls a Texas Instruments CD74HC4067 16-channel
// analog multiplexer.
//
// The common signal line is wired both to a digital output, to drive the
// selected channel, and to an ADC input, to sample it. The enable input is
// active low.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/cd74hc4067.pdf
package cd74hc4067

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
)

// Channels is the number of multiplexed channels.
const Channels = 16

var (
	errMissingPin     = errors.New("cd74hc4067: all pins must be provided")
	errInvalidChannel = errors.New("cd74hc4067: invalid channel")
)

// Opts holds the pins wired to the multiplexer.
type Opts struct {
	// Select holds S0 to S3.
	Select [4]gpio.PinOut
	// Enable is the active low enable input.
	Enable gpio.PinOut
	// Signal drives the common signal line.
	Signal gpio.PinOut
	// ADC samples the common signal line.
	ADC Sampler
}

// Sampler is an analog input. analog.PinADC implements it.
type Sampler interface {
	Read() (analog.Sample, error)
}

// Dev is a handle to a CD74HC4067.
type Dev struct {
	mu      sync.Mutex
	opts    Opts
	channel uint8
	enabled bool
}

// New returns a multiplexer over the pins in opts. The multiplexer starts
// disabled with channel 0 selected.
func New(opts *Opts) (*Dev, error) {
	for _, p := range opts.Select {
		if p == nil {
			return nil, errMissingPin
		}
	}
	if opts.Enable == nil || opts.Signal == nil || opts.ADC == nil {
		return nil, errMissingPin
	}
	d := &Dev{opts: *opts}
	if err := d.Disable(); err != nil {
		return nil, err
	}
	if err := d.Select(0); err != nil {
		return nil, err
	}
	return d, nil
}

// Select routes channel ch, 0 to 15, to the signal line.
func (d *Dev) Select(ch uint8) error {
	if ch >= Channels {
		return fmt.Errorf("%w %d", errInvalidChannel, ch)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, p := range d.opts.Select {
		if err := p.Out(gpio.Level(ch>>i&1 == 1)); err != nil {
			return fmt.Errorf("cd74hc4067: select S%d: %w", i, err)
		}
	}
	d.channel = ch
	return nil
}

// Channel returns the selected channel.
func (d *Dev) Channel() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channel
}

// Enable connects the selected channel to the signal line.
func (d *Dev) Enable() error {
	return d.enable(true)
}

// Disable disconnects every channel.
func (d *Dev) Disable() error {
	return d.enable(false)
}

// Enabled reports whether a channel is connected.
func (d *Dev) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

func (d *Dev) enable(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.opts.Enable.Out(gpio.Level(!on)); err != nil {
		return fmt.Errorf("cd74hc4067: enable: %w", err)
	}
	d.enabled = on
	return nil
}

// Out drives the signal line.
func (d *Dev) Out(l gpio.Level) error {
	if err := d.opts.Signal.Out(l); err != nil {
		return fmt.Errorf("cd74hc4067: signal: %w", err)
	}
	return nil
}

// Read samples the signal line.
func (d *Dev) Read() (analog.Sample, error) {
	s, err := d.opts.ADC.Read()
	if err != nil {
		return s, fmt.Errorf("cd74hc4067: read: %w", err)
	}
	return s, nil
}

// Halt implements conn.Resource. It disables the multiplexer.
func (d *Dev) Halt() error {
	return d.Disable()
}

func (d *Dev) String() string {
	return fmt.Sprintf("CD74HC4067{%s}", d.opts.Signal)
}
