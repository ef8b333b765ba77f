// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecd

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/GermanBionicSystems/ecd/hal"
)

// Driver applies segment states to the hardware.
type Driver interface {
	// Drive pulses the segments so the hardware follows target and updates
	// current to match target. current and target have one entry per pin.
	Drive(current []bool, target []bool) Result
}

// Result summarises the work done by one Drive call.
type Result struct {
	// Writes is the number of pulses issued.
	Writes int
	// Reads is the number of analog samples taken.
	Reads int
	// Retries is the number of refresh rounds that issued pulses.
	Retries int
	// Pending is the number of segments left outside their accept band when
	// the refresh loop gave up.
	Pending int
	// Errors is the number of failed bus operations.
	Errors int
}

// drive is the state shared by both drivers.
type drive struct {
	cfg  *Config
	pins []hal.Pin
	bus  hal.Bus
	log  *zerolog.Logger
}

// color drives p high. The common electrode is pulled down to max-v so the
// segment sees v.
func (d *drive) color(p hal.Pin, hold time.Duration, v int, r *Result) error {
	r.Writes++
	err := d.bus.DigitalWrite(p, true, hold, uint16(d.cfg.MaxAnalogValue-v))
	if err != nil {
		r.Errors++
		d.log.Warn().Err(err).Stringer("pin", p).Msg("ecd: color pulse failed")
	}
	return err
}

// bleach drives p low. The common electrode is raised to v.
func (d *drive) bleach(p hal.Pin, hold time.Duration, v int, r *Result) error {
	r.Writes++
	err := d.bus.DigitalWrite(p, false, hold, uint16(v))
	if err != nil {
		r.Errors++
		d.log.Warn().Err(err).Stringer("pin", p).Msg("ecd: bleach pulse failed")
	}
	return err
}

func checkLengths(n int, current, target []bool) {
	if len(current) != n || len(target) != n {
		panic("ecd: state vector length does not match the pin count")
	}
}
