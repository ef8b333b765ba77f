// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecd

import (
	"github.com/GermanBionicSystems/ecd/hal"
)

// MaxRefreshRetries bounds the refresh rounds of a single Active.Drive call.
const MaxRefreshRetries = 30

// Active drives changing segments with a strong pulse and keeps the other
// segments in their band with weak refresh pulses, using the analog read
// back as feedback.
//
// A state change is trusted without read back; only refreshes are verified.
type Active struct {
	drive

	// Scratch buffers, reused across calls.
	colorPins, bleachPins, colorRefresh, bleachRefresh []hal.Pin
}

// Drive implements Driver.
func (a *Active) Drive(current []bool, target []bool) Result {
	checkLengths(len(a.pins), current, target)
	var r Result
	a.colorPins = a.colorPins[:0]
	a.bleachPins = a.bleachPins[:0]
	a.colorRefresh = a.colorRefresh[:0]
	a.bleachRefresh = a.bleachRefresh[:0]

	for i, pin := range a.pins {
		switch {
		case current[i] != target[i] && target[i]:
			a.colorPins = append(a.colorPins, pin)
			current[i] = true
		case current[i] != target[i]:
			a.bleachPins = append(a.bleachPins, pin)
			current[i] = false
		case current[i]:
			a.colorRefresh = append(a.colorRefresh, pin)
		default:
			a.bleachRefresh = append(a.bleachRefresh, pin)
		}
	}

	for _, pin := range a.colorPins {
		_ = a.color(pin, a.cfg.ColoringTime, a.cfg.ColoringVoltage, &r)
	}
	for _, pin := range a.bleachPins {
		_ = a.bleach(pin, a.cfg.BleachingTime, a.cfg.BleachingVoltage, &r)
	}

	a.refresh(&r)
	return r
}

// refresh runs the bounded feedback loop over the refresh candidates.
func (a *Active) refresh(r *Result) {
	for {
		a.colorRefresh = a.keep(a.colorRefresh, r, func(v int) bool { return v > a.cfg.RefreshColorLimitHigh })
		a.bleachRefresh = a.keep(a.bleachRefresh, r, func(v int) bool { return v < a.cfg.RefreshBleachLimitLow })
		pending := len(a.colorRefresh) + len(a.bleachRefresh)
		if pending == 0 {
			return
		}
		if r.Retries >= MaxRefreshRetries {
			r.Pending = pending
			a.log.Warn().
				Int("retries", r.Retries).
				Int("color", len(a.colorRefresh)).
				Int("bleach", len(a.bleachRefresh)).
				Msg("ecd: refresh incomplete")
			return
		}
		a.colorRefresh = a.pulse(a.colorRefresh, func(p hal.Pin) error {
			return a.color(p, a.cfg.RefreshColorPulseTime, a.cfg.RefreshColoringVoltage, r)
		})
		a.bleachRefresh = a.pulse(a.bleachRefresh, func(p hal.Pin) error {
			return a.bleach(p, a.cfg.RefreshBleachPulseTime, a.cfg.RefreshBleachingVoltage, r)
		})
		r.Retries++
	}
}

// keep reads every pin and retains the ones that are not yet accepted. Pins
// that cannot be read are dropped for this call.
func (a *Active) keep(pins []hal.Pin, r *Result, accepted func(v int) bool) []hal.Pin {
	out := pins[:0]
	for _, pin := range pins {
		r.Reads++
		v, err := a.bus.AnalogRead(pin)
		if err != nil {
			r.Errors++
			a.log.Warn().Err(err).Stringer("pin", pin).Msg("ecd: analog read failed")
			continue
		}
		if !accepted(int(v)) {
			out = append(out, pin)
		}
	}
	return out
}

// pulse pulses every pin and retains the ones that were written.
func (a *Active) pulse(pins []hal.Pin, write func(p hal.Pin) error) []hal.Pin {
	out := pins[:0]
	for _, pin := range pins {
		if write(pin) == nil {
			out = append(out, pin)
		}
	}
	return out
}

var _ Driver = &Active{}
