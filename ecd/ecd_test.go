// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ecd/hal"
	"github.com/GermanBionicSystems/ecd/hal/haltest"
)

func newApp(bus hal.Bus, active bool) *AppConfig {
	return &AppConfig{
		ActiveDriving:     active,
		AnalogResolution:  12,
		MaxSegmentVoltage: 1500 * physic.MilliVolt,
		HighPinVoltage:    3300 * physic.MilliVolt,
		Bus:               bus,
	}
}

func TestValidate(t *testing.T) {
	const full = 4095
	half := full / 2
	for _, tc := range []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"standard", func(c *Config) {}, true},
		{"max zero", func(c *Config) { c.MaxAnalogValue = 0 }, false},
		{"coloring zero", func(c *Config) { c.ColoringVoltage = 0 }, false},
		{"coloring at max", func(c *Config) { c.ColoringVoltage = full }, false},
		{"coloring below max", func(c *Config) { c.ColoringVoltage = full - 1 }, true},
		{"bleaching negative", func(c *Config) { c.BleachingVoltage = -1 }, false},
		{"refresh coloring at max", func(c *Config) { c.RefreshColoringVoltage = full }, false},
		{"refresh bleaching zero", func(c *Config) { c.RefreshBleachingVoltage = 0 }, false},
		{"coloring time zero", func(c *Config) { c.ColoringTime = 0 }, false},
		{"bleaching time zero", func(c *Config) { c.BleachingTime = 0 }, false},
		{"refresh color pulse zero", func(c *Config) { c.RefreshColorPulseTime = 0 }, false},
		{"refresh bleach pulse negative", func(c *Config) { c.RefreshBleachPulseTime = -time.Millisecond }, false},
		{"color high at half", func(c *Config) { c.RefreshColorLimitHigh = half }, false},
		{"color high above half", func(c *Config) { c.RefreshColorLimitHigh = half + 1 }, true},
		{"color low at half", func(c *Config) { c.RefreshColorLimitLow = half }, false},
		{"color high at max", func(c *Config) { c.RefreshColorLimitHigh = full }, false},
		{"bleach high at half", func(c *Config) { c.RefreshBleachLimitHigh = half }, false},
		{"bleach low at half", func(c *Config) { c.RefreshBleachLimitLow = half }, false},
		{"bleach low below half", func(c *Config) { c.RefreshBleachLimitLow = half - 1 }, true},
		{"bleach low zero", func(c *Config) { c.RefreshBleachLimitLow = 0 }, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := StandardProfile(full)
			tc.modify(&c)
			err := c.Validate()
			if tc.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tc.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
	for _, p := range []Profile{StandardProfile, FastProfile} {
		for _, bits := range []int{8, 10, 12, 16} {
			c := p(1<<bits - 1)
			if err := c.Validate(); err != nil {
				t.Errorf("%d bits: %v", bits, err)
			}
		}
	}
}

func TestPrintConfig(t *testing.T) {
	d := New([]hal.Pin{1}, newApp(&haltest.Record{}, false), StandardProfile)
	d.Init()
	var buf bytes.Buffer
	if err := d.PrintConfig(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		fmt.Sprintf("%-26s | %d\n", "maxAnalogValue", 4095),
		fmt.Sprintf("%-26s | %s\n", "coloringTime", 500*time.Millisecond),
		"refreshBleachLimitLow",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDevStates(t *testing.T) {
	d := New([]hal.Pin{2, 1, 3}, newApp(&haltest.Record{}, false), StandardProfile)
	if n := d.SegmentCount(); n != 3 {
		t.Fatalf("SegmentCount() = %d", n)
	}
	d.Set()
	if diff := cmp.Diff(d.NextStates(), []bool{true, true, true}); diff != "" {
		t.Errorf("Set() (-got +want):\n%s", diff)
	}
	d.Reset()
	if diff := cmp.Diff(d.NextStates(), []bool{false, false, false}); diff != "" {
		t.Errorf("Reset() (-got +want):\n%s", diff)
	}
	d.SetStates([]bool{true, false, true})
	if diff := cmp.Diff(d.States(), []bool{false, false, false}); diff != "" {
		t.Errorf("SetStates() must not touch current states (-got +want):\n%s", diff)
	}
	d.Init()
	d.Update()
	if diff := cmp.Diff(d.States(), []bool{true, false, true}); diff != "" {
		t.Errorf("Update() (-got +want):\n%s", diff)
	}
	d.Toggle()
	if diff := cmp.Diff(d.NextStates(), []bool{false, true, false}); diff != "" {
		t.Errorf("Toggle() (-got +want):\n%s", diff)
	}
	d.SetSegment(0, true)
	if !d.NextStates()[0] {
		t.Error("SetSegment() ignored")
	}
	if diff := cmp.Diff(d.Pins(), []hal.Pin{2, 1, 3}); diff != "" {
		t.Errorf("Pins() (-got +want):\n%s", diff)
	}
	if s := d.String(); s != "ecd{3}" {
		t.Errorf("String() = %q", s)
	}
}

func TestDevContract(t *testing.T) {
	app := newApp(&haltest.Record{}, false)
	for _, tc := range []struct {
		name string
		f    func()
	}{
		{"nil app", func() { New([]hal.Pin{1}, nil, StandardProfile) }},
		{"nil profile", func() { New([]hal.Pin{1}, app, nil) }},
		{"no pins", func() { New(nil, app, StandardProfile) }},
		{"common pin", func() { New([]hal.Pin{hal.Common}, app, StandardProfile) }},
		{"pin 16", func() { New([]hal.Pin{16}, app, StandardProfile) }},
		{"length mismatch", func() { New([]hal.Pin{1, 2}, app, StandardProfile).SetStates([]bool{true}) }},
		{"update before init", func() { New([]hal.Pin{1}, app, StandardProfile).Update() }},
		{"invalid profile", func() {
			New([]hal.Pin{1}, app, func(m int) Config {
				c := StandardProfile(m)
				c.RefreshColorLimitHigh = m / 2
				return c
			}).Init()
		}},
		{"drive length mismatch", func() {
			d := New([]hal.Pin{1, 2}, app, StandardProfile)
			d.Init()
			d.Driver().Drive(make([]bool, 1), make([]bool, 2))
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tc.f()
		})
	}
}

func TestInitDriverSelection(t *testing.T) {
	d := New([]hal.Pin{1}, newApp(&haltest.Record{}, true), FastProfile)
	d.Init()
	if _, ok := d.Driver().(*Active); !ok {
		t.Errorf("got %T, want *Active", d.Driver())
	}
	d = New([]hal.Pin{1}, newApp(&haltest.Record{}, false), FastProfile)
	d.Init()
	if _, ok := d.Driver().(*Passive); !ok {
		t.Errorf("got %T, want *Passive", d.Driver())
	}
	if c := d.Config(); c.ColoringTime != 300*time.Millisecond {
		t.Errorf("unexpected config %+v", c)
	}
}

func TestPassiveDrive(t *testing.T) {
	cfg := StandardProfile(4095)
	colorCommon := uint16(cfg.MaxAnalogValue - cfg.ColoringVoltage)
	bleachCommon := uint16(cfg.BleachingVoltage)
	pb := &haltest.Playback{
		Ops: []haltest.IO{
			{Op: haltest.Write, Pin: 3, High: true, Hold: cfg.ColoringTime, Common: colorCommon},
			{Op: haltest.Write, Pin: 1, High: false, Hold: cfg.BleachingTime, Common: bleachCommon},
			{Op: haltest.Write, Pin: 2, High: true, Hold: cfg.ColoringTime, Common: colorCommon},
			{Op: haltest.Write, Pin: 4, High: false, Hold: cfg.BleachingTime, Common: bleachCommon},
		},
		DontPanic: true,
	}
	d := New([]hal.Pin{3, 1, 2, 4}, newApp(pb, false), StandardProfile)
	d.Init()
	d.states = []bool{false, true, true, false}
	d.SetStates([]bool{true, false, true, false})
	r := d.Update()
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d.States(), d.NextStates()); diff != "" {
		t.Errorf("current != target (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(r, Result{Writes: 4}); diff != "" {
		t.Errorf("Result (-got +want):\n%s", diff)
	}
}

func TestPassiveDriveIgnoresErrors(t *testing.T) {
	rec := &haltest.Record{
		WriteFunc: func(p hal.Pin, high bool, hold time.Duration, common uint16) error {
			if p == 2 {
				return haltest.ErrIO
			}
			return nil
		},
	}
	d := New([]hal.Pin{1, 2, 3}, newApp(rec, false), StandardProfile)
	d.Init()
	d.Set()
	r := d.Update()
	if len(rec.Writes()) != 3 || r.Errors != 1 {
		t.Errorf("got %d writes, %d errors", len(rec.Writes()), r.Errors)
	}
	if diff := cmp.Diff(d.States(), []bool{true, true, true}); diff != "" {
		t.Errorf("(-got +want):\n%s", diff)
	}
}

// panel returns a fake bus where a colored pin reads in band after k refresh
// pulses, and a bleached pin reads in band after k refresh pulses. k < 0
// never converges.
func panel(cfg Config, colored map[hal.Pin]bool, k int) *haltest.Record {
	pulses := map[hal.Pin]int{}
	return &haltest.Record{
		WriteFunc: func(p hal.Pin, high bool, hold time.Duration, common uint16) error {
			pulses[p]++
			return nil
		},
		ReadFunc: func(p hal.Pin) (uint16, error) {
			done := k >= 0 && pulses[p] >= k
			switch {
			case colored[p] && done:
				return uint16(cfg.RefreshColorLimitHigh + 1), nil
			case colored[p]:
				return uint16(cfg.RefreshColorLimitLow), nil
			case done:
				return uint16(cfg.RefreshBleachLimitLow - 1), nil
			default:
				return uint16(cfg.RefreshBleachLimitHigh), nil
			}
		},
	}
}

func TestActiveNoWritesInBand(t *testing.T) {
	cfg := FastProfile(4095)
	rec := panel(cfg, map[hal.Pin]bool{1: true, 3: true}, 0)
	d := New([]hal.Pin{1, 2, 3, 4}, newApp(rec, true), FastProfile)
	d.Init()
	d.states = []bool{true, false, true, false}
	d.SetStates([]bool{true, false, true, false})
	r := d.Update()
	if n := len(rec.Writes()); n != 0 {
		t.Errorf("got %d writes, want 0", n)
	}
	if diff := cmp.Diff(r, Result{Reads: 4}); diff != "" {
		t.Errorf("Result (-got +want):\n%s", diff)
	}
}

func TestActiveRefreshConverges(t *testing.T) {
	cfg := StandardProfile(4095)
	for _, k := range []int{1, 5, 29} {
		rec := panel(cfg, map[hal.Pin]bool{5: true}, k)
		d := New([]hal.Pin{5, 6}, newApp(rec, true), StandardProfile)
		d.Init()
		d.states = []bool{true, false}
		d.SetStates([]bool{true, false})
		r := d.Update()
		if r.Retries != k {
			t.Errorf("k=%d: Retries = %d", k, r.Retries)
		}
		if r.Pending != 0 || r.Errors != 0 {
			t.Errorf("k=%d: unexpected %+v", k, r)
		}
		writes := rec.Writes()
		if len(writes) != 2*k {
			t.Fatalf("k=%d: got %d writes", k, len(writes))
		}
		want := []haltest.IO{
			{Op: haltest.Write, Pin: 5, High: true, Hold: cfg.RefreshColorPulseTime, Common: uint16(cfg.MaxAnalogValue - cfg.RefreshColoringVoltage)},
			{Op: haltest.Write, Pin: 6, High: false, Hold: cfg.RefreshBleachPulseTime, Common: uint16(cfg.RefreshBleachingVoltage)},
		}
		if diff := cmp.Diff(writes[:2], want); diff != "" {
			t.Errorf("k=%d: refresh pulses (-got +want):\n%s", k, diff)
		}
	}
}

func TestActiveRefreshExhausted(t *testing.T) {
	cfg := StandardProfile(4095)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rec := panel(cfg, map[hal.Pin]bool{1: true}, -1)
	app := newApp(rec, true)
	app.Logger = &logger
	d := New([]hal.Pin{1, 2}, app, StandardProfile)
	d.Init()
	d.states = []bool{true, true}
	d.SetStates([]bool{true, false})
	r := d.Update()
	if r.Retries != MaxRefreshRetries {
		t.Errorf("Retries = %d, want %d", r.Retries, MaxRefreshRetries)
	}
	// Pin 2 changes state and is never read back.
	if r.Pending != 1 {
		t.Errorf("Pending = %d, want 1", r.Pending)
	}
	if r.Writes != 1+MaxRefreshRetries {
		t.Errorf("Writes = %d", r.Writes)
	}
	if r.Reads != MaxRefreshRetries+1 {
		t.Errorf("Reads = %d", r.Reads)
	}
	for _, io := range rec.Reads() {
		if io.Pin != 1 {
			t.Fatalf("changing segment was read back: %s", io)
		}
	}
	if diff := cmp.Diff(d.States(), []bool{true, false}); diff != "" {
		t.Errorf("logical state (-got +want):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "refresh incomplete") {
		t.Errorf("missing warning in %q", buf.String())
	}
}

func TestActiveStateChangeFirst(t *testing.T) {
	cfg := StandardProfile(4095)
	rec := panel(cfg, map[hal.Pin]bool{3: true}, 0)
	d := New([]hal.Pin{1, 2, 3}, newApp(rec, true), StandardProfile)
	d.Init()
	d.states = []bool{false, true, true}
	d.SetStates([]bool{true, false, true})
	d.Update()
	want := []haltest.IO{
		{Op: haltest.Write, Pin: 1, High: true, Hold: cfg.ColoringTime, Common: uint16(cfg.MaxAnalogValue - cfg.ColoringVoltage)},
		{Op: haltest.Write, Pin: 2, High: false, Hold: cfg.BleachingTime, Common: uint16(cfg.BleachingVoltage)},
		{Op: haltest.Read, Pin: 3, Value: uint16(cfg.RefreshColorLimitHigh + 1)},
	}
	if diff := cmp.Diff(rec.Ops, want); diff != "" {
		t.Errorf("ops (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(d.States(), []bool{true, false, true}); diff != "" {
		t.Errorf("(-got +want):\n%s", diff)
	}
}

func TestActiveBusErrors(t *testing.T) {
	cfg := StandardProfile(4095)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rec := &haltest.Record{
		ReadFunc: func(p hal.Pin) (uint16, error) {
			if p == 1 {
				return 0, haltest.ErrIO
			}
			return uint16(cfg.RefreshColorLimitLow), nil
		},
		WriteFunc: func(p hal.Pin, high bool, hold time.Duration, common uint16) error {
			return haltest.ErrIO
		},
	}
	app := newApp(rec, true)
	app.Logger = &logger
	d := New([]hal.Pin{1, 2}, app, StandardProfile)
	d.Init()
	d.states = []bool{true, true}
	d.SetStates([]bool{true, true})
	r := d.Update()
	// Pin 1 fails its read, pin 2 fails its only refresh pulse: both are
	// dropped without aborting the call.
	if diff := cmp.Diff(r, Result{Writes: 1, Reads: 2, Retries: 1, Errors: 2}); diff != "" {
		t.Errorf("Result (-got +want):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "analog read failed") || !strings.Contains(buf.String(), "color pulse failed") {
		t.Errorf("missing warnings in %q", buf.String())
	}
}
