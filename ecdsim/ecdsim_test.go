// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecdsim

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ecd/ecd"
	"github.com/GermanBionicSystems/ecd/hal"
)

func TestNew(t *testing.T) {
	d := New(&Opts{W: &bytes.Buffer{}})
	if s := d.String(); s != "ECDSim" {
		t.Fatal(s)
	}
	v, err := d.AnalogRead(1)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2048 {
		t.Fatalf("initial level %d", v)
	}
	d = New(&Opts{Bits: 8, W: &bytes.Buffer{}})
	if v := d.Level(hal.MaxPin); v != 128 {
		t.Fatalf("initial 8 bit level %d", v)
	}
}

func TestPulses(t *testing.T) {
	d := New(&Opts{W: &bytes.Buffer{}})
	// Full drive for a full Tau saturates.
	if err := d.DigitalWrite(1, true, 250*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	if v := d.Level(1); v != 4095 {
		t.Fatalf("colored level %d", v)
	}
	// Half of the charge is removed.
	if err := d.DigitalWrite(2, false, 250*time.Millisecond, 2047); err != nil {
		t.Fatal(err)
	}
	if v := d.Level(2); v != 1024 {
		t.Fatalf("bleached level %d", v)
	}
	// No potential across the segment, no change.
	if err := d.DigitalWrite(3, true, time.Second, 4095); err != nil {
		t.Fatal(err)
	}
	if v := d.Level(3); v != 2048 {
		t.Fatalf("level %d", v)
	}
	if w, r := d.Stats(); w != 3 || r != 0 {
		t.Fatalf("stats %d, %d", w, r)
	}
}

func TestDecay(t *testing.T) {
	d := New(&Opts{Relax: time.Minute, W: &bytes.Buffer{}})
	d.SetLevel(4, 4095)
	d.SetLevel(5, 0)
	d.Decay(time.Minute)
	if v := d.Level(4); v != 2801 {
		t.Fatalf("colored decayed to %d", v)
	}
	if v := d.Level(5); v != 1294 {
		t.Fatalf("bleached decayed to %d", v)
	}
}

func TestInvalid(t *testing.T) {
	d := New(&Opts{W: &bytes.Buffer{}})
	if err := d.DigitalWrite(0, true, time.Second, 0); !errors.Is(err, hal.ErrInvalidPin) {
		t.Fatalf("got %v", err)
	}
	if err := d.DigitalWrite(1, true, -time.Second, 0); !errors.Is(err, hal.ErrInvalidHold) {
		t.Fatalf("got %v", err)
	}
	if _, err := d.AnalogRead(16); !errors.Is(err, hal.ErrInvalidPin) {
		t.Fatalf("got %v", err)
	}
}

func TestFail(t *testing.T) {
	d := New(&Opts{W: &bytes.Buffer{}})
	errBroken := errors.New("broken")
	d.Fail(7, errBroken)
	if err := d.DigitalWrite(7, true, time.Second, 0); !errors.Is(err, errBroken) {
		t.Fatalf("got %v", err)
	}
	if _, err := d.AnalogRead(7); !errors.Is(err, errBroken) {
		t.Fatalf("got %v", err)
	}
	if v := d.Level(7); v != 2048 {
		t.Fatalf("failed write changed the level to %d", v)
	}
	d.Fail(7, nil)
	if _, err := d.AnalogRead(7); err != nil {
		t.Fatal(err)
	}
}

func TestRender(t *testing.T) {
	buf := &bytes.Buffer{}
	d := New(&Opts{W: buf})
	d.SetLevel(1, 4095)
	d.SetLevel(2, 0)
	if err := d.Render([]hal.Pin{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	if !strings.HasPrefix(s, "\r\033[0m") || !strings.HasSuffix(s, "\033[0m ") {
		t.Fatalf("unexpected output %q", s)
	}
	if d.Color(4095) == d.Color(0) {
		t.Fatal("colored and bleached render identically")
	}
	buf.Reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n\033[0m" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

// The active driver brings decayed segments back into their band.
func TestActiveRefresh(t *testing.T) {
	sim := New(&Opts{W: &bytes.Buffer{}})
	app := &ecd.AppConfig{
		ActiveDriving:     true,
		AnalogResolution:  12,
		MaxSegmentVoltage: 1500 * physic.MilliVolt,
		HighPinVoltage:    3300 * physic.MilliVolt,
		Bus:               sim,
	}
	dev := ecd.New([]hal.Pin{1, 2}, app, ecd.StandardProfile)
	dev.Init()
	cfg := dev.Config()

	dev.SetStates([]bool{true, false})
	// Segment 2 does not change state but starts halfway, so it gets
	// refreshed down into its band.
	r := dev.Update()
	if r.Pending != 0 || r.Errors != 0 || r.Retries == 0 {
		t.Fatalf("state change: %+v", r)
	}
	if v := int(sim.Level(1)); v <= cfg.RefreshColorLimitHigh {
		t.Fatalf("colored level %d", v)
	}

	sim.Decay(2 * time.Minute)
	r = dev.Update()
	if r.Pending != 0 || r.Retries == 0 || r.Retries >= ecd.MaxRefreshRetries {
		t.Fatalf("refresh: %+v", r)
	}
	if v := int(sim.Level(1)); v <= cfg.RefreshColorLimitHigh {
		t.Fatalf("colored level %d after refresh", v)
	}
	if v := int(sim.Level(2)); v >= cfg.RefreshBleachLimitLow {
		t.Fatalf("bleached level %d after refresh", v)
	}

	// Already in band: reads only.
	r = dev.Update()
	if r.Writes != 0 || r.Reads != 2 {
		t.Fatalf("steady state: %+v", r)
	}
}
