// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hal

import (
	"testing"

	"periph.io/x/conn/v3/physic"
)

func TestPinValid(t *testing.T) {
	for _, tc := range []struct {
		p    Pin
		want bool
	}{
		{Common, false},
		{1, true},
		{MaxPin, true},
		{16, false},
		{255, false},
	} {
		if got := tc.p.Valid(); got != tc.want {
			t.Errorf("Pin(%d).Valid() = %t, want %t", tc.p, got, tc.want)
		}
	}
	if s := Pin(3).String(); s != "SEG3" {
		t.Errorf("unexpected name %q", s)
	}
	if s := Common.String(); s != "COM" {
		t.Errorf("unexpected name %q", s)
	}
}

func TestScale(t *testing.T) {
	s := Scale{Bits: 12, HighPin: 3300 * physic.MilliVolt, MaxSegment: 1500 * physic.MilliVolt}
	if m := s.MaxCount(); m != 4095 {
		t.Fatalf("MaxCount() = %d", m)
	}
	// 4095 * 1500 / 3300 = 1861.36
	if m := s.MaxSegmentCount(); m != 1861 {
		t.Errorf("MaxSegmentCount() = %d", m)
	}
	if c := s.ToCount(0); c != 0 {
		t.Errorf("ToCount(0) = %d", c)
	}
	if c := s.ToCount(-physic.Volt); c != 0 {
		t.Errorf("ToCount(-1V) = %d", c)
	}
	if c := s.ToCount(5 * physic.Volt); c != 4095 {
		t.Errorf("ToCount(5V) = %d", c)
	}
	if c := s.ToCount(1650 * physic.MilliVolt); c != 2048 {
		t.Errorf("ToCount(1.65V) = %d", c)
	}
	if v := s.ToPotential(4095); v != 3300*physic.MilliVolt {
		t.Errorf("ToPotential(4095) = %s", v)
	}
	if (Scale{}).MaxCount() != 0 || (Scale{}).ToPotential(10) != 0 {
		t.Error("zero Scale must convert to zero")
	}
}
