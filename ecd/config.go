// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecd

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Config holds the drive parameters of one display model.
//
// Voltages are analog counts in 0..MaxAnalogValue. Coloring drives the
// segment pin high with the common electrode at MaxAnalogValue-voltage;
// bleaching drives the segment pin low with the common electrode at voltage.
type Config struct {
	MaxAnalogValue int

	ColoringVoltage  int
	ColoringTime     time.Duration
	BleachingVoltage int
	BleachingTime    time.Duration

	RefreshColoringVoltage int
	RefreshColorPulseTime  time.Duration
	// A colored segment reading below RefreshColorLimitLow has decayed; a
	// refresh succeeds once it reads above RefreshColorLimitHigh.
	RefreshColorLimitHigh int
	RefreshColorLimitLow  int

	RefreshBleachingVoltage int
	RefreshBleachPulseTime  time.Duration
	// A bleached segment reading above RefreshBleachLimitHigh has decayed; a
	// refresh succeeds once it reads below RefreshBleachLimitLow.
	RefreshBleachLimitHigh int
	RefreshBleachLimitLow  int
}

// Validate returns an error describing the first violated constraint.
func (c *Config) Validate() error {
	if c.MaxAnalogValue <= 0 {
		return errors.New("ecd: max analog value must be positive")
	}
	half := c.MaxAnalogValue / 2
	for _, v := range []struct {
		name string
		v    int
	}{
		{"coloring voltage", c.ColoringVoltage},
		{"bleaching voltage", c.BleachingVoltage},
		{"refresh coloring voltage", c.RefreshColoringVoltage},
		{"refresh bleaching voltage", c.RefreshBleachingVoltage},
		{"refresh color limit high", c.RefreshColorLimitHigh},
		{"refresh color limit low", c.RefreshColorLimitLow},
		{"refresh bleach limit high", c.RefreshBleachLimitHigh},
		{"refresh bleach limit low", c.RefreshBleachLimitLow},
	} {
		if v.v <= 0 || v.v >= c.MaxAnalogValue {
			return fmt.Errorf("ecd: %s %d out of range (0, %d)", v.name, v.v, c.MaxAnalogValue)
		}
	}
	for _, d := range []struct {
		name string
		d    time.Duration
	}{
		{"coloring time", c.ColoringTime},
		{"bleaching time", c.BleachingTime},
		{"refresh color pulse time", c.RefreshColorPulseTime},
		{"refresh bleach pulse time", c.RefreshBleachPulseTime},
	} {
		if d.d <= 0 {
			return fmt.Errorf("ecd: %s %s must be positive", d.name, d.d)
		}
	}
	if c.RefreshColorLimitHigh <= half || c.RefreshColorLimitLow <= half {
		return fmt.Errorf("ecd: refresh color limits (%d, %d) must be above %d", c.RefreshColorLimitHigh, c.RefreshColorLimitLow, half)
	}
	if c.RefreshBleachLimitHigh >= half || c.RefreshBleachLimitLow >= half {
		return fmt.Errorf("ecd: refresh bleach limits (%d, %d) must be below %d", c.RefreshBleachLimitHigh, c.RefreshBleachLimitLow, half)
	}
	return nil
}

// Print writes the configuration as a table.
func (c *Config) Print(w io.Writer) error {
	const rule = "-------------------------------------------------------------\n"
	rows := []struct {
		name string
		v    any
	}{
		{"maxAnalogValue", c.MaxAnalogValue},
		{"coloringVoltage", c.ColoringVoltage},
		{"coloringTime", c.ColoringTime},
		{"bleachingVoltage", c.BleachingVoltage},
		{"bleachingTime", c.BleachingTime},
		{"refreshColoringVoltage", c.RefreshColoringVoltage},
		{"refreshColorPulseTime", c.RefreshColorPulseTime},
		{"refreshColorLimitHigh", c.RefreshColorLimitHigh},
		{"refreshColorLimitLow", c.RefreshColorLimitLow},
		{"refreshBleachingVoltage", c.RefreshBleachingVoltage},
		{"refreshBleachPulseTime", c.RefreshBleachPulseTime},
		{"refreshBleachLimitHigh", c.RefreshBleachLimitHigh},
		{"refreshBleachLimitLow", c.RefreshBleachLimitLow},
	}
	if _, err := fmt.Fprintf(w, "%s%-26s | %s\n%s", rule, "Parameter", "Value", rule); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-26s | %v\n", r.name, r.v); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, rule)
	return err
}

// Profile computes the Config of a display model for a given full scale.
type Profile func(maxAnalogValue int) Config

// StandardProfile is used by the single segment, bar and dot number
// displays.
func StandardProfile(maxValue int) Config {
	m := float64(maxValue)
	return Config{
		MaxAnalogValue:          maxValue,
		ColoringVoltage:         maxValue / 2,
		ColoringTime:            500 * time.Millisecond,
		BleachingVoltage:        int(m / 2 * 0.8),
		BleachingTime:           500 * time.Millisecond,
		RefreshColoringVoltage:  int(m / 2 * 0.8),
		RefreshColorPulseTime:   50 * time.Millisecond,
		RefreshColorLimitHigh:   int(m * 0.8),
		RefreshColorLimitLow:    int(m * 0.6),
		RefreshBleachingVoltage: int(m / 2 * 0.6),
		RefreshBleachPulseTime:  50 * time.Millisecond,
		RefreshBleachLimitHigh:  int(m * 0.4),
		RefreshBleachLimitLow:   int(m * 0.3),
	}
}

// FastProfile is used by the two digit number displays and the test
// display.
func FastProfile(maxValue int) Config {
	m := float64(maxValue)
	return Config{
		MaxAnalogValue:          maxValue,
		ColoringVoltage:         int(m / 2 * 0.8),
		ColoringTime:            300 * time.Millisecond,
		BleachingVoltage:        int(m / 2 * 0.6),
		BleachingTime:           300 * time.Millisecond,
		RefreshColoringVoltage:  int(m / 2 * 0.8),
		RefreshColorPulseTime:   50 * time.Millisecond,
		RefreshColorLimitHigh:   int(m * 0.85),
		RefreshColorLimitLow:    int(m * 0.7),
		RefreshBleachingVoltage: int(m / 2 * 0.6),
		RefreshBleachPulseTime:  50 * time.Millisecond,
		RefreshBleachLimitHigh:  int(m * 0.4),
		RefreshBleachLimitLow:   int(m * 0.3),
	}
}
