// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecd

import (
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ecd/hal"
)

// AppConfig is the application wide configuration shared by every display.
type AppConfig struct {
	// ActiveDriving selects the feedback driver instead of the fixed pulse
	// driver.
	ActiveDriving bool
	// AnalogResolution is the DAC/ADC resolution in bits.
	AnalogResolution uint8
	// MaxSegmentVoltage is the highest potential a segment may see.
	MaxSegmentVoltage physic.ElectricPotential
	// HighPinVoltage is the potential of a digital high output.
	HighPinVoltage physic.ElectricPotential
	// Bus is the hardware used to drive the segments. It is owned by the
	// application.
	Bus hal.Bus
	// Logger receives driver diagnostics. Nil disables logging.
	Logger *zerolog.Logger
}

// Scale returns the count conversion matching this configuration.
func (a *AppConfig) Scale() hal.Scale {
	return hal.Scale{Bits: a.AnalogResolution, HighPin: a.HighPinVoltage, MaxSegment: a.MaxSegmentVoltage}
}

func (a *AppConfig) logger() *zerolog.Logger {
	if a.Logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return a.Logger
}
