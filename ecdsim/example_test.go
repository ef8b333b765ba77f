// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecdsim_test

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/ecd/displays"
	"github.com/GermanBionicSystems/ecd/ecd"
	"github.com/GermanBionicSystems/ecd/ecdsim"
)

func Example() {
	sim := ecdsim.New(nil)
	defer sim.Halt()
	app := &ecd.AppConfig{
		ActiveDriving:     true,
		AnalogResolution:  12,
		MaxSegmentVoltage: 1500 * physic.MilliVolt,
		HighPinVoltage:    3300 * physic.MilliVolt,
		Bus:               sim,
	}
	pins := displays.Pins(displays.SevenSegmentBar)
	bar := displays.NewBar(pins, app)
	bar.Init()
	for range 7 {
		bar.Increment()
		bar.Update()
		_ = sim.Render(pins)
		time.Sleep(500 * time.Millisecond)
		sim.Decay(500 * time.Millisecond)
	}
}
