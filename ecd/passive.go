// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ecd

// Passive drives every segment with one fixed pulse per update and never
// reads back. Decayed segments are not corrected until their state changes.
type Passive struct {
	drive
}

// Drive implements Driver.
func (p *Passive) Drive(current []bool, target []bool) Result {
	checkLengths(len(p.pins), current, target)
	var r Result
	for i, pin := range p.pins {
		if target[i] {
			_ = p.color(pin, p.cfg.ColoringTime, p.cfg.ColoringVoltage, &r)
		} else {
			_ = p.bleach(pin, p.cfg.BleachingTime, p.cfg.BleachingVoltage, &r)
		}
		current[i] = target[i]
	}
	return r
}

var _ Driver = &Passive{}
