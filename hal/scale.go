// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hal

import (
	"periph.io/x/conn/v3/physic"
)

// Scale converts between analog counts and electric potential for a board.
type Scale struct {
	// Bits is the DAC/ADC resolution.
	Bits uint8
	// HighPin is the potential of a digital high output, which is also the
	// full scale of the converters.
	HighPin physic.ElectricPotential
	// MaxSegment is the highest potential a segment may see across its
	// terminals.
	MaxSegment physic.ElectricPotential
}

// MaxCount returns the full scale count, 2^Bits-1.
func (s Scale) MaxCount() uint16 {
	if s.Bits == 0 || s.Bits > 16 {
		return 0
	}
	return uint16(uint32(1)<<s.Bits - 1)
}

// MaxSegmentCount returns MaxSegment expressed in counts.
func (s Scale) MaxSegmentCount() uint16 {
	if s.HighPin <= 0 {
		return 0
	}
	return uint16(int64(s.MaxCount()) * int64(s.MaxSegment) / int64(s.HighPin))
}

// ToCount converts v to counts, clamping to 0..MaxCount.
func (s Scale) ToCount(v physic.ElectricPotential) uint16 {
	if v <= 0 || s.HighPin <= 0 {
		return 0
	}
	if v >= s.HighPin {
		return s.MaxCount()
	}
	return uint16((int64(v)*int64(s.MaxCount()) + int64(s.HighPin)/2) / int64(s.HighPin))
}

// ToPotential converts c counts to a potential.
func (s Scale) ToPotential(c uint16) physic.ElectricPotential {
	m := s.MaxCount()
	if m == 0 {
		return 0
	}
	return physic.ElectricPotential(int64(c) * int64(s.HighPin) / int64(m))
}
