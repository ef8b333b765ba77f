// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp4725 provides a driver for the Microchip MCP4725 12-bit Digital
// to Analog converter. The MCP4725 uses VCC as its voltage reference.
//
// On the electrochromic display evaluation kit, the DAC output drives the
// common electrode of the display.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/devicedoc/22039d.pdf
package mcp4725

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	stepCount = 1 << 12 // 12-bit D/A
	// MaxCount is the highest count accepted by the converter.
	MaxCount = stepCount - 1

	// DefaultAddress is the default I²C address (0x60) of the MCP4725A0.
	DefaultAddress i2c.Addr = 0x60

	busyFlag         byte = 0x80
	cmdWriteDAC      byte = 0x40
	cmdWriteWithSave byte = 0x60
	pdMask           byte = 0x03

	// busyRetries bounds GetOutput while an EEPROM write is in progress.
	busyRetries = 10
)

var (
	errInvalidVoltage = errors.New("mcp4725: voltage out of range")
	errInvalidCount   = errors.New("mcp4725: count out of range")
	errBusy           = errors.New("mcp4725: device busy")
)

// PDMode is the PowerDown mode of the output.
type PDMode byte

const (
	PDModeNormal PDMode = iota
	// The remaining values specify resistance value used to tie the output pin
	// to ground.
	PDMode1K
	PDMode100K
	PDMode500K
)

// Dev represents an MCP4725 D/A converter.
type Dev struct {
	d     i2c.Dev
	vRef  physic.ElectricPotential
	sleep func(time.Duration)
}

// SetOutputParam represents a parameter for programming the DAC output.
type SetOutputParam struct {
	// V is the voltage to set the output to, 0-VCC.
	V physic.ElectricPotential
	// Powerdown mode of the output.
	PDMode PDMode
}

// New creates and returns a representation of a MCP4725 Digital to Analog
// converter. vRef is the supply voltage of the device; it is used to convert
// a voltage parameter to a count value that the device internally uses.
func New(bus i2c.Bus, addr i2c.Addr, vRef physic.ElectricPotential) (*Dev, error) {
	if vRef <= 0 {
		return nil, errInvalidVoltage
	}
	return &Dev{d: i2c.Dev{Bus: bus, Addr: uint16(addr)}, vRef: vRef, sleep: time.Sleep}, nil
}

// PotentialToCount converts the specified voltage to the count for the
// D/A converter. If the voltage is negative or above vRef, an error is
// returned. The count will roughly be v/(vRef/4095).
func (d *Dev) PotentialToCount(v physic.ElectricPotential) (uint16, error) {
	if v < 0 || v > d.vRef {
		return 0, errInvalidVoltage
	}
	stepValue := d.vRef / MaxCount
	count := uint16(float64(v)/float64(stepValue) + 0.5)
	if count > MaxCount {
		count = MaxCount
	}
	return count, nil
}

// WriteCount sets the output to the raw count c, 0-4095, in normal mode.
func (d *Dev) WriteCount(c uint16) error {
	if c > MaxCount {
		return errInvalidCount
	}
	return d.tx([]byte{cmdWriteDAC, byte(c >> 4), byte(c << 4)})
}

// WritePotential sets the output to v, 0-vRef, in normal mode.
func (d *Dev) WritePotential(v physic.ElectricPotential) error {
	c, err := d.PotentialToCount(v)
	if err != nil {
		return err
	}
	return d.WriteCount(c)
}

// SetOutput sets the output voltage and PowerDown mode.
func (d *Dev) SetOutput(p SetOutputParam) error {
	w, err := d.paramToBytes(&p)
	if err != nil {
		return err
	}
	return d.tx(w)
}

// SetOutputWithSave sets the output AND saves the value to EEPROM. On
// power-up, the output value will be set to the saved settings.
func (d *Dev) SetOutputWithSave(p SetOutputParam) error {
	w, err := d.paramToBytes(&p)
	if err != nil {
		return err
	}
	w[0] |= cmdWriteWithSave
	return d.tx(w)
}

// GetOutput reads the configured output value and programmed EEPROM value.
// If the device signals it is busy with an EEPROM write, the function will
// retry up to 9 times to read values.
//
// It also serves as a presence check: a missing device fails the read.
func (d *Dev) GetOutput() (current, eeprom SetOutputParam, err error) {
	r := make([]byte, 5)
	for i := range busyRetries {
		if err = d.d.Tx(nil, r); err != nil {
			err = fmt.Errorf("mcp4725: %w", err)
			return
		}
		current, eeprom, err = d.convert(r)
		if err == nil || i == busyRetries-1 {
			break
		}
		// The device is busy with an eeprom write. Wait and try again.
		d.sleep(100 * time.Millisecond)
	}
	return
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("MCP4725{%#x}", d.d.Addr)
}

// convert decodes the current and EEPROM registers.
func (d *Dev) convert(b []byte) (SetOutputParam, SetOutputParam, error) {
	step := float64(d.vRef) / float64(MaxCount)
	count := float64(uint16(b[1])<<4 | uint16(b[2])>>4)
	current := SetOutputParam{V: physic.ElectricPotential(step * count), PDMode: PDMode((b[0] >> 1) & pdMask)}

	count = float64(uint16(b[4]) | uint16(b[3]&0x0f)<<8)
	eeprom := SetOutputParam{V: physic.ElectricPotential(step * count), PDMode: PDMode((b[3] >> 5) & pdMask)}
	if b[0]&busyFlag == 0 {
		return current, eeprom, errBusy
	}
	return current, eeprom, nil
}

func (d *Dev) paramToBytes(p *SetOutputParam) ([]byte, error) {
	count, err := d.PotentialToCount(p.V)
	if err != nil {
		return nil, err
	}
	b := cmdWriteDAC | byte(p.PDMode&PDMode(pdMask))<<1
	return []byte{b, byte(count >> 4), byte(count<<4) & 0xf0}, nil
}

func (d *Dev) tx(w []byte) error {
	if err := d.d.Tx(w, nil); err != nil {
		return fmt.Errorf("mcp4725: %w", err)
	}
	return nil
}

// Equal compares two SetOutputParam values for equality.
func (op SetOutputParam) Equal(op2 SetOutputParam) bool {
	return op.V == op2.V && op.PDMode == op2.PDMode
}

// String returns a JSON representation of the Output Parameter
func (op SetOutputParam) String() string {
	bytes, _ := json.Marshal(&op)
	return string(bytes)
}
