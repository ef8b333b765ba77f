// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package evalkit

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/ecd/cd74hc4067"
	"github.com/GermanBionicSystems/ecd/hal"
	"github.com/GermanBionicSystems/ecd/mcp4725"
)

// BoardOpts describes how the kit is wired to the host.
type BoardOpts struct {
	// Select, Enable and Signal are gpioreg names of the multiplexer pins.
	Select [4]string
	Enable string
	Signal string
	// I2C is the i2creg name of the bus shared by the DAC and the ADC. Empty
	// selects the first bus.
	I2C string
	// DAC is the MCP4725 address.
	DAC i2c.Addr
	// ADC is the ADS1115 address; ADCChannel its input wired to the signal
	// line.
	ADC        uint16
	ADCChannel ads1x15.Channel
	// Scale is the converter resolution and voltage limits.
	Scale hal.Scale
	// Bus holds the optional Bus settings.
	Bus Opts
}

// DefaultBoardOpts matches the kit wired to a Raspberry Pi header.
var DefaultBoardOpts = BoardOpts{
	Select:     [4]string{"GPIO17", "GPIO27", "GPIO22", "GPIO23"},
	Enable:     "GPIO24",
	Signal:     "GPIO25",
	DAC:        mcp4725.DefaultAddress,
	ADC:        0x48,
	ADCChannel: ads1x15.Channel0,
	Scale: hal.Scale{
		Bits:       12,
		HighPin:    3300 * physic.MilliVolt,
		MaxSegment: 1500 * physic.MilliVolt,
	},
}

// ADC is the converter input wired to the multiplexer signal line.
type ADC interface {
	Read() (analog.Sample, error)
	Halt() error
}

// Board is an opened evaluation kit.
type Board struct {
	*Bus
	Mux *cd74hc4067.Dev
	DAC *mcp4725.Dev
	ADC ADC

	i2c i2c.BusCloser
}

// Open initializes the host drivers and opens the kit's peripherals.
func Open(o *BoardOpts) (*Board, error) {
	if o == nil {
		o = &DefaultBoardOpts
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("evalkit: %w", err)
	}
	mo := cd74hc4067.Opts{}
	for i, n := range o.Select {
		p, err := pin(n)
		if err != nil {
			return nil, err
		}
		mo.Select[i] = p
	}
	var err error
	if mo.Enable, err = pin(o.Enable); err != nil {
		return nil, err
	}
	if mo.Signal, err = pin(o.Signal); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(o.I2C)
	if err != nil {
		return nil, fmt.Errorf("evalkit: %w", err)
	}
	b := &Board{i2c: bus}
	if err := b.open(bus, o, &mo); err != nil {
		return nil, errors.Join(err, bus.Close())
	}
	return b, nil
}

func (b *Board) open(bus i2c.Bus, o *BoardOpts, mo *cd74hc4067.Opts) error {
	var err error
	if b.DAC, err = mcp4725.New(bus, o.DAC, o.Scale.HighPin); err != nil {
		return fmt.Errorf("evalkit: %w", err)
	}
	if _, _, err = b.DAC.GetOutput(); err != nil {
		return fmt.Errorf("evalkit: DAC not responding: %w", err)
	}
	adc, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: o.ADC})
	if err != nil {
		return fmt.Errorf("evalkit: %w", err)
	}
	p, err := adc.PinForChannel(o.ADCChannel, o.Scale.HighPin, 475*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		return fmt.Errorf("evalkit: %w", err)
	}
	b.ADC = p
	mo.ADC = b.ADC
	if b.Mux, err = cd74hc4067.New(mo); err != nil {
		return err
	}
	b.Bus = New(b.Mux, b.DAC, o.Scale, &o.Bus)
	return nil
}

// Close disables the multiplexer and releases the I²C bus.
func (b *Board) Close() error {
	return errors.Join(b.Mux.Halt(), b.ADC.Halt(), b.i2c.Close())
}

func pin(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("evalkit: unknown pin %q", name)
	}
	return p, nil
}
