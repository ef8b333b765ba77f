// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the demo application settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/GermanBionicSystems/ecd/anim"
	"github.com/GermanBionicSystems/ecd/displays"
	"github.com/GermanBionicSystems/ecd/ecd"
	"github.com/GermanBionicSystems/ecd/evalkit"
	"github.com/GermanBionicSystems/ecd/hal"
)

// Driving modes.
const (
	Passive = "passive"
	Active  = "active"
)

// Board is the evaluation kit wiring.
type Board struct {
	Select     [4]string `yaml:"select"`
	Enable     string    `yaml:"enable"`
	Signal     string    `yaml:"signal"`
	I2C        string    `yaml:"i2c,omitempty"`
	DAC        uint16    `yaml:"dac"`
	ADC        uint16    `yaml:"adc"`
	ADCChannel int       `yaml:"adc_channel"`
}

// Preview controls the rendered output of the demo.
type Preview struct {
	// Dir receives one PNG per tick when set.
	Dir string `yaml:"dir,omitempty"`
	// Addr serves the latest frame over HTTP when set, e.g. ":8080".
	Addr string `yaml:"addr,omitempty"`
}

// Config is the application configuration.
type Config struct {
	Driving      string        `yaml:"driving"` // "passive" | "active"
	Resolution   uint8         `yaml:"resolution"`
	HighPinMV    int           `yaml:"high_pin_mv"`
	MaxSegmentMV int           `yaml:"max_segment_mv"`
	Display      string        `yaml:"display"`
	Animation    string        `yaml:"animation"`
	Tick         time.Duration `yaml:"tick"`
	Period       time.Duration `yaml:"period"`
	Simulate     bool          `yaml:"simulate"`
	LogLevel     string        `yaml:"log_level"`

	Board   Board   `yaml:"board"`
	Preview Preview `yaml:"preview,omitempty"`
}

// Default returns the settings of the kit wired to a Raspberry Pi.
func Default() *Config {
	b := evalkit.DefaultBoardOpts
	return &Config{
		Driving:      Passive,
		Resolution:   b.Scale.Bits,
		HighPinMV:    int(b.Scale.HighPin / physic.MilliVolt),
		MaxSegmentMV: int(b.Scale.MaxSegment / physic.MilliVolt),
		Display:      displays.SevenSegmentBar.String(),
		Animation:    anim.Bar7Up.String(),
		Tick:         100 * time.Millisecond,
		Period:       anim.DefaultPeriod,
		LogLevel:     zerolog.InfoLevel.String(),
		Board: Board{
			Select: b.Select,
			Enable: b.Enable,
			Signal: b.Signal,
			DAC:    uint16(b.DAC),
			ADC:    b.ADC,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Validate returns every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Driving != Passive && c.Driving != Active {
		errs = append(errs, fmt.Errorf("config: driving must be %q or %q, got %q", Passive, Active, c.Driving))
	}
	if c.Resolution == 0 || c.Resolution > 16 {
		errs = append(errs, fmt.Errorf("config: resolution %d out of range [1, 16]", c.Resolution))
	}
	if c.HighPinMV <= 0 {
		errs = append(errs, fmt.Errorf("config: high_pin_mv %d must be positive", c.HighPinMV))
	}
	if c.MaxSegmentMV <= 0 || c.MaxSegmentMV > c.HighPinMV {
		errs = append(errs, fmt.Errorf("config: max_segment_mv %d out of range (0, %d]", c.MaxSegmentMV, c.HighPinMV))
	}
	if _, err := c.Kind(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.AnimationID(); err != nil {
		errs = append(errs, err)
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("config: tick %s must be positive", c.Tick))
	}
	if c.Period < c.Tick {
		errs = append(errs, fmt.Errorf("config: period %s shorter than tick %s", c.Period, c.Tick))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if c.Board.ADCChannel < 0 || c.Board.ADCChannel >= len(adcChannels) {
		errs = append(errs, fmt.Errorf("config: adc_channel %d out of range [0, %d]", c.Board.ADCChannel, len(adcChannels)-1))
	}
	return errors.Join(errs...)
}

// Kind returns the selected display kind.
func (c *Config) Kind() (displays.Kind, error) {
	return displays.ParseKind(c.Display)
}

// AnimationID returns the selected animation.
func (c *Config) AnimationID() (anim.ID, error) {
	return anim.ParseID(c.Animation)
}

// Level returns the log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return l
}

// Scale returns the converter scale.
func (c *Config) Scale() hal.Scale {
	return hal.Scale{
		Bits:       c.Resolution,
		HighPin:    physic.ElectricPotential(c.HighPinMV) * physic.MilliVolt,
		MaxSegment: physic.ElectricPotential(c.MaxSegmentMV) * physic.MilliVolt,
	}
}

// AppConfig returns the display configuration driving bus.
func (c *Config) AppConfig(bus hal.Bus, logger *zerolog.Logger) *ecd.AppConfig {
	s := c.Scale()
	return &ecd.AppConfig{
		ActiveDriving:     c.Driving == Active,
		AnalogResolution:  s.Bits,
		MaxSegmentVoltage: s.MaxSegment,
		HighPinVoltage:    s.HighPin,
		Bus:               bus,
		Logger:            logger,
	}
}

// AnimOpts returns the animation timing.
func (c *Config) AnimOpts(logger *zerolog.Logger) *anim.Opts {
	return &anim.Opts{Period: c.Period, Logger: logger}
}

var adcChannels = [...]ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// BoardOpts returns the evaluation kit wiring.
func (c *Config) BoardOpts(logger *zerolog.Logger) *evalkit.BoardOpts {
	o := evalkit.BoardOpts{
		Select:     c.Board.Select,
		Enable:     c.Board.Enable,
		Signal:     c.Board.Signal,
		I2C:        c.Board.I2C,
		DAC:        i2c.Addr(c.Board.DAC),
		ADC:        c.Board.ADC,
		ADCChannel: ads1x15.Channel0,
		Scale:      c.Scale(),
		Bus:        evalkit.Opts{Logger: logger},
	}
	if c.Board.ADCChannel >= 0 && c.Board.ADCChannel < len(adcChannels) {
		o.ADCChannel = adcChannels[c.Board.ADCChannel]
	}
	return &o
}
