// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package displays

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GermanBionicSystems/ecd/ecd"
	"github.com/GermanBionicSystems/ecd/hal"
)

// Kind identifies a display model of the evaluation kit.
type Kind uint8

// Display models, in the order of the kit's selector.
const (
	SingleSegment Kind = iota
	ThreeSegmentBar
	SevenSegmentBar
	DotNumberKind
	DecimalNumberKind
	SignedNumberKind
	Test
	KindCount
)

var kindNames = [KindCount]string{
	"single", "3bar", "7bar", "dot", "decimal", "signed", "test",
}

func (k Kind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ErrUnknownKind is returned by ParseKind.
var ErrUnknownKind = errors.New("displays: unknown display kind")

// ParseKind returns the Kind named s, as printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(s, n) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Pins returns the segment to multiplexer channel map of the kit's display
// model k. Segment i is wired to channel Pins(k)[i].
func Pins(k Kind) []hal.Pin {
	var p []hal.Pin
	switch k {
	case SingleSegment:
		p = []hal.Pin{1}
	case ThreeSegmentBar:
		p = []hal.Pin{2, 1, 3}
	case SevenSegmentBar:
		p = []hal.Pin{4, 3, 5, 2, 6, 1, 7}
	case DotNumberKind:
		p = []hal.Pin{6, 8, 7, 5, 4, 3, 1, 2}
	case DecimalNumberKind:
		p = []hal.Pin{8, 1, 7, 6, 5, 4, 2, 3, 14, 13, 11, 10, 9, 15, 12}
	case SignedNumberKind:
		p = []hal.Pin{4, 2, 1, 8, 7, 6, 3, 5, 14, 13, 11, 10, 9, 15, 12}
	case Test:
		p = make([]hal.Pin, hal.MaxPin)
		for i := range p {
			p[i] = hal.Pin(i + 1)
		}
	default:
		panic(fmt.Sprintf("displays: invalid kind %d", uint8(k)))
	}
	return p
}

// Registry owns one initialized display per kind and tracks the selected
// one.
type Registry struct {
	single  *Single
	bar3    *Bar
	bar7    *Bar
	dot     *DotNumber
	decimal *DecimalNumber
	signed  *SignedNumber
	walk    *Walk
	current Kind
}

// NewRegistry builds and initializes every display model of the kit. It
// panics if app is nil or yields an invalid configuration.
func NewRegistry(app *ecd.AppConfig) *Registry {
	r := &Registry{
		single:  NewSingle(Pins(SingleSegment), app),
		bar3:    NewBar(Pins(ThreeSegmentBar), app),
		bar7:    NewBar(Pins(SevenSegmentBar), app),
		dot:     NewDotNumber(Pins(DotNumberKind), app),
		decimal: NewDecimalNumber(Pins(DecimalNumberKind), app),
		signed:  NewSignedNumber(Pins(SignedNumberKind), app),
		walk:    NewWalk(Pins(Test), app),
	}
	for k := range KindCount {
		r.Display(k).Init()
	}
	return r
}

// Select makes k the current display.
func (r *Registry) Select(k Kind) error {
	if k >= KindCount {
		return fmt.Errorf("%w %d", ErrUnknownKind, uint8(k))
	}
	r.current = k
	return nil
}

// Kind returns the kind of the current display.
func (r *Registry) Kind() Kind {
	return r.current
}

// Current returns the current display.
func (r *Registry) Current() ecd.Display {
	return r.Display(r.current)
}

// Display returns the display of kind k. The concrete type is one of
// *Single, *Bar, *DotNumber, *DecimalNumber, *SignedNumber or *Walk.
func (r *Registry) Display(k Kind) ecd.Display {
	switch k {
	case SingleSegment:
		return r.single
	case ThreeSegmentBar:
		return r.bar3
	case SevenSegmentBar:
		return r.bar7
	case DotNumberKind:
		return r.dot
	case DecimalNumberKind:
		return r.decimal
	case SignedNumberKind:
		return r.signed
	case Test:
		return r.walk
	}
	panic(fmt.Sprintf("displays: invalid kind %d", uint8(k)))
}
