// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package preview draws segment states as an image.
//
// The image is a row of rounded segments, colored or bleached, each with its
// index printed underneath. It is meant for development on a host without the
// evaluation kit, alongside package ecdsim.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/ecd/ecd"
)

// Opts controls the drawing.
type Opts struct {
	// Segment is the width and height of a segment, in pixels. Defaults to 40.
	Segment int
	// Gap is the space around segments, in pixels. Defaults to 8.
	Gap int
	// FontSize is the label size in points. Zero disables the labels.
	FontSize float64
	// On, Off and Background are the fill colors.
	On, Off, Background color.Color
}

// DefaultOpts draws labelled segments with the colors of the physical panel.
var DefaultOpts = Opts{
	Segment:    40,
	Gap:        8,
	FontSize:   12,
	On:         color.NRGBA{20, 40, 140, 255},
	Off:        color.NRGBA{235, 235, 225, 255},
	Background: color.White,
}

// Size returns the image size for n segments.
func (o *Opts) Size(n int) image.Point {
	o = o.withDefaults()
	w := n*(o.Segment+o.Gap) + o.Gap
	h := o.Segment + 2*o.Gap
	if o.FontSize > 0 {
		h += int(o.FontSize*1.5) + o.Gap
	}
	return image.Pt(w, h)
}

// Render draws states, segment 0 on the left. A nil opts uses DefaultOpts.
func Render(states []bool, opts *Opts) (image.Image, error) {
	o := opts.withDefaults()
	size := o.Size(len(states))
	dc := gg.NewContext(size.X, size.Y)
	dc.SetColor(o.Background)
	dc.Clear()

	var face font.Face
	if o.FontSize > 0 {
		var err error
		if face, err = newFace(o.FontSize); err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
	}

	s := float64(o.Segment)
	g := float64(o.Gap)
	for i, on := range states {
		x := g + float64(i)*(s+g)
		dc.DrawRoundedRectangle(x, g, s, s, s/8)
		if on {
			dc.SetColor(o.On)
		} else {
			dc.SetColor(o.Off)
		}
		dc.FillPreserve()
		dc.SetColor(color.Gray{160})
		dc.SetLineWidth(1)
		dc.Stroke()
		if face != nil {
			dc.SetColor(color.Black)
			dc.DrawStringAnchored(strconv.Itoa(i), x+s/2, 2*g+s+o.FontSize/2, 0.5, 0.5)
		}
	}
	return dc.Image(), nil
}

// RenderDisplay draws the current states of d.
func RenderDisplay(d ecd.Display, opts *Opts) (image.Image, error) {
	return Render(d.States(), opts)
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

func (o *Opts) withDefaults() *Opts {
	if o == nil {
		return &DefaultOpts
	}
	c := *o
	if c.Segment <= 0 {
		c.Segment = DefaultOpts.Segment
	}
	if c.Gap <= 0 {
		c.Gap = DefaultOpts.Gap
	}
	if c.On == nil {
		c.On = DefaultOpts.On
	}
	if c.Off == nil {
		c.Off = DefaultOpts.Off
	}
	if c.Background == nil {
		c.Background = DefaultOpts.Background
	}
	return &c
}

var parseFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

func newFace(size float64) (font.Face, error) {
	f, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}
