// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package haltest is meant to be used to test drivers over a fake hal.Bus.
package haltest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/ecd/hal"
)

// Op is the kind of bus operation.
type Op int

const (
	// Write is a hal.Bus.DigitalWrite call.
	Write Op = iota
	// Read is a hal.Bus.AnalogRead call.
	Read
)

func (o Op) String() string {
	if o == Read {
		return "Read"
	}
	return "Write"
}

// IO registers one bus operation.
type IO struct {
	Op     Op
	Pin    hal.Pin
	High   bool
	Hold   time.Duration
	Common uint16
	// Value is the value returned by a Read.
	Value uint16
}

func (io IO) String() string {
	if io.Op == Read {
		return fmt.Sprintf("Read(%s)=%d", io.Pin, io.Value)
	}
	return fmt.Sprintf("Write(%s, %t, %s, %d)", io.Pin, io.High, io.Hold, io.Common)
}

// Record implements hal.Bus and records every operation.
//
// ReadFunc, when set, provides the value of each read; otherwise reads
// return 0. WriteFunc, when set, can fail a write; a failed write is still
// recorded.
type Record struct {
	ReadFunc  func(p hal.Pin) (uint16, error)
	WriteFunc func(p hal.Pin, high bool, hold time.Duration, common uint16) error

	sync.Mutex
	Ops []IO
}

// DigitalWrite implements hal.Bus.
func (r *Record) DigitalWrite(p hal.Pin, high bool, hold time.Duration, common uint16) error {
	r.Lock()
	defer r.Unlock()
	r.Ops = append(r.Ops, IO{Op: Write, Pin: p, High: high, Hold: hold, Common: common})
	if r.WriteFunc != nil {
		return r.WriteFunc(p, high, hold, common)
	}
	return nil
}

// AnalogRead implements hal.Bus.
func (r *Record) AnalogRead(p hal.Pin) (uint16, error) {
	r.Lock()
	defer r.Unlock()
	var v uint16
	var err error
	if r.ReadFunc != nil {
		v, err = r.ReadFunc(p)
	}
	r.Ops = append(r.Ops, IO{Op: Read, Pin: p, Value: v})
	return v, err
}

// Writes returns the recorded writes.
func (r *Record) Writes() []IO {
	return r.filter(Write)
}

// Reads returns the recorded reads.
func (r *Record) Reads() []IO {
	return r.filter(Read)
}

func (r *Record) filter(o Op) []IO {
	r.Lock()
	defer r.Unlock()
	var out []IO
	for _, io := range r.Ops {
		if io.Op == o {
			out = append(out, io)
		}
	}
	return out
}

// Playback implements hal.Bus and plays back a recorded I/O flow.
//
// While "replay" type of unit tests are of limited value, they are useful to
// pin down the exact pulse sequence of a drive algorithm.
type Playback struct {
	sync.Mutex
	Ops []IO
	// DontPanic makes a mismatch return an error instead of panicking.
	DontPanic bool
	// Count is the number of operations consumed so far.
	Count int
}

// DigitalWrite implements hal.Bus.
func (p *Playback) DigitalWrite(pin hal.Pin, high bool, hold time.Duration, common uint16) error {
	p.Lock()
	defer p.Unlock()
	got := IO{Op: Write, Pin: pin, High: high, Hold: hold, Common: common}
	if _, err := p.next(got); err != nil {
		return err
	}
	return nil
}

// AnalogRead implements hal.Bus.
func (p *Playback) AnalogRead(pin hal.Pin) (uint16, error) {
	p.Lock()
	defer p.Unlock()
	want, err := p.next(IO{Op: Read, Pin: pin})
	if err != nil {
		return 0, err
	}
	return want.Value, nil
}

// Close verifies that all the expected operations were consumed.
func (p *Playback) Close() error {
	p.Lock()
	defer p.Unlock()
	if len(p.Ops) != p.Count {
		return p.fail(fmt.Errorf("haltest: expected playback to be empty: I/O count %d; expected %d", p.Count, len(p.Ops)))
	}
	return nil
}

func (p *Playback) next(got IO) (IO, error) {
	if p.Count >= len(p.Ops) {
		return IO{}, p.fail(fmt.Errorf("haltest: unexpected %s; playback is exhausted after %d ops", got, p.Count))
	}
	want := p.Ops[p.Count]
	// Read values are not known by the caller; compare the addressed pin only.
	match := want.Op == got.Op && want.Pin == got.Pin
	if got.Op == Write {
		match = match && want.High == got.High && want.Hold == got.Hold && want.Common == got.Common
	}
	if !match {
		return IO{}, p.fail(fmt.Errorf("haltest: unexpected op #%d: got %s, expected %s", p.Count, got, want))
	}
	p.Count++
	return want, nil
}

func (p *Playback) fail(err error) error {
	if !p.DontPanic {
		panic(err)
	}
	return err
}

// ErrIO is a convenience error for tests simulating a failing bus.
var ErrIO = errors.New("haltest: I/O error")

var _ hal.Bus = &Record{}
var _ hal.Bus = &Playback{}
