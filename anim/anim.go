// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package anim animates electrochromic displays.
//
// An Anim is a small state machine ticked periodically by the application.
// While running it keeps driving its display on every tick, so that the
// active driver refreshes decaying segments, and applies its Transitioner
// once per period.
package anim

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/GermanBionicSystems/ecd/ecd"
)

// DefaultPeriod is the time between two transitions of a running animation.
const DefaultPeriod = 5 * time.Second

// State is the state of an animation.
type State uint8

// Animation states.
const (
	Idle State = iota
	Ready
	Running
	Paused
	Aborted
	Completed
)

var stateNames = [...]string{"Idle", "Ready", "Running", "Paused", "Aborted", "Completed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Transitioner edits the next states of a display to show the following
// animation frame.
type Transitioner interface {
	Transition()
}

// Opts holds the animation timing and diagnostics.
type Opts struct {
	// Period is the time between transitions. Defaults to DefaultPeriod.
	Period time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Logger receives state changes. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{Period: DefaultPeriod}

// Anim animates one display.
//
// Anim is not safe for concurrent use; see Set.
type Anim struct {
	display  ecd.Display
	rule     Transitioner
	period   time.Duration
	now      func() time.Time
	log      *zerolog.Logger
	state    State
	last     time.Time
	onChange func(State)
}

// New returns an idle animation applying rule to d.
func New(d ecd.Display, rule Transitioner, opts *Opts) *Anim {
	if opts == nil {
		opts = &DefaultOpts
	}
	a := &Anim{display: d, rule: rule, period: opts.Period, now: opts.Now, log: opts.Logger}
	if a.period <= 0 {
		a.period = DefaultPeriod
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		l := zerolog.Nop()
		a.log = &l
	}
	return a
}

// Start arms an idle animation; the next Update runs it.
func (a *Anim) Start() {
	if a.state == Idle {
		a.setState(Ready)
	}
}

// Abort stops a running or paused animation; the next Update bleaches the
// display.
func (a *Anim) Abort() {
	if a.state == Running || a.state == Paused {
		a.setState(Aborted)
	}
}

// Pause freezes a running animation. The display keeps being refreshed.
func (a *Anim) Pause() {
	if a.state == Running {
		a.setState(Paused)
	}
}

// Resume continues a paused animation.
func (a *Anim) Resume() {
	if a.state == Paused {
		a.setState(Running)
	}
}

// Toggle is the single button control: it starts an idle animation and
// switches between running and paused. It returns the resulting state.
func (a *Anim) Toggle() State {
	switch a.state {
	case Idle:
		a.setState(Ready)
	case Running:
		a.setState(Paused)
	case Paused:
		a.setState(Running)
	}
	return a.state
}

// Complete marks the animation as finished; the next Update bleaches the
// display.
func (a *Anim) Complete() {
	a.setState(Completed)
}

// State returns the current state.
func (a *Anim) State() State {
	return a.state
}

// IsRunning reports whether the animation is running.
func (a *Anim) IsRunning() bool {
	return a.state == Running
}

// OnStateChange registers f to be called with the new state on every state
// change. It replaces any previously registered function; nil unregisters.
func (a *Anim) OnStateChange(f func(State)) {
	a.onChange = f
}

// Display returns the animated display.
func (a *Anim) Display() ecd.Display {
	return a.display
}

// Update advances the animation and drives the display. It returns the
// drive result, or a zero Result if the display was not driven.
func (a *Anim) Update() ecd.Result {
	now := a.now()
	switch a.state {
	case Ready:
		a.setState(Running)
		a.display.Set()
		a.last = now
		return a.display.Update()
	case Running:
		if now.Sub(a.last) >= a.period {
			a.rule.Transition()
			a.last = now
		}
		return a.display.Update()
	case Paused:
		return a.display.Update()
	case Completed, Aborted:
		a.setState(Idle)
		a.display.Reset()
		return a.display.Update()
	}
	return ecd.Result{}
}

func (a *Anim) setState(s State) {
	a.log.Debug().Stringer("from", a.state).Stringer("to", s).Msg("anim: state change")
	a.state = s
	if a.onChange != nil {
		a.onChange(s)
	}
}
