// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package anim

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/GermanBionicSystems/ecd/displays"
	"github.com/GermanBionicSystems/ecd/ecd"
)

// ID identifies an animation of the evaluation kit.
type ID uint8

// Animations, in the order of the kit's selector. Each display kind
// supports Toggle plus the animations written for it.
const (
	Toggle ID = iota
	SignedPositiveUp
	SignedPositiveDown
	SignedNegativeUp
	SignedNegativeDown
	DecimalUp
	DecimalDown
	SingleOnOff
	DotUp
	DotDown
	Bar7Up
	Bar7Down
	Bar3Up
	Bar3Down
	Bar3Position
	Walk
	IDCount
)

var idNames = [IDCount]string{
	"toggle",
	"signed-positive-up",
	"signed-positive-down",
	"signed-negative-up",
	"signed-negative-down",
	"decimal-up",
	"decimal-down",
	"single-on-off",
	"dot-up",
	"dot-down",
	"7bar-up",
	"7bar-down",
	"3bar-up",
	"3bar-down",
	"3bar-position",
	"walk",
}

func (i ID) String() string {
	if i < IDCount {
		return idNames[i]
	}
	return fmt.Sprintf("ID(%d)", uint8(i))
}

// ErrUnknownID is returned by ParseID.
var ErrUnknownID = errors.New("anim: unknown animation")

// ParseID returns the ID named s, as printed by ID.String.
func ParseID(s string) (ID, error) {
	for i, n := range idNames {
		if strings.EqualFold(s, n) {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownID, s)
}

// Set owns the animations of the selected display kind and the selected
// animation.
//
// All methods are serialized by one lock, so UI calls made from another
// goroutine never race with Tick.
type Set struct {
	mu       sync.Mutex
	reg      *displays.Registry
	opts     Opts
	log      *zerolog.Logger
	kind     displays.Kind
	anims    [IDCount]*Anim
	current  ID
	selected bool
	onChange func(State)
}

// NewSet returns a Set over the displays of reg. Nothing is selected until
// Select is called.
func NewSet(reg *displays.Registry, opts *Opts) *Set {
	if opts == nil {
		opts = &DefaultOpts
	}
	s := &Set{reg: reg, opts: *opts, log: opts.Logger, kind: reg.Kind()}
	if s.log == nil {
		l := zerolog.Nop()
		s.log = &l
	}
	s.build()
	return s
}

// Select selects animation id of display kind k and returns the animation
// actually selected.
//
// While the current animation is not Idle the selection is left unchanged.
// Selecting another kind rebuilds every animation for it. An id not
// supported by the kind is replaced by the next supported one.
func (s *Set) Select(k displays.Kind, id ID) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(k, id, true)
}

// Next selects the following animation supported by the current kind.
func (s *Set) Next() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(s.kind, (s.current+1)%IDCount, true)
}

// Previous selects the preceding animation supported by the current kind.
func (s *Set) Previous() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(s.kind, (s.current+IDCount-1)%IDCount, false)
}

func (s *Set) selectLocked(k displays.Kind, id ID, forward bool) ID {
	if st := s.anims[s.current].State(); st != Idle {
		s.log.Warn().Stringer("current", s.current).Stringer("state", st).Msg("anim: abort the current animation first")
		return s.current
	}
	id %= IDCount
	if s.selected && k == s.kind && id == s.current {
		return s.current
	}
	if k != s.kind {
		if err := s.reg.Select(k); err != nil {
			s.log.Warn().Err(err).Msg("anim: cannot select display")
			return s.current
		}
	}
	s.anims[s.current].OnStateChange(nil)
	if k != s.kind {
		s.kind = k
		s.build()
	}
	for s.anims[id] == nil {
		if forward {
			id = (id + 1) % IDCount
		} else {
			id = (id + IDCount - 1) % IDCount
		}
	}
	s.current = id
	s.selected = true
	s.anims[id].OnStateChange(s.onChange)
	s.log.Info().Stringer("display", s.kind).Stringer("anim", id).Msg("anim: selected")
	return id
}

// build creates the animations supported by the current kind.
func (s *Set) build() {
	d := s.reg.Current()
	a := [IDCount]*Anim{}
	add := func(id ID, t Transitioner) {
		a[id] = New(d, t, &s.opts)
	}
	add(Toggle, &Toggler{D: d})
	switch d := d.(type) {
	case *displays.Single:
		add(SingleOnOff, &OnOff{D: d})
	case *displays.Bar:
		if s.kind == displays.ThreeSegmentBar {
			add(Bar3Up, &BarCounter{D: d})
			add(Bar3Down, &BarCounter{D: d, Down: true})
			add(Bar3Position, &BarCycle{D: d})
		} else {
			add(Bar7Up, &BarCounter{D: d})
			add(Bar7Down, &BarCounter{D: d, Down: true})
		}
	case *displays.DotNumber:
		add(DotUp, &DotCounter{D: d})
		add(DotDown, &DotCounter{D: d, Down: true})
	case *displays.DecimalNumber:
		add(DecimalUp, &DecimalCounter{D: d})
		add(DecimalDown, &DecimalCounter{D: d, Down: true})
	case *displays.SignedNumber:
		add(SignedPositiveUp, &SignedCounter{D: d})
		add(SignedPositiveDown, &SignedCounter{D: d, Down: true})
		add(SignedNegativeUp, &SignedCounter{D: d, Negative: true})
		add(SignedNegativeDown, &SignedCounter{D: d, Negative: true, Down: true})
	case *displays.Walk:
		add(Walk, &Walker{D: d})
	}
	s.anims = a
}

// IsSelected reports whether an animation was selected.
func (s *Set) IsSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Current returns the selected animation.
func (s *Set) Current() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Kind returns the display kind the animations are built for.
func (s *Set) Kind() displays.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Supported reports whether id is available for the current kind.
func (s *Set) Supported(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id < IDCount && s.anims[id] != nil
}

// State returns the state of the selected animation.
func (s *Set) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anims[s.current].State()
}

// OnStateChange registers f on the selected animation and on every
// animation selected afterward. It replaces any previous function.
//
// f runs with the Set locked and must not call back into it.
func (s *Set) OnStateChange(f func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = f
	if s.selected {
		s.anims[s.current].OnStateChange(f)
	}
}

// Tick updates the selected animation. It does nothing until an animation
// is selected.
func (s *Set) Tick() ecd.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selected {
		return ecd.Result{}
	}
	return s.anims[s.current].Update()
}

// Start starts the selected animation.
func (s *Set) Start() {
	s.do((*Anim).Start)
}

// Pause pauses the selected animation.
func (s *Set) Pause() {
	s.do((*Anim).Pause)
}

// Resume resumes the selected animation.
func (s *Set) Resume() {
	s.do((*Anim).Resume)
}

// Abort aborts the selected animation.
func (s *Set) Abort() {
	s.do((*Anim).Abort)
}

// Toggle applies the single button control to the selected animation and
// returns its new state.
func (s *Set) Toggle() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selected {
		return Idle
	}
	return s.anims[s.current].Toggle()
}

func (s *Set) do(f func(*Anim)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected {
		f(s.anims[s.current])
	}
}
