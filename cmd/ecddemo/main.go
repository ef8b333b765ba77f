// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ecddemo runs the kit's display animations, on the evaluation kit or on a
// simulated panel rendered in the terminal.
//
// Commands are read from stdin, one per line:
//
//	t  start, pause or resume the animation
//	a  abort the animation
//	n  next animation
//	p  previous animation
//	k  next display kind
//	q  quit
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GermanBionicSystems/ecd/anim"
	"github.com/GermanBionicSystems/ecd/config"
	"github.com/GermanBionicSystems/ecd/displays"
	"github.com/GermanBionicSystems/ecd/ecdsim"
	"github.com/GermanBionicSystems/ecd/evalkit"
	"github.com/GermanBionicSystems/ecd/hal"
	"github.com/GermanBionicSystems/ecd/preview"
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "ecddemo: %s.\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		simulate   = flag.Bool("sim", false, "drive a simulated panel instead of the kit")
		active     = flag.Bool("active", false, "use the active (read back) driver")
		display    = flag.String("display", "", "display kind: single, 3bar, 7bar, dot, decimal, signed, test")
		animation  = flag.String("anim", "", "animation, e.g. 7bar-up, decimal-down, walk")
		tick       = flag.Duration("tick", 0, "update interval")
		period     = flag.Duration("period", 0, "time between animation frames")
		pngDir     = flag.String("png", "", "write one PNG frame per tick in this directory")
		addr       = flag.String("http", "", "serve the latest frame on this address")
		verbose    = flag.Bool("v", false, "verbose logging")
		printCfg   = flag.Bool("print", false, "print the display drive configuration and exit")
	)
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	// Flags given explicitly override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sim":
			cfg.Simulate = *simulate
		case "active":
			cfg.Driving = config.Passive
			if *active {
				cfg.Driving = config.Active
			}
		case "display":
			cfg.Display = *display
		case "anim":
			cfg.Animation = *animation
		case "tick":
			cfg.Tick = *tick
		case "period":
			cfg.Period = *period
		case "png":
			cfg.Preview.Dir = *pngDir
		case "http":
			cfg.Preview.Addr = *addr
		case "v":
			if *verbose {
				cfg.LogLevel = zerolog.DebugLevel.String()
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	logger := log.Logger

	var bus hal.Bus
	var sim *ecdsim.Dev
	if cfg.Simulate {
		sim = ecdsim.New(&ecdsim.Opts{Bits: cfg.Resolution})
		defer sim.Halt()
		bus = sim
	} else {
		b, err := evalkit.Open(cfg.BoardOpts(&logger))
		if err != nil {
			return err
		}
		defer b.Close()
		bus = b
	}
	log.Info().Str("bus", fmt.Sprint(bus)).Str("driving", cfg.Driving).Msg("opened")

	reg := displays.NewRegistry(cfg.AppConfig(bus, &logger))
	kind, _ := cfg.Kind()
	id, _ := cfg.AnimationID()
	if *printCfg {
		return reg.Display(kind).PrintConfig(os.Stdout)
	}

	set := anim.NewSet(reg, cfg.AnimOpts(&logger))
	set.OnStateChange(func(s anim.State) {
		log.Info().Stringer("state", s).Msg("animation")
	})
	if got := set.Select(kind, id); got != id {
		log.Warn().Stringer("requested", id).Stringer("selected", got).Msg("animation not supported by the display")
	}
	set.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink *preview.Sink
	if cfg.Preview.Addr != "" {
		sink = preview.NewSink()
		srv := newServer(cfg.Preview.Addr, sink)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http")
			}
		}()
		defer srv.Close()
	}
	if cfg.Preview.Dir != "" {
		if err := os.MkdirAll(cfg.Preview.Dir, 0o755); err != nil {
			return err
		}
	}

	quit := make(chan struct{})
	go readCommands(os.Stdin, set, quit)

	t := time.NewTicker(cfg.Tick)
	defer t.Stop()
	frame := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-quit:
			return nil
		case <-t.C:
		}
		if sim != nil {
			sim.Decay(cfg.Tick)
		}
		r := set.Tick()
		if r.Writes != 0 || r.Errors != 0 {
			log.Debug().Int("writes", r.Writes).Int("reads", r.Reads).Int("retries", r.Retries).Int("pending", r.Pending).Int("errors", r.Errors).Msg("update")
		}
		if sim != nil {
			if err := sim.Render(displays.Pins(set.Kind())); err != nil {
				return err
			}
		}
		if sink == nil && cfg.Preview.Dir == "" {
			continue
		}
		img, err := preview.RenderDisplay(reg.Display(set.Kind()), nil)
		if err != nil {
			return err
		}
		if sink != nil {
			sink.Update(img)
		}
		if cfg.Preview.Dir != "" {
			if err := preview.SavePNG(filepath.Join(cfg.Preview.Dir, fmt.Sprintf("frame%05d.png", frame)), img); err != nil {
				return err
			}
		}
		frame++
	}
}

// readCommands applies the commands read from r until EOF. It closes quit on
// "q".
func readCommands(r io.Reader, set *anim.Set, quit chan<- struct{}) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if !command(set, strings.TrimSpace(s.Text())) {
			close(quit)
			return
		}
	}
}

// command applies one command and returns false on quit.
func command(set *anim.Set, c string) bool {
	switch c {
	case "t":
		set.Toggle()
	case "a":
		set.Abort()
	case "n":
		log.Info().Stringer("animation", set.Next()).Msg("selected")
	case "p":
		log.Info().Stringer("animation", set.Previous()).Msg("selected")
	case "k":
		k := (set.Kind() + 1) % displays.KindCount
		log.Info().Stringer("kind", k).Stringer("animation", set.Select(k, set.Current())).Msg("selected")
	case "q":
		return false
	case "":
	default:
		log.Warn().Str("command", c).Msg("unknown command")
	}
	return true
}

// newServer returns the preview server. Slow clients cannot hold a
// connection open by trickling their request headers.
func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
}
