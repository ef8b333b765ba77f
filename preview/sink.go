// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strconv"
	"sync"
)

// Format is an encoding served by Sink.
type Format int

const (
	PNG Format = iota
	JPEG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return strconv.Itoa(int(f))
	}
}

func (f Format) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// ParseFormat returns the Format for an abbreviation as used in the "format"
// URL parameter.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("preview: unrecognized image format %q", s)
}

// Sink holds the latest rendered frame and serves it over HTTP.
type Sink struct {
	mu       sync.Mutex
	img      image.Image
	frame    int
	snapshot map[Format][]byte
}

// NewSink returns an empty Sink.
func NewSink() *Sink {
	return &Sink{snapshot: map[Format][]byte{}}
}

// Update replaces the served frame.
func (s *Sink) Update(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.frame++
	clear(s.snapshot)
}

// Frame returns the number of frames received so far.
func (s *Sink) Frame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// ServeHTTP answers GET requests with the latest frame. Clients can request
// PNG or JPEG with "?format=png" or "?format=jpeg". Until the first Update it
// answers 503.
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	f := PNG
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if f, err = ParseFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	b, frame, err := s.encoded(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", f.mimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.Header().Set("X-Frame", strconv.Itoa(frame))
	_, _ = w.Write(b)
}

// encoded returns the cached encoding of the current frame.
func (s *Sink) encoded(f Format) ([]byte, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, 0, nil
	}
	if b, ok := s.snapshot[f]; ok {
		return b, s.frame, nil
	}
	var buf bytes.Buffer
	var err error
	switch f {
	case PNG:
		err = png.Encode(&buf, s.img)
	case JPEG:
		err = jpeg.Encode(&buf, s.img, &jpeg.Options{Quality: 95})
	default:
		err = fmt.Errorf("preview: unhandled image format %s", f)
	}
	if err != nil {
		return nil, 0, err
	}
	s.snapshot[f] = buf.Bytes()
	return s.snapshot[f], s.frame, nil
}

var _ http.Handler = (*Sink)(nil)
