// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

// Package rewriter injects a markup fragment before the closing body tag of
// an HTML stream, one chunk at a time, without buffering the document.
//
// In the default mode each chunk is searched on its own. A marker split
// across two chunks is not injected; the Injector notices and reports it
// through Straddled. With CarryOverlap the Injector holds back the few
// trailing bytes that could start a marker and prepends them to the next
// chunk, so split markers are found too.
package rewriter

import "bytes"

// DefaultMarker is the tag the fragment is inserted in front of.
const DefaultMarker = "</body>"

// Options configure an Injector.
type Options struct {
	Marker       string
	Fragment     string
	CarryOverlap bool
}

// Injector is the per-stream rewrite state. It must not be shared between
// streams.
type Injector struct {
	marker   []byte
	fragment []byte
	carry    bool

	// tail is the last len(marker)-1 bytes seen, for straddle detection.
	tail []byte
	// held are bytes withheld in carry mode.
	held []byte

	injected  bool
	straddled bool
	chunks    int
}

// NewInjector creates an Injector. An empty marker falls back to DefaultMarker.
func NewInjector(opts Options) *Injector {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	return &Injector{
		marker:   []byte(marker),
		fragment: []byte(opts.Fragment),
		carry:    opts.CarryOverlap,
	}
}

// Transform returns the output for one input chunk. A chunk that needs no
// change is returned as is. The fragment is injected at most once per stream.
func (in *Injector) Transform(chunk []byte) []byte {
	in.chunks++

	if in.carry {
		return in.transformCarry(chunk)
	}

	if in.injected {
		return chunk
	}

	if idx := bytes.Index(chunk, in.marker); idx >= 0 {
		in.injected = true
		in.tail = nil
		return in.splice(chunk, idx)
	}

	in.detectStraddle(chunk)
	return chunk
}

// Flush returns bytes withheld by carry mode. It is called once at EOF.
func (in *Injector) Flush() []byte {
	held := in.held
	in.held = nil
	return held
}

// Injected reports whether the fragment was spliced in.
func (in *Injector) Injected() bool { return in.injected }

// Straddled reports whether a marker was split across chunks and therefore
// missed. It is only ever true in the default mode.
func (in *Injector) Straddled() bool { return in.straddled }

// Chunks returns the number of chunks transformed.
func (in *Injector) Chunks() int { return in.chunks }

func (in *Injector) transformCarry(chunk []byte) []byte {
	data := chunk
	if len(in.held) > 0 {
		data = make([]byte, 0, len(in.held)+len(chunk))
		data = append(data, in.held...)
		data = append(data, chunk...)
		in.held = nil
	}

	if in.injected {
		return data
	}

	if idx := bytes.Index(data, in.marker); idx >= 0 {
		in.injected = true
		return in.splice(data, idx)
	}

	k := markerPrefixSuffix(data, in.marker)
	if k > 0 {
		// data may alias the caller's read buffer.
		in.held = append([]byte(nil), data[len(data)-k:]...)
	}
	return data[:len(data)-k]
}

// detectStraddle checks whether the previous tail plus the head of chunk
// contains the marker, then updates the tail.
func (in *Injector) detectStraddle(chunk []byte) {
	keep := len(in.marker) - 1
	if keep <= 0 {
		return
	}

	if len(in.tail) > 0 {
		head := chunk
		if len(head) > keep {
			head = head[:keep]
		}
		window := make([]byte, 0, len(in.tail)+len(head))
		window = append(window, in.tail...)
		window = append(window, head...)
		if bytes.Contains(window, in.marker) {
			in.straddled = true
		}
	}

	if len(chunk) >= keep {
		in.tail = append(in.tail[:0], chunk[len(chunk)-keep:]...)
		return
	}
	in.tail = append(in.tail, chunk...)
	if over := len(in.tail) - keep; over > 0 {
		in.tail = append(in.tail[:0], in.tail[over:]...)
	}
}

func (in *Injector) splice(data []byte, idx int) []byte {
	out := make([]byte, 0, len(data)+len(in.fragment))
	out = append(out, data[:idx]...)
	out = append(out, in.fragment...)
	out = append(out, data[idx:]...)
	return out
}

// markerPrefixSuffix returns the length of the longest suffix of data that is
// a proper prefix of marker.
func markerPrefixSuffix(data, marker []byte) int {
	n := len(marker) - 1
	if n > len(data) {
		n = len(data)
	}
	for ; n > 0; n-- {
		if bytes.Equal(data[len(data)-n:], marker[:n]) {
			return n
		}
	}
	return 0
}
