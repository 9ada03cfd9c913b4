// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package rewriter

import (
	"io"
	"sync"

	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/metrics"
)

// DefaultBufferSize is the read size used by NewReader.
const DefaultBufferSize = 32 * 1024

// Reader pipes a body through an Injector. Each Read of the source is one
// chunk; output preserves chunk order.
type Reader struct {
	src io.ReadCloser
	inj *Injector
	buf []byte

	pending []byte
	err     error

	closeOnce sync.Once
}

// NewReader wraps src with DefaultBufferSize.
func NewReader(src io.ReadCloser, inj *Injector) *Reader {
	return NewReaderSize(src, inj, DefaultBufferSize)
}

// NewReaderSize wraps src, reading at most size bytes per chunk.
func NewReaderSize(src io.ReadCloser, inj *Injector, size int) *Reader {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Reader{src: src, inj: inj, buf: make([]byte, size)}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// fill reads one chunk from src. pending may alias buf; fill is only called
// once pending is drained.
func (r *Reader) fill() {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		r.pending = r.inj.Transform(r.buf[:n])
	}
	if err == nil {
		return
	}
	if err == io.EOF {
		if held := r.inj.Flush(); len(held) > 0 {
			r.pending = append(r.pending[:len(r.pending):len(r.pending)], held...)
		}
	}
	r.err = err
}

// Close closes the source and records the outcome of the rewrite.
func (r *Reader) Close() error {
	err := r.src.Close()
	r.closeOnce.Do(r.report)
	return err
}

func (r *Reader) report() {
	metrics.RecordRewrite(r.inj.Injected(), r.inj.Straddled())
	if r.inj.Straddled() {
		logging.Warn().
			Int("chunks", r.inj.Chunks()).
			Msg("Body marker split across chunks, fragment not injected")
	}
}
