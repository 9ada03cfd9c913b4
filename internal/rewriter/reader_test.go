// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package rewriter

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/docent/internal/metrics"
)

const pageFragment = `<link rel='stylesheet' href="/fastly/style" /><script src="/fastly/script" async defer></script>`

const testPage = `<!DOCTYPE html>
<html>
<head><title>Object</title></head>
<body>
<div class="artwork-facets">Facets</div>
</body>
</html>`

// chunkedBody returns one chunk per Read.
type chunkedBody struct {
	chunks [][]byte
	closed bool
}

func newChunkedBody(chunks ...string) *chunkedBody {
	b := &chunkedBody{}
	for _, c := range chunks {
		b.chunks = append(b.chunks, []byte(c))
	}
	return b
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	if len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *chunkedBody) Close() error {
	b.closed = true
	return nil
}

func TestReader_InjectsIntoBody(t *testing.T) {
	inj := NewInjector(Options{Fragment: pageFragment})
	r := NewReader(io.NopCloser(strings.NewReader(testPage)), inj)

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if doc.Find(`body > script[src="/fastly/script"]`).Length() != 1 {
		t.Errorf("script not injected into body: %s", out)
	}
	if doc.Find(`link[href="/fastly/style"]`).Length() != 1 {
		t.Errorf("stylesheet not injected: %s", out)
	}
	if !doc.Find(".artwork-facets").Next().Is("link") {
		t.Errorf("fragment not placed after existing body content: %s", out)
	}

	want := strings.Replace(testPage, "</body>", pageFragment+"</body>", 1)
	if string(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestReader_ChunkBoundaries(t *testing.T) {
	before, after, _ := strings.Cut(testPage, "</bo")

	tests := []struct {
		name         string
		carry        bool
		wantInjected bool
		wantStraddle bool
	}{
		{"default mode misses split marker", false, false, true},
		{"carry mode finds split marker", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj := NewInjector(Options{Fragment: pageFragment, CarryOverlap: tt.carry})
			body := newChunkedBody(before+"</bo", after)
			r := NewReader(body, inj)

			out, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			_ = r.Close()

			if inj.Injected() != tt.wantInjected {
				t.Errorf("Injected() = %v, want %v", inj.Injected(), tt.wantInjected)
			}
			if inj.Straddled() != tt.wantStraddle {
				t.Errorf("Straddled() = %v, want %v", inj.Straddled(), tt.wantStraddle)
			}
			if !tt.wantInjected && string(out) != testPage {
				t.Errorf("output changed although nothing was injected")
			}
			if !body.closed {
				t.Error("Close() did not close the source")
			}
		})
	}
}

func TestReader_OneByteReads(t *testing.T) {
	inj := NewInjector(Options{Fragment: pageFragment, CarryOverlap: true})
	src := io.NopCloser(iotest.OneByteReader(strings.NewReader(testPage)))

	out, err := io.ReadAll(NewReaderSize(src, inj, 1))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	want := strings.Replace(testPage, "</body>", pageFragment+"</body>", 1)
	if string(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if inj.Chunks() != len(testPage) {
		t.Errorf("Chunks() = %d, want %d", inj.Chunks(), len(testPage))
	}
}

func TestReader_CarryFlushAtEOF(t *testing.T) {
	inj := NewInjector(Options{Fragment: pageFragment, CarryOverlap: true})
	r := NewReader(newChunkedBody("truncated </bo"), inj)

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(out) != "truncated </bo" {
		t.Errorf("output = %q, want held bytes emitted at EOF", out)
	}
}

func TestReader_SourceError(t *testing.T) {
	boom := errors.New("connection reset")
	src := io.NopCloser(io.MultiReader(strings.NewReader("<p>partial"), iotest.ErrReader(boom)))
	r := NewReader(src, NewInjector(Options{Fragment: pageFragment}))

	out, err := io.ReadAll(r)
	if !errors.Is(err, boom) {
		t.Errorf("ReadAll() error = %v, want %v", err, boom)
	}
	if string(out) != "<p>partial" {
		t.Errorf("output = %q, want bytes read before the error", out)
	}
}

func TestReader_CloseRecordsOutcome(t *testing.T) {
	injected := testutil.ToFloat64(metrics.RewriterDocuments.WithLabelValues("injected"))
	straddled := testutil.ToFloat64(metrics.RewriterDocuments.WithLabelValues("straddled"))

	r := NewReader(io.NopCloser(strings.NewReader(testPage)), NewInjector(Options{Fragment: pageFragment}))
	_, _ = io.ReadAll(r)
	_ = r.Close()
	_ = r.Close()

	if got := testutil.ToFloat64(metrics.RewriterDocuments.WithLabelValues("injected")) - injected; got != 1 {
		t.Errorf("injected documents delta = %v, want 1", got)
	}

	split := NewReader(newChunkedBody("a</bo", "dy>"), NewInjector(Options{Fragment: pageFragment}))
	_, _ = io.ReadAll(split)
	_ = split.Close()

	if got := testutil.ToFloat64(metrics.RewriterDocuments.WithLabelValues("straddled")) - straddled; got != 1 {
		t.Errorf("straddled documents delta = %v, want 1", got)
	}
}
