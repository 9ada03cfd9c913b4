// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

// Package origin forwards requests to the proxied site and pipes browser
// navigations to HTML pages through the rewriter.
package origin

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/metrics"
	"github.com/tomtom215/docent/internal/rewriter"
)

// Options configure a Proxy.
type Options struct {
	URL                   string
	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
	MaxIdleConnsPerHost   int

	Rewriter   rewriter.Options
	BufferSize int

	// ErrorHandler writes the response when the origin cannot be reached.
	// Nil writes a plain 502.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

	// Transport overrides the default origin transport.
	Transport http.RoundTripper
}

// Proxy is an http.Handler forwarding to a single origin.
type Proxy struct {
	target     *url.URL
	rp         *httputil.ReverseProxy
	rewrite    rewriter.Options
	bufferSize int
}

// New creates a Proxy for opts.URL.
func New(opts Options) (*Proxy, error) {
	target, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid origin URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid origin URL %q: scheme and host are required", opts.URL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = newTransport(opts)
	}

	p := &Proxy{
		target:     target,
		rewrite:    opts.Rewriter,
		bufferSize: opts.BufferSize,
	}

	errorHandler := opts.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, _ error) {
			w.WriteHeader(http.StatusBadGateway)
		}
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewriteRequest,
		Transport:      &instrumentedTransport{next: transport},
		FlushInterval:  -1,
		ModifyResponse: p.modifyResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Origin request failed")
			errorHandler(w, r, err)
		},
		ErrorLog: logging.NewSlogLogLogger("origin"),
	}

	return p, nil
}

func newTransport(opts Options) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   opts.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		// Bodies must reach the rewriter exactly as the origin sent them.
		DisableCompression: true,
	}
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

// IsDocumentNavigation reports whether the browser is loading a top-level
// document.
func IsDocumentNavigation(h http.Header) bool {
	return h.Get("Sec-Fetch-Dest") == "document"
}

// IsHTML reports whether the Content-Type header names an HTML body. A missing
// content type is not HTML.
func IsHTML(h http.Header) bool {
	return strings.HasPrefix(h.Get("Content-Type"), "text/html")
}

func (p *Proxy) rewriteRequest(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.SetXForwarded()

	if IsDocumentNavigation(pr.In.Header) {
		pr.Out.Header.Del("Accept-Encoding")
	}
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	if resp.Request == nil || !IsDocumentNavigation(resp.Request.Header) || !IsHTML(resp.Header) {
		return nil
	}

	if enc := resp.Header.Get("Content-Encoding"); enc != "" && !strings.EqualFold(enc, "identity") {
		logging.Ctx(resp.Request.Context()).Debug().
			Str("content_encoding", enc).
			Str("path", resp.Request.URL.Path).
			Msg("Skipping rewrite of encoded document")
		return nil
	}

	inj := rewriter.NewInjector(p.rewrite)
	resp.Body = rewriter.NewReaderSize(resp.Body, inj, p.bufferSize)
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return nil
}

// instrumentedTransport records origin round trips.
type instrumentedTransport struct {
	next http.RoundTripper
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.RecordUpstreamRequest("origin", status, time.Since(start), err)
	return resp, err
}
