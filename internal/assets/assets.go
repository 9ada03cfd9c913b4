// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

// Package assets serves the browser widget files compiled into the binary.
package assets

import (
	"embed"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/docent/internal/logging"
)

//go:embed static/client.js static/client.css static/fastly-logo.svg
var staticFS embed.FS

// Asset is one synthetic response.
type Asset struct {
	Content     []byte
	ContentType string
}

// Paths of the synthetic assets.
const (
	ScriptPath = "/fastly/script"
	StylePath  = "/fastly/style"
	LogoPath   = "/fastly/logo"
)

var sources = map[string]Asset{
	ScriptPath: {Content: mustRead("static/client.js"), ContentType: "application/javascript"},
	StylePath:  {Content: mustRead("static/client.css"), ContentType: "text/css"},
	LogoPath:   {Content: mustRead("static/fastly-logo.svg"), ContentType: "image/svg+xml"},
}

func mustRead(name string) []byte {
	data, err := staticFS.ReadFile(name)
	if err != nil {
		panic("assets: missing embedded file " + name)
	}
	return data
}

// Paths returns the synthetic asset paths.
func Paths() []string {
	return []string{ScriptPath, StylePath, LogoPath}
}

// Lookup returns the asset registered for path.
func Lookup(path string) (Asset, bool) {
	a, ok := sources[path]
	return a, ok
}

// Has reports whether path is a synthetic asset.
func Has(path string) bool {
	_, ok := sources[path]
	return ok
}

// Serve writes the asset for path with status 200. It reports false, writing
// nothing, when path is not an asset.
func Serve(w http.ResponseWriter, r *http.Request, path string) bool {
	a, ok := sources[path]
	if !ok {
		return false
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Content)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return true
	}
	if _, err := w.Write(a.Content); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Str("path", path).Msg("Failed to write synthetic asset")
	}
	return true
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}
