// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen is returned while a breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRateLimited is returned when an upstream keeps answering 429.
	ErrRateLimited = errors.New("upstream rate limit exceeded")
)

// StatusError is a non-200 upstream response.
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Upstream, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// IsStatus reports whether err carries an upstream response with the given status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
