// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package api

import "errors"

// Error codes written into the error envelope.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeOriginUnavailable = "ORIGIN_UNAVAILABLE"
	ErrCodeRateLimited       = "RATE_LIMITED"
)

var (
	// ErrInvalidOffset indicates a recommend offset that is not an integer.
	ErrInvalidOffset = errors.New("offset must be an integer")
)
