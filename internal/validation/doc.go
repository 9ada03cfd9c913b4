// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

// Package validation wraps go-playground/validator v10 behind a shared
// instance and converts failures into the API's VALIDATION_ERROR shape.
//
// It validates two kinds of input: query parameters of /fastly/recommend,
// and raw object records returned by the catalog service.
package validation
