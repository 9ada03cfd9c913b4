// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package cache

import "errors"

// ErrNotFound is returned by Store.Get for missing or expired keys.
var ErrNotFound = errors.New("cache: not found")
