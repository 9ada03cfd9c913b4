// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package catalog

import "errors"

// ErrInvalidObject is returned for records missing required fields.
var ErrInvalidObject = errors.New("catalog: invalid object record")
