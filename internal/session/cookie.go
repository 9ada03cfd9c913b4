// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package session

import "strings"

// parseCookieHeader splits Cookie header values into name/value pairs.
// Values are kept verbatim, including characters net/http would reject,
// because the session value must be compared byte-for-byte with its
// re-encoding. A later duplicate name overrides an earlier one.
func parseCookieHeader(lines []string) map[string]string {
	cookies := make(map[string]string)
	for _, line := range lines {
		for _, part := range strings.Split(line, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, value, _ := strings.Cut(part, "=")
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			cookies[name] = strings.TrimSpace(value)
		}
	}
	return cookies
}
