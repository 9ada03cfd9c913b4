// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// payload is the JSON shape stored in the cookie. Field order is part of the
// encoding and must stay id, history.
type payload struct {
	ID      string `json:"id"`
	History []int  `json:"history"`
}

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether encodeURIComponent would percent-encode b.
func shouldEscape(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return false
	}
	switch b {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	}
	return true
}

// encodeURIComponent percent-encodes s byte-for-byte the way browsers do.
// url.QueryEscape and url.PathEscape both differ on the reserved set.
func encodeURIComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// encode serializes p as cookie value.
func encode(p payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	return encodeURIComponent(string(raw)), nil
}

// decode parses a cookie value produced by encode or by a browser-side
// encodeURIComponent(JSON.stringify(...)).
func decode(value string, historyLength int) (payload, error) {
	unescaped, err := url.PathUnescape(value)
	if err != nil {
		return payload{}, fmt.Errorf("failed to unescape session cookie: %w", err)
	}

	var p payload
	if err := json.Unmarshal([]byte(unescaped), &p); err != nil {
		return payload{}, fmt.Errorf("failed to unmarshal session cookie: %w", err)
	}
	if p.ID == "" {
		return payload{}, fmt.Errorf("session cookie has no id")
	}

	p.History = normalizeHistory(p.History, historyLength)
	return p, nil
}

// normalizeHistory removes duplicates keeping the last occurrence and keeps
// at most limit entries, newest last. The result is never nil.
func normalizeHistory(history []int, limit int) []int {
	seen := make(map[int]struct{}, len(history))
	reversed := make([]int, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		id := history[i]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		reversed = append(reversed, id)
		if len(reversed) == limit {
			break
		}
	}

	out := make([]int, len(reversed))
	for i, id := range reversed {
		out[len(reversed)-1-i] = id
	}
	return out
}

const (
	idRandomLength = 8
	base36Digits   = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var base36Max = big.NewInt(int64(len(base36Digits)))

// newID returns a base-36 millisecond timestamp followed by eight random
// base-36 characters.
func newID(now time.Time) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	for i := 0; i < idRandomLength; i++ {
		n, err := rand.Int(rand.Reader, base36Max)
		if err != nil {
			// Unreachable on supported platforms.
			n = big.NewInt((now.UnixNano() >> uint(i)) % int64(len(base36Digits)))
		}
		b.WriteByte(base36Digits[n.Int64()])
	}
	return b.String()
}
