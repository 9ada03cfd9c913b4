// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package session

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/docent/internal/logging"
	"github.com/tomtom215/docent/internal/metrics"
)

// DefaultCookieName and DefaultHistoryLength are used when Options leaves
// the corresponding field zero.
const (
	DefaultCookieName    = "fastly"
	DefaultHistoryLength = 5
)

// Options control cookie naming and attributes.
type Options struct {
	CookieName    string
	HistoryLength int
	MaxAge        int // seconds; 0 omits Max-Age
	Secure        bool

	// Now is used for new session ids. Nil means time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.HistoryLength < 1 {
		o.HistoryLength = DefaultHistoryLength
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// State is one request's view of the visitor session. It is not safe for
// concurrent mutation; a request owns exactly one State.
type State struct {
	opts    Options
	data    payload
	raw     string // inbound cookie value
	present bool   // inbound request carried the cookie
}

// FromRequest builds the session from the request's Cookie header. A missing,
// undecodable or id-less cookie starts a new session.
func FromRequest(r *http.Request, opts Options) *State {
	opts = opts.withDefaults()

	cookies := parseCookieHeader(r.Header.Values("Cookie"))
	raw, present := cookies[opts.CookieName]

	s := &State{opts: opts, raw: raw, present: present}
	if present {
		data, err := decode(raw, opts.HistoryLength)
		if err == nil {
			s.data = data
			return s
		}
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Discarding malformed session cookie")
	}

	s.data = payload{ID: newID(opts.Now()), History: []int{}}
	metrics.SessionsCreated.Inc()
	return s
}

// RecordObjectViewed moves id to the newest history position, trimming the
// oldest entries beyond the history length.
func (s *State) RecordObjectViewed(id int) {
	history := make([]int, 0, len(s.data.History)+1)
	for _, existing := range s.data.History {
		if existing != id {
			history = append(history, existing)
		}
	}
	history = append(history, id)
	if over := len(history) - s.opts.HistoryLength; over > 0 {
		history = history[over:]
	}
	s.data.History = history
}

// UserID returns the session id.
func (s *State) UserID() string {
	return s.data.ID
}

// History returns a copy of the viewed object ids, oldest first.
func (s *State) History() []int {
	out := make([]int, len(s.data.History))
	copy(out, s.data.History)
	return out
}

// Encoded returns the cookie value for the current state.
func (s *State) Encoded() string {
	value, err := encode(s.data)
	if err != nil {
		// payload holds only a string and ints.
		return ""
	}
	return value
}

// Changed reports whether the browser needs a new cookie.
func (s *State) Changed() bool {
	return !s.present || s.Encoded() != s.raw
}

// SetCookie returns the Set-Cookie header value when Changed.
func (s *State) SetCookie() (string, bool) {
	if !s.Changed() {
		return "", false
	}

	c := http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.Encoded(),
		Path:     "/",
		MaxAge:   s.opts.MaxAge,
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	metrics.SessionCookiesIssued.Inc()
	return c.String(), true
}

// DiagnosticValue formats the session for the diagnostic response header.
func (s *State) DiagnosticValue(serviceVersion string) string {
	ids := make([]string, len(s.data.History))
	for i, id := range s.data.History {
		ids[i] = strconv.Itoa(id)
	}
	return "svcVer=" + serviceVersion + ", user=" + s.data.ID + ", objs=" + strings.Join(ids, ",")
}

type contextKey struct{}

// WithState returns a copy of ctx carrying s.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the State stored by WithState, or nil.
func FromContext(ctx context.Context) *State {
	s, _ := ctx.Value(contextKey{}).(*State)
	return s
}
