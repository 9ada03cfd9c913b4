// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package upstream

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := NewBreaker[string]("test-opens")

	if b.State() != "closed" {
		t.Fatalf("initial state = %q, want closed", b.State())
	}

	// 7 failures and 3 successes: ReadyToTrip only runs on failure, so one
	// more failure is needed once 10 requests have been counted.
	for i := 0; i < 10; i++ {
		_, _ = b.Execute(func() (string, error) {
			if i < 7 {
				return "", errors.New("simulated upstream failure")
			}
			return "ok", nil
		})
	}
	_, _ = b.Execute(func() (string, error) {
		return "", errors.New("final failure")
	})

	if b.State() != "open" {
		t.Fatalf("state = %q, want open after 8/11 failures", b.State())
	}

	_, err := b.Execute(func() (string, error) {
		t.Error("function ran while circuit open")
		return "", nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
}

func TestBreaker_StaysClosedBelowMinimum(t *testing.T) {
	b := NewBreaker[int]("test-minimum")

	for i := 0; i < 9; i++ {
		_, _ = b.Execute(func() (int, error) {
			return 0, errors.New("failure")
		})
	}

	if b.State() != "closed" {
		t.Errorf("state = %q, want closed below 10 requests", b.State())
	}
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker[int]("test-client-errors")

	for i := 0; i < 20; i++ {
		_, err := b.Execute(func() (int, error) {
			return 0, &StatusError{Upstream: "catalog", StatusCode: 404}
		})
		if !IsStatus(err, 404) {
			t.Fatalf("Execute() error = %v, want status 404 passed through", err)
		}
	}

	if b.State() != "closed" {
		t.Errorf("state = %q, want closed; 404s are not failures", b.State())
	}
}

func TestIsBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"canceled", context.Canceled, true},
		{"wrapped canceled", fmt.Errorf("catalog: %w", context.Canceled), true},
		{"not found", &StatusError{StatusCode: 404}, true},
		{"too many requests", &StatusError{StatusCode: 429}, false},
		{"server error", &StatusError{StatusCode: 500}, false},
		{"deadline", context.DeadlineExceeded, false},
		{"transport", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBreakerSuccess(tt.err); got != tt.want {
				t.Errorf("isBreakerSuccess(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStateConversions(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		str   string
		num   float64
	}{
		{gobreaker.StateClosed, "closed", 0},
		{gobreaker.StateHalfOpen, "half-open", 1},
		{gobreaker.StateOpen, "open", 2},
	}

	for _, tt := range tests {
		if got := stateToString(tt.state); got != tt.str {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.str)
		}
		if got := stateToFloat(tt.state); got != tt.num {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.num)
		}
	}
}
