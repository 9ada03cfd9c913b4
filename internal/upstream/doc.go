// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

// Package upstream is the shared plumbing for Docent's outbound JSON calls:
// a retrying HTTP client with an optional token-bucket limiter, and a
// generic circuit breaker built on sony/gobreaker.
//
// The recommender and catalog clients compose the two:
//
//	b := upstream.NewBreaker[[]int]("recommender")
//	ids, err := b.Execute(func() ([]int, error) {
//	    var out []int
//	    return out, client.GetJSON(ctx, "", query, &out)
//	})
package upstream
