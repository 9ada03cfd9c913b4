// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

/*
Package session carries an anonymous visitor identity and a short browsing
history in a single cookie. Nothing is stored server side.

The cookie value is the URI-component encoding of a JSON object:

	{"id":"lzx3k1f0a8d2kq9m","history":[436535,437133]}

History holds at most HistoryLength object ids, oldest first, without
duplicates. A State is created per request by FromRequest and travels in the
request context:

	st := session.FromRequest(r, opts)
	st.RecordObjectViewed(436535)
	if cookie, ok := st.SetCookie(); ok {
	    w.Header().Add("Set-Cookie", cookie)
	}

SetCookie only reports a cookie when the encoded session differs from what
the browser sent, so an unchanged session costs no response header.
*/
package session
