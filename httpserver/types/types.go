/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package types holds the small vocabulary shared between the httpserver
// engine and its subpackages, kept separate so transport and uri don't need
// to import the (much larger) httpserver package just for a few constants.
package types

import "time"

const (
	// TimeoutWaitingPortFreeing is a base timeout; the server bounds each
	// accepted connection's TLS handshake at four times this value.
	TimeoutWaitingPortFreeing = 250 * time.Millisecond

	// TimeoutShutdown bounds how long Stop waits on the live-session
	// condition variable for the sessions to drain before it gives up.
	TimeoutShutdown = 5 * time.Second
)

// Scheme identifies the URL scheme a server was constructed from.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeWS    Scheme = "ws"
	SchemeWSS   Scheme = "wss"
)

// IsTLS reports whether the scheme requires a TLS-wrapped transport.
func (s Scheme) IsTLS() bool {
	return s == SchemeHTTPS || s == SchemeWSS
}

// Valid reports whether s is one of the four schemes this engine accepts.
func (s Scheme) Valid() bool {
	switch s {
	case SchemeHTTP, SchemeHTTPS, SchemeWS, SchemeWSS:
		return true
	default:
		return false
	}
}
