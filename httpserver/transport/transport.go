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

// Package transport wraps net.Conn / tls.Conn (and their listeners) behind
// a single Transport interface, so the session state machine in package
// httpserver never needs to know whether a connection is plain TCP or TLS.
// This is the "transport primitives" collaborator spec.md §6 treats as
// external; the TCP/TLS plumbing itself is stdlib, the engine above it
// is not.
package transport

import (
	"crypto/tls"
	"net"
	"time"
)

// Transport is an accepted connection, plain or TLS-wrapped.
type Transport interface {
	net.Conn

	// IsTLS reports whether this transport is TLS-wrapped.
	IsTLS() bool
}

type plain struct {
	net.Conn
}

func (p plain) IsTLS() bool { return false }

// NewPlain wraps an accepted net.Conn as a plain Transport.
func NewPlain(c net.Conn) Transport {
	return plain{Conn: c}
}

type tlsWrapped struct {
	*tls.Conn
}

func (t tlsWrapped) IsTLS() bool { return true }

// NewTLS wraps an accepted net.Conn with server-side TLS using cfg, and
// performs the handshake before returning so the caller never observes a
// half-handshaken transport. deadline, if non-zero, bounds the handshake.
func NewTLS(c net.Conn, cfg *tls.Config, deadline time.Duration) (Transport, error) {
	tc := tls.Server(c, cfg)

	if deadline > 0 {
		_ = tc.SetDeadline(time.Now().Add(deadline))
	}

	if err := tc.Handshake(); err != nil {
		_ = tc.Close()
		return nil, err
	}

	if deadline > 0 {
		_ = tc.SetDeadline(time.Time{})
	}

	return tlsWrapped{Conn: tc}, nil
}

// Listener is the accept-side collaborator: bind, accept, close.
type Listener interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

// Listen binds a plain TCP listener at addr.
func Listen(addr string) (Listener, error) {
	return net.Listen("tcp", addr)
}
