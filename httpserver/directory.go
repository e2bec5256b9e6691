/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package httpserver

import (
	"context"
	"net"
	"net/url"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nabbar/httpsrv/errors"
	"github.com/nabbar/httpsrv/httpserver/types"
	"github.com/nabbar/httpsrv/logger"
)

// Directory is the process-wide index of *Server instances, keyed by
// (hostname, port) — deliberately not by scheme, so "http://example.com:8080"
// and "https://example.com:8080" resolve to the very same *Server: only one
// listener can ever own a given socket, regardless of how many callers
// think of it as plain or TLS. A caller wanting to serve TLS on it calls
// SetTLS before the first Start.
type Directory struct {
	mu      sync.Mutex
	entries map[string]*dirEntry

	Registerer prometheus.Registerer
	Logger     logger.Logger
}

type dirEntry struct {
	srv      *Server
	refcount int
}

// NewDirectory returns an empty Directory. Most processes need only one;
// Default below is provided for callers that don't want to thread one
// through explicitly.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]*dirEntry)}
}

// Default is the package-level directory used by Get/Release below, for
// callers who don't need more than one process-wide instance.
var Default = NewDirectory()

// Get returns the *Server for rawURL, constructing and binding an entry for
// it on first reference and incrementing its refcount on every call after.
// Every successful Get must be matched with exactly one Release.
func Get(rawURL string, cfg Config) (*Server, error) {
	return Default.Get(rawURL, cfg)
}

// Release decrements the refcount Get established and tears the server down
// once it reaches zero.
func Release(rawURL string) error {
	return Default.Release(rawURL)
}

// Get is the Directory method behind the package-level Get function.
func (d *Directory) Get(rawURL string, cfg Config) (*Server, error) {
	scheme, key, err := directoryKey(rawURL)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[key]; ok {
		e.refcount++
		return e.srv, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	srv := newServer(cfg.Name, scheme, key, cfg, d.Registerer, d.Logger)
	d.entries[key] = &dirEntry{srv: srv, refcount: 1}
	return srv, nil
}

// Release is the Directory method behind the package-level Release function.
func (d *Directory) Release(rawURL string) error {
	_, key, err := directoryKey(rawURL)
	if err != nil {
		return err
	}

	d.mu.Lock()
	e, ok := d.entries[key]
	if !ok {
		d.mu.Unlock()
		return errors.New(ErrorInvalidArgument, "no server registered for this address")
	}

	e.refcount--
	if e.refcount > 0 {
		d.mu.Unlock()
		return nil
	}

	delete(d.entries, key)
	d.mu.Unlock()

	return e.srv.teardown()
}

// directoryKey parses rawURL into its scheme and its (hostname, port) key.
// A URL with no explicit port gets one filled in from its scheme's default,
// since the key must identify a socket, and "example.com" and
// "example.com:80" are the same socket for plain HTTP.
func directoryKey(rawURL string) (types.Scheme, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.New(ErrorInvalidAddress, "parsing server URL", err)
	}

	scheme := types.Scheme(u.Scheme)
	if !scheme.Valid() {
		return "", "", errors.New(ErrorInvalidAddress, "unsupported scheme: "+u.Scheme)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if scheme.IsTLS() {
			port = "443"
		} else {
			port = "80"
		}
	}

	return scheme, net.JoinHostPort(host, port), nil
}

// teardown forces a running server to stop (regardless of outstanding
// Start refcount) and drains its sessions, then releases its handlers'
// registration references. Called only once, by Release, when the
// directory's own refcount on this server reaches zero.
func (s *Server) teardown() error {
	s.mu.Lock()
	running := s.starts > 0
	s.mu.Unlock()

	if running {
		s.mu.Lock()
		s.starts = 1 // force the next Stop to actually tear down
		s.mu.Unlock()
		if err := s.Stop(context.Background()); err != nil {
			return err
		}
	}

	for _, h := range s.registry.snapshot() {
		s.registry.Delete(h)
	}

	return nil
}
