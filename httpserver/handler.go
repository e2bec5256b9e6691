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
	"net/http"

	natomic "github.com/nabbar/httpsrv/atomic"
	"github.com/nabbar/httpsrv/httpserver/transport"
)

// Callback handles one dispatched request. A nil *Response with a nil error
// means the handler has taken full ownership of the transport (upgrade) or
// has already written its own response directly to it; isUpgrader handlers
// are the only ones expected to return (nil, nil) in the ordinary case.
type Callback func(ctx context.Context, t transport.Transport, r *http.Request, arg any) (*Response, error)

// HandlerSpec is the caller-supplied description of a handler to register.
// Registry.Add validates it and turns it into an immutable *Handler record.
type HandlerSpec struct {
	// Method is the exact HTTP method this handler answers for (GET, POST,
	// ...). HEAD is never registered directly: a GET handler answers HEAD
	// automatically, per the lookup's method-match rule.
	Method string

	// Path is the registration prefix. A single trailing run of '/' is
	// trimmed; "/" itself trims to "", which matches only the host's root.
	Path string

	// Host restricts matching to requests whose Host header names this
	// virtual host (a single trailing '.' is ignored). Empty means any host.
	Host string

	// IsDir marks this as a directory handler: it also matches any request
	// path that continues past Path with a '/', not just Path itself.
	IsDir bool

	// IsUpgrader marks a handler that may detach the transport for its own
	// protocol (e.g. WebSocket) by returning (nil, nil).
	IsUpgrader bool

	Callback   Callback
	Arg        any
	Destructor func(arg any)
}

// Handler is the immutable, refcounted record created by Registry.Add.
type Handler struct {
	method     string
	path       string
	host       string
	isDir      bool
	isUpgrader bool
	callback   Callback
	arg        any
	destructor func(arg any)

	refcount natomic.Int32
	done     natomic.Bool
}

func newHandler(spec HandlerSpec) *Handler {
	h := &Handler{
		method:     spec.Method,
		path:       trimTrailingSlash(spec.Path),
		host:       spec.Host,
		isDir:      spec.IsDir,
		isUpgrader: spec.IsUpgrader,
		callback:   spec.Callback,
		arg:        spec.Arg,
		destructor: spec.Destructor,
	}
	h.refcount.Store(1)
	return h
}

func trimTrailingSlash(p string) string {
	for len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

// addRef increments the handler's refcount; called while the registry's
// lock is held, atomically with respect to a concurrent Delete.
func (h *Handler) addRef() {
	h.refcount.Add(1)
}

// release decrements the handler's refcount and, on the transition to zero,
// runs the destructor exactly once. Safe to call without the registry lock.
func (h *Handler) release() {
	if h.refcount.Add(-1) == 0 {
		if h.done.CompareAndSwap(false, true) && h.destructor != nil {
			h.destructor(h.arg)
		}
	}
}
