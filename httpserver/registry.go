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
	"net/http"
	"strings"
	"sync"

	"github.com/nabbar/httpsrv/errors"
)

// LookupResult classifies a Registry.Lookup outcome.
type LookupResult uint8

const (
	Found LookupResult = iota
	NotFound
	MethodNotAllowed
)

// Registry is the ordered collection of handlers a Server dispatches
// against. Registration order matters: the first handler whose host, path
// and method all match wins, so a caller registering overlapping handlers
// for different virtual hosts controls precedence by registration order.
type Registry struct {
	mu       sync.Mutex
	handlers []*Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add validates spec and, if it does not collide with an already-registered
// handler, appends a new *Handler record. Collision is conservative: any two
// handlers sharing the same host-compatibility and method, whose paths share
// a common byte prefix up to the shorter one's length, are rejected — even
// "/a" and "/ab" collide, since a future is_dir registration on either could
// make the boundary ambiguous.
func (r *Registry) Add(spec HandlerSpec) (*Handler, error) {
	if spec.Method == "" || spec.Path == "" || spec.Callback == nil {
		return nil, errors.New(ErrorInvalidArgument, "method, path and callback are required")
	}

	if strings.EqualFold(spec.Method, http.MethodHead) {
		return nil, errors.New(ErrorInvalidArgument, "HEAD cannot be registered directly; GET answers it")
	}

	h := newHandler(spec)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.handlers {
		if !hostsCompatible(existing.host, h.host) {
			continue
		}
		if existing.method != h.method {
			continue
		}

		l := len(existing.path)
		if len(h.path) < l {
			l = len(h.path)
		}
		if existing.path[:l] == h.path[:l] {
			return nil, errors.New(ErrorAddressInUse, "handler path collides with an existing registration")
		}
	}

	r.handlers = append(r.handlers, h)
	return h, nil
}

// hostsCompatible reports whether two registered host restrictions could
// ever both match the same request: identical (after trimming one trailing
// '.', case-insensitively), or either is unrestricted ("").
func hostsCompatible(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}

// Delete removes h from the registry and releases the registration's own
// reference (the one Add implicitly held). The handler's destructor, if
// any, runs once every other held reference has also been released.
func (r *Registry) Delete(h *Handler) {
	r.mu.Lock()
	for i, existing := range r.handlers {
		if existing == h {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	h.release()
}

// Lookup finds the first registered handler whose host, path and method all
// match host/method/path, add-ref'd so the caller may safely use it after
// the registry lock is released (release() must be called when done). A
// handler whose host and path match but whose method does not is skipped,
// and the scan goes on to later registrations; Lookup returns
// MethodNotAllowed only when no handler matched fully and at least one
// matched on host and path.
func (r *Registry) Lookup(host, method, path string) (*Handler, LookupResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sawMethodMismatch := false

	for _, h := range r.handlers {
		if !hostMatches(h.host, host) {
			continue
		}
		if !pathMatches(h.path, h.isDir, path) {
			continue
		}

		if methodMatches(h.method, method) {
			h.addRef()
			return h, Found
		}
		sawMethodMismatch = true
	}

	if sawMethodMismatch {
		return nil, MethodNotAllowed
	}
	return nil, NotFound
}

// snapshot returns a copy of the currently registered handlers, for callers
// (teardown) that need to iterate and mutate the registry concurrently.
func (r *Registry) snapshot() []*Handler {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

func methodMatches(handlerMethod, requestMethod string) bool {
	if handlerMethod == requestMethod {
		return true
	}
	return handlerMethod == http.MethodGet && requestMethod == http.MethodHead
}

// hostMatches implements the virtual-host rule: an unrestricted handler
// (handlerHost == "") matches any request; otherwise the request's Host
// header must start with handlerHost (a single trailing '.' on handlerHost
// ignored, comparison case-insensitive) and then either end, continue with
// ':' (a port suffix), or be exactly a trailing '.'.
func hostMatches(handlerHost, reqHost string) bool {
	if handlerHost == "" {
		return true
	}

	trimmed := strings.TrimSuffix(handlerHost, ".")
	if len(reqHost) < len(trimmed) {
		return false
	}
	if !strings.EqualFold(reqHost[:len(trimmed)], trimmed) {
		return false
	}

	rest := reqHost[len(trimmed):]
	switch {
	case rest == "":
		return true
	case rest[0] == ':':
		return true
	case rest == ".":
		return true
	default:
		return false
	}
}

// pathMatches implements the registration-prefix rule: path must equal the
// request path's first len(path) bytes, and what follows must be either
// nothing, a lone '/', or (for directory handlers only) '/' plus more.
func pathMatches(handlerPath string, isDir bool, reqPath string) bool {
	l := len(handlerPath)
	if len(reqPath) < l {
		return false
	}
	if reqPath[:l] != handlerPath {
		return false
	}

	rest := reqPath[l:]
	switch {
	case rest == "":
		return true
	case rest == "/":
		return true
	case rest[0] == '/':
		return isDir
	default:
		return false
	}
}
