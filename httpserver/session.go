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
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	natomic "github.com/nabbar/httpsrv/atomic"
	"github.com/nabbar/httpsrv/ctxstore"
	"github.com/nabbar/httpsrv/httpserver/transport"
	"github.com/nabbar/httpsrv/httpserver/uri"
	"github.com/nabbar/httpsrv/logger"
)

// sessionState names the position in the per-connection state machine. It
// is recorded as the run loop advances but nothing in this package reads it
// back — the run loop itself is driven by plain Go control flow, not a
// state-transition table.
type sessionState uint8

const (
	stateAcceptedIdle sessionState = iota
	stateReadingRequest
	stateDispatching
	stateWritingHeaders
	stateWritingBody
	stateClosing
	stateClosed
)

// Session is one accepted connection, run to completion by a single
// goroutine that blocks through each step in turn (read request, dispatch,
// write headers, write body, loop or close). This recovers the same state
// machine the four-slot callback design describes, just expressed as
// sequential blocking calls instead of posted completions — structured
// concurrency standing in for a task graph.
type Session struct {
	id  string
	srv *Server
	t   transport.Transport
	cap *capReader
	br  *bufio.Reader
	bw  *bufio.Writer
	log logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state    natomic.Value[sessionState]
	closeAfter natomic.Bool // this connection closes once the in-flight response is written
	ioCanceled natomic.Bool // an external Stop() has interrupted blocking I/O
	finished   natomic.Bool // reap has run

	detached bool // true once an upgrader handler has taken transport ownership
	reqCount int  // requests read so far on this connection

	store *ctxstore.Store[string]
}

func newSession(srv *Server, t transport.Transport) *Session {
	ctx, cancel := context.WithCancel(srv.ctx)

	cr := &capReader{r: t, limit: -1}
	s := &Session{
		id:     uuid.NewString(),
		srv:    srv,
		t:      t,
		cap:    cr,
		br:     bufio.NewReader(cr),
		bw:     bufio.NewWriter(t),
		log:    srv.log,
		ctx:    ctx,
		cancel: cancel,
		store:  ctxstore.New[string](),
	}
	s.state.Store(stateAcceptedIdle)
	return s
}

// capReader bounds how many bytes may be read off the wire while limit is
// non-negative, the way net/http's own connReader bounds header reads
// without touching the body that follows. Not safe for concurrent use;
// a Session only ever reads from one goroutine at a time.
type capReader struct {
	r     io.Reader
	limit int64
}

func (c *capReader) setLimit(n int64) { c.limit = n }

func (c *capReader) Read(p []byte) (int, error) {
	if c.limit == 0 {
		return 0, errHeaderTooLarge
	}
	if c.limit > 0 && int64(len(p)) > c.limit {
		p = p[:c.limit]
	}

	n, err := c.r.Read(p)
	if c.limit > 0 {
		c.limit -= int64(n)
	}
	return n, err
}

var errHeaderTooLarge = &headerTooLargeError{}

type headerTooLargeError struct{}

func (*headerTooLargeError) Error() string { return "request header too large" }

// ID returns this session's unique identifier, usable as a correlation key
// across log lines for one connection's lifetime.
func (s *Session) ID() string { return s.id }

// Store exposes a per-session key/value area that lives as long as the
// connection. The Session is not passed to a Callback and is not reachable
// from its context, so handler callbacks have no access to this store.
func (s *Session) Store() *ctxstore.Store[string] { return s.store }

// run drives the state machine to completion; it returns only once the
// connection is done with (closed, or detached for an upgrade).
func (s *Session) run() {
	defer s.reap()

	s.srv.metrics.sessionOpened()
	defer s.srv.metrics.sessionClosed()

	for {
		if s.ioCanceled.Load() {
			return
		}

		s.state.Store(stateReadingRequest)
		req, versionClose, readErr := s.readRequest()
		if readErr != nil {
			return
		}

		s.closeAfter.Store(versionClose || containsToken(req.Header.Get("Connection"), "close"))

		s.state.Store(stateDispatching)
		resp, upgraded := s.dispatch(req)

		if upgraded {
			s.detached = true
			s.state.Store(stateClosed)
			return
		}

		if !s.drainBody(req) {
			s.closeAfter.Store(true)
		}

		if resp == nil {
			if s.closeAfter.Load() {
				return
			}
			continue
		}

		if resp.wantsClose() {
			s.closeAfter.Store(true)
		}

		if s.closeAfter.Load() {
			resp.Header.Set("Connection", "close")
		}

		if s.srv.writeTimeout > 0 {
			_ = s.t.SetWriteDeadline(time.Now().Add(s.srv.writeTimeout))
		}

		s.state.Store(stateWritingHeaders)
		if err := writeHeaders(s.bw, req.Proto, resp); err != nil {
			return
		}

		if req.Method != http.MethodHead {
			s.state.Store(stateWritingBody)
			if err := writeBody(s.bw, resp); err != nil {
				return
			}
		}

		if s.closeAfter.Load() {
			return
		}
	}
}

// readRequest parses one request off the wire. versionClose reports whether
// the HTTP version itself (as opposed to a Connection header) forces the
// session closed after the response: exactly "HTTP/1.1" is persistent,
// every other version this accepts (effectively HTTP/1.0) is not. A version
// that doesn't start "HTTP/1." never reaches dispatch: it is answered here
// with 505 and the connection closed; any other parse failure is treated as
// a malformed request line and answered with 400, also closing.
func (s *Session) readRequest() (*http.Request, bool, error) {
	deadline := s.srv.readHeaderTimeout
	if s.reqCount > 0 && s.srv.idleTimeout > 0 {
		deadline = s.srv.idleTimeout
	} else if deadline == 0 {
		deadline = s.srv.readTimeout
	}
	if deadline > 0 {
		_ = s.t.SetReadDeadline(time.Now().Add(deadline))
	}
	s.reqCount++

	if s.srv.maxHeaderBytes > 0 {
		s.cap.setLimit(int64(s.srv.maxHeaderBytes))
	} else {
		s.cap.setLimit(-1)
	}

	req, err := http.ReadRequest(s.br)
	s.cap.setLimit(-1) // the body that follows headers is not subject to MaxHeaderBytes
	if err != nil {
		if err != io.EOF {
			_ = writeHeaders(s.bw, "HTTP/1.1", errorResponse(http.StatusBadRequest, true))
		}
		return nil, true, err
	}

	if !strings.HasPrefix(req.Proto, "HTTP/1.") {
		_ = writeHeaders(s.bw, "HTTP/1.1", errorResponse(http.StatusHTTPVersionNotSupported, true))
		return nil, true, errHTTPVersion
	}

	req = req.WithContext(s.ctx)
	return req, req.Proto != "HTTP/1.1", nil
}

// maxDrainBytes bounds how much of a handler's unread request body this
// drains before giving up and closing the connection instead of trusting
// the wire is back in sync for the next request line.
const maxDrainBytes = 1 << 20

// drainBody discards whatever req.Body a handler left unread, so a
// keep-alive connection's next readRequest starts at the next request line
// instead of mid-body. It reports whether the connection may stay open:
// false means the body exceeded maxDrainBytes or failed to drain cleanly,
// and the caller must force the connection closed instead of trusting it.
func (s *Session) drainBody(req *http.Request) bool {
	if req.Body == nil {
		return true
	}
	defer req.Body.Close()

	n, err := io.Copy(io.Discard, io.LimitReader(req.Body, maxDrainBytes+1))
	return err == nil && n <= maxDrainBytes
}

// dispatch canonicalizes the request URI, looks it up in the server's
// registry, and runs the matching handler's callback. A nil response with
// upgraded=true means the handler detached the transport for its own
// protocol; a nil response with upgraded=false means the handler already
// wrote (or intentionally produced no) output and the session should keep
// reading on this connection.
func (s *Session) dispatch(req *http.Request) (*Response, bool) {
	path := uri.Canonify(req.RequestURI)
	host := req.Host

	h, result := s.srv.registry.Lookup(host, req.Method, path)

	switch result {
	case NotFound:
		return errorResponse(http.StatusNotFound, false), false
	case MethodNotAllowed:
		return errorResponse(http.StatusMethodNotAllowed, false), false
	}

	start := time.Now()
	resp, upgraded := s.invoke(h, req)
	status := http.StatusOK
	if resp != nil {
		status = resp.StatusCode
	}
	s.srv.metrics.requestDone(status, time.Since(start))

	return resp, upgraded
}

// invoke runs h's callback, recovering a panic into a 500 (closing the
// connection afterward, since a panicking handler left no guarantee about
// what, if anything, it already wrote) and always releasing the add-ref
// Lookup took, exactly once.
func (s *Session) invoke(h *Handler, req *http.Request) (resp *Response, upgraded bool) {
	defer h.release()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic", logger.Fields{"session": s.id, "recover": r}, nil)
			resp = errorResponse(http.StatusInternalServerError, true)
			upgraded = false
		}
	}()

	r, err := h.callback(s.ctx, s.t, req, h.arg)
	if err != nil {
		s.log.Error("handler error", logger.Fields{"session": s.id}, err)
		return errorResponse(http.StatusInternalServerError, true), false
	}

	if r == nil {
		return nil, h.isUpgrader
	}

	return r, false
}

// cancelIO interrupts a blocking read/write in progress by forcing an
// immediate I/O deadline and canceling the session's context, so Stop does
// not have to wait out a slow or stalled client.
func (s *Session) cancelIO() {
	if s.ioCanceled.CompareAndSwap(false, true) {
		_ = s.t.SetDeadline(time.Now())
		s.cancel()
	}
}

// reap runs exactly once per session: unlink from the server's live set,
// close the transport (unless a handler detached it for an upgrade), and
// wake anyone waiting on the server's drain condition.
func (s *Session) reap() {
	if !s.finished.CompareAndSwap(false, true) {
		return
	}

	s.state.Store(stateClosing)

	s.srv.mu.Lock()
	delete(s.srv.sessions, s)
	empty := len(s.srv.sessions) == 0
	s.srv.mu.Unlock()

	if empty {
		s.srv.cond.Broadcast()
	}

	if !s.detached {
		_ = s.t.Close()
	}

	s.state.Store(stateClosed)
	s.cancel()
}

var errHTTPVersion = &versionError{}

type versionError struct{}

func (*versionError) Error() string { return "unsupported HTTP version" }
