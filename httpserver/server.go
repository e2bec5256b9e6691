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
	"crypto/tls"
	stdlog "log"
	"net"
	"sync"
	"time"

	"github.com/nabbar/httpsrv/errors"
	"github.com/nabbar/httpsrv/httpserver/transport"
	"github.com/nabbar/httpsrv/httpserver/types"
	"github.com/nabbar/httpsrv/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// Server is one (hostname, port) endpoint: a handler registry, a
// possibly-bound listener, and the set of sessions currently in flight on
// it. It is always reached through a Directory, which is what gives it its
// refcount; Server itself only tracks how many Start/Stop pairs are
// currently outstanding.
type Server struct {
	mu   sync.Mutex
	cond *sync.Cond

	name   string
	scheme types.Scheme
	addr   string

	registry *Registry
	log      logger.Logger
	metrics  *metrics

	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	maxHeaderBytes    int

	tlsCfg  *tls.Config
	tlsSpec *TLSConfig

	listener transport.Listener
	sessions map[*Session]struct{}

	starts int // outstanding Start() calls; listener is bound iff starts > 0
	ctx    context.Context
	cancel context.CancelFunc

	// errLog bridges this server's structured Logger to the *log.Logger
	// shape the accept loop's error reporting wants, the same role the
	// teacher hands net/http.Server.ErrorLog.
	errLog *stdlog.Logger
}

func newServer(name string, scheme types.Scheme, addr string, cfg Config, reg prometheus.Registerer, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{
		name:              name,
		scheme:            scheme,
		addr:              addr,
		registry:          NewRegistry(),
		log:               log,
		errLog:            logger.GetStdLogger(log, logger.WarningLevel, "[httpserver] "),
		metrics:           newMetrics(reg, name),
		readTimeout:       cfg.ReadTimeout,
		readHeaderTimeout: cfg.ReadHeaderTimeout,
		writeTimeout:      cfg.WriteTimeout,
		idleTimeout:       cfg.IdleTimeout,
		maxHeaderBytes:    cfg.MaxHeaderBytes,
		sessions:          make(map[*Session]struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Addr returns the hostname:port this server binds, as supplied at
// construction (before any scheme).
func (s *Server) Addr() string { return s.addr }

// ListenAddr returns the listener's actual bound address, or nil while the
// server is not started (before the first Start, and again after the last
// Stop). Useful when Addr names an ephemeral port
// (":0") and the caller needs to know what the kernel actually assigned.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// AddHandler registers spec against this server's registry.
func (s *Server) AddHandler(spec HandlerSpec) (*Handler, error) {
	return s.registry.Add(spec)
}

// DeleteHandler unregisters h.
func (s *Server) DeleteHandler(h *Handler) {
	s.registry.Delete(h)
}

// SetTLS installs cfg as this server's TLS configuration. It may only be
// called while the server is stopped (starts == 0, either before the first
// Start or after the last Stop): binding TLS while the listener is live
// would leave existing connections on an inconsistent config.
func (s *Server) SetTLS(cfg *TLSConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.starts > 0 || s.listener != nil {
		return errors.New(ErrorBusy, "TLS can only be set while the server is stopped")
	}

	tc, err := cfg.Build()
	if err != nil {
		return err
	}

	s.tlsSpec = cfg
	s.tlsCfg = tc
	return nil
}

// Stats is a point-in-time snapshot of this server's activity, useful for
// health endpoints and tests; it takes the server lock just long enough to
// copy out the numbers.
type Stats struct {
	Name        string
	Addr        string
	Running     bool
	Starts      int
	LiveSessions int
}

// Stats returns a snapshot of this server's current state.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Name:         s.name,
		Addr:         s.addr,
		Running:      s.starts > 0,
		Starts:       s.starts,
		LiveSessions: len(s.sessions),
	}
}

// Start binds the listener and begins accepting connections the first time
// it is called; subsequent calls just increment the start count. Start is
// idempotent and safe to call from multiple owners of the same *Server.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starts++
	if s.starts > 1 {
		return nil
	}

	ln, err := transport.Listen(s.addr)
	if err != nil {
		s.starts--
		return errors.New(ErrorAddressInUse, "binding listener", err)
	}

	s.listener = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())

	go s.acceptLoop(ln)
	return nil
}

// Stop decrements the start count; when it reaches zero the listener is
// closed, every live session is forced to unwind (its blocking I/O
// interrupted rather than waited out), and Stop blocks until the last one
// has reaped, ctx is done, or types.TimeoutShutdown has elapsed (then it
// returns ErrorBusy), whichever comes first.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()

	if s.starts == 0 {
		s.mu.Unlock()
		return nil
	}

	s.starts--
	if s.starts > 0 {
		s.mu.Unlock()
		return nil
	}

	ln := s.listener
	s.listener = nil
	cancel := s.cancel
	live := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if cancel != nil {
		cancel()
	}
	for _, sess := range live {
		sess.cancelIO()
	}

	return s.waitDrain(ctx)
}

func (s *Server) waitDrain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.mu.Lock()
		for len(s.sessions) > 0 {
			s.cond.Wait()
		}
		s.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(types.TimeoutShutdown):
		return errors.New(ErrorBusy, "timed out waiting for sessions to drain")
	}
}

func (s *Server) acceptLoop(ln transport.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			stopped := s.listener != ln
			s.mu.Unlock()
			if stopped {
				return
			}
			var ne net.Error
			if ok := asNetError(err, &ne); ok && ne.Timeout() {
				continue
			}
			s.errLog.Printf("accept: %v", err)
			return
		}

		t, wrapErr := s.wrapTransport(conn)
		if wrapErr != nil {
			s.log.Warning("TLS handshake failed", logger.Fields{"remote": conn.RemoteAddr().String()})
			continue
		}

		s.mu.Lock()
		if s.listener != ln {
			s.mu.Unlock()
			_ = t.Close()
			continue
		}
		sess := newSession(s, t)
		s.sessions[sess] = struct{}{}
		s.mu.Unlock()

		go sess.run()
	}
}

func (s *Server) wrapTransport(conn net.Conn) (transport.Transport, error) {
	if s.tlsCfg == nil {
		return transport.NewPlain(conn), nil
	}
	return transport.NewTLS(conn, s.tlsCfg, types.TimeoutWaitingPortFreeing*4)
}

func asNetError(err error, target *net.Error) bool {
	ne, ok := err.(net.Error)
	if !ok {
		return false
	}
	*target = ne
	return true
}
