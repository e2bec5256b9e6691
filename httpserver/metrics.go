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
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics is optional: a Server with a nil *metrics simply skips every call
// below, so instrumentation never costs a caller who doesn't register one.
type metrics struct {
	sessionsLive   prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	handlerSeconds *prometheus.HistogramVec
}

// newMetrics registers this server's collectors against reg under a
// constant "server" label, and returns the handle the server calls into.
// Registration errors (e.g. a duplicate name from a second server sharing
// reg) are deliberately swallowed after falling back to the already
// registered collector, mirroring prometheus's own AlreadyRegisteredError
// recovery idiom.
func newMetrics(reg prometheus.Registerer, name string) *metrics {
	if reg == nil {
		return nil
	}

	m := &metrics{
		sessionsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "httpsrv",
			Name:        "sessions_live",
			Help:        "Number of currently open server sessions.",
			ConstLabels: prometheus.Labels{"server": name},
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "httpsrv",
			Name:        "requests_total",
			Help:        "Requests dispatched, by result.",
			ConstLabels: prometheus.Labels{"server": name},
		}, []string{"result"}),
		handlerSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "httpsrv",
			Name:        "handler_duration_seconds",
			Help:        "Handler callback latency.",
			ConstLabels: prometheus.Labels{"server": name},
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{m.sessionsLive, m.requestsTotal, m.handlerSeconds} {
		var are prometheus.AlreadyRegisteredError
		if err := reg.Register(c); err == nil || !asAlreadyRegistered(err, &are) {
			continue
		}
		switch existing := are.ExistingCollector.(type) {
		case prometheus.Gauge:
			m.sessionsLive = existing
		case *prometheus.CounterVec:
			m.requestsTotal = existing
		case *prometheus.HistogramVec:
			m.handlerSeconds = existing
		}
	}

	return m
}

func asAlreadyRegistered(err error, target *prometheus.AlreadyRegisteredError) bool {
	are, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		return false
	}
	*target = are
	return true
}

func (m *metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.sessionsLive.Inc()
}

func (m *metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessionsLive.Dec()
}

func (m *metrics) requestDone(status int, dur time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if status >= 400 {
		result = "error"
	}
	m.requestsTotal.WithLabelValues(result).Inc()
	m.handlerSeconds.WithLabelValues(strconv.Itoa(status)).Observe(dur.Seconds())
}
