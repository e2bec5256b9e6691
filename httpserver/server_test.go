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

package httpserver_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/httpsrv/httpserver"
	"github.com/nabbar/httpsrv/httpserver/transport"
)

func newTestServer() (*httpserver.Server, func()) {
	dir := httpserver.NewDirectory()

	srv, err := dir.Get("http://127.0.0.1:0", httpserver.Config{Name: "test", URL: "http://127.0.0.1:0"})
	Expect(err).ToNot(HaveOccurred())

	return srv, func() { _ = dir.Release("http://127.0.0.1:0") }
}

var _ = Describe("Server", func() {
	var (
		srv     *httpserver.Server
		release func()
	)

	BeforeEach(func() {
		srv, release = newTestServer()
	})

	AfterEach(func() {
		release()
	})

	It("serves a registered GET handler", func() {
		_, err := srv.AddHandler(httpserver.HandlerSpec{
			Method: http.MethodGet,
			Path:   "/hello",
			Callback: func(_ context.Context, _ transport.Transport, _ *http.Request, _ any) (*httpserver.Response, error) {
				return httpserver.NewResponse(http.StatusOK).SetBody([]byte("hi")), nil
			},
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(srv.Start(context.Background())).To(Succeed())
		defer func() { _ = srv.Stop(context.Background()) }()

		addr := srv.ListenAddr()
		Expect(addr).ToNot(BeNil())

		resp, err := http.Get(fmt.Sprintf("http://%s/hello", addr.String()))
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("answers 404 for an unregistered path", func() {
		Expect(srv.Start(context.Background())).To(Succeed())
		defer func() { _ = srv.Stop(context.Background()) }()

		addr := srv.ListenAddr()
		resp, err := http.Get(fmt.Sprintf("http://%s/nope", addr.String()))
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("answers 405 when the path matches but the method doesn't", func() {
		_, err := srv.AddHandler(httpserver.HandlerSpec{
			Method:   http.MethodGet,
			Path:     "/only-get",
			Callback: noopCallback,
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(srv.Start(context.Background())).To(Succeed())
		defer func() { _ = srv.Stop(context.Background()) }()

		addr := srv.ListenAddr()
		resp, err := http.Post(fmt.Sprintf("http://%s/only-get", addr.String()), "text/plain", nil)
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
	})

	It("Start/Stop pairs nest: the listener stays up until the last Stop", func() {
		Expect(srv.Start(context.Background())).To(Succeed())
		Expect(srv.Start(context.Background())).To(Succeed())

		Expect(srv.Stop(context.Background())).To(Succeed())
		Expect(srv.Stats().Running).To(BeTrue())

		Expect(srv.Stop(context.Background())).To(Succeed())
		Expect(srv.Stats().Running).To(BeFalse())
	})

	It("rejects SetTLS once the server has been started", func() {
		Expect(srv.Start(context.Background())).To(Succeed())
		defer func() { _ = srv.Stop(context.Background()) }()

		err := srv.SetTLS(&httpserver.TLSConfig{CertFile: "nope.pem", KeyFile: "nope.key"})
		Expect(err).To(HaveOccurred())
	})

	It("drains a handler's unread request body so the connection survives for the next request", func() {
		reads := 0
		_, err := srv.AddHandler(httpserver.HandlerSpec{
			Method: http.MethodPost,
			Path:   "/ignore-body",
			Callback: func(_ context.Context, _ transport.Transport, _ *http.Request, _ any) (*httpserver.Response, error) {
				reads++
				return httpserver.NewResponse(http.StatusOK), nil
			},
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(srv.Start(context.Background())).To(Succeed())
		defer func() { _ = srv.Stop(context.Background()) }()

		addr := srv.ListenAddr()
		client := &http.Client{}
		body := strings.Repeat("x", 4096)

		for i := 0; i < 2; i++ {
			resp, err := client.Post(fmt.Sprintf("http://%s/ignore-body", addr.String()), "text/plain", strings.NewReader(body))
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		}

		Expect(reads).To(Equal(2))
	})

	It("drains live sessions on Stop instead of hanging", func() {
		block := make(chan struct{})
		_, err := srv.AddHandler(httpserver.HandlerSpec{
			Method: http.MethodGet,
			Path:   "/slow",
			Callback: func(ctx context.Context, _ transport.Transport, _ *http.Request, _ any) (*httpserver.Response, error) {
				select {
				case <-block:
				case <-ctx.Done():
				}
				return httpserver.NewResponse(http.StatusOK), nil
			},
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(srv.Start(context.Background())).To(Succeed())
		addr := srv.ListenAddr()

		go func() {
			_, _ = http.Get(fmt.Sprintf("http://%s/slow", addr.String()))
		}()

		Eventually(func() int { return srv.Stats().LiveSessions }, time.Second).Should(BeNumerically(">=", 1))

		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		Expect(srv.Stop(stopCtx)).To(Succeed())

		close(block)
	})
})
