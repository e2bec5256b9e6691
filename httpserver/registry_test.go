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
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/httpsrv/httpserver"
	"github.com/nabbar/httpsrv/httpserver/transport"
)

func noopCallback(_ context.Context, _ transport.Transport, _ *http.Request, _ any) (*httpserver.Response, error) {
	return httpserver.NewResponse(http.StatusOK), nil
}

var _ = Describe("Registry", func() {
	var reg *httpserver.Registry

	BeforeEach(func() {
		reg = httpserver.NewRegistry()
	})

	It("rejects a spec missing method, path or callback", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Path: "/a", Callback: noopCallback})
		Expect(err).To(HaveOccurred())

		_, err = reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Callback: noopCallback})
		Expect(err).To(HaveOccurred())

		_, err = reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects HEAD registered directly", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodHead, Path: "/a", Callback: noopCallback})
		Expect(err).To(HaveOccurred())
	})

	It("finds an exact-path GET handler", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		h, result := reg.Lookup("", http.MethodGet, "/a")
		Expect(result).To(Equal(httpserver.Found))
		Expect(h).ToNot(BeNil())
	})

	It("rejects a second handler whose path shares a prefix, even a non-overlapping one", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		_, err = reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/ab", Callback: noopCallback})
		Expect(err).To(HaveOccurred())
	})

	It("allows the same path under different methods", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		_, err = reg.Add(httpserver.HandlerSpec{Method: http.MethodPost, Path: "/a", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())
	})

	It("matches a directory handler against deeper paths", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/static", IsDir: true, Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		_, result := reg.Lookup("", http.MethodGet, "/static/css/site.css")
		Expect(result).To(Equal(httpserver.Found))
	})

	It("does not match a non-directory handler against deeper paths", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/one", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		_, result := reg.Lookup("", http.MethodGet, "/one/two")
		Expect(result).To(Equal(httpserver.NotFound))
	})

	It("answers HEAD from a registered GET handler", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		_, result := reg.Lookup("", http.MethodHead, "/a")
		Expect(result).To(Equal(httpserver.Found))
	})

	It("reports MethodNotAllowed when the path matches but the method doesn't", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		_, result := reg.Lookup("", http.MethodPost, "/a")
		Expect(result).To(Equal(httpserver.MethodNotAllowed))
	})

	It("matches by virtual host including a port suffix", func() {
		_, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a", Host: "example.com", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		_, result := reg.Lookup("Example.COM:8080", http.MethodGet, "/a")
		Expect(result).To(Equal(httpserver.Found))

		_, result = reg.Lookup("other.example.com", http.MethodGet, "/a")
		Expect(result).To(Equal(httpserver.NotFound))
	})

	It("removes a handler on Delete so it no longer matches", func() {
		h, err := reg.Add(httpserver.HandlerSpec{Method: http.MethodGet, Path: "/a", Callback: noopCallback})
		Expect(err).ToNot(HaveOccurred())

		reg.Delete(h)

		_, result := reg.Lookup("", http.MethodGet, "/a")
		Expect(result).To(Equal(httpserver.NotFound))
	})
})
