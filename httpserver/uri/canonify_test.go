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

package uri_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/httpsrv/httpserver/uri"
)

var _ = Describe("Canonify", func() {
	It("passes a bare path through unchanged", func() {
		Expect(uri.Canonify("/a/b/c")).To(Equal("/a/b/c"))
	})

	It("discards the query string", func() {
		Expect(uri.Canonify("/search?q=go&lang=en")).To(Equal("/search"))
	})

	It("strips an http scheme and authority", func() {
		Expect(uri.Canonify("http://example.com/a/b")).To(Equal("/a/b"))
	})

	It("strips an https scheme and authority", func() {
		Expect(uri.Canonify("HTTPS://Example.COM:8443/a")).To(Equal("/a"))
	})

	It("reduces a schemed URL with no path to /", func() {
		Expect(uri.Canonify("http://example.com")).To(Equal("/"))
	})

	It("percent-decodes ordinary bytes", func() {
		Expect(uri.Canonify("/a%2Fb/c")).To(Equal("/a/b/c"))
	})

	It("does not collapse dot segments", func() {
		Expect(uri.Canonify("/a/../b")).To(Equal("/a/../b"))
	})

	It("does not squash repeated slashes", func() {
		Expect(uri.Canonify("/a//b")).To(Equal("/a//b"))
	})

	It("truncates at a decoded NUL byte", func() {
		Expect(uri.Canonify("/a%00b/c")).To(Equal("/a"))
	})

	It("preserves a literal percent on a malformed escape", func() {
		Expect(uri.Canonify("/a%zzb")).To(Equal("/a%zzb"))
	})

	It("preserves a literal percent at the end of the string", func() {
		Expect(uri.Canonify("/a%")).To(Equal("/a%"))
	})
})
