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
	"fmt"
	"net/http"
	"strconv"
)

// Response is a fully materialized HTTP response: no streaming, the whole
// body is in memory before the first byte goes out. That is a deliberate
// restriction, not an oversight — handlers that need to stream belong on
// top of this engine, not inside it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse returns an empty Response with status and a ready header map.
func NewResponse(status int) *Response {
	return &Response{StatusCode: status, Header: make(http.Header)}
}

// SetBody attaches body and fills in Content-Length if the handler did not
// already set one.
func (r *Response) SetBody(body []byte) *Response {
	r.Body = body
	if r.Header.Get("Content-Length") == "" {
		r.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	return r
}

// wantsClose reports whether this response's own Connection header forces
// the session closed after it is written, regardless of the request's
// version policy (a response can only add force-close, never remove it).
func (r *Response) wantsClose() bool {
	return containsToken(r.Header.Get("Connection"), "close")
}

func containsToken(header, token string) bool {
	for _, f := range splitComma(header) {
		if equalFoldTrim(f, token) {
			return true
		}
	}
	return false
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func equalFoldTrim(s, token string) bool {
	s = trimSpace(s)
	return len(s) == len(token) && foldEqual(s, token)
}

func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// writeHeaders writes the status line and headers, terminated by the blank
// line, using proto as the response's HTTP version string.
func writeHeaders(w *bufio.Writer, proto string, r *Response) error {
	if r.Header.Get("Content-Length") == "" {
		r.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}

	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", proto, r.StatusCode, http.StatusText(r.StatusCode)); err != nil {
		return err
	}
	if err := r.Header.Write(w); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

// writeBody writes r.Body verbatim; callers skip this entirely for HEAD.
func writeBody(w *bufio.Writer, r *Response) error {
	if len(r.Body) == 0 {
		return nil
	}
	if _, err := w.Write(r.Body); err != nil {
		return err
	}
	return w.Flush()
}

// errorResponse synthesizes a short, plain-text error response. closeAfter
// marks it with Connection: close for the statuses whose version policy
// demands the session end after this one response (400, 505); 404 and 405
// leave the connection open for reuse.
func errorResponse(status int, closeAfter bool) *Response {
	body := []byte(http.StatusText(status) + "\n")
	resp := NewResponse(status)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if closeAfter {
		resp.Header.Set("Connection", "close")
	}
	return resp.SetBody(body)
}
