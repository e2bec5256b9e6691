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

// Package staticserve registers a GET handler that serves a caller-supplied
// in-memory blob, for small fixed responses (a health page, an embedded
// icon) that don't warrant a file on disk.
package staticserve

import (
	"context"
	"net/http"

	"github.com/nabbar/httpsrv/httpserver"
	"github.com/nabbar/httpsrv/httpserver/transport"
)

// Add registers a GET handler at uri (optionally restricted to host) that
// always answers with a copy of data and ctype as Content-Type. An empty
// ctype defaults to application/octet-stream. data is copied, so the
// caller's slice may be reused or mutated after Add returns.
func Add(srv *httpserver.Server, host, ctype, uri string, data []byte) (*httpserver.Handler, error) {
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	body := make([]byte, len(data))
	copy(body, data)

	return srv.AddHandler(httpserver.HandlerSpec{
		Method: http.MethodGet,
		Path:   uri,
		Host:   host,
		Callback: func(_ context.Context, _ transport.Transport, _ *http.Request, _ any) (*httpserver.Response, error) {
			resp := httpserver.NewResponse(http.StatusOK)
			resp.Header.Set("Content-Type", ctype)
			return resp.SetBody(body), nil
		},
	})
}
