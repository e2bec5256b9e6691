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

// Package fsserve registers a GET handler that serves a single file from
// disk, read once at registration time rather than on every request: the
// handler this builds holds the bytes, not a path, so a request never
// touches the filesystem.
package fsserve

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nabbar/httpsrv/httpserver"
	"github.com/nabbar/httpsrv/httpserver/transport"
)

// contentTypeByExt is consulted when no explicit content type is given,
// falling back to the registration's own suffix table rather than the
// system mime database, so behavior doesn't vary across hosts.
var contentTypeByExt = map[string]string{
	".ai":    "application/postscript",
	".aif":   "audio/aiff",
	".aiff":  "audio/aiff",
	".avi":   "video/avi",
	".au":    "audio/basic",
	".bin":   "application/octet-stream",
	".bmp":   "image/bmp",
	".css":   "text/css",
	".eps":   "application/postscript",
	".gif":   "image/gif",
	".htm":   "text/html",
	".html":  "text/html",
	".ico":   "image/x-icon",
	".jpeg":  "image/jpeg",
	".jpg":   "image/jpeg",
	".js":    "application/javascript",
	".md":    "text/markdown",
	".mp2":   "video/mpeg",
	".mp3":   "audio/mpeg3",
	".mpeg":  "video/mpeg",
	".mpg":   "video/mpeg",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".ps":    "application/postscript",
	".rtf":   "text/rtf",
	".text":  "text/plain",
	".tif":   "image/tiff",
	".tiff":  "image/tiff",
	".txt":   "text/plain",
	".wav":   "audio/wav",
}

// lookupType guesses a content type from path's extension, matching the
// suffix table above case-insensitively; "" if nothing matches.
func lookupType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return contentTypeByExt[ext]
}

// Add reads path once and registers a GET handler at uri (optionally
// restricted to host) that serves its bytes with ctype as Content-Type,
// inferring ctype from path's extension when ctype is "". The file is read
// eagerly: a missing or unreadable file at registration time is an error
// returned to the caller, not deferred to the first request.
func Add(srv *httpserver.Server, host, ctype, uri, path string) (*httpserver.Handler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if ctype == "" {
		ctype = lookupType(path)
	}
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	return srv.AddHandler(httpserver.HandlerSpec{
		Method: http.MethodGet,
		Path:   uri,
		Host:   host,
		Arg:    data,
		Callback: func(_ context.Context, _ transport.Transport, _ *http.Request, arg any) (*httpserver.Response, error) {
			body := arg.([]byte)
			resp := httpserver.NewResponse(http.StatusOK)
			resp.Header.Set("Content-Type", ctype)
			return resp.SetBody(body), nil
		},
	})
}
