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

// Package uri canonicalizes a request-URI down to the bare path used for
// registry lookups. It intentionally does not collapse "." / ".." segments
// or repeated slashes: handlers must not rely on such normalization.
package uri

import "strings"

// Canonify reduces raw (a request-URI, e.g. "http://host/a/b%2Fc?q=1") to a
// bare path suitable for prefix matching ("/a/b/c"), per these rules:
//
//  1. Everything from the first '?' onward is discarded.
//  2. An "http://" or "https://" prefix (case-insensitive) is skipped past
//     its authority, up to the first '/'; if there is none, the result is "/".
//  3. The remainder is percent-decoded in place: "%HH" with two valid hex
//     digits becomes the decoded byte; any other '%' is copied verbatim.
//     A decoded NUL byte terminates the path, matching the quirk of the
//     engine this was distilled from.
func Canonify(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}

	raw = stripScheme(raw)

	return percentDecode(raw)
}

func stripScheme(raw string) string {
	lower := strings.ToLower(raw)

	var rest string
	switch {
	case strings.HasPrefix(lower, "http://"):
		rest = raw[len("http://"):]
	case strings.HasPrefix(lower, "https://"):
		rest = raw[len("https://"):]
	default:
		return raw
	}

	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i:]
	}

	return "/"
}

func percentDecode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}

		if i+2 < len(raw) {
			hi, okHi := hexVal(raw[i+1])
			lo, okLo := hexVal(raw[i+2])
			if okHi && okLo {
				decoded := byte(hi<<4 | lo)
				if decoded == 0 {
					return b.String()
				}
				b.WriteByte(decoded)
				i += 2
				continue
			}
		}

		// Malformed escape: copy the '%' byte verbatim and continue
		// scanning from the next byte, per the engine's documented
		// (ill-defined but preserved) fallback.
		b.WriteByte('%')
	}

	return b.String()
}

func hexVal(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}
