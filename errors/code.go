/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package errors provides numeric error codes with message registration and
// parent-error chaining, in the style used throughout this module's engine.
package errors

import "math"

// CodeError is a numeric error classification, similar in spirit to an HTTP
// status code. Packages reserve a range of codes starting at a floor they
// declare here, so codes never collide across packages.
type CodeError uint16

const (
	// UnknownError is the fallback code for an error with no registered code.
	UnknownError CodeError = 0

	// MinPkgHTTPServer is the code-space floor reserved for package httpserver.
	MinPkgHTTPServer CodeError = 1300

	// MinAvailable is the first code not reserved by this module.
	MinAvailable CodeError = 2000
)

// idMessage maps a registered code to the function producing its message.
var idMessage = make(map[CodeError]Message)

// Message renders a human-readable string for a CodeError.
type Message func(code CodeError) string

// RegisterMessage registers msg as the message function covering every code
// from base onward that has not already been registered. Packages call this
// once from an init() with their own getMessage function.
func RegisterMessage(base CodeError, msg Message) {
	idMessage[base] = msg
}

// messageFor returns the message for code by finding the highest registered
// floor at or below code.
func messageFor(code CodeError) string {
	var (
		bestFloor CodeError
		bestFn    Message
		found     bool
	)

	for floor, fn := range idMessage {
		if floor <= code && (!found || floor > bestFloor) {
			bestFloor, bestFn, found = floor, fn, true
		}
	}

	if !found {
		return "unknown error"
	}

	if m := bestFn(code); m != "" {
		return m
	}

	return "unknown error"
}

// ParseCodeError clamps an arbitrary integer into the CodeError range.
func ParseCodeError(i int64) CodeError {
	if i < 0 {
		return UnknownError
	} else if i >= int64(math.MaxUint16) {
		return CodeError(math.MaxUint16)
	}

	return CodeError(i)
}
