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

package errors

import (
	stderrors "errors"
	"strings"
)

// Error extends the standard error with a numeric code and an optional
// parent chain, so a caller can both pattern-match on Code() and still use
// errors.Is/errors.As against the wrapped chain.
type Error interface {
	error

	// Code returns this error's own code (not a parent's).
	Code() CodeError
	// IsCode reports whether this error's own code equals code.
	IsCode(code CodeError) bool
	// HasCode reports whether this error or any parent has code.
	HasCode(code CodeError) bool

	// Add appends non-nil parents to this error's parent chain.
	Add(parent ...error) Error
	// HasParent reports whether this error has at least one parent.
	HasParent() bool
	// Unwrap exposes the parent chain for errors.Is/errors.As.
	Unwrap() []error
}

type ers struct {
	code    CodeError
	message string
	parent  []error
}

// New creates an Error with the given code and message.
func New(code CodeError, message string, parent ...error) Error {
	e := &ers{code: code, message: message}
	return e.Add(parent...)
}

// Is reports whether err is (or wraps) an Error.
func Is(err error) bool {
	var e Error
	return stderrors.As(err, &e)
}

// Get returns err as an Error if it is one, else nil.
func Get(err error) Error {
	var e Error
	if stderrors.As(err, &e) {
		return e
	}

	return nil
}

func (e *ers) Error() string {
	if e.message != "" {
		return e.message
	}

	return messageFor(e.code)
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.code == code {
		return true
	}

	for _, p := range e.parent {
		if pe := Get(p); pe != nil && pe.HasCode(code) {
			return true
		}
	}

	return false
}

func (e *ers) Add(parent ...error) Error {
	for _, p := range parent {
		if p != nil {
			e.parent = append(e.parent, p)
		}
	}

	return e
}

func (e *ers) HasParent() bool {
	return len(e.parent) > 0
}

func (e *ers) Unwrap() []error {
	return e.parent
}

// ContainsString reports whether s appears anywhere in err's message or any
// parent's message, case-insensitively.
func ContainsString(err error, s string) bool {
	if err == nil {
		return false
	}

	if strings.Contains(strings.ToLower(err.Error()), strings.ToLower(s)) {
		return true
	}

	if e := Get(err); e != nil {
		for _, p := range e.Unwrap() {
			if ContainsString(p, s) {
				return true
			}
		}
	}

	return false
}
