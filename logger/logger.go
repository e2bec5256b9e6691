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

// Package logger wraps logrus as this module's structured logger, with
// adapters for standard-library log.Logger and hashicorp/go-hclog so the
// engine's logger can be handed to any dependency expecting those shapes.
package logger

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// Fields attaches structured key/value context to a single log line.
type Fields map[string]any

// Logger is this module's logging surface. A nil Logger is never handed to
// engine code; New always returns a usable instance.
type Logger interface {
	SetLevel(lvl Level)
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warning(msg string, f Fields)
	Error(msg string, f Fields, err error)

	// WithFields returns a derived Logger that always attaches f in
	// addition to whatever fields a call site passes directly.
	WithFields(f Fields) Logger
}

type entry struct {
	l *logrus.Logger
	e *logrus.Entry
}

// New returns a Logger writing to w (os.Stdout if w is nil) through a
// colorable writer when attached to a terminal, mirroring the teacher's
// hookstandard.go behavior.
func New(w io.Writer) Logger {
	if w == nil {
		w = colorable.NewColorableStdout()
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)

	return &entry{l: l, e: logrus.NewEntry(l)}
}

// Discard returns a Logger that drops everything, for tests that don't
// want log noise.
func Discard() Logger {
	return New(io.Discard)
}

func (o *entry) SetLevel(lvl Level) {
	o.l.SetLevel(lvl.logrus())
}

func (o *entry) Debug(msg string, f Fields) {
	o.withFields(f).Debug(msg)
}

func (o *entry) Info(msg string, f Fields) {
	o.withFields(f).Info(msg)
}

func (o *entry) Warning(msg string, f Fields) {
	o.withFields(f).Warn(msg)
}

func (o *entry) Error(msg string, f Fields, err error) {
	e := o.withFields(f)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func (o *entry) WithFields(f Fields) Logger {
	return &entry{l: o.l, e: o.withFields(f)}
}

func (o *entry) withFields(f Fields) *logrus.Entry {
	if len(f) == 0 {
		return o.e
	}

	return o.e.WithFields(logrus.Fields(f))
}

// Std is the package-level default, used by code that has no explicit
// Logger threaded to it (e.g. package-level convenience constructors).
var Std Logger = New(os.Stdout)
