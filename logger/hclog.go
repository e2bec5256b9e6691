/*
 * MIT License
 *
 * Copyright (c) 2021 Nicolas JUHEL
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

package logger

import (
	"io"
	"log"

	"github.com/hashicorp/go-hclog"
)

type bridge struct {
	l Logger
}

// AsHCLog adapts l into an hclog.Logger, for handing this module's logger
// to dependencies that only know how to log through hclog.
func AsHCLog(l Logger) hclog.Logger {
	return &bridge{l: l}
}

func (b *bridge) Log(level hclog.Level, msg string, args ...any) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		return
	case hclog.Trace, hclog.Debug:
		b.l.Debug(msg, fieldsFromArgs(args))
	case hclog.Warn:
		b.l.Warning(msg, fieldsFromArgs(args))
	case hclog.Error:
		b.l.Error(msg, fieldsFromArgs(args), nil)
	default:
		b.l.Info(msg, fieldsFromArgs(args))
	}
}

func (b *bridge) Trace(msg string, args ...any) { b.l.Debug(msg, fieldsFromArgs(args)) }
func (b *bridge) Debug(msg string, args ...any) { b.l.Debug(msg, fieldsFromArgs(args)) }
func (b *bridge) Info(msg string, args ...any)  { b.l.Info(msg, fieldsFromArgs(args)) }
func (b *bridge) Warn(msg string, args ...any)  { b.l.Warning(msg, fieldsFromArgs(args)) }
func (b *bridge) Error(msg string, args ...any) { b.l.Error(msg, fieldsFromArgs(args), nil) }

func (b *bridge) IsTrace() bool { return true }
func (b *bridge) IsDebug() bool { return true }
func (b *bridge) IsInfo() bool  { return true }
func (b *bridge) IsWarn() bool  { return true }
func (b *bridge) IsError() bool { return true }

func (b *bridge) ImpliedArgs() []any { return nil }
func (b *bridge) With(args ...any) hclog.Logger {
	return &bridge{l: b.l.WithFields(fieldsFromArgs(args))}
}
func (b *bridge) Name() string                   { return "" }
func (b *bridge) Named(string) hclog.Logger       { return b }
func (b *bridge) ResetNamed(string) hclog.Logger  { return b }
func (b *bridge) SetLevel(hclog.Level)            {}
func (b *bridge) GetLevel() hclog.Level           { return hclog.Info }
func (b *bridge) StandardLogger(*hclog.StandardLoggerOpts) *log.Logger {
	return GetStdLogger(b.l, InfoLevel, "")
}
func (b *bridge) StandardWriter(*hclog.StandardLoggerOpts) io.Writer {
	return stdWriter{l: b.l, lvl: InfoLevel}
}

func fieldsFromArgs(args []any) Fields {
	if len(args) == 0 {
		return nil
	}

	f := make(Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		f[key] = args[i+1]
	}

	return f
}
