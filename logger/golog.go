/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

import "log"

// stdWriter adapts a Logger + Level into an io.Writer suitable for
// log.New, so third-party code expecting *log.Logger still lands in this
// module's structured logger.
type stdWriter struct {
	l   Logger
	lvl Level
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg := string(p)
	switch w.lvl {
	case DebugLevel:
		w.l.Debug(msg, nil)
	case WarningLevel:
		w.l.Warning(msg, nil)
	case ErrorLevel:
		w.l.Error(msg, nil, nil)
	default:
		w.l.Info(msg, nil)
	}

	return len(p), nil
}

// GetStdLogger returns a *log.Logger that writes through l at lvl. Used as
// the error logger for net.Listener accept-loop failures, the same role
// the teacher hands to http.Server.ErrorLog.
func GetStdLogger(l Logger, lvl Level, prefix string) *log.Logger {
	return log.New(stdWriter{l: l, lvl: lvl}, prefix, log.LstdFlags|log.Lmicroseconds)
}
