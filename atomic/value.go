/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package atomic provides a generic typed wrapper over sync/atomic.Value,
// so callers stop sprinkling type assertions around every Load.
package atomic

import "sync/atomic"

// Value is a generic, zero-value-ready atomic box for T.
type Value[T any] struct {
	v atomic.Value
}

// NewValue returns a Value already holding init.
func NewValue[T any](init T) *Value[T] {
	v := &Value[T]{}
	v.Store(init)
	return v
}

// Load returns the stored value, or the zero value of T if nothing has been
// stored yet.
func (v *Value[T]) Load() T {
	var zero T

	i := v.v.Load()
	if i == nil {
		return zero
	}

	t, ok := i.(box[T])
	if !ok {
		return zero
	}

	return t.v
}

// Store replaces the stored value.
func (v *Value[T]) Store(t T) {
	v.v.Store(box[T]{v: t})
}

// CompareAndSwap atomically swaps old for newV if the current value equals
// old, per the boxed representation's identity (not a deep comparison).
func (v *Value[T]) CompareAndSwap(old, newV T) bool {
	return v.v.CompareAndSwap(box[T]{v: old}, box[T]{v: newV})
}

// box exists because atomic.Value requires every Store to use the same
// concrete type, and a bare T may be an interface whose dynamic type varies.
type box[T any] struct {
	v T
}

// Bool is a convenience specialization for the common boolean-flag case
// (the session's closeAfter/ioCanceled/finished flags, the handler's done
// flag).
// It wraps sync/atomic.Bool directly rather than Value[bool]: the zero
// value is immediately usable, with no box-type CAS surprises on first use.
type Bool struct {
	v atomic.Bool
}

func (b *Bool) Load() bool     { return b.v.Load() }
func (b *Bool) Store(val bool) { b.v.Store(val) }
func (b *Bool) Set()           { b.v.Store(true) }
func (b *Bool) CompareAndSwap(old, newV bool) bool {
	return b.v.CompareAndSwap(old, newV)
}

// Int32 is a thin wrapper over atomic.Int32 kept here so engine code has a
// single import for all its atomics.
type Int32 struct {
	v atomic.Int32
}

func (i *Int32) Load() int32      { return i.v.Load() }
func (i *Int32) Add(delta int32) int32 { return i.v.Add(delta) }
func (i *Int32) Store(val int32)  { i.v.Store(val) }
