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

// Package ctxstore provides a generic, concurrency-safe keyed store, used
// wherever the engine needs a small amount of opaque, caller-supplied state
// threaded through without becoming part of a struct's exported fields.
package ctxstore

import "sync"

// Store is a generic concurrency-safe map keyed by K.
type Store[K comparable] struct {
	mu sync.RWMutex
	m  map[K]any
}

// New returns an empty Store.
func New[K comparable]() *Store[K] {
	return &Store[K]{m: make(map[K]any)}
}

// Load returns the value for key and whether it was present.
func (s *Store[K]) Load(key K) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	return v, ok
}

// Store sets the value for key.
func (s *Store[K]) Store(key K, val any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = val
}

// Delete removes key, if present.
func (s *Store[K]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, key)
}

// Range calls f for every key/value pair, stopping early if f returns false.
// Mirrors sync.Map.Range.
func (s *Store[K]) Range(f func(key K, val any) bool) {
	s.mu.RLock()
	snapshot := make(map[K]any, len(s.m))
	for k, v := range s.m {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	for k, v := range snapshot {
		if !f(k, v) {
			return
		}
	}
}
