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
 *
 *
 */

package event

import (
	"bytes"
	"sync"

	"github.com/nabbar/flockd/clock"
)

type userBufEntry struct {
	ltime   clock.LTime
	name    string
	payload []byte
}

// UserEventBuffer is a bounded ring of recently witnessed user events,
// used to drop replayed duplicates and to report the oldest LTime still
// remembered so a caller can reject events older than that floor outright.
type UserEventBuffer struct {
	mu      sync.Mutex
	entries []userBufEntry
	size    int
}

// NewUserEventBuffer builds a ring retaining at most size entries.
func NewUserEventBuffer(size int) *UserEventBuffer {
	if size <= 0 {
		size = 1
	}
	return &UserEventBuffer{
		entries: make([]userBufEntry, 0, size),
		size:    size,
	}
}

// Witness records the event and reports whether it is new. A duplicate
// (ltime, name, payload) already in the ring reports false and is not
// re-recorded.
func (b *UserEventBuffer) Witness(ltime clock.LTime, name string, payload []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.entries {
		if e.ltime == ltime && e.name == name && bytes.Equal(e.payload, payload) {
			return false
		}
	}

	b.entries = append(b.entries, userBufEntry{
		ltime:   ltime,
		name:    name,
		payload: append([]byte(nil), payload...),
	})
	if len(b.entries) > b.size {
		b.entries = b.entries[len(b.entries)-b.size:]
	}

	return true
}

// MinLTime returns the oldest LTime still retained in the ring, or 0 if
// empty. An incoming event older than this floor has already aged out of
// the dedupe window and should be dropped rather than replayed.
func (b *UserEventBuffer) MinLTime() clock.LTime {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return 0
	}

	min := b.entries[0].ltime
	for _, e := range b.entries[1:] {
		if e.ltime < min {
			min = e.ltime
		}
	}
	return min
}

// Len reports the current number of retained entries.
func (b *UserEventBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
