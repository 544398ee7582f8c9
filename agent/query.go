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

package agent

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nabbar/flockd/control"
	"github.com/nabbar/flockd/event"
)

// encodeFilter/decodeFilter serialise an event.Filter into the opaque byte
// blob wire.Query.Filters carries, the same way state.EncodeTags/DecodeTags
// embed structured data in an opaque wire field without the lower-level
// package needing to import the higher-level one.
func encodeFilter(f event.Filter) ([]byte, error) {
	if len(f.NamePatterns) == 0 && len(f.Tags) == 0 {
		return nil, nil
	}
	return json.Marshal(f)
}

func decodeFilter(b []byte) (event.Filter, error) {
	var f event.Filter
	if len(b) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return event.Filter{}, err
	}
	return f, nil
}

// queryHandle implements control.QueryHandle for one outstanding query
// originated by this node: it dedupes responses by sender and auto-closes
// once the query's deadline elapses.
type queryHandle struct {
	mu   sync.Mutex
	seen map[string]bool

	ch   chan control.QueryResponse
	done chan struct{}

	closeOnce sync.Once
	timer     *time.Timer
}

func newQueryHandle(timeout time.Duration) *queryHandle {
	h := &queryHandle{
		seen: make(map[string]bool),
		ch:   make(chan control.QueryResponse, 64),
		done: make(chan struct{}),
	}
	h.timer = time.AfterFunc(timeout, h.close)
	return h
}

func (h *queryHandle) Responses() <-chan control.QueryResponse { return h.ch }

func (h *queryHandle) Done() <-chan struct{} { return h.done }

func (h *queryHandle) deliver(from string, payload []byte) {
	h.mu.Lock()
	if h.seen[from] {
		h.mu.Unlock()
		return
	}
	h.seen[from] = true
	h.mu.Unlock()

	select {
	case h.ch <- control.QueryResponse{From: from, Payload: payload}:
	case <-h.done:
	}
}

func (h *queryHandle) close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}
