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

package broadcast

import (
	"sort"
	"sync"
)

type queue struct {
	mu    sync.Mutex
	items map[string]*Item
}

func (q *queue) Push(name string, payload []byte, notify func(sent bool)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.items[name]; ok && prev.Notify != nil {
		sent := prev.Transmits > 0
		go prev.Notify(sent)
	}

	q.items[name] = &Item{Name: name, Payload: payload, Notify: notify}
}

func (q *queue) sortedLocked() []*Item {
	res := make([]*Item, 0, len(q.items))
	for _, it := range q.items {
		res = append(res, it)
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Transmits != res[j].Transmits {
			return res[i].Transmits < res[j].Transmits
		}
		return res[i].Name < res[j].Name
	})

	return res
}

func (q *queue) GetBroadcasts(overhead, limit int, retransmitLimit int) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([][]byte, 0)
	used := 0

	for _, it := range q.sortedLocked() {
		need := len(it.Payload) + overhead
		if used+need > limit {
			continue
		}

		used += need
		out = append(out, it.Payload)
		it.Transmits++

		if it.Transmits >= retransmitLimit {
			delete(q.items, it.Name)
			if it.Notify != nil {
				go it.Notify(true)
			}
		}
	}

	return out
}

func (q *queue) Prune(softCap int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) <= softCap {
		return
	}

	sorted := q.sortedLocked()
	// sortedLocked is ascending by Transmits; evict from the tail (highest
	// transmits first) until at cap.
	for i := len(sorted) - 1; i >= 0 && len(q.items) > softCap; i-- {
		it := sorted[i]
		delete(q.items, it.Name)
		if it.Notify != nil {
			sent := it.Transmits > 0
			go it.Notify(sent)
		}
	}
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
