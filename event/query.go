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
	"container/list"
	"math"
	"sync"
	"time"

	"github.com/nabbar/flockd/clock"
)

type queryKey struct {
	ltime clock.LTime
	id    uint32
}

// QueryDedupe is a bounded LRU remembering which (queryLTime, id) pairs have
// already been seen, so a query relayed through several paths is only
// answered once per node.
type QueryDedupe struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[queryKey]*list.Element
}

// NewQueryDedupe builds an LRU capped at capacity entries.
func NewQueryDedupe(capacity int) *QueryDedupe {
	if capacity <= 0 {
		capacity = 1
	}
	return &QueryDedupe{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[queryKey]*list.Element),
	}
}

// Seen reports whether (ltime, id) was already recorded; if not, it records
// it and returns false.
func (d *QueryDedupe) Seen(ltime clock.LTime, id uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := queryKey{ltime: ltime, id: id}
	if el, ok := d.index[key]; ok {
		d.order.MoveToFront(el)
		return true
	}

	el := d.order.PushFront(key)
	d.index[key] = el

	for d.order.Len() > d.capacity {
		oldest := d.order.Back()
		if oldest == nil {
			break
		}
		d.order.Remove(oldest)
		delete(d.index, oldest.Value.(queryKey))
	}

	return false
}

// QueryTimeout computes the default collection window for a query, scaled
// by cluster size the same way the probe/gossip timers are: larger clusters
// need more hops to reach every node, so the deadline grows with log(N).
func QueryTimeout(gossipInterval time.Duration, queryTimeoutMult int, clusterSize int) time.Duration {
	n := clusterSize
	if n < 1 {
		n = 1
	}
	scale := math.Ceil(math.Log10(float64(n) + 1))
	if scale < 1 {
		scale = 1
	}
	return gossipInterval * time.Duration(queryTimeoutMult) * time.Duration(scale)
}

// ResponseCollector accumulates distinct per-node responses to one query
// until its deadline elapses.
type ResponseCollector struct {
	mu        sync.Mutex
	deadline  time.Time
	responses map[string][]byte
	order     []string
}

// NewResponseCollector starts a collector with the given absolute deadline.
func NewResponseCollector(deadline time.Time) *ResponseCollector {
	return &ResponseCollector{
		deadline:  deadline,
		responses: make(map[string][]byte),
	}
}

// Add records from's response, replacing any earlier one from the same
// node. Returns false once the deadline has passed.
func (c *ResponseCollector) Add(from string, payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().After(c.deadline) {
		return false
	}
	if _, ok := c.responses[from]; !ok {
		c.order = append(c.order, from)
	}
	c.responses[from] = payload
	return true
}

// QueryResponse is one node's answer to a query.
type QueryResponse struct {
	From    string
	Payload []byte
}

// Responses returns every response collected so far, in first-seen order.
func (c *ResponseCollector) Responses() []QueryResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]QueryResponse, 0, len(c.order))
	for _, from := range c.order {
		out = append(out, QueryResponse{From: from, Payload: c.responses[from]})
	}
	return out
}

// Deadline reports the collector's absolute expiry time.
func (c *ResponseCollector) Deadline() time.Time {
	return c.deadline
}

// Expired reports whether the deadline has already passed.
func (c *ResponseCollector) Expired() bool {
	return time.Now().After(c.deadline)
}
