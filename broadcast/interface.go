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

// Package broadcast implements the retransmit-limited gossip broadcast
// queue: a priority structure keyed by name, draining lowest-transmit-count
// items first so every message gets a fair share of piggyback room.
package broadcast

import "math"

// Item is one queued gossip message.
type Item struct {
	Name      string
	Payload   []byte
	Transmits int

	// Notify, if non-nil, is invoked exactly once: with true if the item
	// was ever sent at least once, false if it was evicted by a same-name
	// replacement before ever being sent.
	Notify func(sent bool)
}

// Queue is safe for concurrent use; one writer at a time is enforced
// internally by a single lock, held only briefly per call.
type Queue interface {
	// Push inserts an item. An existing item with the same Name is evicted
	// (its Notify fires with sent=false unless it was already sent once,
	// in which case sent=true) and replaced.
	Push(name string, payload []byte, notify func(sent bool))

	// GetBroadcasts returns items, lowest-transmits first, whose payload
	// sizes plus overhead each, summed, fit within limit. Each returned
	// item has its Transmits incremented; items reaching retransmitLimit
	// are removed from the queue (their Notify fires with sent=true).
	GetBroadcasts(overhead, limit int, retransmitLimit int) [][]byte

	// Prune discards items over softCap, evicting the highest-transmits
	// items first (they have had the most chances to be delivered already).
	Prune(softCap int)

	// Len returns the number of queued items.
	Len() int
}

// New returns an empty Queue.
func New() Queue {
	return &queue{items: make(map[string]*Item)}
}

// RetransmitLimit computes mult * ceil(log10(n+1)), the standard SWIM
// retransmit budget scaled by cluster size.
func RetransmitLimit(mult, n int) int {
	if n < 0 {
		n = 0
	}
	return mult * int(math.Ceil(math.Log10(float64(n+1))))
}
