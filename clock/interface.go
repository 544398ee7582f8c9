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

// Package clock implements Lamport logical clocks used to order intents,
// user events and queries across the cluster. A node keeps three independent
// clocks (member, event, query); each only ever moves forward.
package clock

// LTime is a Lamport timestamp: a monotonically increasing logical counter.
// The zero value means "never witnessed".
type LTime uint64

// Clock is a single Lamport clock: Increment produces a new local time,
// Witness folds in a time observed from a remote message so the local
// clock is never behind anything it has seen.
type Clock interface {
	// Time returns the current value without advancing it.
	Time() LTime

	// Increment advances the clock by one and returns the new value.
	// Use this when originating a new event/intent/query locally.
	Increment() LTime

	// Witness folds a remote LTime into the clock: if the remote wins,
	// the clock is moved to remote+1, otherwise nothing changes. It returns
	// the clock value after witnessing.
	Witness(remote LTime) LTime
}

// New returns a Clock starting at time 0.
func New() Clock {
	return newClock(0)
}

// NewFrom returns a Clock restored from a previously persisted value, e.g.
// a snapshot's last recorded clock line. The restored clock behaves exactly
// as if every LTime up to and including start had already been witnessed,
// so the next Increment produces start+1.
func NewFrom(start LTime) Clock {
	return newClock(start)
}
