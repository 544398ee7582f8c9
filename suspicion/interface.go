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

// Package suspicion implements the self-accelerating suspicion timer: a
// Suspect message starts a timer that normally fires after max, but fires
// sooner the more independent peers confirm the suspicion.
package suspicion

import "time"

// Timer tracks one member's suspicion window. It is not safe for concurrent
// use; callers serialize access (the swim loop owns one per suspect name).
type Timer interface {
	// Confirm registers a confirmation from peer "from". Confirmations from
	// the suspect's own name, and duplicate confirmations from the same
	// peer, are ignored. It returns the (possibly shortened) remaining
	// duration until the timer should fire.
	Confirm(from string) time.Duration

	// Remaining returns the time left before the timer fires, given now.
	Remaining(now time.Time) time.Duration

	// Stop cancels the underlying timer; the fire function will not run.
	Stop() bool
}

// New starts a suspicion timer for the member "who" is suspected, expected
// to be confirmed by up to k independent peers, firing fn when it expires.
// min and max bound the possible fire delay: with zero confirmations it
// fires after max; with k confirmations it fires after min.
func New(min, max time.Duration, k int, who string, fn func()) Timer {
	return newTimer(min, max, k, who, fn, time.Now, time.AfterFunc)
}
