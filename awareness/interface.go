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

// Package awareness implements the Lifeguard health score: an integer in
// [0, max] that rises on probe failure and falls on probe success, used to
// scale probe interval and probe timeout so a struggling node backs off.
package awareness

import "time"

// Awareness is safe for concurrent use.
type Awareness interface {
	// Score returns the current health score.
	Score() int

	// OnFailure increments the score (bounded at max) on a failed probe.
	OnFailure()

	// OnSuccess decrements the score (bounded at 0) on a successful probe.
	OnSuccess()

	// ScaleTimeout multiplies base by (1 + score), used for probeTimeout.
	ScaleTimeout(base time.Duration) time.Duration

	// ScaleInterval multiplies base by (1 + score), used for probeInterval.
	ScaleInterval(base time.Duration) time.Duration
}

// New returns an Awareness score bounded to [0, max].
func New(max int) Awareness {
	return &score{max: max}
}
