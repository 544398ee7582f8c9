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

package clock

import "sync/atomic"

type clock struct {
	v atomic.Uint64
}

func newClock(start LTime) *clock {
	c := &clock{}
	c.v.Store(uint64(start))
	return c
}

func (c *clock) Time() LTime {
	return LTime(c.v.Load())
}

func (c *clock) Increment() LTime {
	return LTime(c.v.Add(1))
}

// Witness implements the standard Lamport witness rule: if remote is ahead
// of or equal to the local clock, the local clock jumps to remote+1 so the
// next local Increment produces a value strictly greater than remote.
func (c *clock) Witness(remote LTime) LTime {
	for {
		cur := c.v.Load()
		if LTime(cur) > remote {
			return LTime(cur)
		}

		next := uint64(remote) + 1
		if c.v.CompareAndSwap(cur, next) {
			return LTime(next)
		}
	}
}
