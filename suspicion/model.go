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

package suspicion

import (
	"math"
	"sync"
	"time"
)

type timerFunc func(d time.Duration, f func()) *time.Timer

type timer struct {
	mu sync.Mutex

	min, max time.Duration
	k        int
	who      string
	fn       func()
	now      func() time.Time
	newTimer timerFunc

	start     time.Time
	confirmed map[string]bool
	n         int
	t         *time.Timer
}

func newTimer(min, max time.Duration, k int, who string, fn func(), now func() time.Time, nt timerFunc) Timer {
	s := &timer{
		min:       min,
		max:       max,
		k:         k,
		who:       who,
		fn:        fn,
		now:       now,
		newTimer:  nt,
		start:     now(),
		confirmed: make(map[string]bool),
	}

	s.t = nt(max, fn)
	return s
}

// target computes the scheduled fire delay for n confirmations, n in [0, k].
func target(min, max time.Duration, k, n int) time.Duration {
	if k <= 0 || n <= 0 {
		return max
	}
	if n > k {
		n = k
	}

	frac := math.Log(float64(n)+1) / math.Log(float64(k)+1)
	d := float64(min) + (float64(max)-float64(min))*(1-frac)

	if d < float64(min) {
		d = float64(min)
	}

	return time.Duration(d)
}

func (s *timer) Confirm(from string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from == s.who || s.confirmed[from] {
		return s.remainingLocked(s.now())
	}

	s.confirmed[from] = true
	s.n++

	newTarget := target(s.min, s.max, s.k, s.n)
	elapsed := s.now().Sub(s.start)
	remaining := newTarget - elapsed

	if remaining < 0 {
		remaining = 0
	}

	if s.t != nil {
		s.t.Stop()
	}
	s.t = s.newTimer(remaining, s.fn)

	return remaining
}

func (s *timer) remainingLocked(now time.Time) time.Duration {
	d := target(s.min, s.max, s.k, s.n) - now.Sub(s.start)
	if d < 0 {
		return 0
	}
	return d
}

func (s *timer) Remaining(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remainingLocked(now)
}

func (s *timer) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.t == nil {
		return false
	}
	return s.t.Stop()
}
