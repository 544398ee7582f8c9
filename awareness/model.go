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

package awareness

import (
	"sync"
	"time"
)

type score struct {
	mu  sync.Mutex
	v   int
	max int
}

func (s *score) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.v
}

func (s *score) OnFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.v < s.max {
		s.v++
	}
}

func (s *score) OnSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.v > 0 {
		s.v--
	}
}

func (s *score) ScaleTimeout(base time.Duration) time.Duration {
	return s.scale(base)
}

func (s *score) ScaleInterval(base time.Duration) time.Duration {
	return s.scale(base)
}

func (s *score) scale(base time.Duration) time.Duration {
	s.mu.Lock()
	v := s.v
	s.mu.Unlock()

	return time.Duration(int64(base) * int64(1+v))
}
