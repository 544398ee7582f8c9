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

package state

import (
	"sync"
	"time"
)

type memberMap struct {
	mu sync.RWMutex
	m  map[string]Member
	cf ConflictFunc
}

func (s *memberMap) Get(name string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.m[name]
	if !ok {
		return Member{}, false
	}
	return m.Clone(), true
}

func (s *memberMap) Upsert(m Member) (Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.m[m.Name]

	if existed && s.cf != nil && prev.Addr != nil && m.Addr != nil && !prev.Addr.Equal(m.Addr) {
		s.cf(m.Name, prev, m)
	}

	s.m[m.Name] = m
	return prev, existed
}

func (s *memberMap) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, name)
}

func (s *memberMap) Range(fn func(m Member) bool) {
	s.mu.RLock()
	snapshot := make([]Member, 0, len(s.m))
	for _, m := range s.m {
		snapshot = append(snapshot, m)
	}
	s.mu.RUnlock()

	for _, m := range snapshot {
		if !fn(m.Clone()) {
			return
		}
	}
}

func (s *memberMap) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.m)
}

func (s *memberMap) Reap(ttl time.Duration, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]string, 0)

	for name, m := range s.m {
		if m.State != StateDead && m.State != StateLeft {
			continue
		}
		if now.Sub(m.StateChange) < ttl {
			continue
		}
		delete(s.m, name)
		removed = append(removed, name)
	}

	return removed
}

func (s *memberMap) SetConflictFunc(fn ConflictFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cf = fn
}
