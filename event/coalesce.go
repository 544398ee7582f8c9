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
	"sync"
	"time"

	"github.com/nabbar/flockd/state"
)

func tagsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

type memberRecord struct {
	kind  Kind
	state state.MemberState
	tags  map[string]string
}

type memberPush struct {
	kind Kind
	m    state.Member
}

// MemberCoalescer batches member-transition notifications so a flapping
// member doesn't generate one external callback per flap. Same-state
// repeats are suppressed outright; Join/Leave/Failed/Reap are collapsed to
// one event per kind carrying every affected member; an Update whose tags
// differ from the one already queued flushes immediately instead of
// silently overwriting it, so no distinct tag snapshot is ever lost.
type MemberCoalescer struct {
	sink            Sink
	coalescePeriod  time.Duration
	quiescentPeriod time.Duration

	in   chan memberPush
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewMemberCoalescer starts a coalescer delivering to sink. coalescePeriod
// bounds how long a batch may grow before it is flushed regardless of
// activity; quiescentPeriod flushes a batch early once no new event has
// arrived for that long.
func NewMemberCoalescer(sink Sink, coalescePeriod, quiescentPeriod time.Duration) *MemberCoalescer {
	c := &MemberCoalescer{
		sink:            sink,
		coalescePeriod:  coalescePeriod,
		quiescentPeriod: quiescentPeriod,
		in:              make(chan memberPush, 256),
		stop:            make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// Push enqueues one member transition for coalescing.
func (c *MemberCoalescer) Push(kind Kind, m state.Member) {
	select {
	case c.in <- memberPush{kind: kind, m: m}:
	case <-c.stop:
	}
}

// Stop flushes any pending batch and halts the coalescer.
func (c *MemberCoalescer) Stop() {
	close(c.stop)
	c.wg.Wait()
}

func (c *MemberCoalescer) run() {
	defer c.wg.Done()

	pending := make(map[Kind]map[string]state.Member)
	last := make(map[string]memberRecord)

	quiescent := time.NewTimer(c.quiescentPeriod)
	if !quiescent.Stop() {
		<-quiescent.C
	}
	defer quiescent.Stop()

	var maxTimer *time.Timer
	var maxCh <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		for kind, bucket := range pending {
			members := make([]state.Member, 0, len(bucket))
			for _, m := range bucket {
				members = append(members, m)
			}
			c.sink(MemberEvent{Type: kind, Members: members})
		}
		pending = make(map[Kind]map[string]state.Member)
		if !quiescent.Stop() {
			select {
			case <-quiescent.C:
			default:
			}
		}
		if maxTimer != nil {
			maxTimer.Stop()
			maxTimer = nil
			maxCh = nil
		}
	}

	for {
		select {
		case p := <-c.in:
			if r, ok := last[p.m.Name]; ok && r.kind == p.kind && r.state == p.m.State && tagsEqual(r.tags, p.m.Tags) {
				continue
			}

			if p.kind == KindMemberUpdate {
				if bucket, ok := pending[KindMemberUpdate]; ok {
					if prev, ok2 := bucket[p.m.Name]; ok2 && !tagsEqual(prev.Tags, p.m.Tags) {
						flush()
					}
				}
			}

			if len(pending) == 0 {
				maxTimer = time.NewTimer(c.coalescePeriod)
				maxCh = maxTimer.C
			}
			bucket, ok := pending[p.kind]
			if !ok {
				bucket = make(map[string]state.Member)
				pending[p.kind] = bucket
			}
			bucket[p.m.Name] = p.m
			last[p.m.Name] = memberRecord{kind: p.kind, state: p.m.State, tags: p.m.Tags}

			quiescent.Reset(c.quiescentPeriod)

		case <-quiescent.C:
			flush()

		case <-maxCh:
			flush()

		case <-c.stop:
			flush()
			return
		}
	}
}

// UserEventCoalescer batches coalescing-eligible user events by name,
// keeping only the most recent payload per name within window. Events
// marked non-coalescing bypass batching and are delivered immediately.
type UserEventCoalescer struct {
	sink   Sink
	window time.Duration

	in   chan UserEventRecord
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewUserEventCoalescer starts a coalescer delivering to sink.
func NewUserEventCoalescer(sink Sink, window time.Duration) *UserEventCoalescer {
	c := &UserEventCoalescer{
		sink:   sink,
		window: window,
		in:     make(chan UserEventRecord, 256),
		stop:   make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// Push enqueues one user event. Non-coalescing events are delivered inline.
func (c *UserEventCoalescer) Push(rec UserEventRecord) {
	if !rec.Coalesce {
		c.sink(rec)
		return
	}
	select {
	case c.in <- rec:
	case <-c.stop:
	}
}

// Stop flushes any pending batch and halts the coalescer.
func (c *UserEventCoalescer) Stop() {
	close(c.stop)
	c.wg.Wait()
}

func (c *UserEventCoalescer) run() {
	defer c.wg.Done()

	pending := make(map[string]UserEventRecord)

	timer := time.NewTimer(c.window)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		for _, rec := range pending {
			c.sink(rec)
		}
		pending = make(map[string]UserEventRecord)
	}

	for {
		select {
		case rec := <-c.in:
			if len(pending) == 0 {
				timer.Reset(c.window)
			}
			pending[rec.Name] = rec

		case <-timer.C:
			flush()

		case <-c.stop:
			flush()
			return
		}
	}
}
