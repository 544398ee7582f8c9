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

package member

import (
	"time"

	"github.com/nabbar/flockd/clock"
	"github.com/nabbar/flockd/state"
)

type machine struct {
	m state.Map
}

func (k *machine) JoinIntent(name string, intentLTime clock.LTime) Outcome {
	cur, existed := k.m.Get(name)
	if !existed {
		return Outcome{Result: Rejected}
	}

	if intentLTime <= cur.StatusLTime {
		return Outcome{Result: Rejected, Member: cur}
	}

	prevStatus := cur.Status
	cur.StatusLTime = intentLTime

	switch prevStatus {
	case state.StatusLeaving:
		cur.Status = state.StatusAlive
		k.m.Upsert(cur)
		return Outcome{Result: StateChanged, Event: EventNone, Member: cur}
	case state.StatusLeft, state.StatusFailed, state.StatusAlive, state.StatusNone:
		k.m.Upsert(cur)
		return Outcome{Result: LTimeUpdated, Event: EventNone, Member: cur}
	default:
		k.m.Upsert(cur)
		return Outcome{Result: LTimeUpdated, Event: EventNone, Member: cur}
	}
}

func (k *machine) LeaveIntent(name string, intentLTime clock.LTime) Outcome {
	cur, existed := k.m.Get(name)
	if !existed {
		return Outcome{Result: Rejected}
	}

	if intentLTime <= cur.StatusLTime {
		return Outcome{Result: Rejected, Member: cur}
	}

	prevStatus := cur.Status
	cur.StatusLTime = intentLTime

	switch prevStatus {
	case state.StatusAlive, state.StatusNone:
		cur.Status = state.StatusLeaving
		k.m.Upsert(cur)
		return Outcome{Result: StateChanged, Event: EventNone, Member: cur}
	case state.StatusFailed:
		cur.Status = state.StatusLeft
		k.m.Upsert(cur)
		return Outcome{Result: StateChanged, Event: EventMemberLeave, Member: cur}
	case state.StatusLeaving, state.StatusLeft:
		k.m.Upsert(cur)
		return Outcome{Result: LTimeUpdated, Event: EventNone, Member: cur}
	default:
		k.m.Upsert(cur)
		return Outcome{Result: LTimeUpdated, Event: EventNone, Member: cur}
	}
}

func (k *machine) NotifyJoin(m state.Member) Outcome {
	cur, existed := k.m.Get(m.Name)

	m.Status = state.StatusAlive
	if !existed {
		k.m.Upsert(m)
		return Outcome{Result: StateChanged, Event: EventMemberJoin, Member: m}
	}

	m.StatusLTime = cur.StatusLTime

	if cur.Status != state.StatusAlive {
		k.m.Upsert(m)
		return Outcome{Result: StateChanged, Event: EventMemberJoin, Member: m}
	}

	if !tagsEqual(cur.Tags, m.Tags) {
		k.m.Upsert(m)
		return Outcome{Result: StateChanged, Event: EventMemberUpdate, Member: m}
	}

	k.m.Upsert(m)
	return Outcome{Result: NoChange, Event: EventNone, Member: m}
}

func (k *machine) NotifyLeave(name string, graceful bool) Outcome {
	cur, existed := k.m.Get(name)
	if !existed {
		return Outcome{Result: Rejected}
	}

	target := state.StatusFailed
	event := EventMemberFailed
	if graceful {
		target = state.StatusLeft
		event = EventMemberLeave
	}

	if cur.Status == target {
		k.m.Upsert(cur)
		return Outcome{Result: NoChange, Event: EventNone, Member: cur}
	}

	cur.Status = target
	k.m.Upsert(cur)
	return Outcome{Result: StateChanged, Event: event, Member: cur}
}

func (k *machine) LeaveComplete(name string) Outcome {
	cur, existed := k.m.Get(name)
	if !existed {
		return Outcome{Result: Rejected}
	}

	if cur.Status == state.StatusLeft {
		return Outcome{Result: NoChange, Event: EventNone, Member: cur}
	}

	if cur.Status != state.StatusLeaving {
		return Outcome{Result: Rejected, Member: cur}
	}

	cur.Status = state.StatusLeft
	k.m.Upsert(cur)
	return Outcome{Result: StateChanged, Event: EventMemberLeave, Member: cur}
}

func (k *machine) Refute(name string, challenged uint32) (uint32, bool) {
	cur, existed := k.m.Get(name)
	if !existed {
		return 0, false
	}

	next := cur.Incarnation
	if challenged >= next {
		next = challenged
	}
	next++

	cur.Incarnation = next
	cur.State = state.StateAlive
	k.m.Upsert(cur)

	return next, true
}

func (k *machine) Reap(ttl time.Duration, now time.Time) []Outcome {
	names := k.m.Reap(ttl, now)
	out := make([]Outcome, 0, len(names))

	for _, n := range names {
		out = append(out, Outcome{
			Result: StateChanged,
			Event:  EventMemberReap,
			Member: state.Member{Name: n},
		})
	}

	return out
}

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
