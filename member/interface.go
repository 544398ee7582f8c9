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

// Package member implements the orchestration-layer state machine that sits
// on top of state.Map: it decides, for every intent or authoritative event
// touching a Status/StatusLTime pair, whether the member record actually
// changes and which event (if any) should be emitted.
package member

import (
	"time"

	"github.com/nabbar/flockd/clock"
	"github.com/nabbar/flockd/state"
)

// TransitionResult reports what a Machine call actually did, so callers know
// whether to rebroadcast the intent and whether to emit an event.
type TransitionResult uint8

const (
	// StateChanged means Status (or MemberState, for authoritative calls)
	// moved to a new value.
	StateChanged TransitionResult = iota
	// LTimeUpdated means only StatusLTime advanced; Status did not change.
	LTimeUpdated
	// NoChange means neither Status nor StatusLTime changed.
	NoChange
	// Rejected means the call was ignored outright: a stale Lamport time or
	// an illegal transition for the given authority.
	Rejected
)

func (r TransitionResult) String() string {
	switch r {
	case StateChanged:
		return "state-changed"
	case LTimeUpdated:
		return "ltime-updated"
	case NoChange:
		return "no-change"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event is one orchestration-layer notification a Machine call can produce.
type Event uint8

const (
	// EventNone is returned alongside TransitionResults that emit nothing.
	EventNone Event = iota
	EventMemberJoin
	EventMemberLeave
	EventMemberFailed
	EventMemberUpdate
	EventMemberReap
)

func (e Event) String() string {
	switch e {
	case EventMemberJoin:
		return "member-join"
	case EventMemberLeave:
		return "member-leave"
	case EventMemberFailed:
		return "member-failed"
	case EventMemberUpdate:
		return "member-update"
	case EventMemberReap:
		return "member-reap"
	default:
		return "none"
	}
}

// Outcome is the result of a single Machine call.
type Outcome struct {
	Result TransitionResult
	Event  Event
	Member state.Member
}

// Machine applies the transition-trigger table of the orchestration layer on
// top of a state.Map. Every method is safe for concurrent use: it delegates
// its locking to the underlying Map, plus its own incarnation bookkeeping for
// refutation.
type Machine interface {
	// JoinIntent applies a gossip-originated join/alive intent carrying
	// intentLTime. Valid outcomes: Leeaving->Alive (refutation already
	// handled by the caller's own incarnation), Left/Failed/Alive/None only
	// ever advance StatusLTime. Intents at or behind the current
	// StatusLTime are Rejected.
	JoinIntent(name string, intentLTime clock.LTime) Outcome

	// LeaveIntent applies a gossip-originated leave intent. Valid
	// transitions: Alive->Leaving, Failed->Left; Left/Leaving only advance
	// StatusLTime.
	LeaveIntent(name string, intentLTime clock.LTime) Outcome

	// NotifyJoin is the authoritative memberlist callback: any prior status
	// moves to Alive regardless of Lamport order.
	NotifyJoin(m state.Member) Outcome

	// NotifyLeave is the authoritative memberlist callback for a departure.
	// graceful selects Left; otherwise Failed.
	NotifyLeave(name string, graceful bool) Outcome

	// LeaveComplete is the authoritative local transition fired once this
	// node's own graceful leave has fully propagated: Leaving->Left.
	LeaveComplete(name string) Outcome

	// Refute bumps our own incarnation strictly above challenged and
	// reports the new incarnation to broadcast as a refuting Alive. It is
	// only meaningful when called for the local member name.
	Refute(name string, challenged uint32) (newIncarnation uint32, ok bool)

	// Reap drops tombstoned (Dead/Left) members whose StateChange predates
	// now-ttl, emitting one Outcome with EventMemberReap per removed name.
	Reap(ttl time.Duration, now time.Time) []Outcome
}

// New returns a Machine backed by m.
func New(m state.Map) Machine {
	return &machine{m: m}
}
