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

// Package state holds the name -> member index shared by the membership and
// orchestration layers: a single reader/writer-locked map of Member records,
// keyed by node name, plus the bookkeeping (stateChange, tombstone reap,
// conflicting-name reporting) that both layers read and mutate.
package state

import (
	"net"
	"time"

	"github.com/nabbar/flockd/clock"
)

// MemberState is the membership-layer (SWIM) state of a peer.
type MemberState uint8

const (
	StateAlive MemberState = iota
	StateSuspect
	StateDead
	StateLeft
)

func (s MemberState) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateSuspect:
		return "suspect"
	case StateDead:
		return "dead"
	case StateLeft:
		return "left"
	default:
		return "unknown"
	}
}

// rank gives the (Alive > Suspect > Dead > Left) tie-break preference used
// when two records share the same Lamport/incarnation ordering.
func (s MemberState) rank() int {
	switch s {
	case StateAlive:
		return 3
	case StateSuspect:
		return 2
	case StateDead:
		return 1
	case StateLeft:
		return 0
	default:
		return -1
	}
}

// Preferred reports whether state a should win over state b at equal
// incarnation/Lamport order.
func Preferred(a, b MemberState) bool {
	return a.rank() > b.rank()
}

// Status is the orchestration-layer status of a peer.
type Status uint8

const (
	StatusNone Status = iota
	StatusAlive
	StatusLeaving
	StatusLeft
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusAlive:
		return "alive"
	case StatusLeaving:
		return "leaving"
	case StatusLeft:
		return "left"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Member is a single known peer, written by both the membership layer
// (State/Incarnation/StateChange) and the orchestration layer
// (Status/StatusLTime).
type Member struct {
	Name string
	Addr net.IP
	Port uint16

	Meta []byte
	Tags map[string]string

	// Pmin, Pmax, Pcur describe the membership-protocol versions understood
	// by this peer; Dmin, Dmax, Dcur describe the orchestration-delegate
	// versions.
	Pmin, Pmax, Pcur byte
	Dmin, Dmax, Dcur byte

	State       MemberState
	Incarnation uint32
	StateChange time.Time

	Status      Status
	StatusLTime clock.LTime
}

// Clone returns a deep-enough copy of m safe to hand to callers without
// risking mutation of the map's internal record.
func (m Member) Clone() Member {
	c := m
	if m.Addr != nil {
		c.Addr = append(net.IP(nil), m.Addr...)
	}
	if m.Meta != nil {
		c.Meta = append([]byte(nil), m.Meta...)
	}
	if m.Tags != nil {
		c.Tags = make(map[string]string, len(m.Tags))
		for k, v := range m.Tags {
			c.Tags[k] = v
		}
	}
	return c
}

// ConflictFunc is invoked when a name conflict is detected: two different
// addresses claiming the same node Name. It never silently overwrites.
type ConflictFunc func(name string, existing, incoming Member)

// Map is the concurrency-safe name -> Member index.
type Map interface {
	// Get returns a clone of the member with this name, or false if unknown.
	Get(name string) (Member, bool)

	// Upsert inserts or replaces the record for name, returning the previous
	// value (if any). It does not apply any state-machine rule; callers
	// (member.Machine) decide what is written.
	Upsert(m Member) (previous Member, existed bool)

	// Delete removes name from the map.
	Delete(name string)

	// Range calls fn for every member; iteration stops early if fn returns false.
	Range(fn func(m Member) bool)

	// Len returns the number of known members, including Dead/Left ones
	// still within their tombstone window.
	Len() int

	// Reap removes every member whose StateChange is older than ttl and
	// whose State is Dead or Left, returning the removed names.
	Reap(ttl time.Duration, now time.Time) []string

	// SetConflictFunc installs the callback invoked on name/address conflicts.
	SetConflictFunc(fn ConflictFunc)
}

// New returns an empty Map.
func New() Map {
	return &memberMap{
		m: make(map[string]Member),
	}
}
