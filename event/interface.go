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

// Package event implements the orchestration-layer event pipeline: member
// event coalescing, user-event dedupe/replay, and query filter/dedupe/
// response-collection machinery. None of it owns the external sink; callers
// (agent) supply a plain func(Event) and this package only decides what,
// and when, to call it with.
package event

import (
	"time"

	"github.com/nabbar/flockd/clock"
	"github.com/nabbar/flockd/state"
)

// Kind discriminates the concrete type carried by an Event.
type Kind uint8

const (
	KindMemberJoin Kind = iota
	KindMemberLeave
	KindMemberFailed
	KindMemberUpdate
	KindMemberReap
	KindUser
	KindQuery
)

// Event is whatever the external sink receives: a MemberEvent, a
// UserEventRecord, or a QueryEvent.
type Event interface {
	Kind() Kind
}

// MemberEvent carries every member affected by one coalesced notification.
type MemberEvent struct {
	Type    Kind
	Members []state.Member
}

func (e MemberEvent) Kind() Kind { return e.Type }

// UserEventRecord is a delivered application-named event.
type UserEventRecord struct {
	LTime    clock.LTime
	Name     string
	Payload  []byte
	Coalesce bool
}

func (UserEventRecord) Kind() Kind { return KindUser }

// QueryEvent is delivered to the external sink when a local query filter
// matches; Respond sends one response back toward the query's source.
type QueryEvent struct {
	LTime       clock.LTime
	ID          uint32
	SourceNode  string
	Payload     []byte
	RelayFactor uint8
	Deadline    time.Time
	Respond     func(payload []byte) error
}

func (QueryEvent) Kind() Kind { return KindQuery }

// Sink receives coalesced/delivered events. Implementations must not block
// for long; the pipeline calls it inline.
type Sink func(Event)

// Filter is one query's matching predicate.
type Filter struct {
	// NamePatterns are anchored regexes matched against a candidate's Name;
	// empty means "match any name".
	NamePatterns []string

	// Tags are anchored (key, valueRegex) pairs; every pair must match a
	// tag present on the candidate for the filter to match.
	Tags map[string]string
}
