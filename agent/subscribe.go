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

package agent

import (
	"regexp"
	"sync"

	"github.com/nabbar/flockd/control"
	"github.com/nabbar/flockd/event"
)

// subscription implements control.Subscription: a bounded, filtered feed of
// StreamEvents. A slow reader never stalls the agent: once full, the
// channel drops its oldest queued event to make room for the newest one.
type subscription struct {
	id     uint64
	nameRe *regexp.Regexp
	kinds  map[string]bool

	ch     chan control.StreamEvent
	closed chan struct{}

	once  sync.Once
	agent *agentImpl
}

// Subscribe registers a live event feed matching filter.
func (a *agentImpl) Subscribe(filter control.EventFilter) (control.Subscription, error) {
	if !a.started.Load() {
		return nil, ErrNotStarted.Error()
	}

	var nameRe *regexp.Regexp
	if filter.NamePattern != "" {
		re, err := regexp.Compile("^(?:" + filter.NamePattern + ")$")
		if err != nil {
			return nil, err
		}
		nameRe = re
	}

	kinds := make(map[string]bool, len(filter.Kinds))
	for _, k := range filter.Kinds {
		kinds[k] = true
	}

	buf := a.cfg.EventSubscriptionBuffer
	if buf <= 0 {
		buf = 1
	}

	sub := &subscription{
		nameRe: nameRe,
		kinds:  kinds,
		ch:     make(chan control.StreamEvent, buf),
		closed: make(chan struct{}),
		agent:  a,
	}

	sub.id = a.subSeq.Add(1)
	a.subsMu.Lock()
	a.subs[sub.id] = sub
	a.subsMu.Unlock()

	return sub, nil
}

func (s *subscription) Events() <-chan control.StreamEvent { return s.ch }

func (s *subscription) Cancel() {
	s.once.Do(func() {
		close(s.closed)
		s.agent.subsMu.Lock()
		delete(s.agent.subs, s.id)
		s.agent.subsMu.Unlock()
	})
}

func (s *subscription) matches(kind, name string) bool {
	if len(s.kinds) > 0 && !s.kinds[kind] {
		return false
	}
	if s.nameRe != nil && name != "" && !s.nameRe.MatchString(name) {
		return false
	}
	return true
}

func (s *subscription) deliver(ev control.StreamEvent, name string) {
	if !s.matches(ev.Kind, name) {
		return
	}
	select {
	case s.ch <- ev:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}

func memberKindString(k event.Kind) string {
	switch k {
	case event.KindMemberJoin:
		return "member-join"
	case event.KindMemberLeave:
		return "member-leave"
	case event.KindMemberFailed:
		return "member-failed"
	case event.KindMemberUpdate:
		return "member-update"
	case event.KindMemberReap:
		return "member-reap"
	default:
		return "unknown"
	}
}

// publishToSubscriptions fans a coalesced/delivered event out to every live
// control-protocol subscription whose filter matches.
func (a *agentImpl) publishToSubscriptions(ev event.Event) {
	a.subsMu.Lock()
	subs := make([]*subscription, 0, len(a.subs))
	for _, s := range a.subs {
		subs = append(subs, s)
	}
	a.subsMu.Unlock()
	if len(subs) == 0 {
		return
	}

	switch e := ev.(type) {
	case event.MemberEvent:
		kind := memberKindString(e.Type)
		for _, m := range e.Members {
			cm := control.Member{
				Name:   m.Name,
				Addr:   hostPort(m.Addr, m.Port),
				Tags:   m.Tags,
				Status: m.Status.String(),
			}
			se := control.StreamEvent{Kind: kind, Member: &cm}
			for _, s := range subs {
				s.deliver(se, m.Name)
			}
		}
	case event.UserEventRecord:
		se := control.StreamEvent{Kind: "user", UserName: e.Name, Payload: e.Payload}
		for _, s := range subs {
			s.deliver(se, e.Name)
		}
	case event.QueryEvent:
		se := control.StreamEvent{Kind: "query", UserName: e.SourceNode, Payload: e.Payload}
		for _, s := range subs {
			s.deliver(se, "")
		}
	}
}

// closeAllSubscriptions cancels every live subscription; called from
// Shutdown so no control-protocol client is left blocked on a channel that
// will never receive again.
func (a *agentImpl) closeAllSubscriptions() {
	a.subsMu.Lock()
	subs := make([]*subscription, 0, len(a.subs))
	for _, s := range a.subs {
		subs = append(subs, s)
	}
	a.subs = make(map[uint64]*subscription)
	a.subsMu.Unlock()

	for _, s := range subs {
		s.once.Do(func() { close(s.closed) })
	}
}
