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
	"fmt"
	"strconv"

	"github.com/nabbar/flockd/control"
	"github.com/nabbar/flockd/event"
	"github.com/nabbar/flockd/state"
	"github.com/nabbar/flockd/wire"
)

// This file implements the remaining control.Backend methods not already
// satisfied, under an identical signature, by agentImpl's Go-native API in
// model.go (Join, Leave, ForceLeave, MembersState's control-facing twin
// Members).

// Members returns the wire-friendly membership projection control.Backend
// promises; MembersState (on Agent) returns the richer state.Member view.
func (a *agentImpl) Members() []control.Member {
	ms := a.loop.Members()
	out := make([]control.Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, control.Member{
			Name:   m.Name,
			Addr:   hostPort(m.Addr, m.Port),
			Tags:   m.Tags,
			Status: m.Status.String(),
		})
	}
	return out
}

// UserEvent originates an application-named event: it advances the event
// clock, records the event in the replay-dedupe ring, broadcasts it, and
// delivers it locally through the same coalescing path a remote copy would
// take.
func (a *agentImpl) UserEvent(name string, payload []byte, coalesce bool) error {
	if !a.started.Load() {
		return ErrNotStarted.Error()
	}
	if limit := a.cfg.UserEventSizeLimit; limit > 0 && len(payload) > limit {
		return fmt.Errorf("agent: user event payload of %d bytes exceeds the %d-byte limit", len(payload), limit)
	}

	lt := a.eventClock.Increment()
	if !a.userBuffer.Witness(lt, name, payload) {
		return nil
	}
	if a.snap != nil {
		_ = a.snap.RecordEventClock(lt)
	}

	a.broadcastUserEvent(lt, name, payload, coalesce)
	a.userCoalescer.Push(event.UserEventRecord{LTime: lt, Name: name, Payload: payload, Coalesce: coalesce})
	return nil
}

// Query originates a fan-out request: it registers a queryHandle keyed by
// (queryLTime, id), evaluates its own filter against itself exactly as a
// remote recipient would, then broadcasts it.
func (a *agentImpl) Query(req control.QueryRequest) (control.QueryHandle, error) {
	if !a.started.Load() {
		return nil, ErrNotStarted.Error()
	}
	if req.Name == "" {
		return nil, ErrInvalidQuery.Error()
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = event.QueryTimeout(a.cfg.GossipInterval.Time(), a.cfg.QueryTimeoutMult, a.members.Len())
	}

	lt := a.queryClock.Increment()
	id := a.querySeq.Add(1)
	key := queryKey{ltime: lt, id: id}

	handle := newQueryHandle(timeout)
	a.queriesMu.Lock()
	a.queries[key] = handle
	a.queriesMu.Unlock()

	go func() {
		<-handle.done
		a.queriesMu.Lock()
		delete(a.queries, key)
		a.queriesMu.Unlock()
	}()

	local, _ := a.members.Get(a.cfg.NodeName)
	filterBytes, _ := encodeFilter(event.Filter{NamePatterns: req.NamePatterns, Tags: req.Tags})
	var filters [][]byte
	if filterBytes != nil {
		filters = [][]byte{filterBytes}
	}

	q := wire.Query{
		LTime:       uint64(lt),
		ID:          id,
		SourceNode:  a.cfg.NodeName,
		SourceAddr:  []byte(local.Addr),
		SourcePort:  local.Port,
		Filters:     filters,
		RelayFactor: req.RelayFactor,
		Timeout:     uint64(timeout),
		Payload:     req.Payload,
	}

	a.handleQueryMsg(q)
	a.broadcastQuery(q)

	return handle, nil
}

// SetTags updates the local member record's Tags/Meta immediately, so
// Members/Stats reflect it right away. Eager cluster-wide propagation
// without a supporting incarnation bump isn't exposed by swim.Loop, so a
// tag-only change reaches the rest of the cluster on the next event that
// bumps this node's incarnation (a refute or rejoin) rather than
// immediately; this is a bounded, documented simplification.
func (a *agentImpl) SetTags(tags map[string]string) error {
	if !a.started.Load() {
		return ErrNotStarted.Error()
	}

	cp := make(map[string]string, len(tags))
	for k, v := range tags {
		cp[k] = v
	}

	if local, ok := a.members.Get(a.cfg.NodeName); ok {
		local.Tags = cp
		local.Meta = state.EncodeTags(cp)
		a.members.Upsert(local)
	}
	return nil
}

// Stats reports a small set of operational counters as plain strings, the
// same shape the control protocol's "stats" command returns.
func (a *agentImpl) Stats() map[string]string {
	return map[string]string{
		"name":         a.cfg.NodeName,
		"members":      strconv.Itoa(a.members.Len()),
		"member_clock": strconv.FormatUint(uint64(a.memberClock.Time()), 10),
		"event_clock":  strconv.FormatUint(uint64(a.eventClock.Time()), 10),
		"query_clock":  strconv.FormatUint(uint64(a.queryClock.Time()), 10),
		"encrypted":    strconv.FormatBool(len(a.kr.Keys()) > 0),
	}
}

// GetCoordinate returns this node's own opaque coordinate, or a peer's if
// one has been recorded. The network-coordinate distance-estimation
// algorithm itself is out of scope; only opaque storage/lookup is
// implemented, matching snapshot.State not replaying any persisted
// coordinates either.
func (a *agentImpl) GetCoordinate(name string) ([]byte, bool) {
	a.coordsMu.Lock()
	defer a.coordsMu.Unlock()

	if name == "" || name == a.cfg.NodeName {
		if a.localCoordinate == nil {
			return nil, false
		}
		return append([]byte(nil), a.localCoordinate...), true
	}

	c, ok := a.peerCoordinates[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), c...), true
}

func (a *agentImpl) InstallKey(key []byte) error {
	return a.kr.Install(key)
}

func (a *agentImpl) UseKey(key []byte) error {
	return a.kr.Use(key)
}

func (a *agentImpl) RemoveKey(key []byte) error {
	return a.kr.Remove(key)
}

func (a *agentImpl) ListKeys() [][]byte {
	return a.kr.Keys()
}
