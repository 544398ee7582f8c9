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
	"net"
	"strconv"

	"github.com/nabbar/flockd/clock"
	"github.com/nabbar/flockd/event"
	"github.com/nabbar/flockd/member"
	"github.com/nabbar/flockd/state"
	"github.com/nabbar/flockd/wire"
)

// This file implements swim.Delegate on *agentImpl: the orchestration
// layer's only hook into membership-layer events. swim's own packet
// dispatch understands membership-layer message types only; every
// orchestration message is carried double-wrapped, as the msgpack-encoded
// inner message wrapped again as a wire.User payload under wire.UserMsg, so
// it reaches NotifyMsg via the same path as any other piggybacked gossip.

// encodeEnvelope encodes body as mt, then wraps the result as a wire.User
// payload under wire.UserMsg so swim's dispatch delivers it to NotifyMsg
// unchanged, whether it travels by gossip broadcast or direct unicast.
func (a *agentImpl) encodeEnvelope(mt wire.MessageType, body interface{}) ([]byte, error) {
	inner, err := a.codec.Encode(mt, body)
	if err != nil {
		return nil, err
	}
	return a.codec.Encode(wire.UserMsg, wire.User{Payload: inner})
}

func memberEventKind(e member.Event) (event.Kind, bool) {
	switch e {
	case member.EventMemberJoin:
		return event.KindMemberJoin, true
	case member.EventMemberLeave:
		return event.KindMemberLeave, true
	case member.EventMemberFailed:
		return event.KindMemberFailed, true
	case member.EventMemberUpdate:
		return event.KindMemberUpdate, true
	case member.EventMemberReap:
		return event.KindMemberReap, true
	default:
		return 0, false
	}
}

// noteMemberOutcome pushes a member.Machine outcome onto the coalescer, if
// it carries an event worth telling anyone about.
func (a *agentImpl) noteMemberOutcome(outcome member.Outcome) {
	kind, ok := memberEventKind(outcome.Event)
	if !ok {
		return
	}
	a.memberCoalescer.Push(kind, outcome.Member)
}

func hostPort(ip net.IP, port uint16) string {
	return net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
}

// NotifyJoin is swim's authoritative "this peer is alive" callback.
func (a *agentImpl) NotifyJoin(m state.Member) {
	outcome := a.mach.NotifyJoin(m)
	a.noteMemberOutcome(outcome)
	if a.snap != nil {
		_ = a.snap.RecordAlive(m.Name, hostPort(m.Addr, m.Port))
	}
}

// NotifyLeave is swim's authoritative departure callback.
func (a *agentImpl) NotifyLeave(m state.Member, graceful bool) {
	outcome := a.mach.NotifyLeave(m.Name, graceful)
	a.noteMemberOutcome(outcome)
	if a.snap != nil {
		_ = a.snap.RecordNotAlive(m.Name)
	}
}

// NotifyUpdate fires when an already-alive member's metadata changes.
func (a *agentImpl) NotifyUpdate(m state.Member) {
	a.noteMemberOutcome(member.Outcome{Result: member.StateChanged, Event: member.EventMemberUpdate, Member: m})
}

// NotifyMsg is handed the inner orchestration packet: swim has already
// decoded the outer wire.UserMsg/wire.User wrapper. The message type is
// recovered with the same decode-to-peek-then-decode-again idiom swim's own
// handlePacket uses for wire.Compound.
func (a *agentImpl) NotifyMsg(buf []byte) {
	var probe wire.Compound
	mt, err := a.codec.Decode(buf, &probe)
	if err != nil {
		return
	}

	switch mt {
	case wire.JoinMsg:
		var j wire.Join
		if _, err := a.codec.Decode(buf, &j); err == nil {
			a.handleJoinMsg(j)
		}
	case wire.LeaveMsg:
		var l wire.Leave
		if _, err := a.codec.Decode(buf, &l); err == nil {
			a.handleLeaveMsg(l)
		}
	case wire.UserEventMsg:
		var u wire.UserEvent
		if _, err := a.codec.Decode(buf, &u); err == nil {
			a.handleUserEventMsg(u)
		}
	case wire.QueryMsg:
		var q wire.Query
		if _, err := a.codec.Decode(buf, &q); err == nil {
			a.handleQueryMsg(q)
		}
	case wire.QueryResponseMsg:
		var r wire.QueryResponse
		if _, err := a.codec.Decode(buf, &r); err == nil {
			a.handleQueryResponseMsg(r)
		}
	case wire.RelayMsg:
		var rl wire.Relay
		if _, err := a.codec.Decode(buf, &rl); err == nil {
			a.handleRelayMsg(rl)
		}
	case wire.KeyRequestMsg, wire.KeyResponseMsg:
		// Cluster-wide keyring propagation is out of scope: InstallKey,
		// UseKey and RemoveKey only ever apply to this node's own keyring.
	}
}

func (a *agentImpl) handleJoinMsg(j wire.Join) {
	lt := clock.LTime(j.LTime)
	a.memberClock.Witness(lt)
	if a.snap != nil {
		_ = a.snap.RecordClock(a.memberClock.Time())
	}
	a.noteMemberOutcome(a.mach.JoinIntent(j.Node, lt))
}

func (a *agentImpl) handleLeaveMsg(l wire.Leave) {
	lt := clock.LTime(l.LTime)
	a.memberClock.Witness(lt)
	if a.snap != nil {
		_ = a.snap.RecordClock(a.memberClock.Time())
	}
	a.noteMemberOutcome(a.mach.LeaveIntent(l.Node, lt))
}

func (a *agentImpl) handleUserEventMsg(u wire.UserEvent) {
	lt := clock.LTime(u.LTime)
	a.eventClock.Witness(lt)
	if !a.userBuffer.Witness(lt, u.Name, u.Payload) {
		return
	}
	if a.snap != nil {
		_ = a.snap.RecordEventClock(a.eventClock.Time())
	}
	a.userCoalescer.Push(event.UserEventRecord{
		LTime:    lt,
		Name:     u.Name,
		Payload:  u.Payload,
		Coalesce: u.CoalesceOK,
	})
}

func (a *agentImpl) handleQueryMsg(q wire.Query) {
	lt := clock.LTime(q.LTime)
	a.queryClock.Witness(lt)
	if a.queryDedupe.Seen(lt, q.ID) {
		return
	}
	if a.snap != nil {
		_ = a.snap.RecordQueryClock(a.queryClock.Time())
	}

	filt := event.Filter{}
	if len(q.Filters) > 0 {
		if f, err := decodeFilter(q.Filters[0]); err == nil {
			filt = f
		}
	}

	local, _ := a.members.Get(a.cfg.NodeName)
	if matched, err := filt.Match(a.cfg.NodeName, local.Tags); err == nil && matched {
		a.dispatchEvent(event.QueryEvent{
			LTime:       lt,
			ID:          q.ID,
			SourceNode:  q.SourceNode,
			Payload:     q.Payload,
			RelayFactor: q.RelayFactor,
			Respond: func(payload []byte) error {
				return a.sendQueryResponse(q, payload)
			},
		})
	}
}

// sendQueryResponse answers q directly, then additionally relays the same
// response through up to RelayFactor other members so its delivery doesn't
// depend on a single UDP path back to the query's source.
func (a *agentImpl) sendQueryResponse(q wire.Query, payload []byte) error {
	resp := wire.QueryResponse{
		LTime:   q.LTime,
		ID:      q.ID,
		From:    a.cfg.NodeName,
		Payload: payload,
	}
	buf, err := a.encodeEnvelope(wire.QueryResponseMsg, resp)
	if err != nil {
		return err
	}

	source := hostPort(net.IP(q.SourceAddr), q.SourcePort)
	if _, err := a.tr.WriteTo(buf, source); err != nil {
		return err
	}

	if q.RelayFactor > 0 {
		a.relayResponse(q, buf)
	}
	return nil
}

func (a *agentImpl) relayResponse(q wire.Query, respBuf []byte) {
	relay := wire.Relay{
		DestAddr: q.SourceAddr,
		DestPort: q.SourcePort,
		Payload:  respBuf,
	}
	buf, err := a.encodeEnvelope(wire.RelayMsg, relay)
	if err != nil {
		return
	}

	for _, m := range pickRelays(a.members, a.cfg.NodeName, q.SourceNode, int(q.RelayFactor)) {
		_, _ = a.tr.WriteTo(buf, hostPort(m.Addr, m.Port))
	}
}

// pickRelays returns up to n members other than self and source, in
// whatever order Range yields them; good enough for the redundancy this
// buys since any alive peer can forward toward dest.
func pickRelays(members state.Map, self, source string, n int) []state.Member {
	if n <= 0 {
		return nil
	}
	out := make([]state.Member, 0, n)
	members.Range(func(m state.Member) bool {
		if m.Name == self || m.Name == source || m.State != state.StateAlive {
			return true
		}
		out = append(out, m)
		return len(out) < n
	})
	return out
}

func (a *agentImpl) handleQueryResponseMsg(r wire.QueryResponse) {
	key := queryKey{ltime: clock.LTime(r.LTime), id: r.ID}
	a.queriesMu.Lock()
	h := a.queries[key]
	a.queriesMu.Unlock()
	if h == nil {
		return
	}
	h.deliver(r.From, r.Payload)
}

func (a *agentImpl) handleRelayMsg(rl wire.Relay) {
	dest := hostPort(net.IP(rl.DestAddr), rl.DestPort)
	_, _ = a.tr.WriteTo(rl.Payload, dest)
}

// broadcastJoin, broadcastLeave and broadcastUserEvent piggyback one
// orchestration intent onto swim's gossip broadcast queue. The push key is
// chosen so a newer intent for the same name (join/leave) or the same
// (ltime, name) user event replaces an older queued copy instead of
// colliding with unrelated messages.

func (a *agentImpl) broadcastJoin(name string, lt clock.LTime) {
	buf, err := a.encodeEnvelope(wire.JoinMsg, wire.Join{LTime: uint64(lt), Node: name})
	if err != nil {
		return
	}
	a.loop.Broadcasts().Push("join:"+name, buf, nil)
}

func (a *agentImpl) broadcastLeave(name string, lt clock.LTime) {
	buf, err := a.encodeEnvelope(wire.LeaveMsg, wire.Leave{LTime: uint64(lt), Node: name})
	if err != nil {
		return
	}
	a.loop.Broadcasts().Push("leave:"+name, buf, nil)
}

func (a *agentImpl) broadcastUserEvent(lt clock.LTime, name string, payload []byte, coalesce bool) {
	buf, err := a.encodeEnvelope(wire.UserEventMsg, wire.UserEvent{
		LTime:      uint64(lt),
		Name:       name,
		Payload:    payload,
		CoalesceOK: coalesce,
	})
	if err != nil {
		return
	}
	a.loop.Broadcasts().Push(fmt.Sprintf("user:%d:%s", lt, name), buf, nil)
}

func (a *agentImpl) broadcastQuery(q wire.Query) {
	buf, err := a.encodeEnvelope(wire.QueryMsg, q)
	if err != nil {
		return
	}
	a.loop.Broadcasts().Push(fmt.Sprintf("query:%d:%d", q.LTime, q.ID), buf, nil)
}

// LocalState serialises every known member's orchestration Status and
// StatusLTime, the one piece of per-member state wire.PushNode/wire.Alive
// never carry, so a push-pull peer's orchestration view converges
// immediately instead of waiting on individual Join/Leave intents to gossip
// their way across.
func (a *agentImpl) LocalState(join bool) []byte {
	var snap wire.StatusSync
	a.members.Range(func(m state.Member) bool {
		snap.Entries = append(snap.Entries, wire.StatusEntry{
			Name:        m.Name,
			Status:      uint8(m.Status),
			StatusLTime: uint64(m.StatusLTime),
		})
		return true
	})

	buf, err := a.codec.Encode(wire.StatusSyncMsg, snap)
	if err != nil {
		return nil
	}
	return buf
}

// MergeRemoteState folds a peer's status snapshot in via the same
// JoinIntent/LeaveIntent rules gossiped intents use, so it can never
// regress a locally-witnessed transition.
func (a *agentImpl) MergeRemoteState(buf []byte, join bool) {
	if len(buf) == 0 {
		return
	}
	var snap wire.StatusSync
	if _, err := a.codec.Decode(buf, &snap); err != nil {
		return
	}

	for _, e := range snap.Entries {
		lt := clock.LTime(e.StatusLTime)
		a.memberClock.Witness(lt)

		var outcome member.Outcome
		switch state.Status(e.Status) {
		case state.StatusAlive:
			outcome = a.mach.JoinIntent(e.Name, lt)
		case state.StatusLeaving, state.StatusLeft:
			outcome = a.mach.LeaveIntent(e.Name, lt)
		default:
			continue
		}
		a.noteMemberOutcome(outcome)
	}
}
