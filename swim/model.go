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

package swim

import (
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/flockd/awareness"
	"github.com/nabbar/flockd/broadcast"
	"github.com/nabbar/flockd/member"
	"github.com/nabbar/flockd/state"
	"github.com/nabbar/flockd/suspicion"
	"github.com/nabbar/flockd/transport"
	"github.com/nabbar/flockd/wire"
)

type ackResult struct {
	payload []byte
}

type suspectEntry struct {
	timer       suspicion.Timer
	incarnation uint32
}

type loop struct {
	cfg      Config
	tr       transport.Transport
	codec    wire.Codec
	members  state.Map
	mach     member.Machine
	delegate Delegate
	bq       broadcast.Queue
	aw       awareness.Awareness

	seq atomic.Uint32

	acksMu sync.Mutex
	acks   map[uint32]chan ackResult

	suspectsMu sync.Mutex
	suspects   map[string]*suspectEntry

	shutdown atomic.Bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

func (l *loop) Start() {
	l.members.Upsert(state.Member{
		Name:        l.cfg.Name,
		Addr:        l.cfg.Addr,
		Port:        l.cfg.Port,
		Pmin:        l.cfg.Pmin,
		Pmax:        l.cfg.Pmax,
		Pcur:        l.cfg.Pcur,
		Dmin:        l.cfg.Dmin,
		Dmax:        l.cfg.Dmax,
		Dcur:        l.cfg.Dcur,
		State:       state.StateAlive,
		Incarnation: 0,
		StateChange: time.Now(),
	})

	l.wg.Add(6)
	go l.dispatchLoop()
	go l.streamLoop()
	go l.probeLoop()
	go l.gossipLoop()
	go l.pushPullLoop()
	go l.reapLoop()
}

func (l *loop) Shutdown() error {
	if !l.shutdown.CompareAndSwap(false, true) {
		return ErrAlreadyShutdown.Error()
	}
	close(l.stop)
	l.wg.Wait()
	return nil
}

func (l *loop) Members() []state.Member {
	out := make([]state.Member, 0, l.members.Len())
	l.members.Range(func(m state.Member) bool {
		out = append(out, m)
		return true
	})
	return out
}

func (l *loop) LocalName() string {
	return l.cfg.Name
}

func (l *loop) Broadcasts() broadcast.Queue {
	return l.bq
}

func (l *loop) local() state.Member {
	m, _ := l.members.Get(l.cfg.Name)
	return m
}

func (l *loop) retransmitLimit() int {
	return broadcast.RetransmitLimit(l.cfg.RetransmitMult, l.members.Len())
}

// --- dispatch -------------------------------------------------------------

func (l *loop) dispatchLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stop:
			return
		case pkt, ok := <-l.tr.PacketStream():
			if !ok {
				return
			}
			l.handlePacket(pkt.Buf, pkt.From)
		}
	}
}

func (l *loop) handlePacket(buf []byte, from net.Addr) {
	var raw wire.Compound
	mt, err := l.codec.Decode(buf, &raw)
	if err == nil && mt == wire.CompoundMsg {
		for _, m := range raw.Messages {
			l.handlePacket(m, from)
		}
		return
	}

	switch mt {
	case wire.PingMsg:
		var p wire.Ping
		if _, err := l.codec.Decode(buf, &p); err == nil {
			l.handlePing(p, from)
		}
	case wire.IndirectPingMsg:
		var p wire.IndirectPing
		if _, err := l.codec.Decode(buf, &p); err == nil {
			l.handleIndirectPing(p)
		}
	case wire.AckRespMsg:
		var a wire.AckResp
		if _, err := l.codec.Decode(buf, &a); err == nil {
			l.handleAck(a)
		}
	case wire.NackRespMsg:
		// best-effort: NACKs only suppress a pending indirect wait; no
		// separate bookkeeping is required beyond letting the probe
		// timeout naturally when no ack arrives.
	case wire.SuspectMsg:
		var s wire.Suspect
		if _, err := l.codec.Decode(buf, &s); err == nil {
			l.handleSuspect(s)
		}
	case wire.AliveMsg:
		var a wire.Alive
		if _, err := l.codec.Decode(buf, &a); err == nil {
			l.handleAlive(a)
		}
	case wire.DeadMsg:
		var d wire.Dead
		if _, err := l.codec.Decode(buf, &d); err == nil {
			l.handleDead(d)
		}
	case wire.UserMsg:
		var u wire.User
		if _, err := l.codec.Decode(buf, &u); err == nil {
			l.delegate.NotifyMsg(u.Payload)
		}
	}
}

// streamLoop accepts incoming TCP connections (push-pull requests) and
// serves each on its own goroutine.
func (l *loop) streamLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stop:
			return
		case conn, ok := <-l.tr.StreamStream():
			if !ok {
				return
			}
			go l.serveStream(conn)
		}
	}
}

// serveStream responds to one inbound push-pull exchange: the initiator
// writes its header/nodes/user-state first, then reads ours back.
func (l *loop) serveStream(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	var remoteHeader wire.PushPullHeader
	if err := readFrame(conn, l.codec, &remoteHeader); err != nil {
		return
	}
	for i := 0; i < remoteHeader.Nodes; i++ {
		var n wire.PushNode
		if err := readFrame(conn, l.codec, &n); err != nil {
			return
		}
		l.mergeRemote(n)
	}
	if remoteHeader.UserStateLen > 0 {
		var u wire.User
		if err := readFrame(conn, l.codec, &u); err == nil {
			l.delegate.MergeRemoteState(u.Payload, remoteHeader.Join)
		}
	}

	local := l.snapshotPushNodes()
	userState := l.delegate.LocalState(remoteHeader.Join)

	header := wire.PushPullHeader{Nodes: len(local), UserStateLen: len(userState), Join: remoteHeader.Join}
	if err := writeFrame(conn, l.codec, wire.PushPullMsg, header); err != nil {
		return
	}
	for _, n := range local {
		if err := writeFrame(conn, l.codec, wire.PushPullMsg, n); err != nil {
			return
		}
	}
	if len(userState) > 0 {
		_ = writeFrame(conn, l.codec, wire.UserMsg, wire.User{Payload: userState})
	}
}

func (l *loop) handlePing(p wire.Ping, from net.Addr) {
	if p.Node != "" && p.Node != l.cfg.Name {
		return
	}
	ack := wire.AckResp{SeqNo: p.SeqNo}
	buf, err := l.codec.Encode(wire.AckRespMsg, ack)
	if err != nil {
		return
	}
	_, _ = l.tr.WriteTo(buf, from.String())
}

func (l *loop) handleIndirectPing(p wire.IndirectPing) {
	target := net.JoinHostPort(net.IP(p.Target).String(), portStr(p.Port))
	ping := wire.Ping{SeqNo: p.SeqNo, Node: p.Node}
	buf, err := l.codec.Encode(wire.PingMsg, ping)
	if err != nil {
		return
	}
	_, _ = l.tr.WriteTo(buf, target)
}

func (l *loop) handleAck(a wire.AckResp) {
	l.acksMu.Lock()
	ch, ok := l.acks[a.SeqNo]
	l.acksMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- ackResult{payload: a.Payload}:
	default:
	}
}

func (l *loop) handleSuspect(s wire.Suspect) {
	if s.Node == l.cfg.Name {
		l.refute(s.Incarnation)
		return
	}

	m, ok := l.members.Get(s.Node)
	if !ok || m.State != state.StateAlive || m.Incarnation > s.Incarnation {
		// already suspect/dead, or a stale incarnation: treat as a
		// confirmation instead of a new suspicion.
		l.confirmSuspicion(s.Node, s.From)
		return
	}

	m.State = state.StateSuspect
	m.StateChange = time.Now()
	l.members.Upsert(m)

	l.startSuspicion(s.Node, s.Incarnation)
	l.rebroadcast(wire.SuspectMsg, s, s.Node)
}

func (l *loop) handleAlive(a wire.Alive) {
	if !versionCompatible(l.cfg.Pmin, l.cfg.Pmax, a.Vsn[2]) {
		return
	}

	prev, existed := l.members.Get(a.Node)
	if existed && prev.Incarnation >= a.Incarnation && prev.State == state.StateAlive {
		return
	}

	m := state.Member{
		Name:        a.Node,
		Addr:        net.IP(a.Addr),
		Port:        a.Port,
		Meta:        a.Meta,
		Pmin:        a.Vsn[0], Pmax: a.Vsn[1], Pcur: a.Vsn[2],
		Dmin: a.Vsn[3], Dmax: a.Vsn[4], Dcur: a.Vsn[5],
		State:       state.StateAlive,
		Incarnation: a.Incarnation,
		StateChange: time.Now(),
	}
	if existed {
		m.Status = prev.Status
		m.StatusLTime = prev.StatusLTime
		m.Tags = prev.Tags
	} else {
		m.Tags = state.DecodeTags(a.Meta)
	}
	l.members.Upsert(m)
	l.clearSuspicion(a.Node)

	l.rebroadcast(wire.AliveMsg, a, a.Node)

	if !existed || prev.State != state.StateAlive {
		l.delegate.NotifyJoin(m)
	} else {
		l.delegate.NotifyUpdate(m)
	}
}

func (l *loop) handleDead(d wire.Dead) {
	if d.Node == l.cfg.Name {
		l.refute(d.Incarnation)
		return
	}

	m, ok := l.members.Get(d.Node)
	if !ok || m.Incarnation > d.Incarnation || m.State == state.StateDead {
		return
	}

	m.State = state.StateDead
	m.StateChange = time.Now()
	l.members.Upsert(m)
	l.clearSuspicion(d.Node)

	l.rebroadcast(wire.DeadMsg, d, d.Node)
	l.delegate.NotifyLeave(m, d.From == d.Node)
}

// --- refutation / suspicion ------------------------------------------------

func (l *loop) refute(challenged uint32) {
	next, ok := l.mach.Refute(l.cfg.Name, challenged)
	if !ok {
		return
	}
	m, _ := l.members.Get(l.cfg.Name)
	m.Incarnation = next
	m.State = state.StateAlive
	m.StateChange = time.Now()
	l.members.Upsert(m)

	alive := wire.Alive{
		Incarnation: next,
		Node:        l.cfg.Name,
		Addr:        []byte(l.cfg.Addr),
		Port:        l.cfg.Port,
		Vsn:         [6]byte{l.cfg.Pmin, l.cfg.Pmax, l.cfg.Pcur, l.cfg.Dmin, l.cfg.Dmax, l.cfg.Dcur},
	}
	l.rebroadcast(wire.AliveMsg, alive, l.cfg.Name)
}

func (l *loop) startSuspicion(name string, incarnation uint32) {
	l.suspectsMu.Lock()
	defer l.suspectsMu.Unlock()

	if _, ok := l.suspects[name]; ok {
		return
	}

	min := l.cfg.ProbeInterval * time.Duration(l.cfg.SuspicionMult)
	max := min * time.Duration(max1(l.cfg.SuspicionMaxTimeoutMult))

	timer := suspicion.New(min, max, l.cfg.IndirectChecks, name, func() {
		l.declareDead(name, incarnation)
	})

	l.suspects[name] = &suspectEntry{timer: timer, incarnation: incarnation}
}

func max1(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}

func (l *loop) confirmSuspicion(name, from string) {
	l.suspectsMu.Lock()
	e, ok := l.suspects[name]
	l.suspectsMu.Unlock()
	if !ok || from == name {
		return
	}
	e.timer.Confirm(from)
}

func (l *loop) clearSuspicion(name string) {
	l.suspectsMu.Lock()
	e, ok := l.suspects[name]
	if ok {
		delete(l.suspects, name)
	}
	l.suspectsMu.Unlock()
	if ok {
		e.timer.Stop()
	}
}

func (l *loop) declareDead(name string, incarnation uint32) {
	l.suspectsMu.Lock()
	delete(l.suspects, name)
	l.suspectsMu.Unlock()

	m, ok := l.members.Get(name)
	if !ok || m.State == state.StateDead || m.Incarnation > incarnation {
		return
	}

	m.State = state.StateDead
	m.StateChange = time.Now()
	l.members.Upsert(m)

	l.delegate.NotifyLeave(m, false)
	l.rebroadcast(wire.DeadMsg, wire.Dead{Incarnation: incarnation, Node: name, From: l.cfg.Name}, name)
}

func (l *loop) rebroadcast(mt wire.MessageType, body interface{}, name string) {
	buf, err := l.codec.Encode(mt, body)
	if err != nil {
		return
	}
	l.bq.Push(name, buf, nil)
}

// --- tickers ----------------------------------------------------------------

func (l *loop) probeLoop() {
	defer l.wg.Done()

	for {
		interval := l.aw.ScaleInterval(l.cfg.ProbeInterval)
		select {
		case <-l.stop:
			return
		case <-time.After(interval):
			l.probeOnce()
		}
	}
}

func (l *loop) probeOnce() {
	peers := selectPeers(l.Members(), l.cfg.Name, 1, l.cfg.GossipToTheDeadTime, time.Now())
	if len(peers) == 0 {
		return
	}
	target := peers[0]

	seq := l.seq.Add(1)
	ch := make(chan ackResult, 1)
	l.acksMu.Lock()
	l.acks[seq] = ch
	l.acksMu.Unlock()
	defer func() {
		l.acksMu.Lock()
		delete(l.acks, seq)
		l.acksMu.Unlock()
	}()

	addr := net.JoinHostPort(target.Addr.String(), portStr(target.Port))
	ping := wire.Ping{SeqNo: seq, Node: target.Name, SourceNode: l.cfg.Name}
	buf, err := l.codec.Encode(wire.PingMsg, ping)
	if err != nil {
		return
	}
	l.piggyback(&buf)
	_, _ = l.tr.WriteTo(buf, addr)

	timeout := l.aw.ScaleTimeout(l.cfg.ProbeTimeout)
	select {
	case <-ch:
		l.aw.OnSuccess()
		return
	case <-time.After(timeout):
	}

	if l.indirectProbe(target, seq, ch) {
		l.aw.OnSuccess()
		return
	}

	l.aw.OnFailure()
	l.suspect(target)
}

func (l *loop) indirectProbe(target state.Member, seq uint32, ch chan ackResult) bool {
	relays := selectPeers(l.Members(), l.cfg.Name, l.cfg.IndirectChecks, l.cfg.GossipToTheDeadTime, time.Now())
	relays = removeMember(relays, target.Name)

	for _, r := range relays {
		ip := wire.IndirectPing{SeqNo: seq, Target: []byte(target.Addr), Port: target.Port, Node: target.Name, SourceNode: l.cfg.Name}
		buf, err := l.codec.Encode(wire.IndirectPingMsg, ip)
		if err != nil {
			continue
		}
		addr := net.JoinHostPort(r.Addr.String(), portStr(r.Port))
		_, _ = l.tr.WriteTo(buf, addr)
	}

	select {
	case <-ch:
		return true
	case <-time.After(l.cfg.ProbeTimeout):
		return false
	}
}

func (l *loop) suspect(target state.Member) {
	s := wire.Suspect{Incarnation: target.Incarnation, Node: target.Name, From: l.cfg.Name}

	target.State = state.StateSuspect
	target.StateChange = time.Now()
	l.members.Upsert(target)

	l.startSuspicion(target.Name, target.Incarnation)
	l.rebroadcast(wire.SuspectMsg, s, target.Name)
}

func (l *loop) gossipLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stop:
			return
		case <-time.After(l.cfg.GossipInterval):
			l.gossipOnce()
		}
	}
}

func (l *loop) gossipOnce() {
	targets := selectPeers(l.Members(), l.cfg.Name, l.cfg.GossipNodes, l.cfg.GossipToTheDeadTime, time.Now())
	if len(targets) == 0 {
		return
	}

	msgs := l.bq.GetBroadcasts(0, 1400, l.retransmitLimit())
	if len(msgs) == 0 {
		return
	}

	buf, err := l.codec.Encode(wire.CompoundMsg, wire.Compound{Messages: msgs})
	if err != nil {
		return
	}

	for _, t := range targets {
		addr := net.JoinHostPort(t.Addr.String(), portStr(t.Port))
		_, _ = l.tr.WriteTo(buf, addr)
	}
}

func (l *loop) pushPullLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stop:
			return
		case <-time.After(l.cfg.PushPullInterval):
			l.pushPullOnce()
		}
	}
}

func (l *loop) pushPullOnce() {
	targets := selectPeers(l.Members(), l.cfg.Name, 1, l.cfg.GossipToTheDeadTime, time.Now())
	if len(targets) == 0 {
		return
	}
	_ = l.pushPullWith(targets[0], false)
}

// pushPullWith performs one TCP push-pull exchange against peer. join
// distinguishes a Join-triggered exchange from the periodic ticker, passed
// through to the delegate's LocalState/MergeRemoteState.
func (l *loop) pushPullWith(peer state.Member, join bool) error {
	addr := net.JoinHostPort(peer.Addr.String(), portStr(peer.Port))
	conn, err := l.tr.DialTimeout(addr, l.cfg.TCPTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	local := l.snapshotPushNodes()
	userState := l.delegate.LocalState(join)

	header := wire.PushPullHeader{Nodes: len(local), UserStateLen: len(userState), Join: join}
	if err := writeFrame(conn, l.codec, wire.PushPullMsg, header); err != nil {
		return err
	}
	for _, n := range local {
		if err := writeFrame(conn, l.codec, wire.PushPullMsg, n); err != nil {
			return err
		}
	}
	if len(userState) > 0 {
		if err := writeFrame(conn, l.codec, wire.UserMsg, wire.User{Payload: userState}); err != nil {
			return err
		}
	}

	var remoteHeader wire.PushPullHeader
	if err := readFrame(conn, l.codec, &remoteHeader); err != nil {
		return err
	}
	for i := 0; i < remoteHeader.Nodes; i++ {
		var n wire.PushNode
		if err := readFrame(conn, l.codec, &n); err != nil {
			return err
		}
		if n.Name == peer.Name && !versionCompatible(l.cfg.Pmin, l.cfg.Pmax, n.Vsn[2]) {
			return ErrProtocolVersionMismatch.Error()
		}
		l.mergeRemote(n)
	}
	if remoteHeader.UserStateLen > 0 {
		var u wire.User
		if err := readFrame(conn, l.codec, &u); err == nil {
			l.delegate.MergeRemoteState(u.Payload, join)
		}
	}

	return nil
}

func (l *loop) snapshotPushNodes() []wire.PushNode {
	members := l.Members()
	out := make([]wire.PushNode, 0, len(members))
	for _, m := range members {
		out = append(out, wire.PushNode{
			Name:        m.Name,
			Addr:        []byte(m.Addr),
			Port:        m.Port,
			Meta:        m.Meta,
			Incarnation: m.Incarnation,
			State:       uint8(m.State),
			Vsn:         [6]byte{m.Pmin, m.Pmax, m.Pcur, m.Dmin, m.Dmax, m.Dcur},
		})
	}
	return out
}

func (l *loop) mergeRemote(n wire.PushNode) {
	if n.Name == l.cfg.Name {
		return
	}

	prev, existed := l.members.Get(n.Name)
	incoming := state.Member{
		Name:        n.Name,
		Addr:        net.IP(n.Addr),
		Port:        n.Port,
		Meta:        n.Meta,
		Incarnation: n.Incarnation,
		State:       state.MemberState(n.State),
		StateChange: time.Now(),
		Pmin:        n.Vsn[0], Pmax: n.Vsn[1], Pcur: n.Vsn[2],
		Dmin: n.Vsn[3], Dmax: n.Vsn[4], Dcur: n.Vsn[5],
	}

	if !existed {
		incoming.Tags = state.DecodeTags(incoming.Meta)
		l.members.Upsert(incoming)
		if incoming.State == state.StateAlive {
			l.delegate.NotifyJoin(incoming)
		}
		return
	}

	if !state.Preferred(incoming.State, prev.State) && incoming.Incarnation <= prev.Incarnation {
		return
	}

	incoming.Status = prev.Status
	incoming.StatusLTime = prev.StatusLTime
	l.members.Upsert(incoming)

	switch {
	case incoming.State == state.StateAlive && prev.State != state.StateAlive:
		l.delegate.NotifyJoin(incoming)
	case incoming.State != state.StateAlive && prev.State == state.StateAlive:
		l.delegate.NotifyLeave(incoming, incoming.State == state.StateLeft)
	}
}

func (l *loop) reapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.TombstoneTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			for _, o := range l.mach.Reap(l.cfg.TombstoneTimeout, time.Now()) {
				_ = o
			}
		}
	}
}

// --- join -------------------------------------------------------------------

func (l *loop) Join(addrs []string) (int, error) {
	ok := 0
	for _, addr := range addrs {
		ip, port, err := net.SplitHostPort(addr)
		if err != nil {
			continue
		}
		parsed := net.ParseIP(ip)
		if parsed == nil {
			continue
		}
		p := parsePort(port)
		m := state.Member{Name: addr, Addr: parsed, Port: p, State: state.StateAlive}
		if err := l.pushPullWith(m, true); err == nil {
			ok++
		}
	}
	if ok == 0 && len(addrs) > 0 {
		return 0, ErrJoinFailed.Error()
	}
	return ok, nil
}

// --- helpers -----------------------------------------------------------------

func (l *loop) piggyback(buf *[]byte) {
	msgs := l.bq.GetBroadcasts(0, 512, l.retransmitLimit())
	if len(msgs) == 0 {
		return
	}
	msgs = append(msgs, *buf)
	compound, err := l.codec.Encode(wire.CompoundMsg, wire.Compound{Messages: msgs})
	if err == nil {
		*buf = compound
	}
}

func removeMember(in []state.Member, name string) []state.Member {
	out := in[:0]
	for _, m := range in {
		if m.Name != name {
			out = append(out, m)
		}
	}
	return out
}

func portStr(p uint16) string {
	return strconv.Itoa(int(p))
}

func parsePort(s string) uint16 {
	v, _ := strconv.Atoi(s)
	return uint16(v)
}
