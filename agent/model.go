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
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/flockd/clock"
	"github.com/nabbar/flockd/config"
	"github.com/nabbar/flockd/control"
	"github.com/nabbar/flockd/event"
	"github.com/nabbar/flockd/keyring"
	"github.com/nabbar/flockd/logger"
	"github.com/nabbar/flockd/member"
	"github.com/nabbar/flockd/metrics"
	"github.com/nabbar/flockd/snapshot"
	"github.com/nabbar/flockd/state"
	"github.com/nabbar/flockd/swim"
	"github.com/nabbar/flockd/transport"
	"github.com/nabbar/flockd/wire"
)

type queryKey struct {
	ltime clock.LTime
	id    uint32
}

type agentImpl struct {
	cfg  config.Config
	log  logger.Logger
	sink metrics.Sink

	tr      transport.Transport
	codec   wire.Codec
	kr      keyring.Keyring
	members state.Map
	mach    member.Machine
	loop    swim.Loop

	memberClock clock.Clock
	eventClock  clock.Clock
	queryClock  clock.Clock

	memberCoalescer *event.MemberCoalescer
	userCoalescer   *event.UserEventCoalescer
	userBuffer      *event.UserEventBuffer
	queryDedupe     *event.QueryDedupe

	snap snapshot.Writer
	ctrl control.Server

	handlersMu sync.RWMutex
	handlers   []event.Sink

	queriesMu sync.Mutex
	queries   map[queryKey]*queryHandle
	querySeq  atomic.Uint32

	coordsMu        sync.Mutex
	localCoordinate []byte
	peerCoordinates map[string][]byte

	subsMu sync.Mutex
	subs   map[uint64]*subscription
	subSeq atomic.Uint64

	started atomic.Bool
	left    atomic.Bool

	retryStop chan struct{}
	retryWG   sync.WaitGroup
}

func newAgent(cfg config.Config, log logger.Logger, sink metrics.Sink, handlers []event.Sink) (*agentImpl, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if sink == nil {
		sink = metrics.Nop()
	}

	secretKey, err := resolveSecretKey(cfg.SecretKey, cfg.SecretKeySourceURL)
	if err != nil {
		return nil, err
	}

	kr, err := keyring.New(secretKey, cfg.SecretKeyring...)
	if err != nil {
		return nil, err
	}

	a := &agentImpl{
		cfg:             cfg,
		log:             log,
		sink:            sink,
		kr:              kr,
		members:         state.New(),
		handlers:        append([]event.Sink(nil), handlers...),
		queries:         make(map[queryKey]*queryHandle),
		peerCoordinates: make(map[string][]byte),
		subs:            make(map[uint64]*subscription),
	}
	a.mach = member.New(a.members)

	return a, nil
}

func (a *agentImpl) Start() error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted.Error()
	}

	pmin, pmax, pcur, dmin, dmax, dcur, err := protocolBytes(a.cfg.ProtocolVersion)
	if err != nil {
		a.started.Store(false)
		return err
	}

	a.codec = wire.NewWithKeySource(wire.Options{
		Label:          a.cfg.Label,
		VerifyIncoming: a.cfg.GossipVerifyIncoming,
		VerifyOutgoing: a.cfg.GossipVerifyOutgoing,
		Compress:       a.cfg.EnableCompression,
		UseCRC:         true,
	}, a.kr)

	tr, err := transport.New(transport.Config{
		BindAddr:      a.cfg.BindAddr,
		BindPort:      int(a.cfg.BindPort),
		UDPBufferSize: a.cfg.UDPBufferSize,
	})
	if err != nil {
		a.started.Store(false)
		return ErrTransportBind.Error(err)
	}
	a.tr = tr

	advIP, advPort, err := tr.FinalAdvertiseAddr(a.cfg.AdvertiseAddr, int(a.cfg.AdvertisePort))
	if err != nil {
		a.started.Store(false)
		_ = tr.Shutdown()
		return ErrTransportBind.Error(err)
	}

	snapState, err := a.openSnapshot()
	if err != nil {
		a.started.Store(false)
		_ = tr.Shutdown()
		return err
	}

	a.memberClock = clock.NewFrom(snapState.LastClock)
	a.eventClock = clock.NewFrom(snapState.LastEventClock)
	a.queryClock = clock.NewFrom(snapState.LastQueryClock)

	a.memberCoalescer = event.NewMemberCoalescer(a.dispatchEvent, a.cfg.MemberCoalescePeriod.Time(), a.cfg.MemberQuiescentPeriod.Time())
	a.userCoalescer = event.NewUserEventCoalescer(a.dispatchEvent, a.cfg.UserEventCoalesceWindow.Time())
	a.userBuffer = event.NewUserEventBuffer(a.cfg.UserEventBufferSize)
	a.queryDedupe = event.NewQueryDedupe(a.cfg.QueryDedupeCapacity)

	swimCfg := swim.Config{
		Name: a.cfg.NodeName,
		Addr: advIP,
		Port: uint16(advPort),

		Pmin: pmin, Pmax: pmax, Pcur: pcur,
		Dmin: dmin, Dmax: dmax, Dcur: dcur,

		ProbeInterval:  a.cfg.ProbeInterval.Time(),
		ProbeTimeout:   a.cfg.ProbeTimeout.Time(),
		IndirectChecks: a.cfg.IndirectChecks,

		SuspicionMult:           a.cfg.SuspicionMult,
		SuspicionMaxTimeoutMult: a.cfg.SuspicionMaxTimeoutMult,

		GossipInterval:      a.cfg.GossipInterval.Time(),
		GossipNodes:         a.cfg.GossipNodes,
		GossipToTheDeadTime: a.cfg.GossipToTheDeadTime.Time(),

		PushPullInterval: a.cfg.PushPullInterval.Time(),
		TCPTimeout:       a.cfg.TCPTimeout.Time(),

		TombstoneTimeout: a.cfg.TombstoneTimeout.Time(),
		AwarenessMax:     a.cfg.AwarenessMax,

		RetransmitMult: a.cfg.RetransmitMult,
	}

	a.loop = swim.New(swimCfg, a.tr, a.codec, a.members, a.mach, a)
	a.loop.Start()

	if err = a.recordLocalAlive(); err != nil && a.log != nil {
		a.log.Warning("agent: snapshot record of local node failed", err)
	}

	ctrlAddr := net.JoinHostPort(a.cfg.ControlBindAddr, strconv.Itoa(int(a.cfg.ControlBindPort)))
	a.ctrl = control.New(ctrlAddr, a, a.cfg.ControlAuthKey)
	if err = a.ctrl.Start(); err != nil {
		a.started.Store(false)
		_ = a.loop.Shutdown()
		_ = a.tr.Shutdown()
		return ErrControlServe.Error(err)
	}

	a.retryStop = make(chan struct{})
	if len(snapState.Alive) > 0 && a.cfg.RejoinAfterLeave {
		addrs := make([]string, 0, len(snapState.Alive))
		for _, n := range snapState.Alive {
			addrs = append(addrs, n.Addr)
		}
		a.retryWG.Add(1)
		go a.retryJoin(addrs)
	}

	return nil
}

func (a *agentImpl) Shutdown() error {
	if !a.started.Load() {
		return ErrNotStarted.Error()
	}

	if a.retryStop != nil {
		close(a.retryStop)
		a.retryWG.Wait()
	}

	if a.ctrl != nil {
		_ = a.ctrl.Shutdown()
	}

	a.closeAllSubscriptions()

	var err error
	if a.loop != nil {
		err = a.loop.Shutdown()
	}
	if a.memberCoalescer != nil {
		a.memberCoalescer.Stop()
	}
	if a.userCoalescer != nil {
		a.userCoalescer.Stop()
	}
	if a.tr != nil {
		_ = a.tr.Shutdown()
	}
	if a.snap != nil {
		_ = a.snap.Close()
	}

	a.started.Store(false)
	return err
}

func (a *agentImpl) Leave() error {
	if !a.started.Load() {
		return ErrNotStarted.Error()
	}
	if !a.left.CompareAndSwap(false, true) {
		return ErrAlreadyLeft.Error()
	}

	lt := a.memberClock.Increment()
	a.broadcastLeave(a.cfg.NodeName, lt)

	if outcome := a.mach.LeaveIntent(a.cfg.NodeName, lt); outcome.Result != member.Rejected {
		a.noteMemberOutcome(outcome)
	}

	if a.snap != nil {
		_ = a.snap.RecordLeave()
	}

	time.Sleep(a.cfg.BroadcastTimeout.Time())
	time.Sleep(a.cfg.LeavePropagateDelay.Time())

	if outcome := a.mach.LeaveComplete(a.cfg.NodeName); outcome.Event != member.EventNone {
		a.noteMemberOutcome(outcome)
	}

	return nil
}

func (a *agentImpl) Join(addrs []string, replay bool) (int, error) {
	if !a.started.Load() {
		return 0, ErrNotStarted.Error()
	}

	// replay only matters at Start, where the snapshot's last known-alive
	// set seeds the background retryJoin loop; a later explicit Join call
	// always uses exactly the addresses the caller passed.
	n, err := a.loop.Join(addrs)
	if n > 0 {
		lt := a.memberClock.Increment()
		a.broadcastJoin(a.cfg.NodeName, lt)
		a.noteMemberOutcome(a.mach.JoinIntent(a.cfg.NodeName, lt))
		a.left.Store(false)
	}
	return n, err
}

func (a *agentImpl) ForceLeave(name string, prune bool) error {
	if !a.started.Load() {
		return ErrNotStarted.Error()
	}

	outcome := a.mach.NotifyLeave(name, false)
	if outcome.Event != member.EventNone {
		a.noteMemberOutcome(outcome)
	}

	if prune {
		a.members.Delete(name)
	}

	return nil
}

func (a *agentImpl) MembersState() []state.Member {
	if !a.started.Load() {
		return nil
	}
	return a.loop.Members()
}

func (a *agentImpl) LocalName() string {
	return a.cfg.NodeName
}

func (a *agentImpl) UpdateEventHandlers(handlers ...event.Sink) {
	cp := append([]event.Sink(nil), handlers...)
	a.handlersMu.Lock()
	a.handlers = cp
	a.handlersMu.Unlock()
}

// dispatchEvent is the coalescers' sink: it fans the coalesced event out to
// every registered external handler (each isolated from the others'
// panics), and to every live control-protocol subscription whose filter
// matches.
func (a *agentImpl) dispatchEvent(ev event.Event) {
	a.handlersMu.RLock()
	handlers := a.handlers
	a.handlersMu.RUnlock()

	for _, h := range handlers {
		a.safeInvoke(h, ev)
	}

	a.publishToSubscriptions(ev)
}

func (a *agentImpl) safeInvoke(h event.Sink, ev event.Event) {
	defer func() {
		if r := recover(); r != nil && a.log != nil {
			a.log.Error("agent: event handler panicked", fmt.Errorf("%v", r))
		}
	}()
	h(ev)
}
