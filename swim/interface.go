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

// Package swim runs the membership protocol loop: probing, indirect
// probing, suspicion, gossip and push-pull anti-entropy over a
// transport.Transport, encoding packets with a wire.Codec and keeping
// state.Map as the authoritative membership-layer record. It never imports
// the orchestration layer directly; Delegate is the only way out, so the
// loop can be reused with any delegate (spec's "no back-pointer" rule).
package swim

import (
	"net"
	"time"

	"github.com/nabbar/flockd/awareness"
	"github.com/nabbar/flockd/broadcast"
	"github.com/nabbar/flockd/member"
	"github.com/nabbar/flockd/state"
	"github.com/nabbar/flockd/transport"
	"github.com/nabbar/flockd/wire"
)

// Delegate is the orchestration layer's hook into membership-layer events.
// Implementations must not block for long: the loop invokes these inline on
// its own goroutines.
type Delegate interface {
	// NotifyJoin fires when m is authoritatively observed alive (first
	// contact, or a resurrection from Suspect/Dead).
	NotifyJoin(m state.Member)

	// NotifyLeave fires when m authoritatively leaves, graceful
	// distinguishing a clean Left from a confirmed-dead Failed.
	NotifyLeave(m state.Member, graceful bool)

	// NotifyUpdate fires when an already-alive member's metadata changes.
	NotifyUpdate(m state.Member)

	// NotifyMsg delivers a piggybacked application payload carried in a
	// User broadcast.
	NotifyMsg(buf []byte)

	// LocalState returns the opaque application payload attached to an
	// outgoing push-pull exchange; join is true when this push-pull was
	// triggered by a Join call rather than the periodic ticker.
	LocalState(join bool) []byte

	// MergeRemoteState merges an opaque payload received from a push-pull
	// peer.
	MergeRemoteState(buf []byte, join bool)
}

// Config parameterises one Loop. All durations are pre-scaled by the chosen
// timing profile (LAN/WAN/local) before being passed in here.
type Config struct {
	Name string
	Addr net.IP
	Port uint16

	Pmin, Pmax, Pcur byte
	Dmin, Dmax, Dcur byte

	ProbeInterval  time.Duration
	ProbeTimeout   time.Duration
	IndirectChecks int

	SuspicionMult           int
	SuspicionMaxTimeoutMult int

	GossipInterval      time.Duration
	GossipNodes         int
	GossipToTheDeadTime time.Duration

	PushPullInterval time.Duration
	TCPTimeout       time.Duration

	TombstoneTimeout time.Duration
	AwarenessMax     int

	RetransmitMult int
}

// Loop runs the SWIM protocol. It owns no orchestration-layer semantics:
// Status/StatusLTime bookkeeping is the delegate's job via member.Machine.
type Loop interface {
	// Start begins the probe/gossip/push-pull/reap tickers and the packet
	// dispatch loop.
	Start()

	// Shutdown stops every ticker and the dispatch loop. Idempotent.
	Shutdown() error

	// Join contacts each address with a push-pull exchange, merging their
	// membership view into ours. It returns the number of addresses that
	// succeeded.
	Join(addrs []string) (int, error)

	// Members returns a snapshot of every known member.
	Members() []state.Member

	// LocalName returns this node's name.
	LocalName() string

	// Broadcasts returns the outbound gossip queue, so the orchestration
	// layer can piggyback Join/Leave/UserEvent/Query traffic on it.
	Broadcasts() broadcast.Queue
}

// New wires a Loop over the given collaborators.
func New(cfg Config, tr transport.Transport, codec wire.Codec, members state.Map, mach member.Machine, delegate Delegate) Loop {
	l := &loop{
		cfg:      cfg,
		tr:       tr,
		codec:    codec,
		members:  members,
		mach:     mach,
		delegate: delegate,
		bq:       broadcast.New(),
		aw:       awareness.New(cfg.AwarenessMax),
		acks:     make(map[uint32]chan ackResult),
		suspects: make(map[string]*suspectEntry),
		stop:     make(chan struct{}),
	}
	return l
}
