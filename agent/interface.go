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

// Package agent wires every other package into one running cluster node: it
// owns the gossip transport, wire codec and keyring, the membership
// state.Map and member.Machine, the three independent Lamport clocks
// (member, event, query), the swim.Loop and its Delegate hook, the event
// coalescing/dedupe/query pipeline, optional snapshot persistence, and the
// control-protocol server. It is the only package that imports all of them.
package agent

import (
	"github.com/nabbar/flockd/config"
	"github.com/nabbar/flockd/control"
	"github.com/nabbar/flockd/event"
	"github.com/nabbar/flockd/logger"
	"github.com/nabbar/flockd/metrics"
	"github.com/nabbar/flockd/state"
)

// Agent is one running cluster node. It embeds control.Backend, so an Agent
// can be handed directly to control.New as the backend for the control
// protocol; every Backend method additionally is this node's own Go-native
// API (no RPC round trip for in-process callers such as the CLI's
// foreground agent command).
type Agent interface {
	control.Backend

	// Start binds the transport, restores any snapshot, starts the SWIM
	// loop and the control-protocol server. When cfg.RejoinAfterLeave is set
	// and the snapshot lists previously alive members, it also begins the
	// background join-retry loop against those members' addresses.
	Start() error

	// Shutdown stops the control server, the SWIM loop and the snapshot
	// writer, and closes the transport. It does not announce a graceful
	// leave; call Leave first for that.
	Shutdown() error

	// MembersState returns the richer, Go-native membership view; Members
	// (from control.Backend) returns the wire-friendly projection of the
	// same data.
	MembersState() []state.Member

	// LocalName returns this node's name.
	LocalName() string

	// UpdateEventHandlers replaces the list of external event sinks invoked
	// (in order, each isolated from the others' panics) for every
	// coalesced member/user/query event.
	UpdateEventHandlers(handlers ...event.Sink)
}

// New builds an Agent from cfg. log receives every structured log line the
// agent and its collaborators emit; sink, if non-nil, receives gossip and
// protocol metrics. handlers are installed as the initial external event
// sinks (see UpdateEventHandlers).
func New(cfg config.Config, log logger.Logger, sink metrics.Sink, handlers ...event.Sink) (Agent, error) {
	return newAgent(cfg, log, sink, handlers)
}
