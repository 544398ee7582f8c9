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

// Package control implements the agent's local control protocol: a
// MessagePack-framed TCP API a CLI or sidecar can use to drive membership,
// events, queries, and key management without linking against the gossip
// internals directly.
package control

import "time"

// Command names accepted by the control protocol.
const (
	CmdHandshake       = "handshake"
	CmdAuth            = "auth"
	CmdMembers         = "members"
	CmdMembersFiltered = "members-filtered"
	CmdJoin            = "join"
	CmdLeave           = "leave"
	CmdForceLeave      = "force-leave"
	CmdEvent           = "event"
	CmdQuery           = "query"
	CmdTags            = "tags"
	CmdStats           = "stats"
	CmdGetCoordinate   = "get-coordinate"
	CmdInstallKey      = "install-key"
	CmdUseKey          = "use-key"
	CmdRemoveKey       = "remove-key"
	CmdListKeys        = "list-keys"
	CmdMonitor         = "monitor"
	CmdStream          = "stream"
	CmdStop            = "stop"
)

var knownCommands = map[string]bool{
	CmdHandshake: true, CmdAuth: true, CmdMembers: true, CmdMembersFiltered: true,
	CmdJoin: true, CmdLeave: true, CmdForceLeave: true, CmdEvent: true,
	CmdQuery: true, CmdTags: true, CmdStats: true, CmdGetCoordinate: true,
	CmdInstallKey: true, CmdUseKey: true, CmdRemoveKey: true, CmdListKeys: true,
	CmdMonitor: true, CmdStream: true, CmdStop: true,
}

// Request is the single envelope every client command rides in; Params
// carries whatever fields that command needs, keyed by name.
type Request struct {
	Command string
	Seq     uint64
	Params  map[string]interface{}
}

// Response answers a Request. Streaming commands (monitor, stream) produce
// many Responses sharing the requesting Seq until the client sends "stop"
// or disconnects.
type Response struct {
	Seq    uint64
	Error  string `codec:",omitempty"`
	Result interface{} `codec:",omitempty"`
}

// Member is the wire-friendly membership record returned by "members".
type Member struct {
	Name   string
	Addr   string
	Tags   map[string]string
	Status string
}

// QueryRequest carries a query's filter and delivery parameters.
type QueryRequest struct {
	Name         string
	Payload      []byte
	NamePatterns []string
	Tags         map[string]string
	RelayFactor  uint8
	Timeout      time.Duration
	RequestAck   bool
}

// QueryResponse is one node's answer to a query.
type QueryResponse struct {
	From    string
	Payload []byte
}

// QueryHandle lets a caller drain a query's responses as they arrive.
type QueryHandle interface {
	Responses() <-chan QueryResponse
	Done() <-chan struct{}
}

// EventFilter scopes a "monitor"/"stream" subscription. Kinds is the set
// of event kinds to deliver ("member-join", "member-leave",
// "member-failed", "member-update", "member-reap", "user", "query"); an
// empty set means all kinds. NamePattern (anchored) additionally scopes
// user events by event name and member events by member name; query events
// are not scoped by it.
type EventFilter struct {
	Kinds       []string
	NamePattern string
}

// StreamEvent is one item pushed to a subscribed connection.
type StreamEvent struct {
	Kind     string
	Member   *Member
	UserName string
	Payload  []byte
}

// Subscription is a live event feed matching one EventFilter.
type Subscription interface {
	Events() <-chan StreamEvent
	Cancel()
}

// Backend is everything the control protocol needs from the running
// agent. It speaks only in plain, wire-friendly types so this package
// never has to import the gossip/orchestration internals.
type Backend interface {
	Members() []Member
	Join(addrs []string, replay bool) (int, error)
	Leave() error
	ForceLeave(name string, prune bool) error
	UserEvent(name string, payload []byte, coalesce bool) error
	Query(req QueryRequest) (QueryHandle, error)
	SetTags(tags map[string]string) error
	Stats() map[string]string
	GetCoordinate(name string) ([]byte, bool)
	InstallKey(key []byte) error
	UseKey(key []byte) error
	RemoveKey(key []byte) error
	ListKeys() [][]byte
	Subscribe(filter EventFilter) (Subscription, error)
}

// Server accepts control connections on a listener until Shutdown.
type Server interface {
	Start() error
	Shutdown() error
	Addr() string
}
