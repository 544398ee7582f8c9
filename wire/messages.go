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

package wire

// Ping is a direct probe.
type Ping struct {
	SeqNo       uint32
	Node        string
	SourceAddr  []byte `codec:",omitempty"`
	SourcePort  uint16
	SourceNode  string
}

// IndirectPing asks a relay to probe Node on the sender's behalf.
type IndirectPing struct {
	SeqNo      uint32
	Target     []byte
	Port       uint16
	Node       string
	Nack       bool
	SourceAddr []byte `codec:",omitempty"`
	SourcePort uint16
	SourceNode string
}

// AckResp acknowledges a Ping or IndirectPing.
type AckResp struct {
	SeqNo   uint32
	Payload []byte `codec:",omitempty"`
}

// NackResp reports that a relay could not deliver an IndirectPing.
type NackResp struct {
	SeqNo uint32
}

// Suspect gossips that Node may be dead, as of Incarnation.
type Suspect struct {
	Incarnation uint32
	Node        string
	From        string
}

// Alive gossips that Node is alive, carrying its negotiated protocol
// versions and opaque metadata.
type Alive struct {
	Incarnation uint32
	Node        string
	Addr        []byte
	Port        uint16
	Meta        []byte `codec:",omitempty"`
	Vsn         [6]byte
}

// Dead gossips that Node has been confirmed dead.
type Dead struct {
	Incarnation uint32
	Node        string
	From        string
}

// PushNode is one node record exchanged during push-pull anti-entropy.
type PushNode struct {
	Name        string
	Addr        []byte
	Port        uint16
	Meta        []byte `codec:",omitempty"`
	Incarnation uint32
	State       uint8
	Vsn         [6]byte
}

// PushPullHeader precedes the node records and opaque user-state blob of a
// push-pull exchange.
type PushPullHeader struct {
	Nodes        int
	UserStateLen int
	Join         bool
}

// User wraps an opaque application payload (piggybacked broadcast, or a
// delegate-level message).
type User struct {
	Payload []byte
}

// Compound bundles several already fully-encoded packets (each the output of
// a separate Codec.Encode call) into one outer envelope, so a single UDP
// datagram can carry a probe plus piggybacked gossip. Use PackCompound
// instead when a tighter byte layout is needed without a second msgpack
// framing on top.
type Compound struct {
	Messages [][]byte
}

// Join is an orchestration-layer join intent.
type Join struct {
	LTime uint64
	Node  string
}

// Leave is an orchestration-layer leave intent.
type Leave struct {
	LTime uint64
	Node  string
}

// UserEvent is an application-named event carrying the event Lamport clock.
type UserEvent struct {
	LTime    uint64
	Name     string
	Payload  []byte `codec:",omitempty"`
	CoalesceOK bool
}

// Query is a fan-out request carrying filters and relay/ack parameters.
type Query struct {
	LTime       uint64
	ID          uint32
	SourceNode  string
	SourceAddr  []byte `codec:",omitempty"`
	SourcePort  uint16
	Filters     [][]byte `codec:",omitempty"`
	Flags       uint32
	RelayFactor uint8
	Timeout     uint64 // nanoseconds
	Payload     []byte `codec:",omitempty"`
}

// QueryResponse carries an ack or a response payload back to the query
// originator.
type QueryResponse struct {
	LTime   uint64
	ID      uint32
	From    string
	Flags   uint32
	Payload []byte `codec:",omitempty"`
}

// Relay wraps another message so it can be forwarded through an
// intermediate node toward a destination address.
type Relay struct {
	DestAddr []byte
	DestPort uint16
	Payload  []byte
}

// KeyRequest asks every member to perform a keyring operation.
type KeyRequest struct {
	Op  uint8 // 0=install, 1=use, 2=remove, 3=list
	Key []byte `codec:",omitempty"`
}

// KeyResponse reports the result of a KeyRequest from one member.
type KeyResponse struct {
	Result   bool
	Message  string `codec:",omitempty"`
	Keys     [][]byte `codec:",omitempty"`
	PrimaryKey []byte `codec:",omitempty"`
}

// StatusEntry is one member's orchestration-layer status, as opposed to the
// membership-layer State carried by PushNode/Alive.
type StatusEntry struct {
	Name        string
	Status      uint8
	StatusLTime uint64
}

// StatusSync is the delegate-level push-pull payload: the sender's view of
// every member's orchestration Status/StatusLTime, which PushNode does not
// carry.
type StatusSync struct {
	Entries []StatusEntry
}
