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

package control

import (
	"net"
	"sync"

	ugcodec "github.com/ugorji/go/codec"
)

// serverConn is one client connection's handshake/auth state and its live
// streaming subscriptions (monitor/stream/query), each cancelable
// independently by a "stop" command or by the connection closing.
type serverConn struct {
	nc      net.Conn
	backend Backend
	authKey string

	enc *ugcodec.Encoder
	dec *ugcodec.Decoder

	writeMu sync.Mutex

	handshaken bool
	authed     bool

	streamsMu sync.Mutex
	streams   map[uint64]func()

	closeOnce sync.Once
}

func newServerConn(nc net.Conn, backend Backend, authKey string) *serverConn {
	mh := msgpackHandle()
	return &serverConn{
		nc:      nc,
		backend: backend,
		authKey: authKey,
		enc:     ugcodec.NewEncoder(nc, mh),
		dec:     ugcodec.NewDecoder(nc, mh),
		streams: make(map[uint64]func()),
	}
}

func (c *serverConn) close() {
	c.closeOnce.Do(func() {
		_ = c.nc.Close()
	})
}

func (c *serverConn) serve() {
	defer c.cancelAllStreams()
	defer c.close()

	for {
		var req Request
		if err := c.dec.Decode(&req); err != nil {
			return
		}
		c.handle(req)
	}
}

func (c *serverConn) writeResponse(resp Response) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.enc.Encode(&resp)
}

func (c *serverConn) cancelAllStreams() {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()
	for seq, cancel := range c.streams {
		cancel()
		delete(c.streams, seq)
	}
}

func (c *serverConn) handle(req Request) {
	if !knownCommands[req.Command] {
		c.writeResponse(Response{Seq: req.Seq, Error: protoUnsupportedCmd})
		return
	}

	if req.Command == CmdHandshake {
		if c.handshaken {
			c.writeResponse(Response{Seq: req.Seq, Error: protoDuplicateHandshk})
			return
		}
		c.handshaken = true
		c.writeResponse(Response{Seq: req.Seq})
		return
	}

	if !c.handshaken {
		c.writeResponse(Response{Seq: req.Seq, Error: protoHandshakeRequired})
		return
	}

	if req.Command == CmdAuth {
		token, _ := req.Params["token"].(string)
		if c.authKey != "" && token != c.authKey {
			c.writeResponse(Response{Seq: req.Seq, Error: protoInvalidAuthToken})
			return
		}
		c.authed = true
		c.writeResponse(Response{Seq: req.Seq})
		return
	}

	if c.authKey != "" && !c.authed {
		c.writeResponse(Response{Seq: req.Seq, Error: protoAuthRequired})
		return
	}

	c.dispatch(req)
}

func (c *serverConn) dispatch(req Request) {
	switch req.Command {
	case CmdMembers, CmdMembersFiltered:
		c.writeResponse(Response{Seq: req.Seq, Result: c.backend.Members()})

	case CmdJoin:
		addrs := toStringSlice(req.Params["addrs"])
		replay := boolVal(req.Params["replay"])
		n, err := c.backend.Join(addrs, replay)
		if err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq, Result: n})

	case CmdLeave:
		if err := c.backend.Leave(); err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq})

	case CmdForceLeave:
		name := strVal(req.Params["name"])
		prune := boolVal(req.Params["prune"])
		if err := c.backend.ForceLeave(name, prune); err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq})

	case CmdEvent:
		name := strVal(req.Params["name"])
		payload := bytesVal(req.Params["payload"])
		coalesce := boolVal(req.Params["coalesce"])
		if err := c.backend.UserEvent(name, payload, coalesce); err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq})

	case CmdQuery:
		c.handleQuery(req)

	case CmdTags:
		tags := toStringMap(req.Params["tags"])
		if err := c.backend.SetTags(tags); err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq})

	case CmdStats:
		c.writeResponse(Response{Seq: req.Seq, Result: c.backend.Stats()})

	case CmdGetCoordinate:
		name := strVal(req.Params["name"])
		coord, ok := c.backend.GetCoordinate(name)
		if !ok {
			c.writeResponse(Response{Seq: req.Seq, Error: "unknown node"})
			return
		}
		c.writeResponse(Response{Seq: req.Seq, Result: coord})

	case CmdInstallKey:
		if err := c.backend.InstallKey(bytesVal(req.Params["key"])); err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq})

	case CmdUseKey:
		if err := c.backend.UseKey(bytesVal(req.Params["key"])); err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq})

	case CmdRemoveKey:
		if err := c.backend.RemoveKey(bytesVal(req.Params["key"])); err != nil {
			c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
			return
		}
		c.writeResponse(Response{Seq: req.Seq})

	case CmdListKeys:
		c.writeResponse(Response{Seq: req.Seq, Result: c.backend.ListKeys()})

	case CmdMonitor, CmdStream:
		c.handleSubscribe(req)

	case CmdStop:
		seq := uint64(intVal(req.Params["seq"]))
		c.streamsMu.Lock()
		cancel, ok := c.streams[seq]
		delete(c.streams, seq)
		c.streamsMu.Unlock()
		if ok {
			cancel()
		}
		c.writeResponse(Response{Seq: req.Seq})
	}
}

func (c *serverConn) handleQuery(req Request) {
	qr := QueryRequest{
		Name:         strVal(req.Params["name"]),
		Payload:      bytesVal(req.Params["payload"]),
		NamePatterns: toStringSlice(req.Params["name_patterns"]),
		Tags:         toStringMap(req.Params["tags"]),
		RelayFactor:  uint8(intVal(req.Params["relay_factor"])),
		RequestAck:   boolVal(req.Params["request_ack"]),
	}

	handle, err := c.backend.Query(qr)
	if err != nil {
		c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
		return
	}

	stop := make(chan struct{})
	var stopOnce sync.Once

	c.streamsMu.Lock()
	c.streams[req.Seq] = func() { stopOnce.Do(func() { close(stop) }) }
	c.streamsMu.Unlock()

	c.writeResponse(Response{Seq: req.Seq})
	go c.pumpQuery(req.Seq, handle, stop)
}

func (c *serverConn) pumpQuery(seq uint64, h QueryHandle, stop <-chan struct{}) {
	defer func() {
		c.streamsMu.Lock()
		delete(c.streams, seq)
		c.streamsMu.Unlock()
	}()

	for {
		select {
		case resp, ok := <-h.Responses():
			if !ok {
				return
			}
			c.writeResponse(Response{Seq: seq, Result: resp})
		case <-h.Done():
			return
		case <-stop:
			return
		}
	}
}

func (c *serverConn) handleSubscribe(req Request) {
	filter := EventFilter{
		Kinds:       toStringSlice(req.Params["kinds"]),
		NamePattern: strVal(req.Params["name_pattern"]),
	}

	sub, err := c.backend.Subscribe(filter)
	if err != nil {
		c.writeResponse(Response{Seq: req.Seq, Error: err.Error()})
		return
	}

	c.streamsMu.Lock()
	c.streams[req.Seq] = sub.Cancel
	c.streamsMu.Unlock()

	c.writeResponse(Response{Seq: req.Seq})
	go c.pumpStream(req.Seq, sub)
}

func (c *serverConn) pumpStream(seq uint64, sub Subscription) {
	defer func() {
		c.streamsMu.Lock()
		delete(c.streams, seq)
		c.streamsMu.Unlock()
	}()

	for ev := range sub.Events() {
		c.writeResponse(Response{Seq: seq, Result: ev})
	}
}
