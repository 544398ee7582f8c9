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

// Package transport provides the pluggable UDP/TCP I/O layer the SWIM loop
// runs on: best-effort UDP packet send/receive and TCP dial/accept, plus
// advertise-address resolution.
package transport

import (
	"net"
	"time"
)

// Packet is one received UDP datagram.
type Packet struct {
	Buf       []byte
	From      net.Addr
	Timestamp time.Time
}

// Transport is the capability set the SWIM loop depends on. Implementations
// must make WriteTo best-effort (unreachable destinations never error) and
// must keep PacketStream/StreamStream running until Shutdown.
type Transport interface {
	// FinalAdvertiseAddr returns the externally reachable address: if ip is
	// empty, it is derived from the bound socket; if the bound address is
	// the wildcard, a private interface address is picked, falling back to
	// loopback.
	FinalAdvertiseAddr(ip string, port int) (net.IP, int, error)

	// WriteTo sends buf to addr over UDP. It is best-effort: send errors to
	// an unreachable destination are swallowed, not returned.
	WriteTo(buf []byte, addr string) (time.Time, error)

	// PacketStream returns a channel of received packets; it is closed on
	// Shutdown.
	PacketStream() <-chan *Packet

	// DialTimeout opens a TCP connection to addr with the given deadline.
	DialTimeout(addr string, timeout time.Duration) (net.Conn, error)

	// StreamStream returns a channel of accepted TCP connections; it is
	// closed on Shutdown.
	StreamStream() <-chan net.Conn

	// Shutdown closes the listeners and ends both streams. Safe to call
	// more than once.
	Shutdown() error
}

// Config configures a new Transport.
type Config struct {
	BindAddr string
	BindPort int

	// UDPBufferSize bounds the size of a single read; SWIM caps datagrams
	// well below this.
	UDPBufferSize int
}

// New binds bindAddr:bindPort on both UDP and TCP and returns a running
// Transport.
func New(cfg Config) (Transport, error) {
	return newNetTransport(cfg)
}
