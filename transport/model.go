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

package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	sockaddr "github.com/hashicorp/go-sockaddr"
)

const (
	minBackoff = 5 * time.Millisecond
	maxBackoff = time.Second
)

type netTransport struct {
	udp *net.UDPConn
	tcp *net.TCPListener

	bindPort int

	packets chan *Packet
	streams chan net.Conn

	shutdown atomic.Bool
	wg       sync.WaitGroup
}

func newNetTransport(cfg Config) (Transport, error) {
	udpAddr := &net.UDPAddr{IP: net.ParseIP(cfg.BindAddr), Port: cfg.BindPort}
	udp, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}

	tcpAddr := &net.TCPAddr{IP: net.ParseIP(cfg.BindAddr), Port: cfg.BindPort}
	tcp, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		_ = udp.Close()
		return nil, err
	}

	bufSize := cfg.UDPBufferSize
	if bufSize <= 0 {
		bufSize = 1400
	}

	t := &netTransport{
		udp:      udp,
		tcp:      tcp,
		bindPort: tcp.Addr().(*net.TCPAddr).Port,
		packets:  make(chan *Packet, 128),
		streams:  make(chan net.Conn, 128),
	}

	t.wg.Add(2)
	go t.readPackets(bufSize)
	go t.acceptStreams()

	return t, nil
}

func (t *netTransport) readPackets(bufSize int) {
	defer t.wg.Done()
	defer close(t.packets)

	backoff := minBackoff

	for {
		buf := make([]byte, bufSize)
		n, from, err := t.udp.ReadFrom(buf)
		if err != nil {
			if t.shutdown.Load() {
				return
			}
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = minBackoff

		pkt := &Packet{Buf: buf[:n], From: from, Timestamp: time.Now()}
		select {
		case t.packets <- pkt:
		default:
			// backlog full: discard this (newest) packet rather than
			// blocking the read loop.
		}
	}
}

func (t *netTransport) acceptStreams() {
	defer t.wg.Done()
	defer close(t.streams)

	backoff := minBackoff

	for {
		conn, err := t.tcp.Accept()
		if err != nil {
			if t.shutdown.Load() {
				return
			}
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = minBackoff

		select {
		case t.streams <- conn:
		default:
			_ = conn.Close()
		}
	}
}

func (t *netTransport) FinalAdvertiseAddr(ip string, port int) (net.IP, int, error) {
	if port <= 0 {
		port = t.bindPort
	}

	if ip != "" {
		parsed := net.ParseIP(ip)
		if parsed == nil {
			return nil, 0, ErrNoPrivateAddr.Error()
		}
		return parsed, port, nil
	}

	addr := t.udp.LocalAddr().(*net.UDPAddr)
	if !addr.IP.IsUnspecified() {
		return addr.IP, port, nil
	}

	private, err := sockaddr.GetPrivateIP()
	if err == nil && private != "" {
		if parsed := net.ParseIP(private); parsed != nil {
			return parsed, port, nil
		}
	}

	return net.IPv4(127, 0, 0, 1), port, nil
}

func (t *netTransport) WriteTo(buf []byte, addr string) (time.Time, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return time.Time{}, nil //nolint:nilerr // best-effort: unreachable/unresolvable destinations never error
	}

	_, _ = t.udp.WriteTo(buf, udpAddr)
	return time.Now(), nil
}

func (t *netTransport) PacketStream() <-chan *Packet {
	return t.packets
}

func (t *netTransport) DialTimeout(addr string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, timeout)
}

func (t *netTransport) StreamStream() <-chan net.Conn {
	return t.streams
}

func (t *netTransport) Shutdown() error {
	if !t.shutdown.CompareAndSwap(false, true) {
		return ErrAlreadyShutdown.Error()
	}

	_ = t.udp.Close()
	_ = t.tcp.Close()
	t.wg.Wait()

	return nil
}
