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
	"reflect"
	"sync"

	ugcodec "github.com/ugorji/go/codec"
)

func msgpackHandle() *ugcodec.MsgpackHandle {
	mh := &ugcodec.MsgpackHandle{}
	mh.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return mh
}

type server struct {
	addr    string
	authKey string
	backend Backend

	ln net.Listener

	mu    sync.Mutex
	conns map[*serverConn]struct{}

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a control server listening on addr (host:port, or ":0" for an
// ephemeral port) and dispatching commands to backend. An empty authKey
// disables the auth gate entirely (handshake is still required).
func New(addr string, backend Backend, authKey string) Server {
	return &server{
		addr:    addr,
		authKey: authKey,
		backend: backend,
		conns:   make(map[*serverConn]struct{}),
		stop:    make(chan struct{}),
	}
}

func (s *server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return ErrListenFailed.Error()
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *server) acceptLoop() {
	defer s.wg.Done()

	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}

		c := newServerConn(nc, s.backend, s.authKey)
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve()
			s.mu.Lock()
			delete(s.conns, c)
			s.mu.Unlock()
		}()
	}
}

func (s *server) Shutdown() error {
	close(s.stop)
	if s.ln != nil {
		_ = s.ln.Close()
	}

	s.mu.Lock()
	for c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
