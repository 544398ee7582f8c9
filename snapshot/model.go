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

package snapshot

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/flockd/clock"
)

type writer struct {
	mu              sync.Mutex
	f               *os.File
	bw              *bufio.Writer
	bufferedRecords int
	opt             Options

	recordsSinceCompaction atomic.Int64

	aliveMu        sync.Mutex
	alive          map[string]string
	lastClock      clock.LTime
	lastEventClock clock.LTime
	lastQueryClock clock.LTime
	cleanLeave     bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// Open replays path (if it exists) into a State, truncating at the first
// malformed line found, then returns a Writer appending to the (now clean)
// tail of the file.
func Open(path string, opt Options) (Writer, State, error) {
	if opt.FlushInterval <= 0 {
		opt.FlushInterval = time.Second
	}
	if opt.FlushRecords <= 0 {
		opt.FlushRecords = 32
	}
	if opt.CompactionCheckInterval <= 0 {
		opt.CompactionCheckInterval = 30 * time.Second
	}
	if opt.CompactionFactor <= 0 {
		opt.CompactionFactor = 2
	}
	if opt.Live == nil {
		opt.Live = func() int { return 0 }
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, State{}, ErrOpenFile.Error()
	}

	st, badOffset, rerr := replay(f)
	if rerr != nil {
		_ = f.Close()
		return nil, State{}, rerr
	}
	if badOffset >= 0 {
		if err := f.Truncate(badOffset); err != nil {
			_ = f.Close()
			return nil, State{}, ErrReplayFailed.Error()
		}
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return nil, State{}, ErrOpenFile.Error()
	}

	alive := make(map[string]string, len(st.Alive))
	for _, a := range st.Alive {
		alive[a.Name] = a.Addr
	}

	w := &writer{
		f:              f,
		bw:             bufio.NewWriter(f),
		opt:            opt,
		alive:          alive,
		lastClock:      st.LastClock,
		lastEventClock: st.LastEventClock,
		lastQueryClock: st.LastQueryClock,
		cleanLeave:     st.CleanLeave,
		stop:           make(chan struct{}),
	}

	w.wg.Add(2)
	go w.compactLoop()
	go w.flushLoop()

	return w, st, nil
}

func (w *writer) appendLocked(line string) error {
	if _, err := w.bw.WriteString(line); err != nil {
		return ErrWriteRecord.Error()
	}
	if _, err := w.bw.WriteString("\n"); err != nil {
		return ErrWriteRecord.Error()
	}

	w.bufferedRecords++
	w.recordsSinceCompaction.Add(1)

	if w.bufferedRecords >= w.opt.FlushRecords {
		return w.flushLocked()
	}
	return nil
}

func (w *writer) flushLocked() error {
	if err := w.bw.Flush(); err != nil {
		return ErrWriteRecord.Error()
	}
	w.bufferedRecords = 0
	return nil
}

func (w *writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *writer) RecordAlive(name, addr string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.aliveMu.Lock()
	w.alive[name] = addr
	w.cleanLeave = false
	w.aliveMu.Unlock()

	return w.appendLocked(tagAlive + " " + name + " " + addr)
}

func (w *writer) RecordNotAlive(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.aliveMu.Lock()
	delete(w.alive, name)
	w.cleanLeave = false
	w.aliveMu.Unlock()

	return w.appendLocked(tagNotAlive + " " + name)
}

func (w *writer) RecordClock(t clock.LTime) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.aliveMu.Lock()
	w.lastClock = t
	w.cleanLeave = false
	w.aliveMu.Unlock()

	return w.appendLocked(tagClock + " " + strconv.FormatUint(uint64(t), 10))
}

func (w *writer) RecordEventClock(t clock.LTime) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.aliveMu.Lock()
	w.lastEventClock = t
	w.cleanLeave = false
	w.aliveMu.Unlock()

	return w.appendLocked(tagEventClock + " " + strconv.FormatUint(uint64(t), 10))
}

func (w *writer) RecordQueryClock(t clock.LTime) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.aliveMu.Lock()
	w.lastQueryClock = t
	w.cleanLeave = false
	w.aliveMu.Unlock()

	return w.appendLocked(tagQueryClock + " " + strconv.FormatUint(uint64(t), 10))
}

func (w *writer) RecordLeave() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.aliveMu.Lock()
	w.cleanLeave = true
	w.aliveMu.Unlock()

	return w.appendLocked(tagLeave)
}

func (w *writer) RecordCoordinate(name string, coordinate []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.aliveMu.Lock()
	w.cleanLeave = false
	w.aliveMu.Unlock()

	return w.appendLocked(tagCoordinate + " " + name + " " + hex.EncodeToString(coordinate))
}

func (w *writer) Close() error {
	close(w.stop)
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushLocked(); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.f.Close(); err != nil {
		return ErrWriteRecord.Error()
	}
	return nil
}

func (w *writer) flushLoop() {
	defer w.wg.Done()

	t := time.NewTicker(w.opt.FlushInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			w.mu.Lock()
			if w.bufferedRecords > 0 {
				_ = w.flushLocked()
			}
			w.mu.Unlock()
		case <-w.stop:
			return
		}
	}
}

func (w *writer) compactLoop() {
	defer w.wg.Done()

	t := time.NewTicker(w.opt.CompactionCheckInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			w.maybeCompact()
		case <-w.stop:
			return
		}
	}
}

// maybeCompact rewrites the file once records appended since the last
// compaction exceed CompactionFactor times (the current live-record
// estimate + 1): a flapping cluster keeps emitting alive/not-alive pairs for
// the same few names, and replaying that history on every restart is
// wasted work once the file is mostly churn rather than live state.
func (w *writer) maybeCompact() {
	live := w.opt.Live()
	threshold := int64(w.opt.CompactionFactor) * int64(live+1)
	if w.recordsSinceCompaction.Load() <= threshold {
		return
	}
	w.compact()
}

func (w *writer) compact() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.flushLocked(); err != nil {
		return
	}

	w.aliveMu.Lock()
	alive := make(map[string]string, len(w.alive))
	for k, v := range w.alive {
		alive[k] = v
	}
	lastClock, lastEventClock, lastQueryClock, cleanLeave := w.lastClock, w.lastEventClock, w.lastQueryClock, w.cleanLeave
	w.aliveMu.Unlock()

	if err := w.f.Truncate(0); err != nil {
		return
	}
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return
	}
	w.bw = bufio.NewWriter(w.f)
	w.bufferedRecords = 0

	for name, addr := range alive {
		_ = w.appendLocked(tagAlive + " " + name + " " + addr)
	}
	_ = w.appendLocked(tagClock + " " + strconv.FormatUint(uint64(lastClock), 10))
	_ = w.appendLocked(tagEventClock + " " + strconv.FormatUint(uint64(lastEventClock), 10))
	_ = w.appendLocked(tagQueryClock + " " + strconv.FormatUint(uint64(lastQueryClock), 10))
	if cleanLeave {
		_ = w.appendLocked(tagLeave)
	}
	_ = w.flushLocked()

	w.recordsSinceCompaction.Store(0)
}
