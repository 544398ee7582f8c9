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

import "github.com/nabbar/flockd/snapshot"

// openSnapshot opens cfg.SnapshotPath, if configured, replaying its last
// known state. An empty path disables persistence entirely: Start proceeds
// with a zero-value snapshot.State and a.snap stays nil, which every other
// snapshot call site already treats as "persistence disabled".
func (a *agentImpl) openSnapshot() (snapshot.State, error) {
	if a.cfg.SnapshotPath == "" {
		return snapshot.State{}, nil
	}

	w, st, err := snapshot.Open(a.cfg.SnapshotPath, snapshot.Options{
		FlushInterval:           a.cfg.SnapshotFlushInterval.Time(),
		FlushRecords:            a.cfg.SnapshotFlushRecords,
		CompactionCheckInterval: a.cfg.SnapshotCompactionInterval.Time(),
		CompactionFactor:        a.cfg.SnapshotCompactionFactor,
		Live:                    a.members.Len,
	})
	if err != nil {
		return snapshot.State{}, ErrSnapshotOpen.Error(err)
	}

	a.snap = w
	return st, nil
}

// recordLocalAlive writes this node's own address to the snapshot right
// after the SWIM loop has upserted its local record, so a crash immediately
// after Start still leaves a usable address to rejoin through.
func (a *agentImpl) recordLocalAlive() error {
	if a.snap == nil {
		return nil
	}
	local, ok := a.members.Get(a.cfg.NodeName)
	if !ok {
		return nil
	}
	return a.snap.RecordAlive(local.Name, hostPort(local.Addr, local.Port))
}
