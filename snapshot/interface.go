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

// Package snapshot persists cluster membership and Lamport-clock state to a
// local append-only file, so an agent restarting after a crash rejoins with
// a recent address list and clocks that can't regress.
package snapshot

import (
	"time"

	"github.com/nabbar/flockd/clock"
)

// AliveNode is one reconstructed membership entry: enough to dial it again
// on restart without first hearing from the rest of the cluster.
type AliveNode struct {
	Name string
	Addr string
}

// State is the outcome of replaying a snapshot file at startup.
type State struct {
	Alive          []AliveNode
	LastClock      clock.LTime
	LastEventClock clock.LTime
	LastQueryClock clock.LTime

	// CleanLeave is true when the file's last record was a leave marker,
	// meaning the previous process shut down gracefully. A caller should
	// witness its local clocks past the replayed values regardless, but
	// only treat a crash-recovery path (clock bump beyond what gossip
	// would otherwise supply) as necessary when this is false.
	CleanLeave bool
}

// LiveEstimator reports how many alive-node records would be live right
// now, used to decide whether the on-disk file has accumulated enough
// dead weight (flapping churn, repeated clock bumps) to be worth
// compacting.
type LiveEstimator func() int

// Writer appends typed records to the snapshot file. All methods are safe
// for concurrent use.
type Writer interface {
	RecordAlive(name, addr string) error
	RecordNotAlive(name string) error
	RecordClock(t clock.LTime) error
	RecordEventClock(t clock.LTime) error
	RecordQueryClock(t clock.LTime) error
	RecordLeave() error
	RecordCoordinate(name string, coordinate []byte) error

	// Flush forces any buffered records to disk.
	Flush() error

	// Close flushes and releases the underlying file and background
	// goroutines.
	Close() error
}

// Options configures a snapshot file's buffering and compaction behavior.
type Options struct {
	// FlushInterval bounds how long a record may sit unflushed.
	FlushInterval time.Duration

	// FlushRecords flushes early once this many records are buffered.
	FlushRecords int

	// CompactionCheckInterval controls how often the background compactor
	// checks whether the file has grown past its live-size threshold.
	CompactionCheckInterval time.Duration

	// CompactionFactor triggers a rewrite once records written since the
	// last compaction exceed CompactionFactor * (LiveEstimate()+1). A factor
	// of 2 matches spec.md's "grown past twice the live estimate" rule.
	CompactionFactor int

	Live LiveEstimator
}
