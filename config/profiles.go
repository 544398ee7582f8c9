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

package config

import (
	"os"

	"github.com/nabbar/flockd/duration"
)

// DefaultLANConfig returns a Config tuned for a cluster whose members sit on
// the same low-latency network. Timings match the defaults enumerated for
// the core configuration record.
func DefaultLANConfig() Config {
	name, _ := os.Hostname()

	return Config{
		NodeName:                name,
		BindAddr:                "0.0.0.0",
		BindPort:                7946,
		ProtocolVersion:         "2-compat",
		TCPTimeout:              duration.Seconds(10),
		IndirectChecks:          3,
		RetransmitMult:          4,
		SuspicionMult:           4,
		SuspicionMaxTimeoutMult: 6,
		PushPullInterval:        duration.Seconds(30),
		ProbeInterval:           duration.Seconds(1),
		ProbeTimeout:            duration.ParseDuration(500_000_000),
		GossipInterval:          duration.ParseDuration(200_000_000),
		GossipNodes:             3,
		GossipToTheDeadTime:     duration.Seconds(30),
		GossipVerifyIncoming:    true,
		GossipVerifyOutgoing:    true,
		EnableCompression:       true,
		HandoffQueueDepth:       1024,
		UDPBufferSize:           1400,
		DeadNodeReclaimTime:     0,
		QueryTimeoutMult:        2,
		BroadcastTimeout:        duration.Seconds(5),
		LeavePropagateDelay:     duration.Seconds(1),
		TombstoneTimeout:        duration.Hours(24),
		ReconnectTimeout:        duration.Hours(72),
		UserEventSizeLimit:      9 * 1024,
		RejoinAfterLeave:        false,
		DisableCoordinates:      false,
		RetryInterval:           duration.Seconds(30),
		RetryMaxAttempts:        0,
		RetryMaxInterval:        duration.Minutes(5),
		AwarenessMax:            8,
		ControlBindAddr:         "127.0.0.1",
		ControlBindPort:         7373,
		MemberCoalescePeriod:    duration.ParseDuration(200_000_000),
		MemberQuiescentPeriod:   duration.ParseDuration(50_000_000),
		UserEventCoalesceWindow: duration.Seconds(1),
		UserEventBufferSize:     512,
		QueryDedupeCapacity:        1024,
		EventSubscriptionBuffer:    1024,
		SnapshotFlushInterval:      duration.Seconds(1),
		SnapshotFlushRecords:       128,
		SnapshotCompactionInterval: duration.Seconds(30),
		SnapshotCompactionFactor:   2,
	}
}

// DefaultWANConfig returns a Config tuned for a cluster spanning
// higher-latency, lossier links (cross-datacenter or cross-region). Probe
// and suspicion windows widen so that transient latency spikes do not cause
// false-positive failure detections.
func DefaultWANConfig() Config {
	c := DefaultLANConfig()

	c.TCPTimeout = duration.Seconds(30)
	c.SuspicionMult = 6
	c.PushPullInterval = duration.Minutes(1)
	c.ProbeInterval = duration.Seconds(5)
	c.ProbeTimeout = duration.Seconds(3)
	c.GossipInterval = duration.ParseDuration(500_000_000)
	c.GossipToTheDeadTime = duration.Minutes(1)
	c.BroadcastTimeout = duration.Seconds(15)

	return c
}

// DefaultLocalConfig returns a Config tuned for all-local-loopback clusters
// such as integration tests: timers are tightened so that membership
// convergence and failure detection complete quickly.
func DefaultLocalConfig() Config {
	c := DefaultLANConfig()

	c.TCPTimeout = duration.Seconds(1)
	c.IndirectChecks = 1
	c.RetransmitMult = 2
	c.SuspicionMult = 3
	c.PushPullInterval = duration.ParseDuration(200_000_000)
	c.ProbeInterval = duration.ParseDuration(200_000_000)
	c.ProbeTimeout = duration.ParseDuration(100_000_000)
	c.GossipInterval = duration.ParseDuration(100_000_000)
	c.GossipToTheDeadTime = duration.Seconds(3)
	c.BroadcastTimeout = duration.Seconds(1)

	return c
}
