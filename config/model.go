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
	"github.com/nabbar/flockd/duration"
)

// Config is the full set of options that parameterize a gossip node: its
// identity on the wire, the SWIM timing profile it runs, the control-protocol
// and persistence knobs, and the security perimeter (keyring, CIDR allow-list).
//
// Every field has a spec-mandated default; the zero value of Config is not
// usable as-is and should be built from one of the DefaultLANConfig,
// DefaultWANConfig or DefaultLocalConfig profiles and then overridden.
type Config struct {
	// NodeName uniquely identifies this node on the cluster. Defaults to the
	// machine hostname when empty.
	NodeName string `json:"nodeName,omitempty" yaml:"nodeName,omitempty" toml:"nodeName,omitempty" mapstructure:"nodeName,omitempty"`

	// BindAddr is the local address the gossip transport listens on.
	BindAddr string `json:"bindAddr,omitempty" yaml:"bindAddr,omitempty" toml:"bindAddr,omitempty" mapstructure:"bindAddr,omitempty" validate:"required,ip|hostname"`

	// BindPort is the local UDP/TCP port the gossip transport listens on.
	BindPort uint16 `json:"bindPort,omitempty" yaml:"bindPort,omitempty" toml:"bindPort,omitempty" mapstructure:"bindPort,omitempty"`

	// AdvertiseAddr is the address advertised to peers, when different from BindAddr
	// (e.g. behind NAT).
	AdvertiseAddr string `json:"advertiseAddr,omitempty" yaml:"advertiseAddr,omitempty" toml:"advertiseAddr,omitempty" mapstructure:"advertiseAddr,omitempty"`

	// AdvertisePort is the port advertised to peers, when different from BindPort.
	AdvertisePort uint16 `json:"advertisePort,omitempty" yaml:"advertisePort,omitempty" toml:"advertisePort,omitempty" mapstructure:"advertisePort,omitempty"`

	// Label partitions the gossip wire: two peers interoperate only when their
	// labels match.
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty" mapstructure:"label,omitempty"`

	// ProtocolVersion selects the wire dialect spoken with peers.
	ProtocolVersion string `json:"protocolVersion,omitempty" yaml:"protocolVersion,omitempty" toml:"protocolVersion,omitempty" mapstructure:"protocolVersion,omitempty" validate:"required"`

	// TCPTimeout bounds any TCP dial/read/write used by push-pull sync and the
	// control protocol.
	TCPTimeout duration.Duration `json:"tcpTimeout,omitempty" yaml:"tcpTimeout,omitempty" toml:"tcpTimeout,omitempty" mapstructure:"tcpTimeout,omitempty"`

	// IndirectChecks is the number of peers asked to indirectly probe a
	// suspect member.
	IndirectChecks int `json:"indirectChecks,omitempty" yaml:"indirectChecks,omitempty" toml:"indirectChecks,omitempty" mapstructure:"indirectChecks,omitempty" validate:"gte=0"`

	// RetransmitMult scales how many times a broadcast is retransmitted,
	// proportional to log(N+1).
	RetransmitMult int `json:"retransmitMult,omitempty" yaml:"retransmitMult,omitempty" toml:"retransmitMult,omitempty" mapstructure:"retransmitMult,omitempty" validate:"gte=0"`

	// SuspicionMult scales the minimum suspicion timeout, proportional to
	// log(N+1).
	SuspicionMult int `json:"suspicionMult,omitempty" yaml:"suspicionMult,omitempty" toml:"suspicionMult,omitempty" mapstructure:"suspicionMult,omitempty" validate:"gte=0"`

	// SuspicionMaxTimeoutMult caps the suspicion timeout at this multiple of
	// the minimum.
	SuspicionMaxTimeoutMult int `json:"suspicionMaxTimeoutMult,omitempty" yaml:"suspicionMaxTimeoutMult,omitempty" toml:"suspicionMaxTimeoutMult,omitempty" mapstructure:"suspicionMaxTimeoutMult,omitempty" validate:"gte=0"`

	// PushPullInterval is the period between full state synchronizations.
	PushPullInterval duration.Duration `json:"pushPullInterval,omitempty" yaml:"pushPullInterval,omitempty" toml:"pushPullInterval,omitempty" mapstructure:"pushPullInterval,omitempty"`

	// ProbeInterval is the period between SWIM failure-detector probes.
	ProbeInterval duration.Duration `json:"probeInterval,omitempty" yaml:"probeInterval,omitempty" toml:"probeInterval,omitempty" mapstructure:"probeInterval,omitempty" validate:"required"`

	// ProbeTimeout bounds how long a direct probe waits for an ack before
	// falling back to indirect probing.
	ProbeTimeout duration.Duration `json:"probeTimeout,omitempty" yaml:"probeTimeout,omitempty" toml:"probeTimeout,omitempty" mapstructure:"probeTimeout,omitempty" validate:"required"`

	// GossipInterval is the period between gossip message transmissions.
	GossipInterval duration.Duration `json:"gossipInterval,omitempty" yaml:"gossipInterval,omitempty" toml:"gossipInterval,omitempty" mapstructure:"gossipInterval,omitempty" validate:"required"`

	// GossipNodes is the fanout: how many peers each gossip round targets.
	GossipNodes int `json:"gossipNodes,omitempty" yaml:"gossipNodes,omitempty" toml:"gossipNodes,omitempty" mapstructure:"gossipNodes,omitempty" validate:"gte=0"`

	// GossipToTheDeadTime is how long a dead member is still gossiped about
	// before being fully forgotten.
	GossipToTheDeadTime duration.Duration `json:"gossipToTheDeadTime,omitempty" yaml:"gossipToTheDeadTime,omitempty" toml:"gossipToTheDeadTime,omitempty" mapstructure:"gossipToTheDeadTime,omitempty"`

	// GossipVerifyIncoming enables signature/keyring verification of inbound
	// gossip packets.
	GossipVerifyIncoming bool `json:"gossipVerifyIncoming,omitempty" yaml:"gossipVerifyIncoming,omitempty" toml:"gossipVerifyIncoming,omitempty" mapstructure:"gossipVerifyIncoming,omitempty"`

	// GossipVerifyOutgoing enables encryption of outbound gossip packets
	// whenever a keyring is configured.
	GossipVerifyOutgoing bool `json:"gossipVerifyOutgoing,omitempty" yaml:"gossipVerifyOutgoing,omitempty" toml:"gossipVerifyOutgoing,omitempty" mapstructure:"gossipVerifyOutgoing,omitempty"`

	// EnableCompression toggles payload compression on the gossip wire.
	EnableCompression bool `json:"enableCompression,omitempty" yaml:"enableCompression,omitempty" toml:"enableCompression,omitempty" mapstructure:"enableCompression,omitempty"`

	// SecretKey is the primary symmetric key used to encrypt/verify gossip
	// traffic. Must be 16, 24 or 32 bytes when set.
	SecretKey []byte `json:"secretKey,omitempty" yaml:"secretKey,omitempty" toml:"secretKey,omitempty" mapstructure:"secretKey,omitempty"`

	// SecretKeyring lists additional decrypt-only keys accepted from peers
	// during a rotation; SecretKey remains the sole encrypt key.
	SecretKeyring [][]byte `json:"secretKeyring,omitempty" yaml:"secretKeyring,omitempty" toml:"secretKeyring,omitempty" mapstructure:"secretKeyring,omitempty"`

	// SecretKeySourceURL, when set and SecretKey is empty, is fetched over
	// HTTP(S) at startup to seed the primary key: the first 32 bytes read
	// from the response body become SecretKey. Lets an operator point a
	// fleet at a secrets endpoint instead of baking the key into config.
	SecretKeySourceURL string `json:"secretKeySourceURL,omitempty" yaml:"secretKeySourceURL,omitempty" toml:"secretKeySourceURL,omitempty" mapstructure:"secretKeySourceURL,omitempty" validate:"omitempty,url"`

	// HandoffQueueDepth is validated but read by no component: the
	// transport's inbound packet queue has a fixed depth of 128.
	HandoffQueueDepth int `json:"handoffQueueDepth,omitempty" yaml:"handoffQueueDepth,omitempty" toml:"handoffQueueDepth,omitempty" mapstructure:"handoffQueueDepth,omitempty" validate:"gte=0"`

	// UDPBufferSize bounds the size of a single UDP gossip datagram.
	UDPBufferSize int `json:"udpBufferSize,omitempty" yaml:"udpBufferSize,omitempty" toml:"udpBufferSize,omitempty" mapstructure:"udpBufferSize,omitempty" validate:"gte=0"`

	// DeadNodeReclaimTime is carried in the record but read by no
	// component: reuse of a dead member's name is not gated by it.
	DeadNodeReclaimTime duration.Duration `json:"deadNodeReclaimTime,omitempty" yaml:"deadNodeReclaimTime,omitempty" toml:"deadNodeReclaimTime,omitempty" mapstructure:"deadNodeReclaimTime,omitempty"`

	// CIDRsAllowed lists peer source networks. Validate checks that each
	// entry is a CIDR, but no component filters traffic by it: every source
	// is admitted whatever its value.
	CIDRsAllowed []string `json:"cidrsAllowed,omitempty" yaml:"cidrsAllowed,omitempty" toml:"cidrsAllowed,omitempty" mapstructure:"cidrsAllowed,omitempty" validate:"omitempty,dive,cidr"`

	// QueryTimeoutMult scales the default query timeout, proportional to
	// gossipInterval * log10(N+1).
	QueryTimeoutMult int `json:"queryTimeoutMult,omitempty" yaml:"queryTimeoutMult,omitempty" toml:"queryTimeoutMult,omitempty" mapstructure:"queryTimeoutMult,omitempty" validate:"gte=0"`

	// BroadcastTimeout bounds how long a broadcast waits to be fully
	// propagated before giving up on its completion callback.
	BroadcastTimeout duration.Duration `json:"broadcastTimeout,omitempty" yaml:"broadcastTimeout,omitempty" toml:"broadcastTimeout,omitempty" mapstructure:"broadcastTimeout,omitempty"`

	// LeavePropagateDelay is how long Leave waits before shutting down
	// transport, to give the leave broadcast a chance to propagate.
	LeavePropagateDelay duration.Duration `json:"leavePropagateDelay,omitempty" yaml:"leavePropagateDelay,omitempty" toml:"leavePropagateDelay,omitempty" mapstructure:"leavePropagateDelay,omitempty"`

	// TombstoneTimeout is how long a left/dead member's tombstone is
	// retained before eligible for removal.
	TombstoneTimeout duration.Duration `json:"tombstoneTimeout,omitempty" yaml:"tombstoneTimeout,omitempty" toml:"tombstoneTimeout,omitempty" mapstructure:"tombstoneTimeout,omitempty"`

	// ReconnectTimeout is carried in the record but read by no component:
	// failed members are not retried for reconnection, and dead or left
	// members are reaped after TombstoneTimeout.
	ReconnectTimeout duration.Duration `json:"reconnectTimeout,omitempty" yaml:"reconnectTimeout,omitempty" toml:"reconnectTimeout,omitempty" mapstructure:"reconnectTimeout,omitempty"`

	// UserEventSizeLimit bounds a single user event payload; Validate
	// rejects values above the absolute protocol ceiling of 9KiB.
	UserEventSizeLimit int `json:"userEventSizeLimit,omitempty" yaml:"userEventSizeLimit,omitempty" toml:"userEventSizeLimit,omitempty" mapstructure:"userEventSizeLimit,omitempty" validate:"gte=0,lte=9216"`

	// SnapshotPath, when non-empty, enables persistence of cluster state to
	// this file.
	SnapshotPath string `json:"snapshotPath,omitempty" yaml:"snapshotPath,omitempty" toml:"snapshotPath,omitempty" mapstructure:"snapshotPath,omitempty"`

	// RejoinAfterLeave allows re-joining the cluster using the snapshot file
	// even after a graceful Leave.
	RejoinAfterLeave bool `json:"rejoinAfterLeave,omitempty" yaml:"rejoinAfterLeave,omitempty" toml:"rejoinAfterLeave,omitempty" mapstructure:"rejoinAfterLeave,omitempty"`

	// DisableCoordinates is carried in the record but read by no component:
	// no network-coordinate tracking runs, whatever its value.
	DisableCoordinates bool `json:"disableCoordinates,omitempty" yaml:"disableCoordinates,omitempty" toml:"disableCoordinates,omitempty" mapstructure:"disableCoordinates,omitempty"`

	// RetryInterval controls the pacing of the background join-retry loop.
	RetryInterval duration.Duration `json:"retryInterval,omitempty" yaml:"retryInterval,omitempty" toml:"retryInterval,omitempty" mapstructure:"retryInterval,omitempty"`

	// RetryMaxAttempts bounds the background join-retry loop; zero means
	// retry forever.
	RetryMaxAttempts int `json:"retryMaxAttempts,omitempty" yaml:"retryMaxAttempts,omitempty" toml:"retryMaxAttempts,omitempty" mapstructure:"retryMaxAttempts,omitempty" validate:"gte=0"`

	// RetryMaxInterval caps the exponential backoff applied between
	// join-retry attempts; the delay doubles from RetryInterval after every
	// failed attempt until it reaches this ceiling. Zero disables the cap
	// growth and falls back to RetryInterval on every attempt.
	RetryMaxInterval duration.Duration `json:"retryMaxInterval,omitempty" yaml:"retryMaxInterval,omitempty" toml:"retryMaxInterval,omitempty" mapstructure:"retryMaxInterval,omitempty"`

	// AwarenessMax caps the Lifeguard health-awareness counter used to scale
	// probe timeouts under suspected local overload.
	AwarenessMax int `json:"awarenessMax,omitempty" yaml:"awarenessMax,omitempty" toml:"awarenessMax,omitempty" mapstructure:"awarenessMax,omitempty" validate:"gte=0"`

	// ControlBindAddr is the address the control-protocol TCP listener binds.
	ControlBindAddr string `json:"controlBindAddr,omitempty" yaml:"controlBindAddr,omitempty" toml:"controlBindAddr,omitempty" mapstructure:"controlBindAddr,omitempty"`

	// ControlBindPort is the port the control-protocol TCP listener binds.
	ControlBindPort uint16 `json:"controlBindPort,omitempty" yaml:"controlBindPort,omitempty" toml:"controlBindPort,omitempty" mapstructure:"controlBindPort,omitempty"`

	// ControlAuthKey, when non-empty, is the shared token a control client
	// must present after the handshake before any other command is served.
	ControlAuthKey string `json:"controlAuthKey,omitempty" yaml:"controlAuthKey,omitempty" toml:"controlAuthKey,omitempty" mapstructure:"controlAuthKey,omitempty"`

	// MemberCoalescePeriod bounds how long member-event notifications batch
	// before being flushed regardless of activity.
	MemberCoalescePeriod duration.Duration `json:"memberCoalescePeriod,omitempty" yaml:"memberCoalescePeriod,omitempty" toml:"memberCoalescePeriod,omitempty" mapstructure:"memberCoalescePeriod,omitempty"`

	// MemberQuiescentPeriod flushes a pending member-event batch early once
	// no new transition has arrived for this long.
	MemberQuiescentPeriod duration.Duration `json:"memberQuiescentPeriod,omitempty" yaml:"memberQuiescentPeriod,omitempty" toml:"memberQuiescentPeriod,omitempty" mapstructure:"memberQuiescentPeriod,omitempty"`

	// UserEventCoalesceWindow bounds how long coalescing-eligible user
	// events of the same name batch before the most recent payload is
	// delivered.
	UserEventCoalesceWindow duration.Duration `json:"userEventCoalesceWindow,omitempty" yaml:"userEventCoalesceWindow,omitempty" toml:"userEventCoalesceWindow,omitempty" mapstructure:"userEventCoalesceWindow,omitempty"`

	// UserEventBufferSize bounds the replay-dedupe ring of recently
	// witnessed user events.
	UserEventBufferSize int `json:"userEventBufferSize,omitempty" yaml:"userEventBufferSize,omitempty" toml:"userEventBufferSize,omitempty" mapstructure:"userEventBufferSize,omitempty" validate:"gte=0"`

	// QueryDedupeCapacity bounds the LRU of (queryLTime, id) pairs already
	// answered, so a query relayed along several paths is answered once.
	QueryDedupeCapacity int `json:"queryDedupeCapacity,omitempty" yaml:"queryDedupeCapacity,omitempty" toml:"queryDedupeCapacity,omitempty" mapstructure:"queryDedupeCapacity,omitempty" validate:"gte=0"`

	// EventSubscriptionBuffer bounds each control-protocol subscriber's
	// outbound event channel; a slow subscriber drops its oldest queued
	// event rather than stalling the agent.
	EventSubscriptionBuffer int `json:"eventSubscriptionBuffer,omitempty" yaml:"eventSubscriptionBuffer,omitempty" toml:"eventSubscriptionBuffer,omitempty" mapstructure:"eventSubscriptionBuffer,omitempty" validate:"gte=0"`

	// SnapshotFlushInterval bounds how long a snapshot record may sit
	// unflushed on disk.
	SnapshotFlushInterval duration.Duration `json:"snapshotFlushInterval,omitempty" yaml:"snapshotFlushInterval,omitempty" toml:"snapshotFlushInterval,omitempty" mapstructure:"snapshotFlushInterval,omitempty"`

	// SnapshotFlushRecords flushes the snapshot file early once this many
	// records are buffered.
	SnapshotFlushRecords int `json:"snapshotFlushRecords,omitempty" yaml:"snapshotFlushRecords,omitempty" toml:"snapshotFlushRecords,omitempty" mapstructure:"snapshotFlushRecords,omitempty" validate:"gte=0"`

	// SnapshotCompactionInterval controls how often the snapshot file is
	// checked for compaction.
	SnapshotCompactionInterval duration.Duration `json:"snapshotCompactionInterval,omitempty" yaml:"snapshotCompactionInterval,omitempty" toml:"snapshotCompactionInterval,omitempty" mapstructure:"snapshotCompactionInterval,omitempty"`

	// SnapshotCompactionFactor triggers a snapshot rewrite once records
	// written since the last compaction exceed this multiple of the live
	// member estimate.
	SnapshotCompactionFactor int `json:"snapshotCompactionFactor,omitempty" yaml:"snapshotCompactionFactor,omitempty" toml:"snapshotCompactionFactor,omitempty" mapstructure:"snapshotCompactionFactor,omitempty" validate:"gte=0"`
}

// Clone returns a deep-enough copy of Config: slices are copied so that
// mutating the clone's keyring or CIDR list never affects the original.
func (c Config) Clone() Config {
	n := c

	if c.SecretKey != nil {
		n.SecretKey = append([]byte(nil), c.SecretKey...)
	}

	if c.SecretKeyring != nil {
		n.SecretKeyring = make([][]byte, len(c.SecretKeyring))
		for i, k := range c.SecretKeyring {
			n.SecretKeyring[i] = append([]byte(nil), k...)
		}
	}

	if c.CIDRsAllowed != nil {
		n.CIDRsAllowed = append([]string(nil), c.CIDRsAllowed...)
	}

	return n
}
