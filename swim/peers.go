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

package swim

import (
	"math/rand"
	"time"

	"github.com/nabbar/flockd/state"
)

// selectPeers returns up to n members eligible as probe/gossip targets,
// excluding excludeName (normally the local node). Dead/Left members are
// only eligible within gossipToTheDeadTime of their StateChange; beyond that
// they are skipped outright. The result order is randomized.
func selectPeers(all []state.Member, excludeName string, n int, gossipToTheDeadTime time.Duration, now time.Time) []state.Member {
	candidates := make([]state.Member, 0, len(all))

	for _, m := range all {
		if m.Name == excludeName {
			continue
		}
		if m.State == state.StateDead || m.State == state.StateLeft {
			if now.Sub(m.StateChange) > gossipToTheDeadTime {
				continue
			}
		}
		candidates = append(candidates, m)
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if n <= 0 || n >= len(candidates) {
		return candidates
	}
	return candidates[:n]
}

// versionCompatible reports whether a peer advertising pcur is acceptable to
// a node whose own accepted range is [localPmin, localPmax].
func versionCompatible(localPmin, localPmax, peerPcur byte) bool {
	return peerPcur >= localPmin && peerPcur <= localPmax
}
