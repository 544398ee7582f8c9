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

import (
	"math/rand"
	"time"
)

// joinBackoff computes the delay before join attempt number attempt (1 for
// the first retry), doubling from min after every failed attempt and
// capping at max, then jittering by up to 20% so a fleet of nodes that all
// lost their anchor peer at the same instant doesn't retry in lockstep.
// The shape mirrors hashicorp/go-retryablehttp's DefaultBackoff
// (min * 2^attempt, capped at max) reimplemented here without an HTTP
// client: join is a TCP push/pull, not a request/response round trip, so
// retryablehttp itself has nothing to attach to.
func joinBackoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 30 * time.Second
	}
	if max <= 0 || max < min {
		max = min
	}

	d := min
	for i := 0; i < attempt && d < max; i++ {
		d *= 2
		if d <= 0 { // overflow guard
			d = max
		}
	}
	if d > max {
		d = max
	}

	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d - jitter/2 + time.Duration(rand.Int63n(int64(jitter)+1))
}

// retryJoin re-attempts Join against addrs (the snapshot's last known-alive
// set) until one succeeds, cfg.RetryMaxAttempts is exhausted (0 means
// forever), or Shutdown closes retryStop. The wait between attempts backs
// off exponentially from RetryInterval up to RetryMaxInterval.
func (a *agentImpl) retryJoin(addrs []string) {
	defer a.retryWG.Done()

	min := a.cfg.RetryInterval.Time()
	max := a.cfg.RetryMaxInterval.Time()

	attempts := 0
	for {
		n, err := a.loop.Join(addrs)
		if n > 0 {
			return
		}
		if err != nil && a.log != nil {
			a.log.Warning("agent: rejoin attempt failed", err)
		}

		attempts++
		if a.cfg.RetryMaxAttempts > 0 && attempts >= a.cfg.RetryMaxAttempts {
			return
		}

		timer := time.NewTimer(joinBackoff(min, max, attempts))
		select {
		case <-timer.C:
		case <-a.retryStop:
			timer.Stop()
			return
		}
	}
}
