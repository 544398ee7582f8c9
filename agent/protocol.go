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
	hcversion "github.com/hashicorp/go-version"
)

// protocolMin and protocolMax are the oldest and newest membership/delegate
// dialects this build understands, advertised verbatim as Pmin/Dmin and
// Pmax/Dmax on every Alive message regardless of the configured
// ProtocolVersion.
const (
	protocolMin = 1
	protocolMax = 3
)

// protocolBytes parses a configured ProtocolVersion string into the six
// version bytes swim.Config expects (Pmin, Pmax, Pcur, Dmin, Dmax, Dcur).
//
// version is parsed with hashicorp/go-version so that "2", "2.0", "2-compat"
// and "v2-compat" are all accepted the same way the library parses a release
// tag: the leading numeric segment becomes the protocol major, and a
// "compat" prerelease component means "speak this major's delegate
// messages while still advertising one major below as the current
// membership dialect" — the knob an operator flips mid-rollout so a mixed
// cluster upgrading node-by-node keeps interoperating with peers still one
// major behind.
func protocolBytes(version string) (pmin, pmax, pcur, dmin, dmax, dcur byte, err error) {
	v, perr := hcversion.NewVersion(version)
	if perr != nil {
		return 0, 0, 0, 0, 0, 0, ErrUnknownProtocolVersion.Error(perr)
	}

	segs := v.Segments()
	if len(segs) == 0 {
		return 0, 0, 0, 0, 0, 0, ErrUnknownProtocolVersion.Error()
	}
	major := segs[0]
	if major < protocolMin || major > protocolMax {
		return 0, 0, 0, 0, 0, 0, ErrUnknownProtocolVersion.Error()
	}

	compat := v.Prerelease() == "compat"
	if compat && major <= protocolMin {
		// there is no major below protocolMin to be compatible with.
		return 0, 0, 0, 0, 0, 0, ErrUnknownProtocolVersion.Error()
	}

	dcur = byte(major)
	pcur = dcur
	if compat {
		pcur = byte(major - 1)
	}

	return protocolMin, protocolMax, pcur, protocolMin, protocolMax, dcur, nil
}
