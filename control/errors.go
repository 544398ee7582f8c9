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

import "github.com/nabbar/flockd/errors"

// Exact protocol-level error strings carried in Response.Error. These are
// part of the wire contract, not just internal diagnostics, so they are
// plain constants rather than routed through the CodeError registry.
const (
	protoHandshakeRequired = "handshake required"
	protoAuthRequired      = "auth required"
	protoInvalidAuthToken  = "invalid auth token"
	protoUnsupportedCmd    = "unsupported command"
	protoDuplicateHandshk  = "duplicate handshake"
)

const (
	ErrListenFailed errors.CodeError = iota + errors.MinPkgControl
	ErrAcceptFailed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrListenFailed)
	errors.RegisterIdFctMessage(ErrListenFailed, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrListenFailed:
		return "control: unable to open listener"
	case ErrAcceptFailed:
		return "control: accept loop terminated unexpectedly"
	}

	return ""
}
