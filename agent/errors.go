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

import "github.com/nabbar/flockd/errors"

const (
	ErrAlreadyStarted errors.CodeError = iota + errors.MinPkgAgent
	ErrNotStarted
	ErrAlreadyLeft
	ErrUnknownProtocolVersion
	ErrInvalidQuery
	ErrSnapshotOpen
	ErrTransportBind
	ErrControlServe
	ErrSecretKeySource
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrAlreadyStarted)
	errors.RegisterIdFctMessage(ErrAlreadyStarted, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrAlreadyStarted:
		return "agent: already started"
	case ErrNotStarted:
		return "agent: not started"
	case ErrAlreadyLeft:
		return "agent: already left the cluster"
	case ErrUnknownProtocolVersion:
		return "agent: unknown protocol version string"
	case ErrInvalidQuery:
		return "agent: invalid query request"
	case ErrSnapshotOpen:
		return "agent: failed to open snapshot file"
	case ErrTransportBind:
		return "agent: failed to bind gossip transport"
	case ErrControlServe:
		return "agent: failed to start control server"
	case ErrSecretKeySource:
		return "agent: failed to fetch secret key from source URL"
	}

	return ""
}
