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

package wire

import "github.com/nabbar/flockd/errors"

const (
	ErrTruncatedLabel errors.CodeError = iota + errors.MinPkgWire
	ErrLabelMismatch
	ErrTruncatedCRC
	ErrCRCMismatch
	ErrTruncatedCompress
	ErrTruncatedEncrypt
	ErrUnknownEncryptVersion
	ErrDecrypt
	ErrEncryptionRequired
	ErrTooManyCompound
	ErrTruncatedCompound
	ErrUnknownMessageType
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrTruncatedLabel)
	errors.RegisterIdFctMessage(ErrTruncatedLabel, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case ErrTruncatedLabel:
		return "wire: label header is truncated"
	case ErrLabelMismatch:
		return "wire: label does not match, packet dropped"
	case ErrTruncatedCRC:
		return "wire: CRC envelope is truncated"
	case ErrCRCMismatch:
		return "wire: CRC mismatch, packet dropped"
	case ErrTruncatedCompress:
		return "wire: compress envelope is truncated"
	case ErrTruncatedEncrypt:
		return "wire: encryption envelope is truncated"
	case ErrUnknownEncryptVersion:
		return "wire: unknown encryption envelope version"
	case ErrDecrypt:
		return "wire: could not decrypt packet with any installed key"
	case ErrEncryptionRequired:
		return "wire: incoming packet is not encrypted but encryption is required"
	case ErrTooManyCompound:
		return "wire: too many messages for one compound packet"
	case ErrTruncatedCompound:
		return "wire: compound packet header is truncated"
	case ErrUnknownMessageType:
		return "wire: unknown message type byte"
	}

	return ""
}
