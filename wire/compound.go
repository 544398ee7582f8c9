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

import "encoding/binary"

// MaxCompoundMessages is the maximum number of inner messages a single
// Compound packet may carry; the count byte can express at most 255.
const MaxCompoundMessages = 255

// PackCompound packs up to MaxCompoundMessages raw (already-encoded)
// messages into one Compound body: {count(1), len1(2).., m1, m2, ...}.
func PackCompound(messages [][]byte) ([]byte, error) {
	if len(messages) > MaxCompoundMessages {
		return nil, ErrTooManyCompound.Error()
	}

	out := make([]byte, 0, 1+2*len(messages))
	out = append(out, byte(len(messages)))

	for _, m := range messages {
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(m)))
		out = append(out, l[:]...)
	}
	for _, m := range messages {
		out = append(out, m...)
	}

	return out, nil
}

// UnpackCompound reverses PackCompound. A message whose declared length runs
// past the end of the buffer is dropped and truncated is incremented, but
// every message that parses cleanly is still returned.
func UnpackCompound(body []byte) (messages [][]byte, truncated int, err error) {
	if len(body) < 1 {
		return nil, 0, ErrTruncatedCompound.Error()
	}

	count := int(body[0])
	body = body[1:]

	if len(body) < count*2 {
		return nil, 0, ErrTruncatedCompound.Error()
	}

	lens := make([]int, count)
	for i := 0; i < count; i++ {
		lens[i] = int(binary.BigEndian.Uint16(body[i*2 : i*2+2]))
	}
	body = body[count*2:]

	messages = make([][]byte, 0, count)
	for _, l := range lens {
		if len(body) < l {
			truncated++
			break
		}
		messages = append(messages, body[:l])
		body = body[l:]
	}

	return messages, truncated, nil
}
