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
	"encoding/binary"
	"io"

	"github.com/nabbar/flockd/wire"
)

// writeFrame encodes body through codec and writes it to w as a
// length-prefixed frame: push-pull and the control-protocol stream both need
// a message boundary that UDP gets for free but TCP does not.
func writeFrame(w io.Writer, codec wire.Codec, mt wire.MessageType, body interface{}) error {
	buf, err := codec.Encode(mt, body)
	if err != nil {
		return err
	}

	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(buf)))
	if _, err := w.Write(l[:]); err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// readFrame reads one length-prefixed frame from r and decodes it into out.
func readFrame(r io.Reader, codec wire.Codec, out interface{}) error {
	var l [4]byte
	if _, err := io.ReadFull(r, l[:]); err != nil {
		return err
	}

	n := binary.BigEndian.Uint32(l[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}

	_, err := codec.Decode(buf, out)
	return err
}
