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

package state

import "encoding/json"

// EncodeTags packs tags into the opaque Meta blob carried by an Alive
// message. Using plain JSON here (rather than the gossip msgpack codec)
// keeps this package independent of the wire layer above it.
func EncodeTags(tags map[string]string) []byte {
	if len(tags) == 0 {
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return b
}

// DecodeTags unpacks a Meta blob produced by EncodeTags. A nil or malformed
// blob decodes to an empty map rather than an error, since Meta may carry
// nothing (a peer advertising no tags) or content predating this encoding.
func DecodeTags(meta []byte) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	var tags map[string]string
	if err := json.Unmarshal(meta, &tags); err != nil {
		return nil
	}
	return tags
}
