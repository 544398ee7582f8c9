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

// Package keyring holds the ordered set of symmetric keys used to encrypt
// and decrypt gossip traffic. Position 0 is always the primary key, used
// for encryption; decryption tries every installed key in order.
package keyring

// Keyring is safe for concurrent use: Install/Use/Remove/Keys all take an
// internal lock so they can run concurrently with gossip encode/decode.
type Keyring interface {
	// Primary returns the current primary (position 0) key, or nil if the
	// keyring is empty (encryption disabled).
	Primary() []byte

	// Keys returns a copy of every installed key, primary first.
	Keys() [][]byte

	// Install appends k to the keyring if not already present. k must be
	// 16, 24 or 32 bytes.
	Install(k []byte) error

	// Use rotates k to the primary position. k must already be installed.
	Use(k []byte) error

	// Remove removes k from the keyring. Removing the current primary key
	// is forbidden.
	Remove(k []byte) error
}

// New returns an empty Keyring (encryption disabled until a key is
// installed), or one seeded with primary and the rest of keyring (in that
// order) when non-empty.
func New(primary []byte, keyring ...[]byte) (Keyring, error) {
	return newKeyring(primary, keyring...)
}
