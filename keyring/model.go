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

package keyring

import (
	"bytes"
	"sync"
)

type keyring struct {
	mu   sync.RWMutex
	keys [][]byte
}

func validSize(k []byte) bool {
	switch len(k) {
	case 16, 24, 32:
		return true
	default:
		return false
	}
}

func newKeyring(primary []byte, rest ...[]byte) (Keyring, error) {
	k := &keyring{keys: make([][]byte, 0, 1+len(rest))}

	if len(primary) > 0 {
		if !validSize(primary) {
			return nil, ErrInvalidKeySize.Error()
		}
		k.keys = append(k.keys, append([]byte(nil), primary...))
	}

	for _, r := range rest {
		if len(r) == 0 {
			continue
		}
		if !validSize(r) {
			return nil, ErrInvalidKeySize.Error()
		}
		if !k.indexOf(r) {
			k.keys = append(k.keys, append([]byte(nil), r...))
		}
	}

	return k, nil
}

// indexOf reports whether k is already installed. It takes no lock: the
// caller holds mu, or owns k exclusively as newKeyring does.
func (k *keyring) indexOf(key []byte) bool {
	for _, e := range k.keys {
		if bytes.Equal(e, key) {
			return true
		}
	}
	return false
}

func (k *keyring) Primary() []byte {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if len(k.keys) == 0 {
		return nil
	}
	return append([]byte(nil), k.keys[0]...)
}

func (k *keyring) Keys() [][]byte {
	k.mu.RLock()
	defer k.mu.RUnlock()

	res := make([][]byte, len(k.keys))
	for i, e := range k.keys {
		res[i] = append([]byte(nil), e...)
	}
	return res
}

func (k *keyring) Install(key []byte) error {
	if !validSize(key) {
		return ErrInvalidKeySize.Error()
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.indexOf(key) {
		return nil
	}

	k.keys = append(k.keys, append([]byte(nil), key...))
	return nil
}

func (k *keyring) Use(key []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, e := range k.keys {
		if bytes.Equal(e, key) {
			if i == 0 {
				return nil
			}
			k.keys[0], k.keys[i] = k.keys[i], k.keys[0]
			return nil
		}
	}

	return ErrKeyNotInstalled.Error()
}

func (k *keyring) Remove(key []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, e := range k.keys {
		if bytes.Equal(e, key) {
			if i == 0 {
				return ErrRemovePrimary.Error()
			}
			k.keys = append(k.keys[:i], k.keys[i+1:]...)
			return nil
		}
	}

	return ErrKeyNotInstalled.Error()
}
