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

package config

import (
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

var val = validator.New()

// Validate checks the struct-tag constraints declared on Config and then
// applies the cross-field rules that a tag alone cannot express: secret key
// length consistency with the keyring, and well-formed CIDR entries.
//
// An empty-string SecretKey is accepted and treated as "no key configured" —
// it is never ambiguous with a configured-but-blank key because Config never
// round-trips a present-but-empty key from the wire or from disk.
func (c Config) Validate() error {
	if err := val.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if len(c.SecretKey) > 0 {
		switch len(c.SecretKey) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("config: secretKey must be 16, 24 or 32 bytes, got %d", len(c.SecretKey))
		}
	}

	for _, k := range c.SecretKeyring {
		switch len(k) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("config: secretKeyring entry must be 16, 24 or 32 bytes, got %d", len(k))
		}
	}

	for _, cidr := range c.CIDRsAllowed {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("config: invalid cidrsAllowed entry %q: %w", cidr, err)
		}
	}

	if c.UserEventSizeLimit > 9*1024 {
		return fmt.Errorf("config: userEventSizeLimit %d exceeds the 9KiB protocol ceiling", c.UserEventSizeLimit)
	}

	return nil
}
