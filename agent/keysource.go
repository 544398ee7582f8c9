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
	"fmt"
	"io"
	"net/http"

	"github.com/nabbar/flockd/encoding/randRead"
)

// secretKeySize is the key length requested from a SecretKeySourceURL; it
// matches the largest AES key size the wire envelope accepts.
const secretKeySize = 32

// resolveSecretKey returns secretKey (cfg.SecretKey) unchanged when set.
// Otherwise, if sourceURL (cfg.SecretKeySourceURL) is configured, it fetches
// secretKeySize bytes from that URL through randRead's reconnecting buffered
// reader and returns them as the primary key. A fetch that returns fewer
// bytes than requested, or that fails outright, is surfaced as an error
// rather than silently falling back to an unencrypted keyring.
func resolveSecretKey(secretKey []byte, sourceURL string) ([]byte, error) {
	if len(secretKey) > 0 || sourceURL == "" {
		return secretKey, nil
	}

	fetch := func() (io.ReadCloser, error) {
		resp, err := http.Get(sourceURL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("agent: secret key source %s returned status %d", sourceURL, resp.StatusCode)
		}
		return resp.Body, nil
	}

	r := randRead.New(fetch)
	if r == nil {
		return nil, ErrSecretKeySource.Error(fmt.Errorf("invalid source url"))
	}
	defer func() { _ = r.Close() }()

	key := make([]byte, secretKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, ErrSecretKeySource.Error(err)
	}

	return key, nil
}
