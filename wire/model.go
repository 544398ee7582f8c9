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

type codec struct {
	opt  Options
	keys KeySource
}

// primaryKey returns the live primary key from keys when a KeySource is
// wired, falling back to the static opt.PrimaryKey otherwise.
func (c *codec) primaryKey() []byte {
	if c.keys != nil {
		return c.keys.Primary()
	}
	return c.opt.PrimaryKey
}

// decryptKeys returns every key worth trying on decode, live keyring first.
func (c *codec) decryptKeys() [][]byte {
	if c.keys != nil {
		return c.keys.Keys()
	}
	return c.opt.DecryptKeys
}

func (c *codec) Encode(mt MessageType, body interface{}) ([]byte, error) {
	payload, err := marshal(body)
	if err != nil {
		return nil, err
	}

	inner := append([]byte{byte(mt)}, payload...)

	if c.opt.Compress {
		inner, err = wrapCompress(inner)
		if err != nil {
			return nil, err
		}
	}

	if c.opt.UseCRC {
		inner = wrapCRC(inner)
	}

	primary := c.primaryKey()
	if c.opt.VerifyOutgoing || len(primary) > 0 {
		if len(primary) == 0 {
			return nil, ErrEncryptionRequired.Error()
		}

		aad := []byte(c.opt.Label)
		inner, err = encryptPayload(primary, inner, aad)
		if err != nil {
			return nil, err
		}
	}

	return addLabel(c.opt.Label, inner), nil
}

func (c *codec) Decode(packet []byte, out interface{}) (MessageType, error) {
	label, rest, err := stripLabel(packet)
	if err != nil {
		return 0, err
	}

	if label != c.opt.Label {
		return 0, ErrLabelMismatch.Error()
	}

	decryptKeys := c.decryptKeys()
	primary := c.primaryKey()

	if len(rest) > 0 && isEncryptedEnvelope(rest) {
		if len(decryptKeys) == 0 && len(primary) == 0 {
			return 0, ErrDecrypt.Error()
		}

		keys := c.allKeys(primary, decryptKeys)
		aad := []byte(c.opt.Label)
		rest, err = decryptPayload(keys, rest, aad)
		if err != nil {
			return 0, err
		}
	} else if c.opt.VerifyIncoming && (len(primary) > 0 || len(decryptKeys) > 0) {
		return 0, ErrEncryptionRequired.Error()
	}

	if len(rest) > 0 && MessageType(rest[0]) == HasCrcMsg {
		rest, err = unwrapCRC(rest)
		if err != nil {
			return 0, err
		}
	}

	if len(rest) > 0 && MessageType(rest[0]) == CompressMsg {
		rest, err = unwrapCompress(rest)
		if err != nil {
			return 0, err
		}
	}

	if len(rest) < 1 {
		return 0, ErrUnknownMessageType.Error()
	}

	mt := MessageType(rest[0])
	if out != nil {
		if err = unmarshal(rest[1:], out); err != nil {
			return mt, err
		}
	}

	return mt, nil
}

func (c *codec) allKeys(primary []byte, decrypt [][]byte) [][]byte {
	keys := make([][]byte, 0, 1+len(decrypt))
	if len(primary) > 0 {
		keys = append(keys, primary)
	}
	keys = append(keys, decrypt...)
	return keys
}

// isEncryptedEnvelope heuristically detects the encryption envelope: its
// first byte is a defined version (currently only 0), and it can't be
// confused with a plaintext message type byte because callers only reach
// here with encryption configured on at least one side.
func isEncryptedEnvelope(rest []byte) bool {
	return len(rest) >= 1+NonceSize+TagSize && rest[0] == EncryptionVersion0
}
