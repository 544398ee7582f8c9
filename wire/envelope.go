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

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"hash/crc32"
	"io"
)

func addLabel(label string, payload []byte) []byte {
	if label == "" {
		return payload
	}

	out := make([]byte, 0, 2+len(label)+len(payload))
	out = append(out, LabelMagic, byte(len(label)))
	out = append(out, label...)
	out = append(out, payload...)
	return out
}

// stripLabel returns the label found (if any) and the remainder of packet.
func stripLabel(packet []byte) (string, []byte, error) {
	if len(packet) == 0 || packet[0] != LabelMagic {
		return "", packet, nil
	}

	if len(packet) < 2 {
		return "", nil, ErrTruncatedLabel.Error()
	}

	n := int(packet[1])
	if len(packet) < 2+n {
		return "", nil, ErrTruncatedLabel.Error()
	}

	return string(packet[2 : 2+n]), packet[2+n:], nil
}

func wrapCRC(body []byte) []byte {
	sum := crc32.ChecksumIEEE(body)
	out := make([]byte, 0, 1+4+len(body))
	out = append(out, byte(HasCrcMsg))
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], sum)
	out = append(out, b[:]...)
	out = append(out, body...)
	return out
}

func unwrapCRC(body []byte) ([]byte, error) {
	if len(body) < 5 {
		return nil, ErrTruncatedCRC.Error()
	}

	want := binary.BigEndian.Uint32(body[1:5])
	rest := body[5:]

	if crc32.ChecksumIEEE(rest) != want {
		return nil, ErrCRCMismatch.Error()
	}

	return rest, nil
}

func wrapCompress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+buf.Len())
	out = append(out, byte(CompressMsg))
	out = append(out, buf.Bytes()...)
	return out, nil
}

func unwrapCompress(body []byte) ([]byte, error) {
	if len(body) < 1 {
		return nil, ErrTruncatedCompress.Error()
	}

	r, err := gzip.NewReader(bytes.NewReader(body[1:]))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return io.ReadAll(r)
}

// pkcs7Pad pads data to a multiple of blockSize per PKCS#7.
func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - (len(data) % blockSize)
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrDecrypt.Error()
	}

	pad := int(data[len(data)-1])
	if pad == 0 || pad > len(data) {
		return nil, ErrDecrypt.Error()
	}

	return data[:len(data)-pad], nil
}

func gcmFor(key []byte) (cipher.AEAD, error) {
	blk, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(blk)
}

// encryptPayload seals plaintext (PKCS#7-padded for version 0) with key,
// using aad (the label bytes, or nil) as associated data. The output is
// {version(1), nonce(12), ciphertext+tag}.
func encryptPayload(key, plaintext, aad []byte) ([]byte, error) {
	gcm, err := gcmFor(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, 16)
	sealed := gcm.Seal(nil, nonce, padded, aad)

	out := make([]byte, 0, 1+NonceSize+len(sealed))
	out = append(out, EncryptionVersion0)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// decryptPayload tries each key in order, returning the first successful
// decryption.
func decryptPayload(keys [][]byte, envelope, aad []byte) ([]byte, error) {
	if len(envelope) < 1+NonceSize+TagSize {
		return nil, ErrTruncatedEncrypt.Error()
	}

	version := envelope[0]
	if version != EncryptionVersion0 {
		return nil, ErrUnknownEncryptVersion.Error()
	}

	nonce := envelope[1 : 1+NonceSize]
	sealed := envelope[1+NonceSize:]

	var lastErr error
	for _, key := range keys {
		gcm, err := gcmFor(key)
		if err != nil {
			lastErr = err
			continue
		}

		padded, err := gcm.Open(nil, nonce, sealed, aad)
		if err != nil {
			lastErr = err
			continue
		}

		plain, err := pkcs7Unpad(padded)
		if err != nil {
			lastErr = err
			continue
		}

		return plain, nil
	}

	if lastErr == nil {
		lastErr = ErrDecrypt.Error()
	}
	return nil, ErrDecrypt.Error().Add(lastErr)
}
