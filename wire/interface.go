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

// Package wire implements the gossip wire format: an optional label header,
// an optional AES-GCM encryption envelope, a one-byte message type, and
// optional CRC/compression wrapping around a msgpack-encoded body.
package wire

// MessageType is the one-byte tag that begins every decrypted/decompressed
// message body.
type MessageType byte

const (
	PingMsg MessageType = iota
	IndirectPingMsg
	AckRespMsg
	SuspectMsg
	AliveMsg
	DeadMsg
	PushPullMsg
	CompoundMsg
	UserMsg
	CompressMsg
	EncryptMsg
	NackRespMsg
	HasCrcMsg
	JoinMsg
	LeaveMsg
	UserEventMsg
	QueryMsg
	QueryResponseMsg
	RelayMsg
	KeyRequestMsg
	KeyResponseMsg
	StatusSyncMsg
)

// LabelMagic is the first byte of a label header, chosen to be unlikely to
// collide with a bare message type byte.
const LabelMagic byte = 0xf4

// EncryptionVersion0 is the only defined encryption envelope version: AES-GCM
// with the plaintext PKCS#7-padded to a 16-byte block before sealing.
const EncryptionVersion0 byte = 0

// NonceSize is the GCM nonce length used by the encryption envelope.
const NonceSize = 12

// TagSize is the GCM authentication tag length.
const TagSize = 16

// Codec encodes and decodes gossip packets: label header, optional
// encryption, message type byte, optional CRC/compression wrapping, and the
// msgpack-encoded body.
type Codec interface {
	// Encode serialises a message body of type mt into a ready-to-send
	// packet: msgpack body, optional CRC wrap, optional gzip wrap, message
	// type prefix, optional encryption, optional label header.
	Encode(mt MessageType, body interface{}) ([]byte, error)

	// Decode reverses Encode: strips label (verifying it matches), decrypts
	// if an encryption envelope is present, strips CRC/compress wrapping,
	// and unmarshals the remaining msgpack body into out.
	Decode(packet []byte, out interface{}) (MessageType, error)
}

// Options configures a Codec instance.
type Options struct {
	// Label is this node's gossip label; empty means no label header is
	// added, and any incoming label header causes the packet to be dropped
	// (labels must match exactly between peers).
	Label string

	// PrimaryKey, when non-empty, is used to encrypt outbound packets.
	PrimaryKey []byte

	// DecryptKeys is tried in order to decrypt inbound encrypted packets.
	DecryptKeys [][]byte

	// VerifyIncoming, if true, rejects any inbound packet that is not
	// encrypted when PrimaryKey/DecryptKeys is configured.
	VerifyIncoming bool

	// VerifyOutgoing, if true, always encrypts outbound packets (requires
	// PrimaryKey to be set).
	VerifyOutgoing bool

	// Compress, if true, gzip-wraps the body before sending.
	Compress bool

	// UseCRC, if true, CRC32-wraps the body before sending (and after any
	// compression) so corruption is detected before further processing.
	UseCRC bool
}

// New returns a Codec configured with opt. Its encryption keys are fixed at
// construction time; use NewWithKeySource for a codec whose keys can rotate
// while it's in use.
func New(opt Options) Codec {
	return &codec{opt: opt}
}

// KeySource supplies live encryption keys to a Codec, letting its keys
// rotate without reconstructing it. keyring.Keyring satisfies this.
type KeySource interface {
	// Primary returns the current primary (encryption) key, or nil.
	Primary() []byte

	// Keys returns every installed key, primary first.
	Keys() [][]byte
}

// NewWithKeySource returns a Codec whose PrimaryKey/DecryptKeys are read
// from src on every Encode/Decode instead of opt, so installing, rotating
// or removing a key through src takes effect immediately. opt.PrimaryKey
// and opt.DecryptKeys are ignored when src is non-nil.
func NewWithKeySource(opt Options, src KeySource) Codec {
	return &codec{opt: opt, keys: src}
}
