// Package statepack encodes and decodes embedded state payloads.
//
// Interactive documents can ship their initial store state in an inert
// script block. For state that must not be edited (or read) by whoever can
// edit the document before it reaches the engine, statepack provides two
// encodings over a msgpack payload:
//
//   - Signed (default): base64 payload plus an HMAC-SHA256 signature.
//     Visible but tamper-proof.
//   - Encrypted: AES-256-GCM. Fully opaque.
//
// The payload carries the target namespace alongside the data so a signed
// block cannot be replayed into a different namespace.
package statepack

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel errors for payload decoding.
var (
	ErrInvalidFormat    = errors.New("statepack: invalid payload format")
	ErrSignatureInvalid = errors.New("statepack: signature verification failed")
	ErrDecryptFailed    = errors.New("statepack: payload decryption failed")
)

const (
	signedPrefix    = "s1."
	encryptedPrefix = "e1."
	sigLen          = 16 // truncated HMAC-SHA256, 128 bits
)

// Payload is one decodable state block: a namespace and its data tree.
type Payload struct {
	Namespace string         `msgpack:"n"`
	Data      map[string]any `msgpack:"d"`
}

// Codec signs, verifies, encrypts, and decrypts state payloads.
type Codec struct {
	key []byte
	gcm cipher.AEAD
}

// NewCodec creates a codec from a key. Keys shorter than 32 bytes are
// stretched with SHA-256 so any secret works for AES-256.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("statepack: empty key")
	}
	if len(key) < 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}
	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{key: key, gcm: gcm}, nil
}

// Encode serializes a namespace payload. With encrypted set, the result is
// opaque; otherwise it is visible but signed.
func (c *Codec) Encode(namespace string, data map[string]any, encrypted bool) (string, error) {
	packed, err := msgpack.Marshal(Payload{Namespace: namespace, Data: data})
	if err != nil {
		return "", fmt.Errorf("statepack: marshal: %w", err)
	}
	if encrypted {
		return c.encrypt(packed)
	}
	return c.sign(packed)
}

// Decode verifies or decrypts an encoded payload, selecting the mode from
// the payload's own prefix.
func (c *Codec) Decode(encoded string) (*Payload, error) {
	var packed []byte
	var err error
	switch {
	case strings.HasPrefix(encoded, signedPrefix):
		packed, err = c.verify(encoded[len(signedPrefix):])
	case strings.HasPrefix(encoded, encryptedPrefix):
		packed, err = c.decrypt(encoded[len(encryptedPrefix):])
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := msgpack.Unmarshal(packed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if p.Namespace == "" {
		return nil, fmt.Errorf("%w: missing namespace", ErrInvalidFormat)
	}
	return &p, nil
}

func (c *Codec) sign(data []byte) (string, error) {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(data)
	sig := mac.Sum(nil)[:sigLen]
	return signedPrefix +
		base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(sig), nil
}

func (c *Codec) verify(encoded string) ([]byte, error) {
	parts := strings.SplitN(encoded, ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidFormat
	}
	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	mac := hmac.New(sha256.New, c.key)
	mac.Write(data)
	if !hmac.Equal(sig, mac.Sum(nil)[:sigLen]) {
		return nil, ErrSignatureInvalid
	}
	return data, nil
}

func (c *Codec) encrypt(data []byte) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ciphertext := c.gcm.Seal(nonce, nonce, data, nil)
	return encryptedPrefix + base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (c *Codec) decrypt(encoded string) ([]byte, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(ciphertext) < c.gcm.NonceSize() {
		return nil, ErrDecryptFailed
	}
	nonce := ciphertext[:c.gcm.NonceSize()]
	plain, err := c.gcm.Open(nil, nonce, ciphertext[c.gcm.NonceSize():], nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
