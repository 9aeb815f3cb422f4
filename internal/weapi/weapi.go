// Package weapi builds the obfuscated request payloads accepted by the NetEase Cloud Music web API.
//
// Every request body is a form with two fields:
//
//   - params: the JSON request encrypted twice with AES-128-CBC, first under a
//     shared nonce and then under a random per-request session key
//   - encSecKey: the session key wrapped with textbook RSA under the service's public key
//
// The scheme is validated server-side, so the constants below must not change.
package weapi

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"net/url"
	"strings"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/goccy/go-json"
)

const (
	nonce   = "0CoJUm6Qyw8W8jud"
	iv      = "0102030405060708"
	pubKey  = "010001"
	modulus = "00e0b509f6259df8642dbc35662901477df22677ec152b5ff68ace615bb7b725152b3ab17a876aea8a5aa76d2e417629ec4ee341f56135fccf695280104e0312ecbda92557c93870114af6c9d05c4f7f0c3685b7a46bee255932575cce10b424d813cfe4875d3e82047b97ddef52741d546b8e289dc6935b3ece0462db0a22b8e7"

	// SessionKeyLength is the length of the random AES key generated per request.
	SessionKeyLength = 16
	encSecKeyLength  = 256
	keyAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	rsaExponent = mustHexInt(pubKey)
	rsaModulus  = mustHexInt(modulus)
)

// EncryptedPayload is the wire form of a request.
type EncryptedPayload struct {
	Params    string `json:"params"`
	EncSecKey string `json:"encSecKey"`
}

// Form returns the payload as form values for a POST body.
func (p EncryptedPayload) Form() url.Values {
	return url.Values{
		"params":    {p.Params},
		"encSecKey": {p.EncSecKey},
	}
}

// Encoder produces [EncryptedPayload] values. It holds no state between calls
// other than its randomness source, and is safe for concurrent use.
type Encoder struct {
	rand io.Reader
}

// NewEncoder returns an Encoder backed by [crypto/rand].
func NewEncoder() *Encoder {
	return &Encoder{rand: rand.Reader}
}

// Encode serializes fields to JSON and encrypts them under a freshly generated session key.
//
// It fails with [models.ErrEncoding] when fields cannot be serialized.
func (e *Encoder) Encode(fields map[string]any) (*EncryptedPayload, error) {
	payload, _, err := e.encode(fields)
	return payload, err
}

func (e *Encoder) encode(fields map[string]any) (*EncryptedPayload, string, error) {
	key, err := e.sessionKey()
	if err != nil {
		return nil, "", err
	}

	payload, err := EncodeWithKey(fields, key)
	if err != nil {
		return nil, "", err
	}

	return payload, key, nil
}

// EncodeWithKey runs the encoding with a caller-chosen session key.
//
// The output is deterministic for a given key. Production code must use
// [Encoder.Encode] so that no session key is ever reused.
func EncodeWithKey(fields map[string]any, key string) (*EncryptedPayload, error) {
	if len(key) != SessionKeyLength {
		return nil, fmt.Errorf("%w: session key must be %d bytes, got %d", models.ErrEncoding, SessionKeyLength, len(key))
	}

	text, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEncoding, err)
	}

	first, err := aesEncrypt(text, []byte(nonce))
	if err != nil {
		return nil, err
	}

	params, err := aesEncrypt([]byte(first), []byte(key))
	if err != nil {
		return nil, err
	}

	return &EncryptedPayload{
		Params:    params,
		EncSecKey: rsaEncode(key),
	}, nil
}

// sessionKey draws SessionKeyLength characters uniformly from keyAlphabet.
func (e *Encoder) sessionKey() (string, error) {
	// Largest multiple of the alphabet size that fits in a byte; rejecting
	// bytes above it keeps the distribution uniform.
	limit := byte(256 - 256%len(keyAlphabet))

	var sb strings.Builder
	sb.Grow(SessionKeyLength)
	buf := make([]byte, SessionKeyLength*2)

	for sb.Len() < SessionKeyLength {
		if _, err := io.ReadFull(e.rand, buf); err != nil {
			return "", fmt.Errorf("failed to generate session key: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			sb.WriteByte(keyAlphabet[int(b)%len(keyAlphabet)])
			if sb.Len() == SessionKeyLength {
				break
			}
		}
	}

	return sb.String(), nil
}

// aesEncrypt encrypts text with AES-CBC under key and the fixed IV, returning base64.
func aesEncrypt(text, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrEncoding, err)
	}

	padded := pkcs7Pad(text, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(iv)).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

// rsaEncode reverses key, reads it as a big-endian integer, and raises it to
// the public exponent. No padding is applied.
func rsaEncode(key string) string {
	reversed := []byte(key)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	return rsaWrap(new(big.Int).SetBytes(reversed))
}

// rsaWrap computes m^e mod n as zero-padded lowercase hex.
func rsaWrap(m *big.Int) string {
	c := new(big.Int).Exp(m, rsaExponent, rsaModulus)

	hex := c.Text(16)
	if len(hex) < encSecKeyLength {
		hex = strings.Repeat("0", encSecKeyLength-len(hex)) + hex
	}
	return hex
}

func mustHexInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic(fmt.Sprintf("weapi: invalid hex constant %q", s))
	}
	return n
}
