// Package cipher implements the reversible encryption used for stored
// secrets (user passwords, SMTP credentials). Keys are derived from a
// secret+salt pair with scrypt, so the same pair always yields the same key
// while remaining expensive to brute-force. Every call draws a fresh random
// IV, so encrypting the same plaintext twice produces different payloads.
//
// Payloads are colon-joined hex fields. GCM mode (the default) produces
// iv:tag:ciphertext; the legacy CBC mode produces iv:ciphertext. Both are
// supported because both layouts exist in deployed databases.
package cipher

import (
	"bytes"
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Mode selects the payload layout Encrypt writes. Decrypt does not take a
// mode; it recognizes the layout from the payload's field count.
type Mode string

const (
	// ModeGCM is AES-256-GCM with an iv:tag:ciphertext payload. Default.
	ModeGCM Mode = "gcm"

	// ModeCBC is AES-256-CBC with an iv:ciphertext payload. Kept for
	// records written by older deployments.
	ModeCBC Mode = "cbc"
)

// scrypt parameters matching the records already in production databases.
// Changing these would orphan every stored secret.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	keyLength    = 32
	ivLength     = 16
	gcmTagLength = 16
)

// Sentinel errors. Callers use errors.Is to distinguish failure kinds; the
// HTTP boundary collapses all of them into a generic authentication failure.
var (
	// ErrInvalidInput means the plaintext or secret was empty.
	ErrInvalidInput = errors.New("cipher: plaintext and secret must not be empty")

	// ErrMalformedPayload means the payload did not split into the expected
	// number of hex fields for the mode.
	ErrMalformedPayload = errors.New("cipher: malformed encrypted payload")

	// ErrAuthFailed means the GCM authentication tag did not verify --
	// wrong key or tampered ciphertext.
	ErrAuthFailed = errors.New("cipher: authentication failed")

	// ErrDecryptFailed covers any other decryption failure (bad padding,
	// truncated ciphertext).
	ErrDecryptFailed = errors.New("cipher: decryption failed")
)

// separator joins the hex fields of a payload.
const separator = ":"

// deriveKey derives the fixed-length AES key from the secret+salt pair.
// Deterministic: the same pair always produces the same key.
func deriveKey(secret, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(secret), []byte(salt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// Encrypt encrypts plaintext with a key derived from (secret, salt) and
// returns the colon-joined hex payload for the given mode. A fresh random
// IV is generated per call, so identical inputs never produce identical
// payloads.
func Encrypt(plaintext, secret, salt string, mode Mode) (string, error) {
	if plaintext == "" || secret == "" {
		return "", ErrInvalidInput
	}

	key, err := deriveKey(secret, salt)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	switch mode {
	case ModeCBC:
		return encryptCBC(block, iv, []byte(plaintext))
	default:
		return encryptGCM(block, iv, []byte(plaintext))
	}
}

// Decrypt reverses Encrypt. The mode is inferred from the payload itself:
// splitting on ":" yields 3 fields for GCM and 2 for legacy CBC, so records
// written before the GCM switch keep decrypting without callers tracking
// which layout each row uses. Any other field count fails with
// ErrMalformedPayload.
func Decrypt(payload, secret, salt string) (string, error) {
	if payload == "" || secret == "" {
		return "", ErrInvalidInput
	}

	key, err := deriveKey(secret, salt)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	parts := strings.Split(payload, separator)

	switch len(parts) {
	case 3:
		return decryptGCM(block, parts[0], parts[1], parts[2])
	case 2:
		return decryptCBC(block, parts[0], parts[1])
	default:
		return "", fmt.Errorf("%w: want 2 or 3 fields, got %d", ErrMalformedPayload, len(parts))
	}
}

// --- GCM (iv:tag:ciphertext) ---

func encryptGCM(block gocipher.Block, iv, plaintext []byte) (string, error) {
	gcm, err := gocipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	// Seal appends the tag to the ciphertext; the wire format keeps them
	// as separate fields.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ct := sealed[:len(sealed)-gcmTagLength]
	tag := sealed[len(sealed)-gcmTagLength:]

	return hex.EncodeToString(iv) + separator +
		hex.EncodeToString(tag) + separator +
		hex.EncodeToString(ct), nil
}

func decryptGCM(block gocipher.Block, ivHex, tagHex, ctHex string) (string, error) {
	iv, tag, ct, err := decodeFields(ivHex, tagHex, ctHex)
	if err != nil {
		return "", err
	}
	if len(iv) != ivLength || len(tag) != gcmTagLength {
		return "", fmt.Errorf("%w: bad iv or tag length", ErrMalformedPayload)
	}

	gcm, err := gocipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return string(plaintext), nil
}

// --- CBC (iv:ciphertext, PKCS#7 padding) ---

func encryptCBC(block gocipher.Block, iv, plaintext []byte) (string, error) {
	padded := padPKCS7(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	gocipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	return hex.EncodeToString(iv) + separator + hex.EncodeToString(ct), nil
}

func decryptCBC(block gocipher.Block, ivHex, ctHex string) (string, error) {
	iv, ct, _, err := decodeFields(ivHex, ctHex, "")
	if err != nil {
		return "", err
	}
	if len(iv) != ivLength {
		return "", fmt.Errorf("%w: bad iv length", ErrMalformedPayload)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not block-aligned", ErrDecryptFailed)
	}

	padded := make([]byte, len(ct))
	gocipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)

	plaintext, err := unpadPKCS7(padded, aes.BlockSize)
	if err != nil {
		// Bad padding after decryption almost always means a wrong key.
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return string(plaintext), nil
}

// --- Helpers ---

// decodeFields hex-decodes up to three payload fields. An empty field
// decodes to nil.
func decodeFields(a, b, c string) ([]byte, []byte, []byte, error) {
	out := make([][]byte, 3)
	for i, s := range []string{a, b, c} {
		if s == "" {
			continue
		}
		decoded, err := hex.DecodeString(s)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: non-hex field", ErrMalformedPayload)
		}
		out[i] = decoded
	}
	return out[0], out[1], out[2], nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty input")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
