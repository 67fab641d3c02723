// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

// Package vault encrypts credentials at rest.
//
// A blob is base64(salt || iv || authTag || ciphertext). The key is derived from the
// master key with PBKDF2-SHA256 and a fresh salt per blob, the cipher is AES-256-GCM.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength       = 32
	ivLength         = 16
	tagLength        = 16
	keyLength        = 32
	pbkdf2Iterations = 100_000

	insecureDevelopmentKey = "issuesync-insecure-development-key-do-not-use"
)

var ErrMalformedBlob = errors.New("malformed encrypted blob")

type Vault struct {
	masterKey []byte
}

func New(masterKey string) *Vault {
	return &Vault{masterKey: []byte(masterKey)}
}

// NewFromEnv reads ENCRYPTION_KEY. Without it an insecure development key is used.
func NewFromEnv() *Vault {
	key := os.Getenv("ENCRYPTION_KEY")
	if key == "" {
		slog.Warn("ENCRYPTION_KEY is not set, falling back to an INSECURE development key. never run like this in production")
		key = insecureDevelopmentKey
	}
	return New(key)
}

func (v *Vault) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(v.masterKey, salt, pbkdf2Iterations, keyLength, sha256.New)
}

func (v *Vault) newGCM(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivLength)
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	iv := make([]byte, ivLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("could not generate salt: %w", err)
	}
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("could not generate iv: %w", err)
	}

	gcm, err := v.newGCM(salt)
	if err != nil {
		return "", fmt.Errorf("could not create cipher: %w", err)
	}

	// Seal appends the tag to the ciphertext
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagLength], sealed[len(sealed)-tagLength:]

	out := make([]byte, 0, saltLength+ivLength+tagLength+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (v *Vault) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	if len(raw) < saltLength+ivLength+tagLength {
		return "", ErrMalformedBlob
	}

	salt := raw[:saltLength]
	iv := raw[saltLength : saltLength+ivLength]
	tag := raw[saltLength+ivLength : saltLength+ivLength+tagLength]
	ciphertext := raw[saltLength+ivLength+tagLength:]

	gcm, err := v.newGCM(salt)
	if err != nil {
		return "", fmt.Errorf("could not create cipher: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("could not decrypt blob: %w", err)
	}
	return string(plaintext), nil
}

// EncryptedCredentials is the wrapped storage form of a credentials object.
type EncryptedCredentials struct {
	Encrypted string `json:"encrypted"`
}

// EncryptJSON marshals v and wraps the encrypted result as {"encrypted": "..."}.
func (v *Vault) EncryptJSON(value any) ([]byte, error) {
	plain, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	blob, err := v.Encrypt(string(plain))
	if err != nil {
		return nil, err
	}
	return json.Marshal(EncryptedCredentials{Encrypted: blob})
}

// DecryptCredentials understands both the legacy plain object and the wrapped
// {"encrypted": "..."} form and decodes the credentials into target.
func (v *Vault) DecryptCredentials(stored []byte, target any) error {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(stored, &wrapped); err != nil {
		return fmt.Errorf("could not parse stored credentials: %w", err)
	}

	encrypted, ok := wrapped["encrypted"]
	if !ok {
		return json.Unmarshal(stored, target)
	}

	var blob string
	if err := json.Unmarshal(encrypted, &blob); err != nil {
		return fmt.Errorf("could not parse encrypted credentials: %w", err)
	}
	plain, err := v.Decrypt(blob)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plain), target); err != nil {
		return fmt.Errorf("could not parse decrypted credentials: %w", err)
	}
	return nil
}
