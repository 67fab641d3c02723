// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	v := New("master-key")

	t.Run("it should round trip arbitrary strings", func(t *testing.T) {
		for _, plaintext := range []string{"", "a", "api-token-123", "ünïcödé ✓", string(make([]byte, 4096))} {
			blob, err := v.Encrypt(plaintext)
			require.NoError(t, err)

			decrypted, err := v.Decrypt(blob)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		}
	})

	t.Run("it should lay out salt iv tag and ciphertext", func(t *testing.T) {
		blob, err := v.Encrypt("hello")
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)
		assert.Len(t, raw, saltLength+ivLength+tagLength+len("hello"))
	})

	t.Run("it should use a fresh salt for every blob", func(t *testing.T) {
		a, err := v.Encrypt("same")
		require.NoError(t, err)
		b, err := v.Encrypt("same")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("it should fail with a different key", func(t *testing.T) {
		blob, err := v.Encrypt("secret")
		require.NoError(t, err)

		_, err = New("another-key").Decrypt(blob)
		assert.Error(t, err)
	})

	t.Run("it should fail on a tampered blob", func(t *testing.T) {
		blob, err := v.Encrypt("secret")
		require.NoError(t, err)
		raw, _ := base64.StdEncoding.DecodeString(blob)
		raw[len(raw)-1] ^= 0xff

		_, err = v.Decrypt(base64.StdEncoding.EncodeToString(raw))
		assert.Error(t, err)
	})

	t.Run("it should reject blobs which are too short", func(t *testing.T) {
		_, err := v.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})
}

func TestDecryptCredentials(t *testing.T) {
	v := New("master-key")

	type credentials struct {
		Email    string `json:"email"`
		APIToken string `json:"apiToken"`
		BaseURL  string `json:"baseUrl"`
	}
	original := credentials{Email: "dev@example.com", APIToken: "token", BaseURL: "https://example.atlassian.net"}

	t.Run("it should decrypt the wrapped form", func(t *testing.T) {
		stored, err := v.EncryptJSON(original)
		require.NoError(t, err)
		assert.Contains(t, string(stored), `"encrypted"`)

		var decoded credentials
		require.NoError(t, v.DecryptCredentials(stored, &decoded))
		assert.Equal(t, original, decoded)
	})

	t.Run("it should accept the legacy plain form", func(t *testing.T) {
		var decoded credentials
		require.NoError(t, v.DecryptCredentials([]byte(`{"email":"dev@example.com","apiToken":"token","baseUrl":"https://example.atlassian.net"}`), &decoded))
		assert.Equal(t, original, decoded)
	})

	t.Run("it should fail for garbage", func(t *testing.T) {
		var decoded credentials
		assert.Error(t, v.DecryptCredentials([]byte(`{"encrypted":"not-base64!"}`), &decoded))
	})
}
