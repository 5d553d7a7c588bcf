package security

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurity_AESEncryption(t *testing.T) {
	t.Run("success - text is encrypted and decrypted", func(t *testing.T) {
		// arrange
		enc := NewAESEncrypter(newTestKey(t))
		expectedText := "this is some text"

		// act
		encrypted, encErr := enc.EncryptAES(expectedText)
		decrypted, err := enc.DecryptAES(encrypted)

		// assert
		assert.NoError(t, encErr)
		assert.NoError(t, err)
		assert.NotEqual(t, expectedText, encrypted)
		assert.Equal(t, expectedText, string(decrypted))
	})
	t.Run("failure - decrypting with another key", func(t *testing.T) {
		// arrange
		enc := NewAESEncrypter(newTestKey(t))
		other := NewAESEncrypter(newTestKey(t))
		encrypted, _ := enc.EncryptAES("secret")

		// act
		decrypted, err := other.DecryptAES(encrypted)

		// assert
		assert.Error(t, err)
		assert.Nil(t, decrypted)
	})
	t.Run("failure - short cipher text is rejected", func(t *testing.T) {
		// arrange
		enc := NewAESEncrypter(newTestKey(t))

		// act
		_, err := enc.DecryptAES("abcd")

		// assert
		assert.ErrorIs(t, err, ErrCipherTextTooShort)
	})
	t.Run("failure - invalid key length is reported", func(t *testing.T) {
		// arrange
		enc := NewAESEncrypter([]byte("short"))

		// act
		_, err := enc.EncryptAES("secret")

		// assert
		assert.Error(t, err)
	})
}

func newTestKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateRandomKey(32)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func unsetKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{HashKeyEnv, BlockKeyEnv, EncryptionKeyEnv} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestSecurity_GenerateRandomKey(t *testing.T) {
	// act
	first, firstErr := GenerateRandomKey(32)
	second, secondErr := GenerateRandomKey(32)

	// assert
	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
	assert.Len(t, first, 32)
	assert.Len(t, second, 32)
	assert.NotEqual(t, first, second)
}

func TestSecurity_NewKeys(t *testing.T) {
	t.Run("success - missing keys are generated and written to dotenv", func(t *testing.T) {
		// arrange
		dotenv := filepath.Join(t.TempDir(), ".env")
		unsetKeyEnv(t)

		// act
		keys, err := NewKeys(dotenv)

		// assert
		assert.NoError(t, err)
		assert.Len(t, keys.HashKey, 32)
		assert.Len(t, keys.BlockKey, 32)
		assert.Len(t, keys.EncryptionKey, 32)
		assert.NotEqual(t, keys.HashKey, keys.EncryptionKey)
		b, readErr := os.ReadFile(dotenv)
		assert.NoError(t, readErr)
		content := string(b)
		assert.Contains(t, content, HashKeyEnv+"="+hex.EncodeToString(keys.HashKey)+"\n")
		assert.Contains(t, content, BlockKeyEnv+"="+hex.EncodeToString(keys.BlockKey)+"\n")
		assert.Contains(
			t,
			content,
			EncryptionKeyEnv+"="+hex.EncodeToString(keys.EncryptionKey)+"\n",
		)
	})
	t.Run("success - keys from env are decoded", func(t *testing.T) {
		// arrange
		dotenv := filepath.Join(t.TempDir(), ".env")
		hashKey := strings.Repeat("ab", 32)
		blockKey := strings.Repeat("cd", 32)
		encryptionKey := strings.Repeat("ef", 32)
		t.Setenv(HashKeyEnv, hashKey)
		t.Setenv(BlockKeyEnv, blockKey)
		t.Setenv(EncryptionKeyEnv, encryptionKey)

		// act
		keys, err := NewKeys(dotenv)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, hashKey, hex.EncodeToString(keys.HashKey))
		assert.Equal(t, blockKey, hex.EncodeToString(keys.BlockKey))
		assert.Equal(t, encryptionKey, hex.EncodeToString(keys.EncryptionKey))
		_, statErr := os.Stat(dotenv)
		assert.ErrorIs(t, statErr, os.ErrNotExist)
	})
	t.Run("failure - key that is not hex is rejected", func(t *testing.T) {
		// arrange
		unsetKeyEnv(t)
		t.Setenv(EncryptionKeyEnv, "not-hex")

		// act
		keys, err := NewKeys(filepath.Join(t.TempDir(), ".env"))

		// assert
		assert.Nil(t, keys)
		assert.ErrorContains(t, err, EncryptionKeyEnv+" must be hex encoded")
	})
	t.Run("failure - key with the wrong length is rejected", func(t *testing.T) {
		// arrange
		unsetKeyEnv(t)
		t.Setenv(EncryptionKeyEnv, strings.Repeat("ab", 16))

		// act
		keys, err := NewKeys(filepath.Join(t.TempDir(), ".env"))

		// assert
		assert.Nil(t, keys)
		assert.ErrorContains(t, err, "must decode to 32 bytes, got 16")
	})
}
