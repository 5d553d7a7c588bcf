package security

import (
	"crypto/aes"
	"crypto/cipher"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/gorilla/securecookie"
)

var (
	ErrCipherTextTooShort = errors.New("cipher text is shorter than nonce")
	ErrKeyGeneration      = errors.New("err generating random key")
)

type Encrypter interface {
	EncryptAES(string) (string, error)
	DecryptAES(string) ([]byte, error)
}

type AESEncrypter struct {
	Key []byte
}

func NewAESEncrypter(key []byte) *AESEncrypter {
	return &AESEncrypter{Key: key}
}

func (e *AESEncrypter) gcm() (cipher.AEAD, error) {
	c, err := aes.NewCipher(e.Key)
	if err != nil {
		return nil, fmt.Errorf("err new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, fmt.Errorf("err new gcm: %w", err)
	}
	return gcm, nil
}

func (e *AESEncrypter) EncryptAES(text string) (string, error) {
	gcm, err := e.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := crand.Read(nonce); err != nil {
		return "", fmt.Errorf("err reading nonce: %w", err)
	}

	out := gcm.Seal(nonce, nonce, []byte(text), nil)
	return hex.EncodeToString(out), nil
}

func (e *AESEncrypter) DecryptAES(encrypted string) ([]byte, error) {
	cipherText, err := hex.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("err decoding hex: %w", err)
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(cipherText) < nonceSize {
		return nil, ErrCipherTextTooShort
	}
	nonce, cipherText := cipherText[:nonceSize], cipherText[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("err opening gcm: %w", err)
	}
	return plaintext, nil
}

const (
	HashKeyEnv       = "GITBRIDGE_HASH_KEY"
	BlockKeyEnv      = "GITBRIDGE_BLOCK_KEY"
	EncryptionKeyEnv = "GITBRIDGE_ENCRYPTION_KEY"
)

// Keys holds the secrets the server needs at startup. HashKey and BlockKey
// sign and encrypt cookies; EncryptionKey protects SSH key material at rest.
type Keys struct {
	HashKey       []byte
	BlockKey      []byte
	EncryptionKey []byte
}

// NewKeys reads the hex encoded keys from the environment. Keys missing from
// the environment are generated and appended to dotenvPath so they survive
// restarts.
func NewKeys(dotenvPath string) (*Keys, error) {
	hashKey, err := loadOrGenerateKey(dotenvPath, HashKeyEnv, 32)
	if err != nil {
		return nil, err
	}
	blockKey, err := loadOrGenerateKey(dotenvPath, BlockKeyEnv, 32)
	if err != nil {
		return nil, err
	}
	encryptionKey, err := loadOrGenerateKey(dotenvPath, EncryptionKeyEnv, 32)
	if err != nil {
		return nil, err
	}
	return &Keys{HashKey: hashKey, BlockKey: blockKey, EncryptionKey: encryptionKey}, nil
}

func loadOrGenerateKey(dotenvPath, name string, length int) ([]byte, error) {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		key, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be hex encoded: %w", name, err)
		}
		if len(key) != length {
			return nil, fmt.Errorf("%s must decode to %d bytes, got %d", name, length, len(key))
		}
		return key, nil
	}

	key, err := GenerateRandomKey(length)
	if err != nil {
		return nil, err
	}
	if err := writeToDotenv(dotenvPath, name, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

func writeToDotenv(path, name, value string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(name + "=" + value + "\n"))
	return err
}

// GenerateRandomKey returns length bytes from the system's secure random
// source.
func GenerateRandomKey(length int) ([]byte, error) {
	key := securecookie.GenerateRandomKey(length)
	if key == nil {
		return nil, ErrKeyGeneration
	}
	return key, nil
}
