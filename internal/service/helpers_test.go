package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/haatos/gitbridge/internal/security"
	"github.com/haatos/gitbridge/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/ssh"
)

var testEncryptionKey = []byte("0123456789abcdef0123456789abcdef")

func newTestEncrypter() *security.AESEncrypter {
	return security.NewAESEncrypter(testEncryptionKey)
}

// generateKeyPair returns a PEM encoded private key and an authorized_keys
// line with a user@host comment.
func generateKeyPair(t *testing.T) (string, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	authorized := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))) + " test@host"
	return string(pem.EncodeToMemory(block)), authorized
}

type MockSSHKeyStore struct {
	mock.Mock
}

func (m *MockSSHKeyStore) CreateSSHKey(ctx context.Context, k *store.SSHKey) (*store.SSHKey, error) {
	args := m.Called(ctx, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SSHKey), args.Error(1)
}

func (m *MockSSHKeyStore) ReadSSHKeyByID(
	ctx context.Context,
	id int64,
	userID string,
) (*store.SSHKey, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SSHKey), args.Error(1)
}

func (m *MockSSHKeyStore) UpdateSSHKey(ctx context.Context, k *store.SSHKey) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockSSHKeyStore) DeactivateSSHKey(ctx context.Context, id int64, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockSSHKeyStore) ListSSHKeys(ctx context.Context, userID string) ([]*store.SSHKey, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*store.SSHKey), args.Error(1)
}

func newTestSSHKeyService(s SSHKeyStore) *SSHKeyService {
	return NewSSHKeyService(s, newTestEncrypter(), zerolog.Nop())
}
