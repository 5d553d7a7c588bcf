package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/haatos/gitbridge/internal/security"
	"github.com/haatos/gitbridge/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

var publicKeyPattern = regexp.MustCompile(
	`^(ssh-rsa|ssh-ed25519|ecdsa-sha2-nistp256|ecdsa-sha2-nistp384|ecdsa-sha2-nistp521)\s+[A-Za-z0-9+/]+[=]{0,3}\s+[^@]+@[^@]+$`,
)

type SSHKeyWriter interface {
	CreateSSHKey(context.Context, *store.SSHKey) (*store.SSHKey, error)
	UpdateSSHKey(context.Context, *store.SSHKey) error
	DeactivateSSHKey(context.Context, int64, string) error
}

type SSHKeyReader interface {
	ReadSSHKeyByID(context.Context, int64, string) (*store.SSHKey, error)
	ListSSHKeys(context.Context, string) ([]*store.SSHKey, error)
}

type SSHKeyStore interface {
	SSHKeyWriter
	SSHKeyReader
}

type NewSSHKey struct {
	Name        string
	PublicKey   string
	PrivateKey  *string
	Passphrase  *string
	Provider    store.Provider
	Description string
}

// SSHKeyUpdate holds the fields to change. Nil fields keep their value.
type SSHKeyUpdate struct {
	Name        *string
	PublicKey   *string
	PrivateKey  *string
	Passphrase  *string
	Provider    *store.Provider
	Description *string
}

// KeyMaterial is a decrypted keypair ready to be handed to a pipeline run.
type KeyMaterial struct {
	PrivateKey []byte
	PublicKey  []byte
	Passphrase string
}

type SSHKeyService struct {
	sshKeyStore SSHKeyStore
	encrypter   security.Encrypter
	logger      zerolog.Logger
}

func NewSSHKeyService(
	s SSHKeyStore,
	encrypter security.Encrypter,
	logger zerolog.Logger,
) *SSHKeyService {
	return &SSHKeyService{
		sshKeyStore: s,
		encrypter:   encrypter,
		logger:      logger.With().Str("component", "ssh_keys").Logger(),
	}
}

// ValidatePublicKey checks the authorized_keys text form of publicKey and
// returns its SHA256 fingerprint.
func ValidatePublicKey(publicKey string) (string, error) {
	publicKey = strings.TrimSpace(publicKey)
	if !publicKeyPattern.MatchString(publicKey) {
		return "", NewValidationError("Invalid SSH key format")
	}
	pk, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicKey))
	if err != nil {
		return "", NewValidationError("Invalid SSH key format")
	}
	if pk.Type() != strings.Fields(publicKey)[0] {
		return "", NewValidationError("Invalid SSH key format")
	}
	return ssh.FingerprintSHA256(pk), nil
}

func (s *SSHKeyService) CreateSSHKey(
	ctx context.Context,
	userID string,
	nk NewSSHKey,
) (*store.SSHKey, error) {
	if strings.TrimSpace(nk.Name) == "" || strings.TrimSpace(nk.PublicKey) == "" {
		return nil, NewValidationError("Name and public key are required")
	}
	fingerprint, err := ValidatePublicKey(nk.PublicKey)
	if err != nil {
		return nil, err
	}
	provider, err := resolveProvider(nk.Provider)
	if err != nil {
		return nil, err
	}

	k := &store.SSHKey{
		UserID:      userID,
		Name:        strings.TrimSpace(nk.Name),
		PublicKey:   strings.TrimSpace(nk.PublicKey),
		Provider:    provider,
		Fingerprint: fingerprint,
		Description: nk.Description,
	}
	if k.PrivateKeyHash, err = s.encryptOptional(nk.PrivateKey); err != nil {
		return nil, err
	}
	if k.PassphraseHash, err = s.encryptOptional(nk.Passphrase); err != nil {
		return nil, err
	}

	created, err := s.sshKeyStore.CreateSSHKey(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("err creating ssh key: %w", err)
	}
	s.logger.Info().
		Int64("id", created.ID).
		Str("user_id", userID).
		Str("fingerprint", fingerprint).
		Msg("ssh key created")
	return created, nil
}

func (s *SSHKeyService) ListSSHKeys(ctx context.Context, userID string) ([]*store.SSHKey, error) {
	return s.sshKeyStore.ListSSHKeys(ctx, userID)
}

// GetSSHKey returns the active key id owned by userID. The decrypted private
// key is attached only when includePrivateKey is set.
func (s *SSHKeyService) GetSSHKey(
	ctx context.Context,
	id int64,
	userID string,
	includePrivateKey bool,
) (*store.SSHKey, error) {
	k, err := s.sshKeyStore.ReadSSHKeyByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if includePrivateKey && k.HasPrivateKey() {
		b, err := s.encrypter.DecryptAES(*k.PrivateKeyHash)
		if err != nil {
			return nil, fmt.Errorf("err decrypting private key: %w", err)
		}
		pk := string(b)
		k.PrivateKey = &pk
	}
	return k, nil
}

func (s *SSHKeyService) UpdateSSHKey(
	ctx context.Context,
	id int64,
	userID string,
	u SSHKeyUpdate,
) (*store.SSHKey, error) {
	k, err := s.sshKeyStore.ReadSSHKeyByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, NewValidationError("Name cannot be empty")
		}
		k.Name = strings.TrimSpace(*u.Name)
	}
	if u.PublicKey != nil {
		fingerprint, err := ValidatePublicKey(*u.PublicKey)
		if err != nil {
			return nil, err
		}
		k.PublicKey = strings.TrimSpace(*u.PublicKey)
		k.Fingerprint = fingerprint
	}
	if u.Provider != nil {
		if k.Provider, err = resolveProvider(*u.Provider); err != nil {
			return nil, err
		}
	}
	if u.Description != nil {
		k.Description = *u.Description
	}
	if u.PrivateKey != nil {
		if k.PrivateKeyHash, err = s.encryptOptional(u.PrivateKey); err != nil {
			return nil, err
		}
	}
	if u.Passphrase != nil {
		if k.PassphraseHash, err = s.encryptOptional(u.Passphrase); err != nil {
			return nil, err
		}
	}

	if err := s.sshKeyStore.UpdateSSHKey(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *SSHKeyService) DeleteSSHKey(ctx context.Context, id int64, userID string) error {
	if err := s.sshKeyStore.DeactivateSSHKey(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info().Int64("id", id).Str("user_id", userID).Msg("ssh key deactivated")
	return nil
}

// GetSSHKeyMaterial decrypts the stored keypair of id for use by a pipeline
// run. Keys stored without a private half cannot be used.
func (s *SSHKeyService) GetSSHKeyMaterial(
	ctx context.Context,
	id int64,
	userID string,
) (*KeyMaterial, error) {
	k, err := s.sshKeyStore.ReadSSHKeyByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !k.HasPrivateKey() {
		return nil, NewValidationError("SSH key %d has no private key", id)
	}
	privateKey, err := s.encrypter.DecryptAES(*k.PrivateKeyHash)
	if err != nil {
		return nil, fmt.Errorf("err decrypting private key: %w", err)
	}
	m := &KeyMaterial{
		PrivateKey: privateKey,
		PublicKey:  []byte(k.PublicKey + "\n"),
	}
	if k.PassphraseHash != nil && *k.PassphraseHash != "" {
		passphrase, err := s.encrypter.DecryptAES(*k.PassphraseHash)
		if err != nil {
			return nil, fmt.Errorf("err decrypting passphrase: %w", err)
		}
		m.Passphrase = string(passphrase)
	}
	return m, nil
}

func (s *SSHKeyService) encryptOptional(value *string) (*string, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	hash, err := s.encrypter.EncryptAES(*value)
	if err != nil {
		return nil, fmt.Errorf("err encrypting secret: %w", err)
	}
	return &hash, nil
}

func resolveProvider(p store.Provider) (store.Provider, error) {
	if p == "" {
		return store.ProviderGitHub, nil
	}
	p = store.Provider(strings.ToLower(string(p)))
	if !p.Valid() {
		return "", NewValidationError("provider must be one of github, gitlab, bitbucket, other")
	}
	return p, nil
}
