package store

import "time"

type Provider string

const (
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderBitbucket Provider = "bitbucket"
	ProviderOther     Provider = "other"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderGitHub, ProviderGitLab, ProviderBitbucket, ProviderOther:
		return true
	default:
		return false
	}
}

type SSHKey struct {
	ID             int64
	UserID         string
	Name           string
	PublicKey      string
	PrivateKeyHash *string
	PassphraseHash *string
	Provider       Provider
	Fingerprint    string
	IsActive       bool
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Decrypted private key, only populated on explicit request
	PrivateKey *string `db:"-"`
}

func (k *SSHKey) HasPrivateKey() bool {
	return k.PrivateKeyHash != nil && *k.PrivateKeyHash != ""
}
