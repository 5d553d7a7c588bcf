package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

const sshKeyColumns = `id, user_id, name, public_key, private_key_hash, passphrase_hash,
	provider, fingerprint, is_active, description, created_at, updated_at`

// SSHKeySQLStore persists SSH keys in either SQLite or Postgres; all queries
// stick to syntax both understand.
type SSHKeySQLStore struct {
	rdb, rwdb *sql.DB
	now       func() time.Time
}

func NewSSHKeySQLStore(rdb, rwdb *sql.DB) *SSHKeySQLStore {
	return &SSHKeySQLStore{
		rdb:  rdb,
		rwdb: rwdb,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (store *SSHKeySQLStore) CreateSSHKey(ctx context.Context, k *SSHKey) (*SSHKey, error) {
	now := store.now()
	created := *k
	created.IsActive = true
	created.CreatedAt = now
	created.UpdatedAt = now
	query := `insert into ssh_keys (
		user_id,
		name,
		public_key,
		private_key_hash,
		passphrase_hash,
		provider,
		fingerprint,
		is_active,
		description,
		created_at,
		updated_at
	)
	values ($1, $2, $3, $4, $5, $6, $7, true, $8, $9, $10)
	returning id`
	err := sqlscan.Get(
		ctx, store.rwdb, &created.ID, query,
		created.UserID,
		created.Name,
		created.PublicKey,
		created.PrivateKeyHash,
		created.PassphraseHash,
		created.Provider,
		created.Fingerprint,
		created.Description,
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ReadSSHKeyByID returns the active key with id owned by userID, or
// sql.ErrNoRows.
func (store *SSHKeySQLStore) ReadSSHKeyByID(
	ctx context.Context,
	id int64,
	userID string,
) (*SSHKey, error) {
	k := new(SSHKey)
	query := `select ` + sshKeyColumns + ` from ssh_keys
	where id = $1 and user_id = $2 and is_active = true`
	err := sqlscan.Get(ctx, store.rdb, k, query, id, userID)
	if err != nil {
		return nil, err
	}
	return k, nil
}

func (store *SSHKeySQLStore) UpdateSSHKey(ctx context.Context, k *SSHKey) error {
	k.UpdatedAt = store.now()
	query := `update ssh_keys
	set name = $1,
		public_key = $2,
		private_key_hash = $3,
		passphrase_hash = $4,
		provider = $5,
		fingerprint = $6,
		description = $7,
		updated_at = $8
	where id = $9 and user_id = $10 and is_active = true`
	res, err := store.rwdb.ExecContext(
		ctx, query,
		k.Name,
		k.PublicKey,
		k.PrivateKeyHash,
		k.PassphraseHash,
		k.Provider,
		k.Fingerprint,
		k.Description,
		k.UpdatedAt,
		k.ID,
		k.UserID,
	)
	return expectAffected(res, err)
}

// DeactivateSSHKey flips is_active off. The row itself is kept.
func (store *SSHKeySQLStore) DeactivateSSHKey(ctx context.Context, id int64, userID string) error {
	query := `update ssh_keys
	set is_active = false,
		updated_at = $1
	where id = $2 and user_id = $3 and is_active = true`
	res, err := store.rwdb.ExecContext(ctx, query, store.now(), id, userID)
	return expectAffected(res, err)
}

func (store *SSHKeySQLStore) ListSSHKeys(ctx context.Context, userID string) ([]*SSHKey, error) {
	query := `select ` + sshKeyColumns + ` from ssh_keys
	where user_id = $1 and is_active = true
	order by created_at desc, id desc`
	keys := make([]*SSHKey, 0)
	err := sqlscan.Select(ctx, store.rdb, &keys, query, userID)
	return keys, err
}

func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
