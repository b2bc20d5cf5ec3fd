package database

import (
	"context"
	"time"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/store"
)

type identityStore struct{}

var _ store.IdentityStore = (*identityStore)(nil)

// CreateIdentity implements store.IdentityStore.
func (*identityStore) CreateIdentity(ctx context.Context, tx db.Handler, m models.Identity) error {
	query := tx.Rebind(`INSERT INTO identities (id, email, password_hash, display_name, avatar_url, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP);`)
	_, err := tx.ExecContext(ctx, query, m.ID, m.Email, m.PasswordHash, m.DisplayName, m.AvatarURL)
	return db.WrapError(err)
}

// GetIdentityByID implements store.IdentityStore.
func (*identityStore) GetIdentityByID(ctx context.Context, tx db.Handler, id string) (models.Identity, error) {
	var m models.Identity
	query := tx.Rebind(`SELECT * FROM identities WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// FindIdentityByEmail implements store.IdentityStore.
func (*identityStore) FindIdentityByEmail(ctx context.Context, tx db.Handler, email string) (models.Identity, error) {
	var m models.Identity
	query := tx.Rebind(`SELECT * FROM identities WHERE email = ?;`)
	err := tx.GetContext(ctx, &m, query, email)
	return m, db.WrapError(err)
}

// SetIdentityPassword implements store.IdentityStore.
func (*identityStore) SetIdentityPassword(ctx context.Context, tx db.Handler, id string, passwordHash string) error {
	query := tx.Rebind(`UPDATE identities SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, passwordHash, id))
}

// CreateIdentitySession implements store.IdentityStore.
func (*identityStore) CreateIdentitySession(ctx context.Context, tx db.Handler, id string, identityID string, expiresAt time.Time) error {
	query := tx.Rebind(`INSERT INTO identity_sessions (id, identity_id, expires_at)
			VALUES (?, ?, ?);`)
	_, err := tx.ExecContext(ctx, query, id, identityID, expiresAt.UTC())
	return db.WrapError(err)
}

// GetIdentitySession implements store.IdentityStore.
func (*identityStore) GetIdentitySession(ctx context.Context, tx db.Handler, id string) (models.IdentitySession, error) {
	var m models.IdentitySession
	query := tx.Rebind(`SELECT * FROM identity_sessions WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// RevokeIdentitySession implements store.IdentityStore.
func (*identityStore) RevokeIdentitySession(ctx context.Context, tx db.Handler, id string, at time.Time) error {
	query := tx.Rebind(`UPDATE identity_sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL;`)
	_, err := tx.ExecContext(ctx, query, at.UTC(), id)
	return db.WrapError(err)
}

// DeleteStaleIdentitySessions implements store.IdentityStore.
func (*identityStore) DeleteStaleIdentitySessions(ctx context.Context, tx db.Handler, now time.Time) (int64, error) {
	query := tx.Rebind(`DELETE FROM identity_sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL;`)
	res, err := tx.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, db.WrapError(err)
	}

	return res.RowsAffected() //nolint:wrapcheck
}
