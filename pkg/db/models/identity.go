package models

import (
	"database/sql"
	"time"
)

// Identity is an email/password account held by the identity provider.
type Identity struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	AvatarURL    string    `db:"avatar_url"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IdentitySession is an issued session token, keyed by its token id.
type IdentitySession struct {
	ID         string       `db:"id"`
	IdentityID string       `db:"identity_id"`
	ExpiresAt  time.Time    `db:"expires_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
	CreatedAt  time.Time    `db:"created_at"`
}
