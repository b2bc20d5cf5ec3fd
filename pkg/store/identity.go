package store

import (
	"context"
	"time"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
)

// IdentityStore is an interface for managing identities and their sessions.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, h db.Handler, m models.Identity) error
	GetIdentityByID(ctx context.Context, h db.Handler, id string) (models.Identity, error)
	FindIdentityByEmail(ctx context.Context, h db.Handler, email string) (models.Identity, error)
	SetIdentityPassword(ctx context.Context, h db.Handler, id string, passwordHash string) error

	CreateIdentitySession(ctx context.Context, h db.Handler, id string, identityID string, expiresAt time.Time) error
	GetIdentitySession(ctx context.Context, h db.Handler, id string) (models.IdentitySession, error)
	RevokeIdentitySession(ctx context.Context, h db.Handler, id string, at time.Time) error
	DeleteStaleIdentitySessions(ctx context.Context, h db.Handler, now time.Time) (int64, error)
}
