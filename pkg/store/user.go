package store

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
)

// PrivilegedUserStore is an interface for managing privileged users.
type PrivilegedUserStore interface {
	GetPrivilegedUserByID(ctx context.Context, h db.Handler, id string) (models.PrivilegedUser, error)
	FindPrivilegedUserByEmail(ctx context.Context, h db.Handler, email string) (models.PrivilegedUser, error)
	GetAllPrivilegedUsers(ctx context.Context, h db.Handler) ([]models.PrivilegedUser, error)
	CreatePrivilegedUser(ctx context.Context, h db.Handler, m models.PrivilegedUser) error
	UpdatePrivilegedUser(ctx context.Context, h db.Handler, m models.PrivilegedUser) error
	DeletePrivilegedUserByID(ctx context.Context, h db.Handler, id string) error
}
