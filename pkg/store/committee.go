package store

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
)

// CommitteeStore is an interface for managing committees.
type CommitteeStore interface {
	GetCommitteeByID(ctx context.Context, h db.Handler, id string) (models.Committee, error)
	GetAllCommittees(ctx context.Context, h db.Handler) ([]models.Committee, error)
	CreateCommittee(ctx context.Context, h db.Handler, m models.Committee) error
	UpdateCommittee(ctx context.Context, h db.Handler, m models.Committee) error
	SetCommitteeLeader(ctx context.Context, h db.Handler, id string, coChair bool, name string) error
	DeleteCommitteeByID(ctx context.Context, h db.Handler, id string) error
}
