package store

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
)

// ApplicationStore is an interface for managing delegate applications.
type ApplicationStore interface {
	GetApplicationByID(ctx context.Context, h db.Handler, id string) (models.Application, error)
	FindApplicationByEmail(ctx context.Context, h db.Handler, email string) (models.Application, error)
	GetAllApplications(ctx context.Context, h db.Handler) ([]models.Application, error)
	GetApplicationsByCommitteeID(ctx context.Context, h db.Handler, committeeID string) ([]models.Application, error)
	CreateApplication(ctx context.Context, h db.Handler, m models.Application) error
	SetApplicationStatus(ctx context.Context, h db.Handler, id string, status string) error
	SetApplicationCommittee(ctx context.Context, h db.Handler, id string, committeeID *string) error
}
