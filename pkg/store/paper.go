package store

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
)

// PaperStore is an interface for managing position papers.
type PaperStore interface {
	GetPaperByID(ctx context.Context, h db.Handler, id string) (models.Paper, error)
	GetAllPapers(ctx context.Context, h db.Handler) ([]models.Paper, error)
	GetPapersByApplicationID(ctx context.Context, h db.Handler, applicationID string) ([]models.Paper, error)
	GetPapersByCommitteeID(ctx context.Context, h db.Handler, committeeID string) ([]models.Paper, error)
	CreatePaper(ctx context.Context, h db.Handler, m models.Paper) error
	ReviewPaper(ctx context.Context, h db.Handler, id string, status string, feedback string) error
}
