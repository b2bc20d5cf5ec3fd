package database

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/store"
)

type paperStore struct{}

var _ store.PaperStore = (*paperStore)(nil)

// GetPaperByID implements store.PaperStore.
func (*paperStore) GetPaperByID(ctx context.Context, tx db.Handler, id string) (models.Paper, error) {
	var m models.Paper
	query := tx.Rebind(`SELECT * FROM papers WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// GetAllPapers implements store.PaperStore.
func (*paperStore) GetAllPapers(ctx context.Context, tx db.Handler) ([]models.Paper, error) {
	var papers []models.Paper
	query := tx.Rebind(`SELECT * FROM papers ORDER BY created_at DESC, id;`)
	err := tx.SelectContext(ctx, &papers, query)
	return papers, db.WrapError(err)
}

// GetPapersByApplicationID implements store.PaperStore.
func (*paperStore) GetPapersByApplicationID(ctx context.Context, tx db.Handler, applicationID string) ([]models.Paper, error) {
	var papers []models.Paper
	query := tx.Rebind(`SELECT * FROM papers WHERE application_id = ? ORDER BY created_at DESC, id;`)
	err := tx.SelectContext(ctx, &papers, query, applicationID)
	return papers, db.WrapError(err)
}

// GetPapersByCommitteeID implements store.PaperStore.
func (*paperStore) GetPapersByCommitteeID(ctx context.Context, tx db.Handler, committeeID string) ([]models.Paper, error) {
	var papers []models.Paper
	query := tx.Rebind(`SELECT * FROM papers WHERE committee_id = ? ORDER BY created_at DESC, id;`)
	err := tx.SelectContext(ctx, &papers, query, committeeID)
	return papers, db.WrapError(err)
}

// CreatePaper implements store.PaperStore.
func (*paperStore) CreatePaper(ctx context.Context, tx db.Handler, m models.Paper) error {
	query := tx.Rebind(`INSERT INTO papers (id, application_id, committee_id, title, file_url, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);`)
	_, err := tx.ExecContext(ctx, query, m.ID, m.ApplicationID, m.CommitteeID, m.Title, m.FileURL, m.Status)
	return db.WrapError(err)
}

// ReviewPaper implements store.PaperStore.
func (*paperStore) ReviewPaper(ctx context.Context, tx db.Handler, id string, status string, feedback string) error {
	query := tx.Rebind(`UPDATE papers SET status = ?, feedback = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, status, feedback, id))
}
