package database

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/store"
)

type applicationStore struct{}

var _ store.ApplicationStore = (*applicationStore)(nil)

// GetApplicationByID implements store.ApplicationStore.
func (*applicationStore) GetApplicationByID(ctx context.Context, tx db.Handler, id string) (models.Application, error) {
	var m models.Application
	query := tx.Rebind(`SELECT * FROM applications WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// FindApplicationByEmail implements store.ApplicationStore.
func (*applicationStore) FindApplicationByEmail(ctx context.Context, tx db.Handler, email string) (models.Application, error) {
	var m models.Application
	query := tx.Rebind(`SELECT * FROM applications WHERE email = ?;`)
	err := tx.GetContext(ctx, &m, query, email)
	return m, db.WrapError(err)
}

// GetAllApplications implements store.ApplicationStore.
func (*applicationStore) GetAllApplications(ctx context.Context, tx db.Handler) ([]models.Application, error) {
	var apps []models.Application
	query := tx.Rebind(`SELECT * FROM applications ORDER BY created_at DESC, id;`)
	err := tx.SelectContext(ctx, &apps, query)
	return apps, db.WrapError(err)
}

// GetApplicationsByCommitteeID implements store.ApplicationStore.
func (*applicationStore) GetApplicationsByCommitteeID(ctx context.Context, tx db.Handler, committeeID string) ([]models.Application, error) {
	var apps []models.Application
	query := tx.Rebind(`SELECT * FROM applications WHERE assigned_committee_id = ? ORDER BY created_at DESC, id;`)
	err := tx.SelectContext(ctx, &apps, query, committeeID)
	return apps, db.WrapError(err)
}

// CreateApplication implements store.ApplicationStore.
func (*applicationStore) CreateApplication(ctx context.Context, tx db.Handler, m models.Application) error {
	query := tx.Rebind(`INSERT INTO applications (id, email, full_name, institution, committee_preference, status, payment_status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);`)
	_, err := tx.ExecContext(ctx, query, m.ID, m.Email, m.FullName, m.Institution, m.CommitteePreference, m.Status, m.PaymentStatus)
	return db.WrapError(err)
}

// SetApplicationStatus implements store.ApplicationStore.
func (*applicationStore) SetApplicationStatus(ctx context.Context, tx db.Handler, id string, status string) error {
	query := tx.Rebind(`UPDATE applications SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, status, id))
}

// SetApplicationCommittee implements store.ApplicationStore. A nil
// committeeID clears the assignment.
func (*applicationStore) SetApplicationCommittee(ctx context.Context, tx db.Handler, id string, committeeID *string) error {
	query := tx.Rebind(`UPDATE applications SET assigned_committee_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, nullString(committeeID), id))
}
