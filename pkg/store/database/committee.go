package database

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/store"
)

type committeeStore struct{}

var _ store.CommitteeStore = (*committeeStore)(nil)

// GetCommitteeByID implements store.CommitteeStore.
func (*committeeStore) GetCommitteeByID(ctx context.Context, tx db.Handler, id string) (models.Committee, error) {
	var m models.Committee
	query := tx.Rebind(`SELECT * FROM committees WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// GetAllCommittees implements store.CommitteeStore.
func (*committeeStore) GetAllCommittees(ctx context.Context, tx db.Handler) ([]models.Committee, error) {
	var committees []models.Committee
	query := tx.Rebind(`SELECT * FROM committees ORDER BY name;`)
	err := tx.SelectContext(ctx, &committees, query)
	return committees, db.WrapError(err)
}

// CreateCommittee implements store.CommitteeStore.
func (*committeeStore) CreateCommittee(ctx context.Context, tx db.Handler, m models.Committee) error {
	query := tx.Rebind(`INSERT INTO committees (id, name, abbreviation, chair, co_chair, capacity, seats_filled, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);`)
	_, err := tx.ExecContext(ctx, query, m.ID, m.Name, m.Abbreviation, m.Chair, m.CoChair, m.Capacity, m.SeatsFilled)
	return db.WrapError(err)
}

// UpdateCommittee implements store.CommitteeStore.
func (*committeeStore) UpdateCommittee(ctx context.Context, tx db.Handler, m models.Committee) error {
	query := tx.Rebind(`UPDATE committees
			SET name = ?, abbreviation = ?, capacity = ?, seats_filled = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, m.Name, m.Abbreviation, m.Capacity, m.SeatsFilled, m.ID))
}

// SetCommitteeLeader implements store.CommitteeStore. It only updates the
// display name; the authoritative link lives on the privileged user.
func (*committeeStore) SetCommitteeLeader(ctx context.Context, tx db.Handler, id string, coChair bool, name string) error {
	query := `UPDATE committees SET chair = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`
	if coChair {
		query = `UPDATE committees SET co_chair = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`
	}

	return mustAffect(tx.ExecContext(ctx, tx.Rebind(query), name, id))
}

// DeleteCommitteeByID implements store.CommitteeStore.
func (*committeeStore) DeleteCommitteeByID(ctx context.Context, tx db.Handler, id string) error {
	query := tx.Rebind(`DELETE FROM committees WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, id))
}
