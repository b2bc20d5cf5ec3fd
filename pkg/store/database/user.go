package database

import (
	"context"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/store"
)

type userStore struct{}

var _ store.PrivilegedUserStore = (*userStore)(nil)

// GetPrivilegedUserByID implements store.PrivilegedUserStore.
func (*userStore) GetPrivilegedUserByID(ctx context.Context, tx db.Handler, id string) (models.PrivilegedUser, error) {
	var m models.PrivilegedUser
	query := tx.Rebind(`SELECT * FROM privileged_users WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, db.WrapError(err)
}

// FindPrivilegedUserByEmail implements store.PrivilegedUserStore.
// The match is exact and case-sensitive.
func (*userStore) FindPrivilegedUserByEmail(ctx context.Context, tx db.Handler, email string) (models.PrivilegedUser, error) {
	var m models.PrivilegedUser
	query := tx.Rebind(`SELECT * FROM privileged_users WHERE email = ?;`)
	err := tx.GetContext(ctx, &m, query, email)
	return m, db.WrapError(err)
}

// GetAllPrivilegedUsers implements store.PrivilegedUserStore.
func (*userStore) GetAllPrivilegedUsers(ctx context.Context, tx db.Handler) ([]models.PrivilegedUser, error) {
	var users []models.PrivilegedUser
	query := tx.Rebind(`SELECT * FROM privileged_users ORDER BY email;`)
	err := tx.SelectContext(ctx, &users, query)
	return users, db.WrapError(err)
}

// CreatePrivilegedUser implements store.PrivilegedUserStore.
func (*userStore) CreatePrivilegedUser(ctx context.Context, tx db.Handler, m models.PrivilegedUser) error {
	query := tx.Rebind(`INSERT INTO privileged_users (id, email, role, full_name, is_active, committee_id, committee_role, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);`)
	_, err := tx.ExecContext(ctx, query, m.ID, m.Email, m.Role, m.FullName, m.IsActive, m.CommitteeID, m.CommitteeRole)
	return db.WrapError(err)
}

// UpdatePrivilegedUser implements store.PrivilegedUserStore.
func (*userStore) UpdatePrivilegedUser(ctx context.Context, tx db.Handler, m models.PrivilegedUser) error {
	query := tx.Rebind(`UPDATE privileged_users
			SET role = ?, full_name = ?, is_active = ?, committee_id = ?, committee_role = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, m.Role, m.FullName, m.IsActive, m.CommitteeID, m.CommitteeRole, m.ID))
}

// DeletePrivilegedUserByID implements store.PrivilegedUserStore.
func (*userStore) DeletePrivilegedUserByID(ctx context.Context, tx db.Handler, id string) error {
	query := tx.Rebind(`DELETE FROM privileged_users WHERE id = ?;`)
	return mustAffect(tx.ExecContext(ctx, query, id))
}
