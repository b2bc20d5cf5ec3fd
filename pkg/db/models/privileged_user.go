package models

import (
	"database/sql"
	"time"
)

// PrivilegedUser is a directory record granting a role to an email.
type PrivilegedUser struct {
	ID            string         `db:"id"`
	Email         string         `db:"email"`
	Role          string         `db:"role"`
	FullName      string         `db:"full_name"`
	IsActive      bool           `db:"is_active"`
	CommitteeID   sql.NullString `db:"committee_id"`
	CommitteeRole sql.NullString `db:"committee_role"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}
