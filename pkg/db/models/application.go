package models

import (
	"database/sql"
	"time"
)

// Application is a delegate application.
type Application struct {
	ID                  string         `db:"id"`
	Email               string         `db:"email"`
	FullName            string         `db:"full_name"`
	Institution         string         `db:"institution"`
	CommitteePreference string         `db:"committee_preference"`
	Status              string         `db:"status"`
	AssignedCommitteeID sql.NullString `db:"assigned_committee_id"`
	PaymentStatus       string         `db:"payment_status"`
	PaymentReference    string         `db:"payment_reference"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}
