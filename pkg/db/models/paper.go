package models

import (
	"database/sql"
	"time"
)

// Paper is a position paper submitted by a delegate.
type Paper struct {
	ID            string         `db:"id"`
	ApplicationID string         `db:"application_id"`
	CommitteeID   sql.NullString `db:"committee_id"`
	Title         string         `db:"title"`
	FileURL       string         `db:"file_url"`
	Status        string         `db:"status"`
	Feedback      string         `db:"feedback"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}
