package models

import "time"

// Committee is a database model for a conference committee.
type Committee struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Abbreviation string    `db:"abbreviation"`
	Chair        string    `db:"chair"`
	CoChair      string    `db:"co_chair"`
	Capacity     int       `db:"capacity"`
	SeatsFilled  int       `db:"seats_filled"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
