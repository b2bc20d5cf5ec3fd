package proto

import "time"

// Committee is a conference committee.
type Committee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	Chair        string    `json:"chair"`
	CoChair      string    `json:"co_chair"`
	Capacity     int       `json:"capacity"`
	SeatsFilled  int       `json:"seats_filled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CommitteeOptions are the fields used to create or edit a committee.
type CommitteeOptions struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Capacity     int    `json:"capacity"`
}
