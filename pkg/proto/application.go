package proto

import "time"

// Known application statuses. The stored value is an open string.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusWaitlisted = "waitlisted"
)

// Application is a delegate application.
type Application struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	Institution         string    `json:"institution,omitempty"`
	CommitteePreference string    `json:"committee_preference,omitempty"`
	Status              string    `json:"status"`
	AssignedCommitteeID string    `json:"assigned_committee_id,omitempty"`
	PaymentStatus       string    `json:"payment_status"`
	PaymentReference    string    `json:"payment_reference,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ApplicationOptions are the fields a delegate submits.
type ApplicationOptions struct {
	FullName            string `json:"full_name"`
	Institution         string `json:"institution"`
	CommitteePreference string `json:"committee_preference"`
}
