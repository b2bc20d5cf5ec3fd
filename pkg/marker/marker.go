// Package marker issues and validates break-glass admin markers. A marker is
// an HS256 token whose claims are the literal marker shape
// {user: {email, role}, authenticated, timestamp}.
package marker

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the validity window of a marker.
const DefaultTTL = 24 * time.Hour

// MaxClockSkew is how far in the future a marker timestamp may be.
const MaxClockSkew = time.Minute

// Status is the outcome of validating a marker.
type Status int

const (
	// Valid markers authorize the admin dashboard.
	Valid Status = iota
	// Expired markers are well formed but older than the TTL.
	Expired
	// Malformed markers failed to parse, verify, or carry required fields.
	Malformed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "malformed"
	}
}

// User is the admin identity recorded in a marker.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Marker is the admin session marker.
type Marker struct {
	User          User  `json:"user"`
	Authenticated bool  `json:"authenticated"`
	Timestamp     int64 `json:"timestamp"`
}

// IssuedAt returns the marker timestamp as a time.
func (m Marker) IssuedAt() time.Time {
	return time.UnixMilli(m.Timestamp)
}

type claims struct {
	Marker
	jwt.RegisteredClaims
}

// ErrEmptySecret is returned when a signer has no key.
var ErrEmptySecret = errors.New("marker secret is empty")

// Signer signs and validates markers with a shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner returns a signer. A non-positive ttl means DefaultTTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Signer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the validity window.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue returns a signed marker for user stamped at now.
func (s *Signer) Issue(user User, now time.Time) (string, Marker, error) {
	if len(s.secret) == 0 {
		return "", Marker{}, ErrEmptySecret
	}

	m := Marker{
		User:          user,
		Authenticated: true,
		Timestamp:     now.UnixMilli(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{Marker: m})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Marker{}, err
	}

	return signed, m, nil
}

// Validate checks token at now. The age is computed on every call: a marker
// is expired once now - timestamp reaches the TTL.
func (s *Signer) Validate(token string, now time.Time) (Marker, Status) {
	if token == "" || len(s.secret) == 0 {
		return Marker{}, Malformed
	}

	var c claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}); err != nil {
		return Marker{}, Malformed
	}

	m := c.Marker
	if !m.Authenticated || m.User.Email == "" || m.Timestamp <= 0 {
		return Marker{}, Malformed
	}

	age := now.UnixMilli() - m.Timestamp
	if age < -MaxClockSkew.Milliseconds() {
		return Marker{}, Malformed
	}

	if age >= s.ttl.Milliseconds() {
		return m, Expired
	}

	return m, Valid
}
