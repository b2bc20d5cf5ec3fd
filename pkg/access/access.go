// Package access defines the capability tiers a caller can resolve to and
// the credentials that carry them.
package access

import (
	"encoding"
	"errors"
)

// AccessLevel is the resolved capability tier of a caller.
type AccessLevel int // nolint: revive

const (
	// Anonymous callers have no session.
	Anonymous AccessLevel = iota

	// AuthenticatedOnly callers have a session but no privileged role.
	AuthenticatedOnly

	// ChairEquivalent callers may reach the chair dashboard.
	ChairEquivalent

	// AdminEquivalent callers hold the highest tier.
	AdminEquivalent
)

// String returns the string representation of the access level.
func (a AccessLevel) String() string {
	switch a {
	case Anonymous:
		return "anonymous"
	case AuthenticatedOnly:
		return "authenticated-only"
	case ChairEquivalent:
		return "chair-equivalent"
	case AdminEquivalent:
		return "admin-equivalent"
	default:
		return "unknown"
	}
}

// ParseAccessLevel parses an access level string.
func ParseAccessLevel(s string) AccessLevel {
	switch s {
	case "anonymous":
		return Anonymous
	case "authenticated-only":
		return AuthenticatedOnly
	case "chair-equivalent":
		return ChairEquivalent
	case "admin-equivalent":
		return AdminEquivalent
	default:
		return AccessLevel(-1)
	}
}

var (
	_ encoding.TextMarshaler   = AccessLevel(0)
	_ encoding.TextUnmarshaler = (*AccessLevel)(nil)
)

// ErrInvalidAccessLevel is returned when an invalid access level is provided.
var ErrInvalidAccessLevel = errors.New("invalid access level")

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccessLevel) UnmarshalText(text []byte) error {
	l := ParseAccessLevel(string(text))
	if l < 0 {
		return ErrInvalidAccessLevel
	}

	*a = l

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a AccessLevel) MarshalText() (text []byte, err error) {
	return []byte(a.String()), nil
}
