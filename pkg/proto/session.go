// Package proto holds the types shared between the backend, the guards and
// the web layer.
package proto

import (
	"context"
	"time"
)

// Session is a signed-in identity provider session.
type Session struct {
	ID          string    `json:"-"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is an identity provider account.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionContextKey is the context key for the session.
var SessionContextKey = &struct{ string }{"session"}

// SessionFromContext returns the session from the context.
func SessionFromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(SessionContextKey).(*Session); ok {
		return s
	}

	return nil
}

// WithSessionContext returns a new context with the session.
func WithSessionContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, s)
}
