package access

import "context"

type contextKey struct{ name string }

var (
	levelKey      = &contextKey{"access-level"}
	credentialKey = &contextKey{"credential"}
)

// FromContext returns the access level a guard stored in the context, or -1
// when no guard ran.
func FromContext(ctx context.Context) AccessLevel {
	if ac, ok := ctx.Value(levelKey).(AccessLevel); ok {
		return ac
	}

	return -1
}

// WithContext returns a new context with the access level.
func WithContext(ctx context.Context, ac AccessLevel) context.Context {
	return context.WithValue(ctx, levelKey, ac)
}

// CredentialFromContext returns the credential accepted for the request.
func CredentialFromContext(ctx context.Context) Credential {
	if c, ok := ctx.Value(credentialKey).(Credential); ok {
		return c
	}

	return nil
}

// WithCredential returns a new context carrying the credential.
func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey, c)
}
