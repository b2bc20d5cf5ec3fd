package guard

import (
	"context"
	"net/http"
	"strings"

	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/proto"
)

// Credential transport.
const (
	// SessionCookie carries the identity session token.
	SessionCookie = "mundesk_session"
	// MarkerCookie carries the admin marker.
	MarkerCookie = "mundesk_admin"
	// MarkerHeader carries the admin marker for API clients.
	MarkerHeader = "X-Admin-Marker"
)

// IdentityCredential reads the identity session from the Authorization
// bearer token or the session cookie.
func IdentityCredential(r *http.Request) access.IdentitySession {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return access.IdentitySession{Token: strings.TrimSpace(parts[1])}
		}
	}

	if c, err := r.Cookie(SessionCookie); err == nil {
		return access.IdentitySession{Token: c.Value}
	}

	return access.IdentitySession{}
}

// MarkerCredential reads the admin marker from the marker header or cookie.
func MarkerCredential(r *http.Request) access.SharedSecretMarker {
	if h := r.Header.Get(MarkerHeader); h != "" {
		return access.SharedSecretMarker{Token: strings.TrimSpace(h)}
	}

	if c, err := r.Cookie(MarkerCookie); err == nil {
		return access.SharedSecretMarker{Token: c.Value}
	}

	return access.SharedSecretMarker{}
}

// Credential returns the credential g accepts from r.
func (g *Guard) Credential(r *http.Request) access.Credential {
	if g.kind == Admin {
		return MarkerCredential(r)
	}

	return IdentityCredential(r)
}

var resolutionKey = &struct{ string }{"resolution"}

// ResolutionFromContext returns the resolution of an authorized request.
func ResolutionFromContext(ctx context.Context) *backend.Resolution {
	if res, ok := ctx.Value(resolutionKey).(*backend.Resolution); ok {
		return res
	}

	return nil
}

// WithResolution returns a new context carrying res and what it resolved.
func WithResolution(ctx context.Context, res *backend.Resolution) context.Context {
	ctx = context.WithValue(ctx, resolutionKey, res)
	ctx = access.WithContext(ctx, res.Level)
	if res.Session != nil {
		ctx = proto.WithSessionContext(ctx, res.Session)
	}

	return ctx
}

// Middleware runs next only for authorized requests. Unauthorized requests
// are redirected to the login page with the attempted path preserved.
// Nothing is written when the request is cancelled during resolution.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cred := g.Credential(r)
		d, err := g.Check(ctx, cred, r.URL.RequestURI())
		if err != nil {
			return
		}

		if d.State != Authorized {
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}

		ctx = access.WithCredential(WithResolution(ctx, d.Resolution), cred)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
