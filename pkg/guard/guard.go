// Package guard gates the three dashboard families. A check starts in
// Resolving and ends in Authorized or Unauthorized; the protected handler
// only runs once the check is Authorized.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mundesk",
	Subsystem: "guard",
	Name:      "decisions_total",
	Help:      "The total number of guard decisions",
}, []string{"guard", "state"})

// Kind is a dashboard family.
type Kind string

const (
	// Delegate gates the delegate dashboard.
	Delegate Kind = "delegate"
	// Chair gates the chair dashboard.
	Chair Kind = "chair"
	// Admin gates the admin dashboard.
	Admin Kind = "admin"
)

// Paths of each dashboard family.
const (
	DelegateRoot  = "/dashboard"
	DelegateLogin = "/login"
	ChairRoot     = "/chair"
	ChairLogin    = "/chair/login"
	AdminRoot     = "/admin"
	AdminLogin    = "/admin/login"
)

// Decision is the terminal outcome of a check.
type Decision struct {
	State      State
	Resolution *backend.Resolution
	// Redirect is the login URL for Unauthorized decisions.
	Redirect string
	// Reason is why the check was Unauthorized.
	Reason error
}

// Guard checks credentials for one dashboard family.
type Guard struct {
	kind   Kind
	root   string
	login  string
	be     *backend.Backend
	logger *log.Logger
}

// New returns the guard of kind.
func New(ctx context.Context, kind Kind, be *backend.Backend) *Guard {
	g := &Guard{
		kind:   kind,
		be:     be,
		logger: log.FromContext(ctx).WithPrefix("guard." + string(kind)),
	}

	switch kind {
	case Chair:
		g.root, g.login = ChairRoot, ChairLogin
	case Admin:
		g.root, g.login = AdminRoot, AdminLogin
	default:
		g.kind = Delegate
		g.root, g.login = DelegateRoot, DelegateLogin
	}

	return g
}

// Kind returns the dashboard family of the guard.
func (g *Guard) Kind() Kind {
	return g.kind
}

// LoginPath returns the login path unauthorized callers are sent to.
func (g *Guard) LoginPath() string {
	return g.login
}

// Check resolves cred for the attempted path. Each guard only accepts the
// credential kind of its trust root: identity sessions for the delegate and
// chair dashboards, admin markers for the admin dashboard.
//
// When ctx is done before resolution finishes the result is dropped and
// ctx.Err() is returned.
func (g *Guard) Check(ctx context.Context, cred access.Credential, attempted string) (*Decision, error) {
	m := &machine{}
	res, reason := g.resolve(ctx, cred)
	if err := ctx.Err(); err != nil {
		g.logger.Debug("dropping resolution of cancelled request", "path", attempted)
		return nil, err
	}

	to := Authorized
	if reason != nil {
		to = Unauthorized
	}
	if err := m.transition(to); err != nil {
		return nil, err
	}

	decisionCounter.WithLabelValues(string(g.kind), m.state.String()).Inc()

	d := &Decision{State: m.state, Resolution: res, Reason: reason}
	if m.state == Unauthorized {
		d.Redirect = LoginURL(g.login, attempted, g.root)
		g.logger.Debug("unauthorized", "path", attempted, "reason", reason)
	}

	return d, nil
}

func (g *Guard) resolve(ctx context.Context, cred access.Credential) (*backend.Resolution, error) {
	now := g.be.Now()
	switch g.kind {
	case Admin:
		c, ok := cred.(access.SharedSecretMarker)
		if !ok || c.Empty() {
			return nil, proto.ErrNoSession
		}

		res, err := g.be.ResolveAccess(ctx, c, now)
		if err != nil {
			return res, err
		}
		if res.Root != access.BreakGlassRoot || res.Level < access.AdminEquivalent {
			return res, reasonOf(res, proto.ErrStaleMarker)
		}

		return res, nil

	case Chair:
		c, ok := cred.(access.IdentitySession)
		if !ok || c.Empty() {
			return nil, proto.ErrNoSession
		}

		res, err := g.be.ResolveAccess(ctx, c, now)
		if err != nil {
			if errors.Is(err, proto.ErrLookupFailure) {
				g.logger.Error("failing closed", "err", err)
			}
			return res, err
		}
		if res.Level == access.Anonymous {
			return res, reasonOf(res, proto.ErrNoSession)
		}
		if res.Level < access.ChairEquivalent {
			return res, proto.ErrUnauthorizedRole
		}

		return res, nil

	default:
		c, ok := cred.(access.IdentitySession)
		if !ok || c.Empty() {
			return nil, proto.ErrNoSession
		}

		res, err := g.be.ResolveSession(ctx, c, now)
		if err != nil {
			return res, err
		}
		if res.Level < access.AuthenticatedOnly {
			return res, reasonOf(res, proto.ErrNoSession)
		}

		return res, nil
	}
}

func reasonOf(res *backend.Resolution, fallback error) error {
	if res != nil && res.Reason != nil {
		return res.Reason
	}

	return fallback
}

// String implements fmt.Stringer.
func (g *Guard) String() string {
	return fmt.Sprintf("%s guard", g.kind)
}
