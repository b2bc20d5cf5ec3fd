package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/marker"
	"github.com/mundesk/mundesk/pkg/proto"
)

// Resolution is the outcome of resolving a credential.
type Resolution struct {
	// Level is the resolved capability tier.
	Level access.AccessLevel
	// Root is the trust root that vouched for the caller.
	Root access.TrustRoot
	// Session is the identity session, if any.
	Session *proto.Session
	// User is the active privileged user record, if any.
	User *proto.PrivilegedUser
	// Marker is the valid admin marker, if any.
	Marker *marker.Marker
	// Recovery is set when the session email is on the recovery allow-list.
	Recovery bool
	// Reason explains an Anonymous result: proto.ErrNoSession or
	// proto.ErrStaleMarker.
	Reason error
}

// Role returns the privileged role, or "" when there is none.
func (r *Resolution) Role() access.Role {
	if r == nil || r.User == nil {
		return ""
	}

	return r.User.Role
}

func anonymous(reason error) *Resolution {
	return &Resolution{Level: access.Anonymous, Root: access.NoTrust, Reason: reason}
}

// IsRecoveryEmail reports whether email is on the recovery allow-list. Such
// identities always resolve to at least chair-equivalent.
func (d *Backend) IsRecoveryEmail(email string) bool {
	_, ok := d.recovery[email]
	return ok
}

// ResolveSession resolves an identity credential without consulting the
// privileged user table. The result is Anonymous or AuthenticatedOnly.
func (d *Backend) ResolveSession(ctx context.Context, cred access.IdentitySession, now time.Time) (*Resolution, error) {
	if cred.Empty() {
		return anonymous(proto.ErrNoSession), nil
	}

	sess, err := d.identity.CurrentSession(ctx, cred.Token, now)
	if err != nil {
		if errors.Is(err, proto.ErrNoSession) {
			return anonymous(proto.ErrNoSession), nil
		}
		return anonymous(proto.ErrNoSession), fmt.Errorf("%w: %w", proto.ErrLookupFailure, err)
	}

	return &Resolution{
		Level:   access.AuthenticatedOnly,
		Root:    access.IdentityRoot,
		Session: sess,
	}, nil
}

// ResolveAccess maps a credential to an access level.
//
// An identity session resolves to Anonymous without a live session,
// AuthenticatedOnly without an active privileged row, or the level of the
// row's role. Recovery emails resolve to at least ChairEquivalent even when
// the lookup fails. A marker resolves to AdminEquivalent when valid at now
// and never touches the store.
//
// The returned error is only set for lookup failures, wrapping
// proto.ErrLookupFailure; the resolution is still usable and fails closed.
func (d *Backend) ResolveAccess(ctx context.Context, cred access.Credential, now time.Time) (*Resolution, error) {
	switch c := cred.(type) {
	case access.SharedSecretMarker:
		return d.resolveMarker(c, now), nil
	case access.IdentitySession:
		return d.resolveIdentity(ctx, c, now)
	default:
		return anonymous(proto.ErrNoSession), nil
	}
}

func (d *Backend) resolveMarker(c access.SharedSecretMarker, now time.Time) *Resolution {
	if c.Empty() {
		return anonymous(proto.ErrNoSession)
	}

	m, status := d.marker.Validate(c.Token, now)
	if status != marker.Valid {
		d.logger.Debug("rejected admin marker", "status", status)
		return anonymous(proto.ErrStaleMarker)
	}

	return &Resolution{
		Level:  access.AdminEquivalent,
		Root:   access.BreakGlassRoot,
		Marker: &m,
	}
}

func (d *Backend) resolveIdentity(ctx context.Context, c access.IdentitySession, now time.Time) (*Resolution, error) {
	res, err := d.ResolveSession(ctx, c, now)
	if err != nil || res.Session == nil {
		return res, err
	}

	email := res.Session.Email
	if d.IsRecoveryEmail(email) {
		res.Recovery = true
		res.Level = access.ChairEquivalent
	}

	m, err := d.lookupPrivilegedUser(ctx, email)
	if err != nil {
		if res.Recovery {
			d.logger.Warn("privileged user lookup failed for recovery identity", "email", email, "err", err)
			return res, nil
		}
		d.logger.Error("privileged user lookup failed", "email", email, "err", err)
		return res, fmt.Errorf("%w: %w", proto.ErrLookupFailure, err)
	}

	if m == nil || !m.IsActive {
		return res, nil
	}

	res.User = userFromModel(*m)
	if lvl := res.User.Role.Level(); lvl > res.Level {
		res.Level = lvl
	}

	return res, nil
}

// lookupPrivilegedUser finds the privileged user with the exact email. It
// returns nil without error when there is no such row.
func (d *Backend) lookupPrivilegedUser(ctx context.Context, email string) (*models.PrivilegedUser, error) {
	if l, ok := d.cache.Get(email); ok {
		return l.user, nil
	}

	m, err := d.store.FindPrivilegedUserByEmail(ctx, d.db, email)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			d.cache.Set(email, lookup{})
			return nil, nil
		}
		return nil, err
	}

	d.cache.Set(email, lookup{user: &m})
	return &m, nil
}
