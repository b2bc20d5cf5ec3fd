// Package backendtest builds backends over temporary databases for tests.
package backendtest

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/models"
	"github.com/mundesk/mundesk/pkg/identity"
	"github.com/mundesk/mundesk/pkg/jwk"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/realtime"
	"github.com/mundesk/mundesk/pkg/store"
	"github.com/mundesk/mundesk/pkg/store/database"
	"github.com/mundesk/mundesk/pkg/test"
)

// Fixed credentials of the test backend.
const (
	RecoveryEmail = "ops@example.com"
	AdminUsername = "secretariat"
	AdminPassword = "letmein!"
	Password      = "hunter22"
)

// ErrStoreDown is returned by a Store with Fail set.
var ErrStoreDown = errors.New("database is gone")

// Store counts privileged user lookups and fails them on demand. Session
// reads fail while FailSessions is set.
type Store struct {
	store.Store
	Fail         atomic.Bool
	FailSessions atomic.Bool
	Lookups      atomic.Int32
}

// GetIdentitySession implements store.IdentityStore.
func (s *Store) GetIdentitySession(ctx context.Context, h db.Handler, id string) (models.IdentitySession, error) {
	if s.FailSessions.Load() {
		return models.IdentitySession{}, ErrStoreDown
	}

	return s.Store.GetIdentitySession(ctx, h, id)
}

// FindPrivilegedUserByEmail implements store.PrivilegedUserStore.
func (s *Store) FindPrivilegedUserByEmail(ctx context.Context, h db.Handler, email string) (models.PrivilegedUser, error) {
	s.Lookups.Add(1)
	if s.Fail.Load() {
		return models.PrivilegedUser{}, ErrStoreDown
	}

	return s.Store.FindPrivilegedUserByEmail(ctx, h, email)
}

// Fixture is a backend with a frozen clock.
type Fixture struct {
	Config  *config.Config
	DB      *db.DB
	Backend *backend.Backend
	Store   *Store
	Now     time.Time
}

// New returns a fixture. The lookup cache is disabled so every resolution
// reaches the store.
func New(t testing.TB) *Fixture {
	t.Helper()
	ctx := context.TODO()
	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Auth.KeyPath = filepath.Join(cfg.DataPath, "session_ed25519")
	cfg.Access.RecoveryEmails = []string{RecoveryEmail}
	cfg.Access.CacheTTL = "0"
	hash, err := identity.HashPassword(AdminPassword)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Admin.Username = AdminUsername
	cfg.Admin.PasswordHash = hash
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	keys, err := jwk.NewPair(cfg)
	if err != nil {
		t.Fatal(err)
	}

	dbx := test.OpenDB(ctx, t)
	st := &Store{Store: database.New(ctx, dbx)}
	idp := identity.New(ctx, cfg, dbx, st, keys)
	be := backend.New(ctx, cfg, dbx, st, idp, realtime.NewMemory())
	t.Cleanup(func() { _ = be.Broker().Close() })

	now := time.Now()
	be.SetClock(func() time.Time { return now })
	return &Fixture{Config: cfg, DB: dbx, Backend: be, Store: st, Now: now}
}

// SignIn signs up email and returns its identity credential.
func (f *Fixture) SignIn(t testing.TB, email string) access.IdentitySession {
	t.Helper()
	ctx := context.TODO()
	if _, err := f.Backend.Identity().SignUp(ctx, email, Password, ""); err != nil {
		t.Fatal(err)
	}

	token, _, err := f.Backend.Identity().SignIn(ctx, email, Password, f.Now)
	if err != nil {
		t.Fatal(err)
	}

	return access.IdentitySession{Token: token}
}

// Promote grants r to the identity of email.
func (f *Fixture) Promote(t testing.TB, email string, r access.Role, active bool, committeeID string) *proto.PrivilegedUser {
	t.Helper()
	opts := proto.UserOptions{Role: &r, IsActive: &active}
	if committeeID != "" {
		opts.CommitteeID = &committeeID
	}

	u, err := f.Backend.PromoteUser(context.TODO(), email, opts)
	if err != nil {
		t.Fatal(err)
	}

	return u
}

// Marker returns an admin marker issued at issued.
func (f *Fixture) Marker(t testing.TB, issued time.Time) access.SharedSecretMarker {
	t.Helper()
	token, _, err := f.Backend.AdminLogin(AdminUsername, AdminPassword, issued)
	if err != nil {
		t.Fatal(err)
	}

	return access.SharedSecretMarker{Token: token}
}

// Context returns a context carrying the fixture's config, database, store,
// and backend.
func (f *Fixture) Context(ctx context.Context) context.Context {
	ctx = config.WithContext(ctx, f.Config)
	ctx = db.WithContext(ctx, f.DB)
	ctx = store.WithContext(ctx, f.Store)
	ctx = backend.WithContext(ctx, f.Backend)
	return ctx
}
