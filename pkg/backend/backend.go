package backend

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/identity"
	"github.com/mundesk/mundesk/pkg/marker"
	"github.com/mundesk/mundesk/pkg/realtime"
	"github.com/mundesk/mundesk/pkg/store"
)

// Backend is the mundesk backend. It resolves callers' access and manages
// privileged users and conference records.
type Backend struct {
	ctx      context.Context
	cfg      *config.Config
	db       *db.DB
	store    store.Store
	identity *identity.Provider
	marker   *marker.Signer
	broker   realtime.Broker
	logger   *log.Logger
	cache    *cache
	recovery map[string]struct{}
	now      func() time.Time
}

// New returns a new mundesk backend.
func New(ctx context.Context, cfg *config.Config, db *db.DB, st store.Store, idp *identity.Provider, broker realtime.Broker) *Backend {
	logger := log.FromContext(ctx).WithPrefix("backend")
	if broker == nil {
		broker = realtime.NewMemory()
	}

	b := &Backend{
		ctx:      ctx,
		cfg:      cfg,
		db:       db,
		store:    st,
		identity: idp,
		marker:   marker.NewSigner(cfg.Admin.Secret, cfg.Admin.MarkerTTL()),
		broker:   broker,
		logger:   logger,
		cache:    newCache(1000, cfg.Access.LookupCacheTTL()),
		recovery: make(map[string]struct{}, len(cfg.Access.RecoveryEmails)),
		now:      time.Now,
	}

	for _, email := range cfg.Access.RecoveryEmails {
		b.recovery[email] = struct{}{}
	}

	if b.cache != nil {
		b.watchUsers(ctx)
	}

	return b
}

// watchUsers purges the lookup cache whenever a privileged user changes,
// including changes made by other instances sharing the broker. It stops
// when ctx is done or the broker is closed.
func (d *Backend) watchUsers(ctx context.Context) {
	events, err := d.broker.Subscribe(ctx, realtime.TablePrivilegedUsers, realtime.Any)
	if err != nil {
		d.logger.Warn("lookup cache will only expire by ttl", "err", err)
		return
	}

	go func() {
		for e := range events {
			d.logger.Debug("purging lookup cache", "event", e.String())
			d.cache.Purge()
		}
	}()
}

// Identity returns the identity provider.
func (d *Backend) Identity() *identity.Provider {
	return d.identity
}

// Broker returns the live-update broker.
func (d *Backend) Broker() realtime.Broker {
	return d.broker
}

// Now returns the backend's wall clock.
func (d *Backend) Now() time.Time {
	return d.now()
}

// SetClock replaces the wall clock. It is used by tests.
func (d *Backend) SetClock(now func() time.Time) {
	d.now = now
}

// publish sends a change event. Failures are logged, the change itself has
// already been committed.
func (d *Backend) publish(ctx context.Context, table string, typ realtime.EventType, id string) {
	e := realtime.Event{Table: table, Type: typ, ID: id}
	if err := d.broker.Publish(ctx, e); err != nil {
		d.logger.Error("failed to publish event", "event", e.String(), "err", err)
	}
}
