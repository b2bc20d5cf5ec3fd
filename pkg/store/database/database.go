// Package database implements store.Store over sqlx.
package database

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/store"
)

type datastore struct {
	ctx    context.Context
	cfg    *config.Config
	db     *db.DB
	logger *log.Logger

	*identityStore
	*userStore
	*committeeStore
	*applicationStore
	*paperStore
}

// New returns a new store.Store database.
func New(ctx context.Context, db *db.DB) store.Store {
	cfg := config.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("store")

	s := &datastore{
		ctx:    ctx,
		cfg:    cfg,
		db:     db,
		logger: logger,

		identityStore:    &identityStore{},
		userStore:        &userStore{},
		committeeStore:   &committeeStore{},
		applicationStore: &applicationStore{},
		paperStore:       &paperStore{},
	}

	return s
}

// mustAffect turns an update that matched no rows into db.ErrRecordNotFound.
func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return db.WrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err //nolint:wrapcheck
	}

	if n == 0 {
		return db.ErrRecordNotFound
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}
