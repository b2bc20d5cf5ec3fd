package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

// trace logs a query at debug level when verbose logging is on. The returned
// func logs the elapsed time and must be deferred by the caller.
func trace(l *log.Logger, query string, args ...interface{}) func() {
	if l == nil {
		return func() {}
	}

	query = strings.Join(strings.Fields(query), " ")
	start := time.Now()
	return func() {
		l.Debug("trace", "query", query, "args", args, "elapsed", time.Since(start))
	}
}

// Select traces and forwards to the underlying sqlx method.
func (d *DB) Select(dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.Select(dest, query, args...) //nolint:wrapcheck
}

// Get traces and forwards to the underlying sqlx method.
func (d *DB) Get(dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.Get(dest, query, args...) //nolint:wrapcheck
}

// Queryx traces and forwards to the underlying sqlx method.
func (d *DB) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.Queryx(query, args...) //nolint:wrapcheck
}

// QueryRowx traces and forwards to the underlying sqlx method.
func (d *DB) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	defer trace(d.logger, query, args...)()
	return d.DB.QueryRowx(query, args...) //nolint:wrapcheck
}

// Exec traces and forwards to the underlying sqlx method.
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.Exec(query, args...) //nolint:wrapcheck
}

// SelectContext traces and forwards to the underlying sqlx method.
func (d *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.SelectContext(ctx, dest, query, args...) //nolint:wrapcheck
}

// GetContext traces and forwards to the underlying sqlx method.
func (d *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(d.logger, query, args...)()
	return d.DB.GetContext(ctx, dest, query, args...) //nolint:wrapcheck
}

// QueryxContext traces and forwards to the underlying sqlx method.
func (d *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.QueryxContext(ctx, query, args...) //nolint:wrapcheck
}

// QueryRowxContext traces and forwards to the underlying sqlx method.
func (d *DB) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	defer trace(d.logger, query, args...)()
	return d.DB.QueryRowxContext(ctx, query, args...) //nolint:wrapcheck
}

// ExecContext traces and forwards to the underlying sqlx method.
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer trace(d.logger, query, args...)()
	return d.DB.ExecContext(ctx, query, args...) //nolint:wrapcheck
}

// Select traces and forwards to the underlying sqlx method.
func (t *Tx) Select(dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.Select(dest, query, args...) //nolint:wrapcheck
}

// Get traces and forwards to the underlying sqlx method.
func (t *Tx) Get(dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.Get(dest, query, args...) //nolint:wrapcheck
}

// Queryx traces and forwards to the underlying sqlx method.
func (t *Tx) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.Queryx(query, args...) //nolint:wrapcheck
}

// QueryRowx traces and forwards to the underlying sqlx method.
func (t *Tx) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	defer trace(t.logger, query, args...)()
	return t.Tx.QueryRowx(query, args...) //nolint:wrapcheck
}

// Exec traces and forwards to the underlying sqlx method.
func (t *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.Exec(query, args...) //nolint:wrapcheck
}

// SelectContext traces and forwards to the underlying sqlx method.
func (t *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.SelectContext(ctx, dest, query, args...) //nolint:wrapcheck
}

// GetContext traces and forwards to the underlying sqlx method.
func (t *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	defer trace(t.logger, query, args...)()
	return t.Tx.GetContext(ctx, dest, query, args...) //nolint:wrapcheck
}

// QueryxContext traces and forwards to the underlying sqlx method.
func (t *Tx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.QueryxContext(ctx, query, args...) //nolint:wrapcheck
}

// QueryRowxContext traces and forwards to the underlying sqlx method.
func (t *Tx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	defer trace(t.logger, query, args...)()
	return t.Tx.QueryRowxContext(ctx, query, args...) //nolint:wrapcheck
}

// ExecContext traces and forwards to the underlying sqlx method.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer trace(t.logger, query, args...)()
	return t.Tx.ExecContext(ctx, query, args...) //nolint:wrapcheck
}
