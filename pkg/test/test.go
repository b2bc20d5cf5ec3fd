// Package test provides helpers shared by package tests.
package test

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/migrate"
)

var (
	used = map[int]struct{}{}
	lock sync.Mutex
)

// RandomPort returns a random port number.
// This is mainly used for testing.
func RandomPort() int {
	addr, _ := net.Listen("tcp", ":0") //nolint:gosec
	_ = addr.Close()
	port := addr.Addr().(*net.TCPAddr).Port
	lock.Lock()

	if _, ok := used[port]; ok {
		lock.Unlock()
		return RandomPort()
	}

	used[port] = struct{}{}
	lock.Unlock()
	return port
}

// OpenDB opens a migrated temp SQLite directory store. It is closed when the
// test is done.
func OpenDB(ctx context.Context, tb testing.TB) *db.DB {
	tb.Helper()
	if ctx == nil {
		ctx = context.TODO()
	}

	dsn := filepath.Join(tb.TempDir(), "mundesk.db") + "?_pragma=foreign_keys(1)"
	dbx, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}

	tb.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			tb.Error(err)
		}
	})

	if err := migrate.Migrate(ctx, dbx); err != nil {
		tb.Fatalf("migrate: %v", err)
	}

	return dbx
}
