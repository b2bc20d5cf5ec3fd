package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/identity"
	"github.com/mundesk/mundesk/pkg/jwk"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/realtime"
	"github.com/mundesk/mundesk/pkg/store"
	"github.com/mundesk/mundesk/pkg/store/database"
	"github.com/spf13/cobra"
)

// InitBackendContext opens the database and attaches the store, identity
// provider, live-update broker, and backend to the command context.
func InitBackendContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if _, err := os.Stat(cfg.DataPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(cfg.DataPath, os.ModePerm); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	dbx, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DataSource)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	ctx = db.WithContext(ctx, dbx)
	dbstore := database.New(ctx, dbx)
	ctx = store.WithContext(ctx, dbstore)

	keys, err := jwk.NewPair(cfg)
	if err != nil {
		return fmt.Errorf("load session key: %w", err)
	}

	broker, err := realtime.New(ctx, cfg, dbx)
	if err != nil {
		return fmt.Errorf("create realtime broker: %w", err)
	}

	idp := identity.New(ctx, cfg, dbx, dbstore, keys)
	be := backend.New(ctx, cfg, dbx, dbstore, idp, broker)
	ctx = backend.WithContext(ctx, be)

	cmd.SetContext(ctx)

	return nil
}

// CloseDBContext closes the broker and the database.
func CloseDBContext(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if be := backend.FromContext(ctx); be != nil {
		if err := be.Broker().Close(); err != nil {
			return fmt.Errorf("close realtime broker: %w", err)
		}
	}

	dbx := db.FromContext(ctx)
	if dbx != nil {
		if err := dbx.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	return nil
}

// FindCommittee returns the committee whose id, name, or abbreviation is
// ref. Names and abbreviations are matched case-insensitively.
func FindCommittee(ctx context.Context, be *backend.Backend, ref string) (*proto.Committee, error) {
	cs, err := be.Committees(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range cs {
		if c.ID == ref {
			return c, nil
		}
	}

	for _, c := range cs {
		if strings.EqualFold(c.Name, ref) || (c.Abbreviation != "" && strings.EqualFold(c.Abbreviation, ref)) {
			return c, nil
		}
	}

	return nil, proto.ErrCommitteeNotFound
}
