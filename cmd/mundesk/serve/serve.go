package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/cmd"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/db/migrate"
	"github.com/spf13/cobra"
)

// Command is the serve command.
var Command = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		cfg := config.FromContext(c.Context())
		if !cfg.Exist() {
			if err := cfg.WriteConfig(); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}
		}

		return cmd.InitBackendContext(c, args)
	},
	PersistentPostRunE: cmd.CloseDBContext,
	RunE: func(c *cobra.Command, _ []string) error {
		ctx := c.Context()
		if err := migrate.Migrate(ctx, db.FromContext(ctx)); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}

		s, err := NewServer(ctx)
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}

		lch := make(chan error, 1)
		done := make(chan os.Signal, 1)
		doneOnce := sync.OnceFunc(func() { close(done) })

		signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

		// This endpoint is added for testing purposes
		// It allows us to stop the server from the test suite.
		// This is needed since Windows doesn't support signals.
		if testRun, _ := strconv.ParseBool(os.Getenv("MUNDESK_TESTRUN")); testRun {
			h := s.HTTPServer.Server.Handler
			s.HTTPServer.Server.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/__stop" && r.Method == http.MethodHead {
					doneOnce()
					return
				}
				h.ServeHTTP(w, r)
			})
		}

		go func() {
			lch <- s.Start()
			doneOnce()
		}()

		select {
		case err := <-lch:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		case <-done:
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			log.FromContext(ctx).WithPrefix("server").Warn("graceful shutdown failed, closing", "err", err)
			return s.Close()
		}

		return nil
	},
}
