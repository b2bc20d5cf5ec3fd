package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/cron"
	"github.com/mundesk/mundesk/pkg/db"
	"github.com/mundesk/mundesk/pkg/jobs"
	"github.com/mundesk/mundesk/pkg/stats"
	"github.com/mundesk/mundesk/pkg/web"
	"golang.org/x/sync/errgroup"
)

// Server is the mundesk server.
type Server struct {
	HTTPServer  *web.HTTPServer
	StatsServer *stats.StatsServer
	Cron        *cron.Scheduler
	Config      *config.Config
	Backend     *backend.Backend
	DB          *db.DB

	logger *log.Logger
	ctx    context.Context
}

// NewServer returns a new *Server. It expects a context with
// *backend.Backend, *db.DB, *log.Logger, and *config.Config attached.
func NewServer(ctx context.Context) (*Server, error) {
	var err error
	logger := log.FromContext(ctx).WithPrefix("server")
	srv := &Server{
		Config:  config.FromContext(ctx),
		Backend: backend.FromContext(ctx),
		DB:      db.FromContext(ctx),
		logger:  logger,
		ctx:     ctx,
	}

	sched := cron.NewScheduler(ctx)
	for n, j := range jobs.List() {
		spec := j.Runner.Spec(ctx)
		if spec == "" {
			logger.Debug("cron job disabled", "job", n)
			continue
		}

		id, err := sched.AddFunc(spec, j.Runner.Func(ctx))
		if err != nil {
			logger.Warn("error adding cron job", "job", n, "err", err)
			continue
		}

		j.ID = id
	}

	srv.Cron = sched

	srv.HTTPServer, err = web.NewHTTPServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create http server: %w", err)
	}

	srv.StatsServer, err = stats.NewStatsServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create stats server: %w", err)
	}

	return srv, nil
}

// Start starts the HTTP and stats servers and the job scheduler. It blocks
// until the servers stop.
func (s *Server) Start() error {
	errg, _ := errgroup.WithContext(s.ctx)

	errg.Go(func() error {
		s.logger.Print("Starting HTTP server", "addr", s.Config.HTTP.ListenAddr)
		if err := s.HTTPServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// optionally start the stats server
	if s.Config.Stats.ListenAddr != "" {
		errg.Go(func() error {
			s.logger.Print("Starting Stats server", "addr", s.Config.Stats.ListenAddr)
			if err := s.StatsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	errg.Go(func() error {
		s.Cron.Start()
		return nil
	})

	return errg.Wait()
}

// Shutdown lets the server gracefully shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return s.HTTPServer.Shutdown(ctx)
	})
	errg.Go(func() error {
		return s.StatsServer.Shutdown(ctx)
	})
	errg.Go(func() error {
		for _, j := range jobs.List() {
			s.Cron.Remove(j.ID)
		}
		s.Cron.Shutdown()
		return nil
	})

	return errg.Wait()
}

// Close closes the server immediately.
func (s *Server) Close() error {
	var errg errgroup.Group
	errg.Go(s.HTTPServer.Close)
	errg.Go(s.StatsServer.Close)
	errg.Go(func() error {
		s.Cron.Stop()
		return nil
	})

	return errg.Wait()
}
