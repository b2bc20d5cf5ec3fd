package jobs

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/config"
)

// PurgeSessionsJob is the name of the session purge job.
const PurgeSessionsJob = "purge-sessions"

func init() {
	Register(PurgeSessionsJob, purgeSessions{})
}

// purgeSessions deletes expired and revoked identity sessions.
type purgeSessions struct{}

var _ Runner = purgeSessions{}

// Spec implements Runner.
func (purgeSessions) Spec(ctx context.Context) string {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return ""
	}

	return cfg.Jobs.PurgeSessions
}

// Func implements Runner.
func (purgeSessions) Func(ctx context.Context) func() {
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("jobs.purge-sessions")
	return func() {
		n, err := be.Identity().PurgeExpired(ctx, be.Now())
		if err != nil {
			logger.Error("failed to purge sessions", "err", err)
			return
		}

		if n > 0 {
			logger.Info("purged sessions", "count", n)
		}
	}
}
