package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lib/pq"
	"github.com/mundesk/mundesk/pkg/db"
)

// PostgresChannel is the LISTEN/NOTIFY channel.
const PostgresChannel = "mundesk_changes"

// reloadTables receive a Reload event after the listener reconnects.
var reloadTables = []string{TableApplications, TableCommittees, TablePapers, TablePrivilegedUsers}

// Postgres is a broker over Postgres LISTEN/NOTIFY.
type Postgres struct {
	*Memory
	db       *db.DB
	listener *pq.Listener
	logger   *log.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

var _ Broker = (*Postgres)(nil)

// NewPostgres starts listening on PostgresChannel using dsn.
func NewPostgres(ctx context.Context, logger *log.Logger, dbx *db.DB, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithCancel(ctx)
	p := &Postgres{
		Memory: NewMemory(),
		db:     dbx,
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	p.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, p.reportProblem)
	if err := p.listener.Listen(PostgresChannel); err != nil {
		cancel()
		_ = p.listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", PostgresChannel, err)
	}

	go p.process(ctx)

	return p, nil
}

func (p *Postgres) reportProblem(ev pq.ListenerEventType, err error) {
	if err != nil {
		p.logger.Error("listener error", "err", err)
	}

	switch ev {
	case pq.ListenerEventConnectionAttemptFailed:
		p.logger.Warn("listener connection attempt failed, will retry")
	case pq.ListenerEventDisconnected:
		p.logger.Warn("listener disconnected, will reconnect")
	case pq.ListenerEventReconnected:
		p.logger.Info("listener reconnected, asking subscribers to reload")
		for _, table := range reloadTables {
			_ = p.Memory.Publish(context.Background(), Event{Table: table, Type: Reload})
		}
	}
}

func (p *Postgres) process(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-p.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Reconnect, handled by reportProblem.
				continue
			}

			e, err := ParseEvent(n.Extra)
			if err != nil {
				p.logger.Warn("invalid notification", "payload", n.Extra)
				continue
			}

			p.logger.Debug("notification", "table", e.Table, "type", e.Type, "id", e.ID)
			_ = p.Memory.Publish(ctx, e)
		}
	}
}

// Publish implements Broker. The event reaches local subscribers through
// the listener, like every other instance.
func (p *Postgres) Publish(ctx context.Context, e Event) error {
	_, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", PostgresChannel, e.String())
	return db.WrapError(err)
}

// Close implements Broker.
func (p *Postgres) Close() error {
	p.cancel()
	err := p.listener.Close()
	<-p.done
	_ = p.Memory.Close()
	return err //nolint:wrapcheck
}
