// Package realtime carries change events for domain tables to live
// subscribers. Delivery is best effort: a subscriber that falls behind
// misses events rather than slowing down publishers.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/db"
)

// EventType is the kind of change.
type EventType string

const (
	// Insert is a created row.
	Insert EventType = "INSERT"
	// Update is a changed row.
	Update EventType = "UPDATE"
	// Delete is a removed row.
	Delete EventType = "DELETE"
	// Reload tells subscribers that events may have been missed.
	Reload EventType = "RELOAD"
	// Any matches every event type when subscribing.
	Any EventType = "*"
)

// Tables that publish events.
const (
	TableApplications    = "applications"
	TableCommittees      = "committees"
	TablePapers          = "papers"
	TablePrivilegedUsers = "privileged_users"
)

// Event is a change to a row of a table.
type Event struct {
	Table string    `json:"table"`
	Type  EventType `json:"type"`
	ID    string    `json:"id,omitempty"`
}

// String returns the wire form "table:TYPE:id".
func (e Event) String() string {
	return fmt.Sprintf("%s:%s:%s", e.Table, e.Type, e.ID)
}

// Matches reports whether the event is selected by table and typ.
func (e Event) Matches(table string, typ EventType) bool {
	if e.Table != table {
		return false
	}

	return typ == Any || e.Type == Reload || e.Type == typ
}

// ErrInvalidPayload is returned when a payload is not "table:TYPE:id".
var ErrInvalidPayload = errors.New("invalid event payload")

// ParseEvent parses the wire form of an event.
func ParseEvent(payload string) (Event, error) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}

	return Event{Table: parts[0], Type: EventType(parts[1]), ID: parts[2]}, nil
}

// Broker publishes and fans out change events.
type Broker interface {
	// Publish sends an event to every matching subscriber.
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events for table and typ. The channel
	// is closed when ctx is done or the broker is closed.
	Subscribe(ctx context.Context, table string, typ EventType) (<-chan Event, error)
	// Close stops the broker.
	Close() error
}

// ErrClosed is returned when using a closed broker.
var ErrClosed = errors.New("realtime: broker closed")

// Drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// New returns the broker selected by cfg.Realtime.Driver. The postgres
// driver publishes through dbx and listens on cfg.DB.DataSource.
func New(ctx context.Context, cfg *config.Config, dbx *db.DB) (Broker, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	logger := log.FromContext(ctx).WithPrefix("realtime")
	switch cfg.Realtime.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverPostgres:
		if dbx == nil || dbx.DriverName() != db.DriverPostgres {
			return nil, fmt.Errorf("realtime: postgres driver needs a postgres database")
		}
		return NewPostgres(ctx, logger, dbx, cfg.DB.DataSource)
	case DriverRedis:
		return NewRedis(ctx, logger, cfg.Realtime)
	default:
		return nil, fmt.Errorf("realtime: unknown driver %q", cfg.Realtime.Driver)
	}
}
