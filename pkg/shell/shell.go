// Package shell builds the data context of each dashboard once its guard
// has authorized the request.
package shell

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/realtime"
)

// Kind is the dashboard a shell serves.
type Kind string

// Dashboard kinds.
const (
	Delegate Kind = "delegate"
	Chair    Kind = "chair"
	Admin    Kind = "admin"
)

// ErrNotAuthorized is returned when a shell is built from a resolution the
// matching guard would not authorize.
var ErrNotAuthorized = errors.New("shell requires an authorized resolution")

// Counts are the derived figures shown on a dashboard.
type Counts struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	ByCommittee   map[string]int `json:"by_committee"`
	PendingReview int            `json:"pending_review"`
}

// Context is the data a shell supplies to its pages.
type Context struct {
	Kind         Kind                    `json:"kind"`
	Committees   []*proto.Committee      `json:"committees"`
	Applications []*proto.Application    `json:"applications"`
	Papers       []*proto.Paper          `json:"papers"`
	Users        []*proto.PrivilegedUser `json:"users,omitempty"`
	Counts       Counts                  `json:"counts"`
	// Loading is set on the stale context Watch emits while it reloads.
	Loading bool `json:"loading"`
}

// Scope selects which records a shell fetches.
type Scope struct {
	// All fetches every record.
	All bool
	// CommitteeID restricts records to one committee.
	CommitteeID string
	// Email restricts records to the application of one delegate.
	Email string
}

// None reports whether the scope selects nothing.
func (s Scope) None() bool {
	return !s.All && s.CommitteeID == "" && s.Email == ""
}

// Shell fetches and watches the scoped data of one dashboard.
type Shell struct {
	kind   Kind
	scope  Scope
	be     *backend.Backend
	logger *log.Logger
}

// New returns the shell of kind for an authorized resolution.
func New(ctx context.Context, kind Kind, be *backend.Backend, res *backend.Resolution) (*Shell, error) {
	scope, err := ScopeFor(kind, res)
	if err != nil {
		return nil, err
	}

	return &Shell{
		kind:   kind,
		scope:  scope,
		be:     be,
		logger: log.FromContext(ctx).WithPrefix("shell." + string(kind)),
	}, nil
}

// ScopeFor derives the record scope of kind from a resolution.
//
// The chair dashboard shows everything to superadmins, one committee to
// committee leaders, and nothing to chair-equivalent callers without a
// committee.
func ScopeFor(kind Kind, res *backend.Resolution) (Scope, error) {
	if res == nil {
		return Scope{}, ErrNotAuthorized
	}

	switch kind {
	case Admin:
		if res.Root != access.BreakGlassRoot || res.Level < access.AdminEquivalent {
			return Scope{}, ErrNotAuthorized
		}
		return Scope{All: true}, nil

	case Chair:
		if res.Root != access.IdentityRoot || res.Level < access.ChairEquivalent {
			return Scope{}, ErrNotAuthorized
		}
		if res.Role() == access.RoleSuperadmin {
			return Scope{All: true}, nil
		}
		if res.User != nil && res.User.CommitteeID != "" {
			return Scope{CommitteeID: res.User.CommitteeID}, nil
		}
		return Scope{}, nil

	case Delegate:
		if res.Session == nil || res.Level < access.AuthenticatedOnly {
			return Scope{}, ErrNotAuthorized
		}
		return Scope{Email: res.Session.Email}, nil
	}

	return Scope{}, ErrNotAuthorized
}

// Kind returns the dashboard kind.
func (s *Shell) Kind() Kind {
	return s.kind
}

// Scope returns the record scope.
func (s *Shell) Scope() Scope {
	return s.scope
}

// CanReview reports whether the shell's caller may review p.
func (s *Shell) CanReview(p *proto.Paper) bool {
	if p == nil || s.kind == Delegate {
		return false
	}

	return s.scope.All || (s.scope.CommitteeID != "" && p.CommitteeID == s.scope.CommitteeID)
}

// Load fetches the scoped records and computes their counts.
func (s *Shell) Load(ctx context.Context) (*Context, error) {
	c := &Context{
		Kind:         s.kind,
		Committees:   []*proto.Committee{},
		Applications: []*proto.Application{},
		Papers:       []*proto.Paper{},
	}

	var err error
	switch {
	case s.scope.All:
		err = s.loadAll(ctx, c)
	case s.scope.CommitteeID != "":
		err = s.loadCommittee(ctx, c)
	case s.scope.Email != "":
		err = s.loadDelegate(ctx, c)
	}
	if err != nil {
		return nil, err
	}

	c.Counts = Count(c.Applications, c.Papers)
	return c, nil
}

func (s *Shell) loadAll(ctx context.Context, c *Context) (err error) {
	if c.Committees, err = s.be.Committees(ctx); err != nil {
		return err
	}
	if c.Applications, err = s.be.Applications(ctx); err != nil {
		return err
	}
	if c.Papers, err = s.be.Papers(ctx); err != nil {
		return err
	}
	if s.kind == Admin {
		if c.Users, err = s.be.Users(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (s *Shell) loadCommittee(ctx context.Context, c *Context) error {
	id := s.scope.CommitteeID
	cm, err := s.be.Committee(ctx, id)
	if err != nil {
		// The committee was deleted after the user was linked to it.
		if errors.Is(err, proto.ErrCommitteeNotFound) {
			s.logger.Warn("linked committee not found", "committee", id)
			return nil
		}
		return err
	}

	c.Committees = []*proto.Committee{cm}
	if c.Applications, err = s.be.ApplicationsByCommittee(ctx, id); err != nil {
		return err
	}
	if c.Papers, err = s.be.PapersByCommittee(ctx, id); err != nil {
		return err
	}

	return nil
}

func (s *Shell) loadDelegate(ctx context.Context, c *Context) error {
	app, err := s.be.ApplicationByEmail(ctx, s.scope.Email)
	if err != nil {
		if errors.Is(err, proto.ErrApplicationNotFound) {
			return nil
		}
		return err
	}

	c.Applications = []*proto.Application{app}
	if app.AssignedCommitteeID != "" {
		cm, err := s.be.Committee(ctx, app.AssignedCommitteeID)
		if err != nil && !errors.Is(err, proto.ErrCommitteeNotFound) {
			return err
		}
		if cm != nil {
			c.Committees = []*proto.Committee{cm}
		}
	}

	if c.Papers, err = s.be.PapersByApplication(ctx, app.ID); err != nil {
		return err
	}

	return nil
}

// Count derives dashboard counts from applications and papers.
func Count(apps []*proto.Application, papers []*proto.Paper) Counts {
	c := Counts{
		Total:       len(apps),
		ByStatus:    map[string]int{},
		ByCommittee: map[string]int{},
	}

	for _, a := range apps {
		c.ByStatus[a.Status]++
		if a.AssignedCommitteeID != "" {
			c.ByCommittee[a.AssignedCommitteeID]++
		}
	}

	for _, p := range papers {
		if p.Status == proto.PaperSubmitted {
			c.PendingReview++
		}
	}

	return c
}

// watchedTables are the feeds a shell refreshes on.
var watchedTables = []string{realtime.TableApplications, realtime.TablePapers}

// Watch emits a fresh context whenever an application or paper changes,
// starting with the current one. Each reload is announced by a copy of the
// previous context with Loading set. The channel is closed when ctx is done.
// Events that arrive while a reload is pending are coalesced.
func (s *Shell) Watch(ctx context.Context) (<-chan *Context, error) {
	broker := s.be.Broker()
	notify := make(chan struct{}, 1)
	for _, table := range watchedTables {
		events, err := broker.Subscribe(ctx, table, realtime.Any)
		if err != nil {
			return nil, err
		}

		go func(events <-chan realtime.Event) {
			for range events {
				select {
				case notify <- struct{}{}:
				default:
				}
			}
		}(events)
	}

	out := make(chan *Context)
	go func() {
		defer close(out)
		emit := func(c *Context) bool {
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var last *Context
		send := func() bool {
			if last != nil {
				stale := *last
				stale.Loading = true
				if !emit(&stale) {
					return false
				}
			}

			c, err := s.Load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				s.logger.Error("failed to reload dashboard", "err", err)
				if last == nil {
					return true
				}
				// Keep showing the previous context.
				c = last
			}

			last = c
			return emit(c)
		}

		if !send() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
				if !send() {
					return
				}
			}
		}
	}()

	return out, nil
}
