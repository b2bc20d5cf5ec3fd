package shell

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/backend/backendtest"
	"github.com/mundesk/mundesk/pkg/proto"
)

type conference struct {
	*backendtest.Fixture
	c1, c2 *proto.Committee
	apps   map[string]*proto.Application
}

// seed creates two committees with two delegates each and one paper per
// delegate.
func seed(t *testing.T) *conference {
	t.Helper()
	ctx := context.TODO()
	f := backendtest.New(t)
	be := f.Backend
	conf := &conference{Fixture: f, apps: map[string]*proto.Application{}}

	var err error
	if conf.c1, err = be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "Security Council", Abbreviation: "UNSC", Capacity: 15}); err != nil {
		t.Fatal(err)
	}
	if conf.c2, err = be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "Human Rights Council", Abbreviation: "UNHRC", Capacity: 40}); err != nil {
		t.Fatal(err)
	}

	for _, d := range []struct {
		email, committee string
	}{
		{"a@example.com", conf.c1.ID},
		{"b@example.com", conf.c1.ID},
		{"c@example.com", conf.c2.ID},
		{"d@example.com", conf.c2.ID},
	} {
		app, err := be.SubmitApplication(ctx, d.email, proto.ApplicationOptions{FullName: d.email})
		if err != nil {
			t.Fatal(err)
		}
		if err := be.AssignCommittee(ctx, app.ID, d.committee); err != nil {
			t.Fatal(err)
		}
		if _, err := be.SubmitPaper(ctx, d.email, "Position paper", "https://files.example.com/"+app.ID); err != nil {
			t.Fatal(err)
		}
		conf.apps[d.email] = app
	}

	if err := be.SetApplicationStatus(ctx, conf.apps["a@example.com"].ID, proto.StatusApproved); err != nil {
		t.Fatal(err)
	}

	return conf
}

func (c *conference) resolve(t *testing.T, cred access.Credential) *backend.Resolution {
	t.Helper()
	res, err := c.Backend.ResolveAccess(context.TODO(), cred, c.Now)
	if err != nil {
		t.Fatal(err)
	}

	return res
}

func TestChairShellCommitteeScope(t *testing.T) {
	is := is.New(t)
	c := seed(t)
	cred := c.SignIn(t, "chair@example.com")
	c.Promote(t, "chair@example.com", access.RoleChair, true, c.c1.ID)

	sh, err := New(context.TODO(), Chair, c.Backend, c.resolve(t, cred))
	is.NoErr(err)
	is.Equal(sh.Scope(), Scope{CommitteeID: c.c1.ID})

	ctx, err := sh.Load(context.TODO())
	is.NoErr(err)
	is.Equal(len(ctx.Committees), 1)
	is.Equal(ctx.Committees[0].ID, c.c1.ID)
	is.Equal(len(ctx.Applications), 2)
	for _, a := range ctx.Applications {
		is.Equal(a.AssignedCommitteeID, c.c1.ID)
	}
	is.Equal(len(ctx.Papers), 2)
	is.Equal(ctx.Counts.Total, 2)
	is.Equal(ctx.Counts.ByStatus[proto.StatusApproved], 1)
	is.Equal(ctx.Counts.ByStatus[proto.StatusPending], 1)
	is.Equal(ctx.Counts.PendingReview, 2)
	is.Equal(ctx.Users, nil)

	is.True(sh.CanReview(ctx.Papers[0]))
	is.True(!sh.CanReview(&proto.Paper{CommitteeID: c.c2.ID}))
}

func TestChairShellSuperadmin(t *testing.T) {
	is := is.New(t)
	c := seed(t)
	cred := c.SignIn(t, "super@example.com")
	c.Promote(t, "super@example.com", access.RoleSuperadmin, true, "")

	sh, err := New(context.TODO(), Chair, c.Backend, c.resolve(t, cred))
	is.NoErr(err)
	is.Equal(sh.Scope(), Scope{All: true})

	ctx, err := sh.Load(context.TODO())
	is.NoErr(err)
	is.Equal(len(ctx.Committees), 2)
	is.Equal(len(ctx.Applications), 4)
	is.Equal(len(ctx.Papers), 4)
	is.Equal(ctx.Counts.ByCommittee[c.c1.ID], 2)
	is.Equal(ctx.Counts.ByCommittee[c.c2.ID], 2)
	is.True(sh.CanReview(&proto.Paper{CommitteeID: c.c2.ID}))
}

func TestChairShellWithoutCommittee(t *testing.T) {
	c := seed(t)
	director := c.SignIn(t, "director@example.com")
	c.Promote(t, "director@example.com", access.RoleDirector, true, "")
	recovery := c.SignIn(t, backendtest.RecoveryEmail)

	for name, cred := range map[string]access.Credential{"director": director, "recovery": recovery} {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			sh, err := New(context.TODO(), Chair, c.Backend, c.resolve(t, cred))
			is.NoErr(err)
			is.True(sh.Scope().None())

			ctx, err := sh.Load(context.TODO())
			is.NoErr(err)
			is.Equal(len(ctx.Committees), 0)
			is.Equal(len(ctx.Applications), 0)
			is.Equal(ctx.Counts.Total, 0)
			is.True(!sh.CanReview(&proto.Paper{CommitteeID: c.c1.ID}))
		})
	}
}

func TestDelegateShell(t *testing.T) {
	is := is.New(t)
	c := seed(t)
	cred := c.SignIn(t, "c@example.com")

	sh, err := New(context.TODO(), Delegate, c.Backend, c.resolve(t, cred))
	is.NoErr(err)

	ctx, err := sh.Load(context.TODO())
	is.NoErr(err)
	is.Equal(len(ctx.Applications), 1)
	is.Equal(ctx.Applications[0].Email, "c@example.com")
	is.Equal(len(ctx.Committees), 1)
	is.Equal(ctx.Committees[0].ID, c.c2.ID)
	is.Equal(len(ctx.Papers), 1)
	is.True(!sh.CanReview(ctx.Papers[0]))

	// No application yet.
	cred = c.SignIn(t, "new@example.com")
	sh, err = New(context.TODO(), Delegate, c.Backend, c.resolve(t, cred))
	is.NoErr(err)
	ctx, err = sh.Load(context.TODO())
	is.NoErr(err)
	is.Equal(len(ctx.Applications), 0)
	is.Equal(ctx.Counts.Total, 0)
}

func TestAdminShell(t *testing.T) {
	is := is.New(t)
	c := seed(t)
	c.SignIn(t, "chair@example.com")
	c.Promote(t, "chair@example.com", access.RoleChair, true, c.c1.ID)

	sh, err := New(context.TODO(), Admin, c.Backend, c.resolve(t, c.Marker(t, c.Now)))
	is.NoErr(err)

	ctx, err := sh.Load(context.TODO())
	is.NoErr(err)
	is.Equal(len(ctx.Applications), 4)
	is.Equal(len(ctx.Users), 1)
	is.Equal(ctx.Users[0].Email, "chair@example.com")
}

func TestShellRequiresAuthorization(t *testing.T) {
	is := is.New(t)
	c := seed(t)
	delegate := c.resolve(t, c.SignIn(t, "delegate@example.com"))
	marker := c.resolve(t, c.Marker(t, c.Now))

	_, err := New(context.TODO(), Chair, c.Backend, delegate)
	is.Equal(err, ErrNotAuthorized)
	_, err = New(context.TODO(), Admin, c.Backend, delegate)
	is.Equal(err, ErrNotAuthorized)
	_, err = New(context.TODO(), Chair, c.Backend, marker)
	is.Equal(err, ErrNotAuthorized)
	_, err = New(context.TODO(), Delegate, c.Backend, nil)
	is.Equal(err, ErrNotAuthorized)
}

func TestWatch(t *testing.T) {
	is := is.New(t)
	c := seed(t)
	cred := c.SignIn(t, "chair@example.com")
	c.Promote(t, "chair@example.com", access.RoleChair, true, c.c1.ID)
	sh, err := New(context.TODO(), Chair, c.Backend, c.resolve(t, cred))
	is.NoErr(err)

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	updates, err := sh.Watch(ctx)
	is.NoErr(err)

	next := func() *Context {
		select {
		case u := <-updates:
			return u
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for update")
			return nil
		}
	}

	first := next()
	is.Equal(first.Counts.ByStatus[proto.StatusApproved], 1)

	is.NoErr(c.Backend.SetApplicationStatus(context.TODO(), c.apps["b@example.com"].ID, proto.StatusApproved))

	// Coalesced events may deliver intermediate snapshots.
	for {
		u := next()
		if u.Counts.ByStatus[proto.StatusApproved] == 2 {
			break
		}
	}

	cancel()
	for range updates {
	}
}

func TestWatchMarksReloads(t *testing.T) {
	is := is.New(t)
	c := seed(t)
	sh, err := New(context.TODO(), Admin, c.Backend, c.resolve(t, c.Marker(t, c.Now)))
	is.NoErr(err)

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	updates, err := sh.Watch(ctx)
	is.NoErr(err)

	next := func() *Context {
		select {
		case u := <-updates:
			return u
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for update")
			return nil
		}
	}

	first := next()
	is.True(!first.Loading)
	approved := first.Counts.ByStatus[proto.StatusApproved]

	is.NoErr(c.Backend.SetApplicationStatus(context.TODO(), c.apps["b@example.com"].ID, proto.StatusApproved))

	stale := next()
	is.True(stale.Loading)
	is.Equal(stale.Counts.ByStatus[proto.StatusApproved], approved)
	fresh := next()
	is.True(!fresh.Loading)
	is.True(!first.Loading)

	cancel()
	for range updates {
	}
}

func TestCount(t *testing.T) {
	is := is.New(t)
	counts := Count([]*proto.Application{
		{Status: proto.StatusPending, AssignedCommitteeID: "c1"},
		{Status: proto.StatusPending},
		{Status: "interviewing", AssignedCommitteeID: "c1"},
	}, []*proto.Paper{
		{Status: proto.PaperSubmitted},
		{Status: proto.PaperAccepted},
	})
	is.Equal(counts.Total, 3)
	is.Equal(counts.ByStatus, map[string]int{proto.StatusPending: 2, "interviewing": 1})
	is.Equal(counts.ByCommittee, map[string]int{"c1": 2})
	is.Equal(counts.PendingReview, 1)
}
