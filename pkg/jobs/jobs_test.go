package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend/backendtest"
)

func TestRegistered(t *testing.T) {
	is := is.New(t)
	is.Equal(Names(), []string{PurgeSessionsJob})
	is.True(List()[PurgeSessionsJob] != nil)
}

func TestPurgeSessions(t *testing.T) {
	is := is.New(t)
	f := backendtest.New(t)
	ctx := f.Context(context.TODO())
	job := List()[PurgeSessionsJob].Runner
	is.Equal(job.Spec(ctx), "@every 1h")

	cred := f.SignIn(t, "delegate@example.com")
	res, err := f.Backend.ResolveAccess(ctx, cred, f.Now)
	is.NoErr(err)
	is.Equal(res.Level, access.AuthenticatedOnly)

	// Run the job after every session has expired.
	later := f.Now.Add(f.Config.Auth.SessionDuration() + time.Minute)
	f.Backend.SetClock(func() time.Time { return later })
	job.Func(ctx)()

	// The session row is gone, so the token no longer resolves even
	// with the clock moved back.
	f.Backend.SetClock(func() time.Time { return f.Now })
	res, err = f.Backend.ResolveAccess(ctx, cred, f.Now)
	is.NoErr(err)
	is.Equal(res.Level, access.Anonymous)
}
