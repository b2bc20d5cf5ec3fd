package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend/backendtest"
	"github.com/mundesk/mundesk/pkg/proto"
)

func setup(t *testing.T) *backendtest.Fixture {
	t.Helper()
	return backendtest.New(t)
}

func TestNoSessionRedirects(t *testing.T) {
	f := setup(t)
	cases := []struct {
		kind Kind
		path string
		want string
	}{
		{Delegate, "/dashboard/papers", "/login?redirect=%2Fdashboard%2Fpapers"},
		{Chair, "/chair", "/chair/login?redirect=%2Fchair"},
		{Admin, "/admin/users", "/admin/login?redirect=%2Fadmin%2Fusers"},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			is := is.New(t)
			g := New(context.TODO(), tc.kind, f.Backend)
			d, err := g.Check(context.TODO(), nil, tc.path)
			is.NoErr(err)
			is.Equal(d.State, Unauthorized)
			is.Equal(d.Redirect, tc.want)
			is.True(errors.Is(d.Reason, proto.ErrNoSession))
		})
	}
}

func TestDelegateGuard(t *testing.T) {
	is := is.New(t)
	f := setup(t)
	cred := f.SignIn(t, "delegate@example.com")
	g := New(context.TODO(), Delegate, f.Backend)

	d, err := g.Check(context.TODO(), cred, "/dashboard")
	is.NoErr(err)
	is.Equal(d.State, Authorized)
	is.Equal(d.Resolution.Session.Email, "delegate@example.com")

	// The delegate dashboard never consults the privileged user table.
	is.Equal(f.Store.Lookups.Load(), int32(0))
}

func TestChairGuard(t *testing.T) {
	f := setup(t)
	g := New(context.TODO(), Chair, f.Backend)

	delegate := f.SignIn(t, "delegate@example.com")
	chair := f.SignIn(t, "chair@example.com")
	f.Promote(t, "chair@example.com", access.RoleChair, true, "")
	super := f.SignIn(t, "super@example.com")
	f.Promote(t, "super@example.com", access.RoleSuperadmin, true, "")
	inactive := f.SignIn(t, "inactive@example.com")
	f.Promote(t, "inactive@example.com", access.RoleSuperadmin, false, "")
	recovery := f.SignIn(t, backendtest.RecoveryEmail)

	cases := []struct {
		name string
		cred access.Credential
		want State
	}{
		{"delegate", delegate, Unauthorized},
		{"chair", chair, Authorized},
		{"superadmin", super, Authorized},
		{"inactive superadmin", inactive, Unauthorized},
		{"recovery", recovery, Authorized},
		{"marker", f.Marker(t, f.Now), Unauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			d, err := g.Check(context.TODO(), tc.cred, "/chair")
			is.NoErr(err)
			is.Equal(d.State, tc.want)
		})
	}
}

func TestChairGuardFailsClosed(t *testing.T) {
	is := is.New(t)
	f := setup(t)
	g := New(context.TODO(), Chair, f.Backend)
	chair := f.SignIn(t, "chair@example.com")
	f.Promote(t, "chair@example.com", access.RoleChair, true, "")
	recovery := f.SignIn(t, backendtest.RecoveryEmail)

	f.Store.Fail.Store(true)
	d, err := g.Check(context.TODO(), chair, "/chair")
	is.NoErr(err)
	is.Equal(d.State, Unauthorized)
	is.True(errors.Is(d.Reason, proto.ErrLookupFailure))

	d, err = g.Check(context.TODO(), recovery, "/chair")
	is.NoErr(err)
	is.Equal(d.State, Authorized)
	is.True(d.Resolution.Recovery)
}

func TestAdminGuard(t *testing.T) {
	f := setup(t)
	g := New(context.TODO(), Admin, f.Backend)
	super := f.SignIn(t, "super@example.com")
	f.Promote(t, "super@example.com", access.RoleSuperadmin, true, "")

	cases := []struct {
		name string
		cred access.Credential
		want State
	}{
		{"fresh marker", f.Marker(t, f.Now), Authorized},
		{"ten hours old", f.Marker(t, f.Now.Add(-10*time.Hour)), Authorized},
		{"just inside ttl", f.Marker(t, f.Now.Add(-24*time.Hour+time.Millisecond)), Authorized},
		{"exactly ttl", f.Marker(t, f.Now.Add(-24*time.Hour)), Unauthorized},
		{"past ttl", f.Marker(t, f.Now.Add(-24*time.Hour-time.Millisecond)), Unauthorized},
		{"forged", access.SharedSecretMarker{Token: "eyJhbGciOiJub25lIn0.e30."}, Unauthorized},
		{"superadmin session", super, Unauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			d, err := g.Check(context.TODO(), tc.cred, "/admin")
			is.NoErr(err)
			is.Equal(d.State, tc.want)
			if tc.want == Authorized {
				is.Equal(d.Resolution.Root, access.BreakGlassRoot)
			}
		})
	}
}

func TestAdminGuardIgnoresIdentity(t *testing.T) {
	is := is.New(t)
	f := setup(t)
	g := New(context.TODO(), Admin, f.Backend)
	before := f.Store.Lookups.Load()

	d, err := g.Check(context.TODO(), access.SharedSecretMarker{}, "/admin")
	is.NoErr(err)
	is.Equal(d.State, Unauthorized)

	d, err = g.Check(context.TODO(), f.Marker(t, f.Now), "/admin")
	is.NoErr(err)
	is.Equal(d.State, Authorized)
	is.Equal(f.Store.Lookups.Load(), before)
}

func TestCheckIsIdempotent(t *testing.T) {
	is := is.New(t)
	f := setup(t)
	g := New(context.TODO(), Chair, f.Backend)
	cred := f.SignIn(t, "chair@example.com")
	f.Promote(t, "chair@example.com", access.RoleChair, true, "")

	for i := 0; i < 3; i++ {
		d, err := g.Check(context.TODO(), cred, "/chair")
		is.NoErr(err)
		is.Equal(d.State, Authorized)
		is.Equal(d.Resolution.Level, access.ChairEquivalent)
	}
}

func TestCheckCancelled(t *testing.T) {
	is := is.New(t)
	f := setup(t)
	g := New(context.TODO(), Delegate, f.Backend)
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()

	d, err := g.Check(ctx, f.SignIn(t, "delegate@example.com"), "/dashboard")
	is.True(errors.Is(err, context.Canceled))
	is.Equal(d, nil)
}

func TestMiddleware(t *testing.T) {
	f := setup(t)
	cred := f.SignIn(t, "delegate@example.com")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := proto.SessionFromContext(r.Context())
		if sess == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if access.FromContext(r.Context()) != access.AuthenticatedOnly {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sess.Email))
	})
	h := New(context.TODO(), Delegate, f.Backend).Middleware(next)

	t.Run("cookie", func(t *testing.T) {
		is := is.New(t)
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: cred.Token})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		is.Equal(w.Code, http.StatusOK)
		is.Equal(w.Body.String(), "delegate@example.com")
	})

	t.Run("bearer", func(t *testing.T) {
		is := is.New(t)
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		r.Header.Set("Authorization", "Bearer "+cred.Token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		is.Equal(w.Code, http.StatusOK)
	})

	t.Run("anonymous", func(t *testing.T) {
		is := is.New(t)
		r := httptest.NewRequest(http.MethodGet, "/dashboard/papers?tab=mine", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		is.Equal(w.Code, http.StatusFound)
		is.Equal(w.Header().Get("Location"), "/login?redirect=%2Fdashboard%2Fpapers%3Ftab%3Dmine")
	})

	t.Run("cancelled", func(t *testing.T) {
		is := is.New(t)
		ctx, cancel := context.WithCancel(context.TODO())
		cancel()
		r := httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(ctx)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: cred.Token})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		is.Equal(w.Body.Len(), 0)
		is.Equal(w.Header().Get("Location"), "")
	})
}

func TestMarkerCredential(t *testing.T) {
	is := is.New(t)
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	is.True(MarkerCredential(r).Empty())
	r.AddCookie(&http.Cookie{Name: MarkerCookie, Value: "from-cookie"})
	is.Equal(MarkerCredential(r).Token, "from-cookie")
	r.Header.Set(MarkerHeader, "from-header")
	is.Equal(MarkerCredential(r).Token, "from-header")
}
