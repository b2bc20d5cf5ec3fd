package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend/backendtest"
	"github.com/mundesk/mundesk/pkg/guard"
	"github.com/mundesk/mundesk/pkg/proto"
)

type server struct {
	*backendtest.Fixture
	h http.Handler
}

func setup(t *testing.T) *server {
	t.Helper()
	f := backendtest.New(t)
	return &server{Fixture: f, h: NewRouter(f.Context(context.TODO()))}
}

func (s *server) do(t *testing.T, method, path string, body interface{}, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mods {
		m(r)
	}

	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, r)
	return w
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func cookie(w *httptest.ResponseRecorder, name string) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	is.Equal(s.do(t, http.MethodGet, "/livez", nil).Code, http.StatusOK)
	is.Equal(s.do(t, http.MethodGet, "/readyz", nil).Code, http.StatusOK)
}

func TestNotFound(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	w := s.do(t, http.MethodGet, "/nope", nil)
	is.Equal(w.Code, http.StatusNotFound)
	var e errorResponse
	decode(t, w, &e)
	is.Equal(e.Error, "Not Found")
}

func TestDelegateFlow(t *testing.T) {
	is := is.New(t)
	s := setup(t)

	w := s.do(t, http.MethodGet, "/dashboard", nil)
	is.Equal(w.Code, http.StatusFound)
	is.Equal(w.Header().Get("Location"), "/login?redirect=%2Fdashboard")

	w = s.do(t, http.MethodPost, "/auth/signup", credentialsRequest{Email: "delegate@example.com", Password: "hunter22", Name: "Ada"})
	is.Equal(w.Code, http.StatusCreated)
	w = s.do(t, http.MethodPost, "/auth/signup", credentialsRequest{Email: "delegate@example.com", Password: "hunter22"})
	is.Equal(w.Code, http.StatusConflict)

	w = s.do(t, http.MethodPost, "/auth/login", credentialsRequest{Email: "delegate@example.com", Password: "wrong"})
	is.Equal(w.Code, http.StatusUnauthorized)

	w = s.do(t, http.MethodPost, "/auth/login", credentialsRequest{Email: "delegate@example.com", Password: "hunter22", Redirect: "//evil.example"})
	is.Equal(w.Code, http.StatusOK)
	var login loginResponse
	decode(t, w, &login)
	is.Equal(login.Redirect, "/dashboard")
	is.Equal(login.Access.Level, access.AuthenticatedOnly)
	token := cookie(w, guard.SessionCookie)
	is.True(token != "")
	session := withCookie(guard.SessionCookie, token)

	w = s.do(t, http.MethodPost, "/dashboard/application", proto.ApplicationOptions{FullName: "Ada Lovelace", Institution: "Analytical"}, session)
	is.Equal(w.Code, http.StatusCreated)
	w = s.do(t, http.MethodPost, "/dashboard/application", proto.ApplicationOptions{FullName: "Ada Lovelace"}, session)
	is.Equal(w.Code, http.StatusConflict)

	w = s.do(t, http.MethodGet, "/dashboard", nil, session)
	is.Equal(w.Code, http.StatusOK)
	var dash dashboardResponse
	decode(t, w, &dash)
	is.Equal(dash.Access.Session.Email, "delegate@example.com")
	is.Equal(len(dash.Context.Applications), 1)
	is.Equal(dash.Context.Counts.ByStatus[proto.StatusPending], 1)

	// The delegate is not a chair.
	w = s.do(t, http.MethodGet, "/chair", nil, session)
	is.Equal(w.Code, http.StatusFound)
	is.Equal(w.Header().Get("Location"), "/chair/login?redirect=%2Fchair")

	w = s.do(t, http.MethodPost, "/auth/logout", nil, session)
	is.Equal(w.Code, http.StatusOK)
	w = s.do(t, http.MethodGet, "/dashboard", nil, session)
	is.Equal(w.Code, http.StatusFound)
	w = s.do(t, http.MethodGet, "/auth/session", nil, session)
	is.Equal(w.Code, http.StatusUnauthorized)
}

func TestLoginLogsResolveFailure(t *testing.T) {
	is := is.New(t)
	var logs bytes.Buffer
	f := backendtest.New(t)
	s := &server{Fixture: f, h: NewRouter(log.WithContext(f.Context(context.TODO()), log.New(&logs)))}

	w := s.do(t, http.MethodPost, "/auth/signup", credentialsRequest{Email: "delegate@example.com", Password: backendtest.Password})
	is.Equal(w.Code, http.StatusCreated)

	f.Store.FailSessions.Store(true)
	w = s.do(t, http.MethodPost, "/auth/login", credentialsRequest{Email: "delegate@example.com", Password: backendtest.Password})
	is.Equal(w.Code, http.StatusOK)
	is.True(cookie(w, guard.SessionCookie) != "")
	var login loginResponse
	decode(t, w, &login)
	is.Equal(login.Access.Level, access.Anonymous)
	is.True(strings.Contains(logs.String(), "resolving new session failed"))
	is.True(strings.Contains(logs.String(), backendtest.ErrStoreDown.Error()))

	f.Store.FailSessions.Store(false)
	logs.Reset()
	w = s.do(t, http.MethodPost, "/auth/login", credentialsRequest{Email: "delegate@example.com", Password: backendtest.Password})
	is.Equal(w.Code, http.StatusOK)
	decode(t, w, &login)
	is.Equal(login.Access.Level, access.AuthenticatedOnly)
	is.True(!strings.Contains(logs.String(), "resolving new session failed"))
}

func TestFormLogin(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	s.SignIn(t, "delegate@example.com")

	form := url.Values{"email": {"delegate@example.com"}, "password": {backendtest.Password}}
	r := httptest.NewRequest(http.MethodPost, "/auth/login?redirect=%2Fdashboard%3Ftab%3Dpapers", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, r)
	is.Equal(w.Code, http.StatusSeeOther)
	is.Equal(w.Header().Get("Location"), "/dashboard?tab=papers")
	is.True(cookie(w, guard.SessionCookie) != "")
}

func TestLoginPages(t *testing.T) {
	is := is.New(t)
	s := setup(t)

	w := s.do(t, http.MethodGet, "/chair/login?redirect=%2Fchair%2Fpapers", nil)
	is.Equal(w.Code, http.StatusOK)
	var form loginForm
	decode(t, w, &form)
	is.Equal(form.Action, "/chair/login")
	is.Equal(form.Redirect, "/chair/papers")

	w = s.do(t, http.MethodGet, "/admin/login?redirect=https%3A%2F%2Fevil.example", nil)
	is.Equal(w.Code, http.StatusOK)
	decode(t, w, &form)
	is.Equal(form.Redirect, "/admin")
	is.Equal(form.Fields, []string{"username", "password"})
}

func TestChairLogin(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	s.SignIn(t, "delegate@example.com")
	s.SignIn(t, "chair@example.com")
	s.Promote(t, "chair@example.com", access.RoleChair, true, "")

	w := s.do(t, http.MethodPost, "/chair/login", credentialsRequest{Email: "delegate@example.com", Password: backendtest.Password})
	is.Equal(w.Code, http.StatusForbidden)
	is.Equal(cookie(w, guard.SessionCookie), "")

	w = s.do(t, http.MethodPost, "/chair/login", credentialsRequest{Email: "chair@example.com", Password: backendtest.Password})
	is.Equal(w.Code, http.StatusOK)
	var login loginResponse
	decode(t, w, &login)
	is.Equal(login.Redirect, "/chair")
	is.Equal(login.Access.Role, access.RoleChair)

	w = s.do(t, http.MethodGet, "/chair", nil, withCookie(guard.SessionCookie, cookie(w, guard.SessionCookie)))
	is.Equal(w.Code, http.StatusOK)
}

func TestChairReviewScope(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	ctx := context.TODO()
	be := s.Backend
	c1, err := be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "Security Council"})
	is.NoErr(err)
	c2, err := be.CreateCommittee(ctx, proto.CommitteeOptions{Name: "General Assembly"})
	is.NoErr(err)

	papers := map[string]*proto.Paper{}
	for email, c := range map[string]*proto.Committee{"a@example.com": c1, "b@example.com": c2} {
		app, err := be.SubmitApplication(ctx, email, proto.ApplicationOptions{FullName: email})
		is.NoErr(err)
		is.NoErr(be.AssignCommittee(ctx, app.ID, c.ID))
		p, err := be.SubmitPaper(ctx, email, "Position paper", "")
		is.NoErr(err)
		papers[c.ID] = p
	}

	cred := s.SignIn(t, "chair@example.com")
	s.Promote(t, "chair@example.com", access.RoleChair, true, c1.ID)
	session := withCookie(guard.SessionCookie, cred.Token)

	review := reviewRequest{Status: proto.PaperAccepted, Feedback: "Well argued"}
	w := s.do(t, http.MethodPost, "/chair/papers/"+papers[c2.ID].ID+"/review", review, session)
	is.Equal(w.Code, http.StatusForbidden)

	w = s.do(t, http.MethodPost, "/chair/papers/"+papers[c1.ID].ID+"/review", review, session)
	is.Equal(w.Code, http.StatusOK)
	var p proto.Paper
	decode(t, w, &p)
	is.Equal(p.Status, proto.PaperAccepted)
	is.Equal(p.Feedback, "Well argued")

	w = s.do(t, http.MethodPost, "/chair/papers/"+papers[c1.ID].ID+"/review", reviewRequest{Status: "lost"}, session)
	is.Equal(w.Code, http.StatusBadRequest)
}

func TestAdminFlow(t *testing.T) {
	is := is.New(t)
	s := setup(t)

	w := s.do(t, http.MethodPost, "/admin/login", credentialsRequest{Username: backendtest.AdminUsername, Password: "nope"})
	is.Equal(w.Code, http.StatusUnauthorized)

	w = s.do(t, http.MethodPost, "/admin/login", credentialsRequest{Username: backendtest.AdminUsername, Password: backendtest.AdminPassword})
	is.Equal(w.Code, http.StatusOK)
	markerToken := cookie(w, guard.MarkerCookie)
	is.True(markerToken != "")
	admin := func(r *http.Request) { r.Header.Set(guard.MarkerHeader, markerToken) }

	w = s.do(t, http.MethodPost, "/admin/committees", proto.CommitteeOptions{Name: "Security Council", Abbreviation: "UNSC", Capacity: 15}, admin)
	is.Equal(w.Code, http.StatusCreated)
	var c proto.Committee
	decode(t, w, &c)
	w = s.do(t, http.MethodPost, "/admin/committees", proto.CommitteeOptions{Name: "Security Council"}, admin)
	is.Equal(w.Code, http.StatusConflict)

	role := access.RoleChair
	w = s.do(t, http.MethodPost, "/admin/users", userRequest{Email: "chair@example.com", Password: "hunter22", Role: &role, CommitteeID: &c.ID}, admin)
	is.Equal(w.Code, http.StatusCreated)
	var u proto.PrivilegedUser
	decode(t, w, &u)
	is.Equal(u.CommitteeID, c.ID)

	inactive := false
	w = s.do(t, http.MethodPatch, "/admin/users/"+u.ID, userRequest{IsActive: &inactive}, admin)
	is.Equal(w.Code, http.StatusOK)

	w = s.do(t, http.MethodGet, "/admin", nil, admin)
	is.Equal(w.Code, http.StatusOK)
	var dash dashboardResponse
	decode(t, w, &dash)
	is.Equal(len(dash.Context.Users), 1)
	is.Equal(dash.Context.Users[0].IsActive, false)
	is.Equal(len(dash.Context.Committees), 1)

	w = s.do(t, http.MethodDelete, "/admin/users/"+u.ID, nil, admin)
	is.Equal(w.Code, http.StatusNoContent)
	w = s.do(t, http.MethodGet, "/admin/users/"+u.ID, nil, admin)
	is.Equal(w.Code, http.StatusNotFound)

	w = s.do(t, http.MethodPost, "/admin/logout", nil, admin)
	is.Equal(w.Code, http.StatusOK)
}

func TestAdminRequiresMarker(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	cred := s.SignIn(t, "super@example.com")
	s.Promote(t, "super@example.com", access.RoleSuperadmin, true, "")

	w := s.do(t, http.MethodGet, "/admin/users", nil, withCookie(guard.SessionCookie, cred.Token))
	is.Equal(w.Code, http.StatusFound)
	is.Equal(w.Header().Get("Location"), "/admin/login?redirect=%2Fadmin%2Fusers")

	// The superadmin still reaches the chair dashboard.
	w = s.do(t, http.MethodGet, "/chair", nil, withCookie(guard.SessionCookie, cred.Token))
	is.Equal(w.Code, http.StatusOK)

	stale := s.Marker(t, s.Now.Add(-24 * time.Hour))
	w = s.do(t, http.MethodGet, "/admin", nil, withCookie(guard.MarkerCookie, stale.Token))
	is.Equal(w.Code, http.StatusFound)
}

func TestJWKS(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	w := s.do(t, http.MethodGet, "/.well-known/jwks.json", nil)
	is.Equal(w.Code, http.StatusOK)
	var set struct {
		Keys []map[string]interface{} `json:"keys"`
	}
	decode(t, w, &set)
	is.Equal(len(set.Keys), 1)
	is.Equal(set.Keys[0]["kty"], "OKP")
}
