package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/config"
	"github.com/mundesk/mundesk/pkg/guard"
	"github.com/mundesk/mundesk/pkg/marker"
	"github.com/mundesk/mundesk/pkg/proto"
)

// credentialsRequest is a sign-up or login body, sent as JSON or as an HTML
// form.
type credentialsRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Redirect string `json:"redirect"`
}

func bindCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return req, errors.Join(proto.ErrInvalidInput, err)
		}
		req = credentialsRequest{
			Email:    r.PostFormValue("email"),
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
			Name:     r.PostFormValue("name"),
			Redirect: r.PostFormValue("redirect"),
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		return req, err
	}

	if req.Redirect == "" {
		req.Redirect = r.URL.Query().Get("redirect")
	}
	req.Email = strings.TrimSpace(req.Email)

	return req, nil
}

// accessResponse describes a resolved caller.
type accessResponse struct {
	Level    access.AccessLevel    `json:"level"`
	Root     string                `json:"root"`
	Role     access.Role           `json:"role,omitempty"`
	Recovery bool                  `json:"recovery,omitempty"`
	Session  *proto.Session        `json:"session,omitempty"`
	User     *proto.PrivilegedUser `json:"user,omitempty"`
	Marker   *marker.Marker        `json:"marker,omitempty"`
}

func accessView(res *backend.Resolution) accessResponse {
	if res == nil {
		return accessResponse{Level: access.Anonymous, Root: access.NoTrust.String()}
	}

	return accessResponse{
		Level:    res.Level,
		Root:     res.Root.String(),
		Role:     res.Role(),
		Recovery: res.Recovery,
		Session:  res.Session,
		User:     res.User,
		Marker:   res.Marker,
	}
}

// loginForm describes a login page.
type loginForm struct {
	Action   string   `json:"action"`
	Fields   []string `json:"fields"`
	Redirect string   `json:"redirect"`
}

func loginPage(action string, fields []string, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hdrNocache(w)
		renderJSON(w, http.StatusOK, loginForm{
			Action:   action,
			Fields:   fields,
			Redirect: guard.SafeRedirect(r.URL.Query().Get("redirect"), fallback),
		})
	}
}

// AuthController registers the sign-in routes of the three dashboards.
func AuthController(_ context.Context, r *mux.Router) {
	identityFields := []string{"email", "password"}
	r.HandleFunc(guard.DelegateLogin, loginPage("/auth/login", identityFields, guard.DelegateRoot)).Methods(http.MethodGet)
	r.HandleFunc(guard.ChairLogin, loginPage(guard.ChairLogin, identityFields, guard.ChairRoot)).Methods(http.MethodGet)
	r.HandleFunc(guard.ChairLogin, postChairLogin).Methods(http.MethodPost)
	r.HandleFunc(guard.AdminLogin, loginPage(guard.AdminLogin, []string{"username", "password"}, guard.AdminRoot)).Methods(http.MethodGet)
	r.HandleFunc(guard.AdminLogin, postAdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/admin/logout", postAdminLogout).Methods(http.MethodPost)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", postSignUp).Methods(http.MethodPost)
	auth.HandleFunc("/login", postLogin).Methods(http.MethodPost)
	auth.HandleFunc("/logout", postLogout).Methods(http.MethodPost)
	auth.HandleFunc("/session", getSession).Methods(http.MethodGet)

	r.HandleFunc("/.well-known/jwks.json", getJWKS).Methods(http.MethodGet)
}

func setCookie(w http.ResponseWriter, r *http.Request, name, value string, expires time.Time) {
	cfg := config.FromContext(r.Context())
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg != nil && cfg.HTTP.SecureCookies,
	}
	if value == "" {
		c.MaxAge = -1
	} else {
		c.Expires = expires
	}

	http.SetCookie(w, c)
}

// signedIn answers a successful login with a JSON body or, for form posts,
// a redirect.
func signedIn(w http.ResponseWriter, r *http.Request, target string, body interface{}) {
	hdrNocache(w)
	if isForm(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	renderJSON(w, http.StatusOK, body)
}

type loginResponse struct {
	Redirect string         `json:"redirect"`
	Access   accessResponse `json:"access"`
}

func postSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	req, err := bindCredentials(w, r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	ident, err := be.Identity().SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, ident)
}

func postLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	req, err := bindCredentials(w, r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	token, sess, err := be.Identity().SignIn(ctx, req.Email, req.Password, be.Now())
	if err != nil {
		renderError(w, r, err)
		return
	}

	setCookie(w, r, guard.SessionCookie, token, sess.ExpiresAt)
	res, err := be.ResolveSession(ctx, access.IdentitySession{Token: token}, be.Now())
	if err != nil {
		// The session exists; only its access view is degraded.
		log.FromContext(ctx).Error("resolving new session failed", "email", sess.Email, "err", err)
	}
	signedIn(w, r, guard.SafeRedirect(req.Redirect, guard.DelegateRoot), loginResponse{
		Redirect: guard.SafeRedirect(req.Redirect, guard.DelegateRoot),
		Access:   accessView(res),
	})
}

// postChairLogin signs in and then requires a chair-equivalent role. Callers
// below that are signed out again.
func postChairLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx)
	req, err := bindCredentials(w, r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	now := be.Now()
	token, sess, err := be.Identity().SignIn(ctx, req.Email, req.Password, now)
	if err != nil {
		renderError(w, r, err)
		return
	}

	res, err := be.ResolveAccess(ctx, access.IdentitySession{Token: token}, now)
	if err != nil || res.Level < access.ChairEquivalent {
		if err != nil {
			logger.Error("chair login failed closed", "email", sess.Email, "err", err)
		}
		if err := be.Identity().SignOut(ctx, token); err != nil {
			logger.Error("failed to revoke session", "err", err)
		}
		renderError(w, r, proto.ErrUnauthorizedRole)
		return
	}

	setCookie(w, r, guard.SessionCookie, token, sess.ExpiresAt)
	target := guard.SafeRedirect(req.Redirect, guard.ChairRoot)
	signedIn(w, r, target, loginResponse{Redirect: target, Access: accessView(res)})
}

func postLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	if cred := guard.IdentityCredential(r); !cred.Empty() {
		if err := be.Identity().SignOut(ctx, cred.Token); err != nil && !errors.Is(err, proto.ErrNoSession) {
			renderError(w, r, err)
			return
		}
	}

	setCookie(w, r, guard.SessionCookie, "", time.Time{})
	signedIn(w, r, guard.DelegateLogin, struct{}{})
}

func getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	hdrNocache(w)
	res, err := be.ResolveAccess(ctx, guard.IdentityCredential(r), be.Now())
	if err != nil {
		renderError(w, r, err)
		return
	}

	if res.Level == access.Anonymous {
		renderError(w, r, proto.ErrNoSession)
		return
	}

	renderJSON(w, http.StatusOK, accessView(res))
}

func postAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	req, err := bindCredentials(w, r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	token, m, err := be.AdminLogin(req.Username, req.Password, be.Now())
	if err != nil {
		renderError(w, r, err)
		return
	}

	setCookie(w, r, guard.MarkerCookie, token, m.IssuedAt().Add(be.MarkerTTL()))
	target := guard.SafeRedirect(req.Redirect, guard.AdminRoot)
	signedIn(w, r, target, loginResponse{
		Redirect: target,
		Access: accessResponse{
			Level:  access.AdminEquivalent,
			Root:   access.BreakGlassRoot.String(),
			Marker: &m,
		},
	})
}

func postAdminLogout(w http.ResponseWriter, r *http.Request) {
	setCookie(w, r, guard.MarkerCookie, "", time.Time{})
	signedIn(w, r, guard.AdminLogin, struct{}{})
}

func getJWKS(w http.ResponseWriter, r *http.Request) {
	be := backend.FromContext(r.Context())
	renderJSON(w, http.StatusOK, be.Identity().KeySet())
}
