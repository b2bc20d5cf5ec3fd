package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mundesk/mundesk/pkg/access"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/guard"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/shell"
)

// AdminController registers the admin dashboard. Every route requires a
// valid admin marker.
func AdminController(ctx context.Context, r *mux.Router) {
	be := backend.FromContext(ctx)

	admin := r.PathPrefix(guard.AdminRoot).Subrouter()
	admin.Use(guard.New(ctx, guard.Admin, be).Middleware)
	admin.HandleFunc("", getDashboard(shell.Admin)).Methods(http.MethodGet)
	admin.HandleFunc("/events", getEvents(shell.Admin)).Methods(http.MethodGet)

	admin.HandleFunc("/users", getUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", postUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/promote", postPromoteUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}", getUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", patchUser).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{id}", deleteUser).Methods(http.MethodDelete)

	admin.HandleFunc("/committees", getCommittees).Methods(http.MethodGet)
	admin.HandleFunc("/committees", postCommittee).Methods(http.MethodPost)
	admin.HandleFunc("/committees/{id}", getCommittee).Methods(http.MethodGet)
	admin.HandleFunc("/committees/{id}", putCommittee).Methods(http.MethodPut, http.MethodPatch)
	admin.HandleFunc("/committees/{id}", deleteCommittee).Methods(http.MethodDelete)

	admin.HandleFunc("/applications", getApplications).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id}", getApplication).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id}/status", putApplicationStatus).Methods(http.MethodPut)
	admin.HandleFunc("/applications/{id}/committee", putApplicationCommittee).Methods(http.MethodPut)

	admin.HandleFunc("/papers", getPapers).Methods(http.MethodGet)
	admin.HandleFunc("/papers/{id}/review", putAdminReview).Methods(http.MethodPut, http.MethodPost)
}

// userRequest creates or edits a privileged user. Omitted fields are left
// unchanged on edit.
type userRequest struct {
	Email         string       `json:"email"`
	Password      string       `json:"password"`
	Role          *access.Role `json:"role"`
	FullName      *string      `json:"full_name"`
	IsActive      *bool        `json:"is_active"`
	CommitteeID   *string      `json:"committee_id"`
	CommitteeRole *access.Role `json:"committee_role"`
}

func (u userRequest) options() proto.UserOptions {
	return proto.UserOptions{
		Role:          u.Role,
		FullName:      u.FullName,
		IsActive:      u.IsActive,
		CommitteeID:   u.CommitteeID,
		CommitteeRole: u.CommitteeRole,
	}
}

func getUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := backend.FromContext(ctx).Users(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, users)
}

func getUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := backend.FromContext(ctx).User(ctx, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, u)
}

func postUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	u, err := backend.FromContext(ctx).CreateUser(ctx, req.Email, req.Password, req.options())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, u)
}

func postPromoteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	u, err := backend.FromContext(ctx).PromoteUser(ctx, req.Email, req.options())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, u)
}

func patchUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	u, err := backend.FromContext(ctx).EditUser(ctx, mux.Vars(r)["id"], req.options())
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, u)
}

func deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := backend.FromContext(ctx).DeleteUser(ctx, mux.Vars(r)["id"]); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func getCommittees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cs, err := backend.FromContext(ctx).Committees(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, cs)
}

func getCommittee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := backend.FromContext(ctx).Committee(ctx, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, c)
}

func postCommittee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var opts proto.CommitteeOptions
	if err := decodeJSON(w, r, &opts); err != nil {
		renderError(w, r, err)
		return
	}

	c, err := backend.FromContext(ctx).CreateCommittee(ctx, opts)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, c)
}

func putCommittee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var opts proto.CommitteeOptions
	if err := decodeJSON(w, r, &opts); err != nil {
		renderError(w, r, err)
		return
	}

	c, err := backend.FromContext(ctx).EditCommittee(ctx, mux.Vars(r)["id"], opts)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, c)
}

func deleteCommittee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := backend.FromContext(ctx).DeleteCommittee(ctx, mux.Vars(r)["id"]); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func getApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := backend.FromContext(ctx).Applications(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, apps)
}

func getApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, err := backend.FromContext(ctx).Application(ctx, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, app)
}

type statusRequest struct {
	Status string `json:"status"`
}

func putApplicationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	id := mux.Vars(r)["id"]
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	if err := be.SetApplicationStatus(ctx, id, req.Status); err != nil {
		renderError(w, r, err)
		return
	}

	getApplication(w, r)
}

type committeeRequest struct {
	CommitteeID string `json:"committee_id"`
}

func putApplicationCommittee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	var req committeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	if err := be.AssignCommittee(ctx, mux.Vars(r)["id"], req.CommitteeID); err != nil {
		renderError(w, r, err)
		return
	}

	getApplication(w, r)
}

func getPapers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	papers, err := backend.FromContext(ctx).Papers(ctx)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, papers)
}

func putAdminReview(w http.ResponseWriter, r *http.Request) {
	reviewPaper(w, r, mux.Vars(r)["id"])
}
