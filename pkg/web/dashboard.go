package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mundesk/mundesk/pkg/backend"
	"github.com/mundesk/mundesk/pkg/guard"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/shell"
)

// dashboardResponse is the payload of a dashboard root.
type dashboardResponse struct {
	Access  accessResponse `json:"access"`
	Context *shell.Context `json:"context"`
}

// shellFor builds the shell of kind for a request that passed its guard.
func shellFor(r *http.Request, kind shell.Kind) (*shell.Shell, error) {
	ctx := r.Context()
	return shell.New(ctx, kind, backend.FromContext(ctx), guard.ResolutionFromContext(ctx))
}

func getDashboard(kind shell.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sh, err := shellFor(r, kind)
		if err != nil {
			renderError(w, r, err)
			return
		}

		c, err := sh.Load(ctx)
		if err != nil {
			renderError(w, r, err)
			return
		}

		hdrNocache(w)
		renderJSON(w, http.StatusOK, dashboardResponse{
			Access:  accessView(guard.ResolutionFromContext(ctx)),
			Context: c,
		})
	}
}

// DashboardController registers the guarded delegate and chair dashboards.
func DashboardController(ctx context.Context, r *mux.Router) {
	be := backend.FromContext(ctx)

	delegate := r.PathPrefix(guard.DelegateRoot).Subrouter()
	delegate.Use(guard.New(ctx, guard.Delegate, be).Middleware)
	delegate.HandleFunc("", getDashboard(shell.Delegate)).Methods(http.MethodGet)
	delegate.HandleFunc("/events", getEvents(shell.Delegate)).Methods(http.MethodGet)
	delegate.HandleFunc("/application", postApplication).Methods(http.MethodPost)
	delegate.HandleFunc("/papers", postPaper).Methods(http.MethodPost)

	chair := r.PathPrefix(guard.ChairRoot).Subrouter()
	chair.Use(guard.New(ctx, guard.Chair, be).Middleware)
	chair.HandleFunc("", getDashboard(shell.Chair)).Methods(http.MethodGet)
	chair.HandleFunc("/events", getEvents(shell.Chair)).Methods(http.MethodGet)
	chair.HandleFunc("/papers/{id}/review", postChairReview).Methods(http.MethodPost)
}

func postApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	sess := proto.SessionFromContext(ctx)
	var opts proto.ApplicationOptions
	if err := decodeJSON(w, r, &opts); err != nil {
		renderError(w, r, err)
		return
	}

	app, err := be.SubmitApplication(ctx, sess.Email, opts)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, app)
}

type paperRequest struct {
	Title   string `json:"title"`
	FileURL string `json:"file_url"`
}

func postPaper(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	sess := proto.SessionFromContext(ctx)
	var req paperRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	p, err := be.SubmitPaper(ctx, sess.Email, req.Title, req.FileURL)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, p)
}

type reviewRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// postChairReview reviews a paper of the chair's own committee. Superadmins
// may review any paper.
func postChairReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	sh, err := shellFor(r, shell.Chair)
	if err != nil {
		renderError(w, r, err)
		return
	}

	p, err := be.Paper(ctx, mux.Vars(r)["id"])
	if err != nil {
		renderError(w, r, err)
		return
	}

	if !sh.CanReview(p) {
		renderError(w, r, proto.ErrUnauthorizedRole)
		return
	}

	reviewPaper(w, r, p.ID)
}

func reviewPaper(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	if err := be.ReviewPaper(ctx, id, req.Status, req.Feedback); err != nil {
		renderError(w, r, err)
		return
	}

	p, err := be.Paper(ctx, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, p)
}
