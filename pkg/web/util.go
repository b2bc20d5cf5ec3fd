package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/proto"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

func renderStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		io.WriteString(w, fmt.Sprintf("%d %s", code, http.StatusText(code))) //nolint:errcheck,gosec
	}
}

// renderJSON renders v as JSON with the given status code.
func renderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding json", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps an error to its HTTP status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, proto.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, proto.ErrInvalidCredentials),
		errors.Is(err, proto.ErrNoSession),
		errors.Is(err, proto.ErrStaleMarker):
		return http.StatusUnauthorized
	case errors.Is(err, proto.ErrUnauthorizedRole):
		return http.StatusForbidden
	case errors.Is(err, proto.ErrUserNotFound),
		errors.Is(err, proto.ErrIdentityNotFound),
		errors.Is(err, proto.ErrCommitteeNotFound),
		errors.Is(err, proto.ErrApplicationNotFound),
		errors.Is(err, proto.ErrPaperNotFound):
		return http.StatusNotFound
	case errors.Is(err, proto.ErrEmailTaken),
		errors.Is(err, proto.ErrCommitteeExist),
		errors.Is(err, proto.ErrApplicationExist):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// renderError renders err as a JSON error. Unknown errors are logged and
// hidden from the client.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.FromContext(r.Context()).Error("request failed", "err", err)
		msg = http.StatusText(code)
	}

	renderJSON(w, code, errorResponse{Error: msg})
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
}

func renderMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)})
}

// isForm reports whether r carries an HTML form body.
func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

// decodeJSON decodes the JSON body of r into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", proto.ErrInvalidInput, err)
	}

	return nil
}

// Header writing functions

func hdrNocache(w http.ResponseWriter) {
	w.Header().Set("Expires", "Fri, 01 Jan 1980 00:00:00 GMT")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
}
