package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mundesk/mundesk/pkg/shell"
)

// keepAliveInterval is how often an idle event stream sends a comment.
const keepAliveInterval = 30 * time.Second

var streamsDoneCtxKey = &struct{ string }{"streams-done"}

// WithStreamsDone returns a context whose event streams end when done is
// closed.
func WithStreamsDone(ctx context.Context, done <-chan struct{}) context.Context {
	return context.WithValue(ctx, streamsDoneCtxKey, done)
}

// streamsDone returns the channel that ends event streams. It is nil, and
// never ready, when the context carries none.
func streamsDone(ctx context.Context) <-chan struct{} {
	if done, ok := ctx.Value(streamsDoneCtxKey).(<-chan struct{}); ok {
		return done
	}
	return nil
}

// isEventStream reports whether r asks for a server-sent event stream.
func isEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// getEvents streams the dashboard context as server-sent events, one
// "context" event per change, until the client goes away or the server
// shuts down.
func getEvents(kind shell.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := log.FromContext(ctx)
		flusher, ok := w.(http.Flusher)
		if !ok {
			renderStatus(http.StatusNotImplemented)(w, r)
			return
		}

		sh, err := shellFor(r, kind)
		if err != nil {
			renderError(w, r, err)
			return
		}

		updates, err := sh.Watch(ctx)
		if err != nil {
			renderError(w, r, err)
			return
		}

		hdrNocache(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		done := streamsDone(ctx)
		var seq int
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case c, ok := <-updates:
				if !ok {
					return
				}

				data, err := json.Marshal(c)
				if err != nil {
					logger.Error("failed to encode dashboard context", "err", err)
					continue
				}

				seq++
				if _, err := fmt.Fprintf(w, "id: %d\nevent: context\ndata: %s\n\n", seq, data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
