package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/mundesk/mundesk/pkg/guard"
	"github.com/mundesk/mundesk/pkg/proto"
	"github.com/mundesk/mundesk/pkg/realtime"
	"github.com/mundesk/mundesk/pkg/shell"
)

type frame struct {
	event string
	data  string
}

// readFrame reads one server-sent event, skipping keep-alive comments.
func readFrame(t *testing.T, r *bufio.Reader) frame {
	t.Helper()
	var f frame
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if f.event != "" || f.data != "" {
				return f
			}
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, ctx context.Context, url string, c *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(c)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() }) // nolint: errcheck

	return resp
}

func waitSubscribers(t *testing.T, m *realtime.Memory, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", m.Subscribers(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDelegateEvents(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	srv := httptest.NewServer(s.h)
	defer srv.Close()

	broker, ok := s.Backend.Broker().(*realtime.Memory)
	is.True(ok)

	cred := s.SignIn(t, "delegate@example.com")
	ctx, cancel := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancel()
	resp := openStream(t, ctx, srv.URL+"/dashboard/events", &http.Cookie{Name: guard.SessionCookie, Value: cred.Token})
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(resp.Header.Get("Content-Type"), "text/event-stream")
	is.Equal(resp.Header.Get("Content-Encoding"), "")

	r := bufio.NewReader(resp.Body)
	first := readFrame(t, r)
	is.Equal(first.event, "context")
	var c shell.Context
	is.NoErr(json.Unmarshal([]byte(first.data), &c))
	is.Equal(c.Kind, shell.Delegate)
	is.Equal(c.Counts.Total, 0)

	_, err := s.Backend.SubmitApplication(context.TODO(), "delegate@example.com", proto.ApplicationOptions{FullName: "Del Egate"})
	is.NoErr(err)

	for {
		f := readFrame(t, r)
		is.Equal(f.event, "context")
		c = shell.Context{}
		is.NoErr(json.Unmarshal([]byte(f.data), &c))
		if c.Counts.Total == 1 {
			break
		}
	}
	is.Equal(len(c.Applications), 1)
	is.Equal(c.Applications[0].Email, "delegate@example.com")

	// Going away ends the handler and drops its subscriptions.
	cancel()
	waitSubscribers(t, broker, 0)
}

func TestEventsRequireGuard(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	for path, login := range map[string]string{
		"/dashboard/events": "/login?redirect=%2Fdashboard%2Fevents",
		"/chair/events":     "/chair/login?redirect=%2Fchair%2Fevents",
		"/admin/events":     "/admin/login?redirect=%2Fadmin%2Fevents",
	} {
		w := s.do(t, http.MethodGet, path, nil)
		is.Equal(w.Code, http.StatusFound)
		is.Equal(w.Header().Get("Location"), login)
	}
}

func TestShutdownEndsEventStreams(t *testing.T) {
	is := is.New(t)
	s := setup(t)
	hs, err := NewHTTPServer(s.Context(context.TODO()))
	is.NoErr(err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	is.NoErr(err)
	served := make(chan error, 1)
	go func() { served <- hs.Server.Serve(ln) }()

	marker := s.Marker(t, s.Now)
	resp := openStream(t, context.TODO(), "http://"+ln.Addr().String()+"/admin/events", &http.Cookie{Name: guard.MarkerCookie, Value: marker.Token})
	is.Equal(resp.StatusCode, http.StatusOK)
	first := readFrame(t, bufio.NewReader(resp.Body))
	is.Equal(first.event, "context")

	ctx, cancel := context.WithTimeout(context.TODO(), 2*time.Second)
	defer cancel()
	is.NoErr(hs.Shutdown(ctx))
	is.True(errors.Is(<-served, http.ErrServerClosed))
}
