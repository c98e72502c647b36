package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/changefeed"
	"clinic_notify/internal/config"
	"clinic_notify/internal/dispatch"
	httpserver "clinic_notify/internal/http"
	"clinic_notify/internal/http/controller"
	"clinic_notify/internal/http/dto"
	"clinic_notify/internal/permissions"
	"clinic_notify/internal/realtime"
	"clinic_notify/internal/service/notify"
	"clinic_notify/internal/sse"
	"clinic_notify/internal/store"
	"clinic_notify/internal/store/memory"
)

func ginTestMode() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	URL string
	svc *notify.Service
}

// startServer wires the same graph as the injector, over the in-memory store
// and whichever change bus cfg selects.
func startServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	ginTestMode()
	logger := zap.NewNop()

	hub := sse.NewHub()
	bus := changefeed.NewBus(cfg, logger)
	manager := realtime.NewManager(changefeed.ProvideTransport(bus), dispatch.NewRouter(hub, logger), logger)
	repo := store.NewCapture(memory.New(logger), changefeed.ProvidePublisher(bus), logger)
	svc := notify.NewService(repo, manager, cfg, logger)
	session := auth.NewSession(logger)
	session.OnChange(svc.UserChanged)
	resolver := permissions.NewResolverWithPolicy(nil, logger)
	handler := controller.NewHandler(cfg, svc, hub, session, auth.NewTokenVerifier(cfg), resolver, repo, logger)
	router := httpserver.NewRouter(cfg, handler, session, resolver, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		svc.DetachAll()
		server.Close()
		cancel()
		bus.Shutdown()
	})
	return &testServer{URL: server.URL, svc: svc}
}

func defaultConfig() *config.Config {
	return &config.Config{
		HTTPAddr:        ":0",
		SSEHeartbeat:    5 * time.Second,
		HistoryLimit:    10,
		OTELServiceName: "clinic-notify-e2e",
	}
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func signIn(t *testing.T, s *testServer, userID, role string) {
	t.Helper()
	status := doJSON(t, http.MethodPost, s.URL+"/session", dto.SignInRequest{UserID: userID, Role: role}, nil)
	require.Equal(t, http.StatusOK, status)
}

type frame struct {
	Event string
	ID    string
	Data  string
}

type stream struct {
	body   io.ReadCloser
	frames chan frame
	done   chan struct{}
}

func openStream(t *testing.T, s *testServer) *stream {
	t.Helper()
	resp, err := http.Get(s.URL + "/sse")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	st := &stream{body: resp.Body, frames: make(chan frame, 64), done: make(chan struct{})}
	go st.read()
	t.Cleanup(func() { _ = resp.Body.Close() })
	return st
}

func (s *stream) read() {
	defer close(s.done)
	reader := bufio.NewReader(s.body)
	var current frame
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if current.Event != "" || current.Data != "" {
				s.frames <- current
			}
			current = frame{}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			current.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "id:"):
			current.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "data:"):
			current.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

// next returns the next frame with the given event name, skipping others.
func (s *stream) next(t *testing.T, event string, timeout time.Duration) frame {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case f := <-s.frames:
			if f.Event == event {
				return f
			}
		case <-s.done:
			t.Fatalf("stream closed while waiting for %q", event)
		case <-deadline:
			t.Fatalf("no %q frame within %s", event, timeout)
		}
	}
}

// collect gathers the first frame of each named event, in any order.
func (s *stream) collect(t *testing.T, timeout time.Duration, events ...string) map[string]frame {
	t.Helper()
	want := make(map[string]bool, len(events))
	for _, e := range events {
		want[e] = true
	}
	got := make(map[string]frame, len(events))
	deadline := time.After(timeout)
	for len(got) < len(want) {
		select {
		case f := <-s.frames:
			if want[f.Event] {
				if _, seen := got[f.Event]; !seen {
					got[f.Event] = f
				}
			}
		case <-s.done:
			t.Fatalf("stream closed while waiting for %v", events)
		case <-deadline:
			t.Fatalf("missing frames %v within %s, got %v", events, timeout, got)
		}
	}
	return got
}

func (s *stream) waitClosed(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(timeout):
		t.Fatalf("stream still open after %s", timeout)
	}
}

func decode[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(f.Data), &v))
	return v
}
