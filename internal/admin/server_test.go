package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/snowdon/internal/commands"
	"github.com/danmuck/snowdon/internal/server"
	"github.com/danmuck/snowdon/internal/testutil/testlog"
)

type stubConnections struct {
	snap server.Snapshot
}

func (s stubConnections) Snapshot() server.Snapshot { return s.snap }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	testlog.Start(t)

	ready := false
	s := New("bridge-a", ":0", nil, nil, nil, WithReady(func() bool { return ready }))

	rr := get(t, s, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["service"] != "bridge-a" || body["status"] != "ok" {
		t.Fatalf("unexpected health body: %#v", body)
	}

	if rr := get(t, s, "/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rr.Code)
	}
	ready = true
	if rr := get(t, s, "/ready"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", rr.Code)
	}
}

func TestCommandsListsTable(t *testing.T) {
	testlog.Start(t)

	s := New("bridge-a", ":0", nil, commands.Default(), nil)
	rr := get(t, s, "/commands")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Commands []CommandInfo `json:"commands"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode commands: %v", err)
	}
	if len(body.Commands) != commands.Default().Len() {
		t.Fatalf("unexpected command count: %d", len(body.Commands))
	}
	power := body.Commands[1]
	if power.Name != "power" || !power.ChangesState {
		t.Fatalf("unexpected power entry: %#v", power)
	}
	if body.Commands[0].Name != "status" || body.Commands[0].ChangesState {
		t.Fatalf("unexpected status entry: %#v", body.Commands[0])
	}
}

func TestConnectionSnapshot(t *testing.T) {
	testlog.Start(t)

	s := New("bridge-a", ":0", nil, nil, nil)
	if rr := get(t, s, "/connection"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a bridge, got %d", rr.Code)
	}

	conns := stubConnections{snap: server.Snapshot{
		Phase:    server.PhaseProcessing,
		ConnID:   "c-1",
		Remote:   "10.0.0.2:5000",
		Since:    time.Now(),
		Served:   4,
		Rejected: 1,
	}}
	s = New("bridge-a", ":0", nil, nil, conns)
	rr := get(t, s, "/connection")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap server.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != server.PhaseProcessing || snap.ConnID != "c-1" || snap.Served != 4 || snap.Rejected != 1 {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestMetricsExposesBridgeSeries(t *testing.T) {
	testlog.Start(t)

	s := New("bridge-a", ":0", nil, nil, nil)
	_ = get(t, s, "/health")
	rr := get(t, s, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "snowdon_admin_http_requests_total") {
		t.Fatalf("admin request series missing from /metrics")
	}
}

func TestServeRequiresAddr(t *testing.T) {
	s := New("bridge-a", "  ", nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := s.Serve(ctx); err != ErrNoAddr {
		t.Fatalf("expected ErrNoAddr, got %v", err)
	}
}
