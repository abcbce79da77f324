package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kdimtricp/pulsecam/internal/api"
	"github.com/kdimtricp/pulsecam/internal/database"
	"github.com/kdimtricp/pulsecam/internal/hardware"
	"github.com/kdimtricp/pulsecam/internal/session"
)

type TestServer struct {
	Server     *httptest.Server
	App        *api.App
	Camera     *hardware.SyntheticCamera
	Controller *session.Controller
	DB         *database.DB
}

// setupTestServer wires the full stack against an in-memory sqlite store and a
// fast synthetic camera.
func setupTestServer(t *testing.T, timeLimit float64) *TestServer {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	repo := database.NewSessionRepository(db)

	cam := hardware.NewSyntheticCamera(hardware.SyntheticConfig{
		Width:     320,
		Height:    240,
		FrameRate: 60,
		BPM:       120,
	})

	cfg := session.DefaultConfig()
	cfg.WarmupSeconds = 0.2
	cfg.TimeLimitSeconds = timeLimit
	cfg.Smoother.TimeLimit = timeLimit
	cfg.SettleDelay = 5 * time.Millisecond
	cfg.ProgressInterval = 5 * time.Millisecond
	cfg.Sampler.SampleRate = 60

	controller := session.NewController(cam, hardware.NopDisplay{}, hardware.NopHaptics{}, repo, zap.NewNop(), cfg)

	app := &api.App{Controller: controller, Sessions: repo, Log: zap.NewNop()}
	server := httptest.NewServer(api.NewRouter(app))

	ts := &TestServer{Server: server, App: app, Camera: cam, Controller: controller, DB: db}
	t.Cleanup(ts.Cleanup)
	return ts
}

func (ts *TestServer) Cleanup() {
	ts.Server.Close()
	ts.Controller.Close()
	ts.DB.Close()
}

func (ts *TestServer) post(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.Server.URL+path, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func (ts *TestServer) snapshot(t *testing.T) session.Snapshot {
	t.Helper()
	resp, err := http.Get(ts.Server.URL + "/api/measurement")
	if err != nil {
		t.Fatalf("GET /api/measurement failed: %v", err)
	}
	defer resp.Body.Close()

	var snap session.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	return snap
}

// waitFor polls the snapshot until cond holds or the timeout expires.
func (ts *TestServer) waitFor(t *testing.T, timeout time.Duration, cond func(session.Snapshot) bool) session.Snapshot {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		snap := ts.snapshot(t)
		if cond(snap) {
			return snap
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Condition not met within %s; last snapshot: %+v", timeout, ts.snapshot(t))
	return session.Snapshot{}
}
