package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orrery/internal/api"
	"orrery/internal/catalog"
	"orrery/internal/testsupport"
)

func newTestDaemon(t *testing.T, opts ...testsupport.ConfigOption) (*Daemon, *catalog.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New daemon failed: %v", err)
	}
	return d, store
}

func fakeArchiveServer(t *testing.T, snapshot string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cumulative", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(snapshot))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAPIServerHandleStatus(t *testing.T) {
	d, _ := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	d.api.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon not started, expected running=false")
	}
	if resp.Scheduler.Pattern == "" {
		t.Fatal("expected scheduler pattern in status")
	}
}

func TestAPIServerHandleSyncRunsPass(t *testing.T) {
	archive := fakeArchiveServer(t, `[]`)
	d, _ := newTestDaemon(t, testsupport.WithArchiveBaseURL(archive.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	d.api.handleSync(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.SyncResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Pass.Success || resp.Pass.Counts.Fetched != 0 {
		t.Fatalf("unexpected pass: %+v", resp.Pass)
	}
}

func TestAPIServerHandleSyncConflict(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/cumulative", func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	archive := httptest.NewServer(mux)
	t.Cleanup(archive.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	d, _ := newTestDaemon(t, testsupport.WithArchiveBaseURL(archive.URL))

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
		d.api.handleSync(httptest.NewRecorder(), req)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first sync never reached the archive")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	d.api.handleSync(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	close(release)
	<-done
}

func TestAPIServerHandleSyncFetchFailure(t *testing.T) {
	archive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(archive.Close)
	d, _ := newTestDaemon(t, testsupport.WithArchiveBaseURL(archive.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	d.api.handleSync(w, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var resp api.SyncResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Pass.Success || resp.Pass.Message == "" {
		t.Fatalf("expected failed pass with message: %+v", resp.Pass)
	}
}

func TestAPIServerHandleCandidates(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, &catalog.Candidate{
		Identity:     "K00007.01",
		Status:       catalog.StatusConfirmed,
		AssignedName: "ORR-7 b",
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := store.Insert(ctx, &catalog.Candidate{
		Identity: "K00007.02",
		Status:   catalog.StatusCandidate,
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/candidates?status=confirmed", nil)
	w := httptest.NewRecorder()
	d.api.handleCandidates(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.CandidateListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].AssignedName != "ORR-7 b" {
		t.Fatalf("unexpected candidates: %+v", resp.Candidates)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/candidates?status=bogus", nil)
	w = httptest.NewRecorder()
	d.api.handleCandidates(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
}

func TestAPIServerHandleCandidateItem(t *testing.T) {
	d, store := newTestDaemon(t)

	if _, err := store.Insert(context.Background(), &catalog.Candidate{
		Identity: "K00009.01",
		Status:   catalog.StatusFalsePositive,
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/candidates/K00009.01", nil)
	w := httptest.NewRecorder()
	d.api.handleCandidateItem(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/candidates/MISSING.01", nil)
	w = httptest.NewRecorder()
	d.api.handleCandidateItem(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIServerSchedulerEndpoints(t *testing.T) {
	d, _ := newTestDaemon(t)

	body := strings.NewReader(`{"pattern":"15 4 * * *","timezone":"UTC"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/scheduler/configure", body)
	w := httptest.NewRecorder()
	d.api.handleSchedulerConfigure(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var status api.SchedulerStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !status.Active || status.Pattern != "15 4 * * *" {
		t.Fatalf("unexpected scheduler status: %+v", status)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/scheduler/configure",
		strings.NewReader(`{"pattern":"bogus","timezone":"UTC"}`))
	w = httptest.NewRecorder()
	d.api.handleSchedulerConfigure(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid pattern, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/scheduler/stop", nil)
	w = httptest.NewRecorder()
	d.api.handleSchedulerStop(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Active {
		t.Fatal("expected inactive scheduler after stop")
	}
}

func TestAPIServerAssistantUnconfigured(t *testing.T) {
	d, _ := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodPost, "/api/assistant",
		strings.NewReader(`{"question":"what is this?"}`))
	w := httptest.NewRecorder()
	d.api.handleAssistant(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", w.Code)
	}
}
