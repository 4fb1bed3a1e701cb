package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orrery/internal/api"
	"orrery/internal/catalog"
)

func TestClientStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(api.StatusResponse{
			Running:      true,
			DatabasePath: "/var/lib/orrery/orrery.db",
			Scheduler:    api.SchedulerStatus{Active: true, Pattern: "0 2 * * *"},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Running || status.Scheduler.Pattern != "0 2 * * *" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestClientSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sync" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(api.SyncResponse{
			Pass: api.Pass{ID: "pass-1", Success: true, Counts: catalog.PassCounts{Fetched: 3, New: 2}},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	pass, err := client.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if pass.ID != "pass-1" || pass.Counts.New != 2 {
		t.Fatalf("unexpected pass: %+v", pass)
	}
}

func TestClientSyncConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "pass already running"})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Sync(context.Background()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestClientSyncFailedPass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(api.SyncResponse{
			Pass: api.Pass{ID: "pass-2", Success: false, Message: "fetch snapshot: connection refused"},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	pass, err := client.Sync(context.Background())
	if err == nil {
		t.Fatal("expected error for failed pass")
	}
	if pass == nil || pass.ID != "pass-2" {
		t.Fatalf("expected failed pass in response, got %+v", pass)
	}
}

func TestClientCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "confirmed" {
			t.Errorf("unexpected status filter: %q", got)
		}
		_ = json.NewEncoder(w).Encode(api.CandidateListResponse{
			Candidates: []api.Candidate{{Identity: "K00001.01", Status: "confirmed", AssignedName: "ORR-1 b"}},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	candidates, err := client.Candidates(context.Background(), "confirmed")
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].AssignedName != "ORR-1 b" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestClientCandidateNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "candidate not found"})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Candidate(context.Background(), "MISSING.01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientSchedulerConfigure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scheduler/configure" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req api.ConfigureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Pattern != "30 3 * * *" || req.Timezone != "America/New_York" {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(api.SchedulerStatus{
			Active: true, Pattern: req.Pattern, Timezone: req.Timezone,
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	status, err := client.SchedulerConfigure(context.Background(), "30 3 * * *", "America/New_York")
	if err != nil {
		t.Fatalf("SchedulerConfigure failed: %v", err)
	}
	if !status.Active || status.Timezone != "America/New_York" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestClientAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.AssistantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Identity != "K00001.01" {
			t.Errorf("unexpected identity: %q", req.Identity)
		}
		_ = json.NewEncoder(w).Encode(api.AssistantResponse{Answer: "a warm sub-Neptune"})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	answer, err := client.Ask(context.Background(), "K00001.01", "what kind of planet is this?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer != "a warm sub-Neptune" {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

func TestClientErrorPayloadSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unknown status filter"})
	}))
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, err = client.Candidates(context.Background(), "bogus")
	if err == nil || !strings.Contains(err.Error(), "unknown status filter") {
		t.Fatalf("expected server error message, got %v", err)
	}
}

func TestClientRequiresAddress(t *testing.T) {
	if _, err := New("   ", ""); err == nil {
		t.Fatal("expected error for empty address")
	}
}
