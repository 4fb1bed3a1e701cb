package assistant_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orrery/internal/assistant"
	"orrery/internal/catalog"
	"orrery/internal/config"
)

func TestAskFormatsRecordIntoPrompt(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"It is a hot Jupiter."}}]}`))
	}))
	t.Cleanup(server.Close)

	client := assistant.New(config.Assistant{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	})

	candidate := &catalog.Candidate{
		Identity:     "K00007.01",
		Status:       catalog.StatusConfirmed,
		AssignedName: "ORR-7 b",
		FieldsJSON:   `{"planet_radius":13.0,"orbital_period":4.9,"equilibrium_temp":1540}`,
	}
	answer, err := client.Ask(context.Background(), candidate, "What kind of planet is this?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer != "It is a hot Jupiter." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}

	var request struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(gotBody, &request); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if request.Model != "test-model" || len(request.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", request)
	}
	prompt := request.Messages[1].Content
	for _, fragment := range []string{"K00007.01", "ORR-7 b", "hot-jupiter", "What kind of planet is this?"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q: %s", fragment, prompt)
		}
	}
}

func TestAskRequiresConfiguration(t *testing.T) {
	client := assistant.New(config.Assistant{})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	if _, err := client.Ask(context.Background(), nil, "anything"); !errors.Is(err, assistant.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestAskPropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := assistant.New(config.Assistant{APIKey: "k", BaseURL: server.URL, Model: "m"})
	if _, err := client.Ask(context.Background(), nil, "anything"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	client := assistant.New(config.Assistant{APIKey: "k", BaseURL: "http://127.0.0.1:0", Model: "m"})
	if _, err := client.Ask(context.Background(), nil, "  "); err == nil {
		t.Fatal("expected error for empty question")
	}
}
