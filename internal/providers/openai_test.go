package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chorusbot/chorus/internal/config"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestAsk_RoundTrip(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("YES")))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.OracleConfig{
		APIKey:  "sk-test",
		APIBase: srv.URL,
		Model:   "gpt-4o-mini",
	})

	answer, err := p.Ask(context.Background(), "you are terse", []Message{
		{Role: "user", Content: "should you reply?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "YES" {
		t.Errorf("expected YES, got %q", answer)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user message, got %d", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("system prompt must lead, got %v", first["role"])
	}
}

func TestAsk_HTTPErrorSurfacesProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.OracleConfig{APIKey: "bad", APIBase: srv.URL, Model: "m"})
	_, err := p.Ask(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "invalid api key") {
		t.Errorf("expected provider message in error, got %q", got)
	}
}

func TestParseCompletion_NoChoices(t *testing.T) {
	if _, err := parseCompletion([]byte(`{"choices":[]}`)); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestFriendlyHTTPError_FallsBackToBody(t *testing.T) {
	if got := friendlyHTTPError(500, []byte("upstream exploded")); got != "upstream exploded" {
		t.Errorf("got %q", got)
	}
	if got := friendlyHTTPError(503, nil); got != http.StatusText(503) {
		t.Errorf("got %q", got)
	}
}
