package watsonx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/healthybites/go-food-backend/internal/config"
)

func TestNew_SelectsVariantAtConstruction(t *testing.T) {
	g := New(config.WatsonxConfig{Timeout: time.Second})
	if _, ok := g.(Unconfigured); !ok {
		t.Fatalf("missing credentials should select Unconfigured, got %T", g)
	}

	g = New(config.WatsonxConfig{
		APIKey: "k", URL: "https://example.test", ProjectID: "p",
		ModelID: "ibm/granite-3-8b-instruct", Timeout: time.Second,
	})
	if _, ok := g.(*Client); !ok {
		t.Fatalf("full credentials should select Client, got %T", g)
	}
}

func TestUnconfigured_GenerateIsDeterministicAndSectioned(t *testing.T) {
	a, err := Unconfigured{}.Generate(context.Background(), "whatever")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := Unconfigured{}.Generate(context.Background(), "other prompt")
	if a != b {
		t.Fatalf("mock output must not depend on the prompt")
	}
	for _, header := range []string{"OVERALL VERDICT", "SUMMARY", "KEY RISKS", "RECOMMENDATION"} {
		if !strings.Contains(a, header) {
			t.Fatalf("mock output missing header %q", header)
		}
	}
}

func TestClient_Generate_TokenExchangeAndCall(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("apikey") != "secret" {
			t.Errorf("apikey = %q", r.Form.Get("apikey"))
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600})
	})
	mux.HandleFunc("/ml/v1/text/generation", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		var req generationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ModelID != "m" || req.ProjectID != "p" {
			t.Errorf("request ids: %+v", req)
		}
		if req.Parameters.DecodingMethod != "greedy" || req.Parameters.MaxNewTokens != 600 {
			t.Errorf("parameters: %+v", req.Parameters)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"generated_text": "**OVERALL VERDICT**\nSafe.\n```"}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := &Client{
		apiKey: "secret", baseURL: srv.URL, projectID: "p", modelID: "m",
		tokenURL: srv.URL + "/identity/token",
		client:   &http.Client{Timeout: 5 * time.Second},
	}

	text, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(text, "**") || strings.Contains(text, "```") {
		t.Fatalf("markdown not scrubbed: %q", text)
	}
	if !strings.HasPrefix(text, "OVERALL VERDICT") {
		t.Fatalf("text = %q", text)
	}

	// Second call reuses the cached token.
	if _, err := c.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if tokenCalls != 1 {
		t.Fatalf("token endpoint called %d times, want 1", tokenCalls)
	}
}

func TestClient_Generate_UpstreamErrorPropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/ml/v1/text/generation", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := &Client{
		apiKey: "k", baseURL: srv.URL, projectID: "p", modelID: "m",
		tokenURL: srv.URL + "/identity/token",
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	if _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestClient_Generate_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &Client{
		apiKey: "bad", baseURL: srv.URL, projectID: "p", modelID: "m",
		tokenURL: srv.URL + "/identity/token",
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	if _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error on auth failure")
	}
}
