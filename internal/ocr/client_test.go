package ocr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/healthybites/go-food-backend/internal/config"
)

func discoveryCfg(u string) config.DiscoveryConfig {
	return config.DiscoveryConfig{
		APIKey:        "disc-key",
		URL:           u,
		EnvironmentID: "env-1",
		CollectionID:  "col-1",
		Timeout:       5 * time.Second,
	}
}

func TestNew_VariantSelection(t *testing.T) {
	if _, ok := New(config.DiscoveryConfig{}).(Unconfigured); !ok {
		t.Fatalf("expected Unconfigured without credentials")
	}
	if _, ok := New(discoveryCfg("https://discovery.example")).(*Client); !ok {
		t.Fatalf("expected *Client with full credentials")
	}
	partial := discoveryCfg("https://discovery.example")
	partial.CollectionID = ""
	if _, ok := New(partial).(Unconfigured); !ok {
		t.Fatalf("expected Unconfigured with missing collection ID")
	}
}

func TestUnconfigured_Extract(t *testing.T) {
	got, err := Unconfigured{}.Extract(context.Background(), []byte{0xFF}, "label.jpg")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.HasPrefix(got, "Mock OCR Result:") {
		t.Fatalf("unexpected mock text: %q", got)
	}
}

func TestClient_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if want := "/v1/environments/env-1/collections/col-1/documents"; r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		if got := r.URL.Query().Get("version"); got != "2019-04-30" {
			t.Errorf("version = %q", got)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "apikey" || pass != "disc-key" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "label.jpg" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "image-bytes" {
			t.Errorf("file body = %q", data)
		}
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, `{"document_id":"d1","status":"processing","extracted_metadata":{"text":"INGREDIENTS: Water, Sugar"}}`)
	}))
	defer srv.Close()

	ext := New(discoveryCfg(srv.URL))
	got, err := ext.Extract(context.Background(), []byte("image-bytes"), "label.jpg")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "INGREDIENTS: Water, Sugar" {
		t.Fatalf("text = %q", got)
	}
}

func TestClient_Extract_NoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"document_id":"d1","extracted_metadata":{"text":""}}`)
	}))
	defer srv.Close()

	_, err := New(discoveryCfg(srv.URL)).Extract(context.Background(), []byte("x"), "blank.png")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
}

func TestClient_Extract_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(discoveryCfg(srv.URL)).Extract(context.Background(), []byte("x"), "label.jpg")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v, want status error", err)
	}
	if errors.Is(err, ErrNoText) {
		t.Fatalf("status error must not be ErrNoText")
	}
}

func TestClient_Extract_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(discoveryCfg(srv.URL)).Extract(context.Background(), []byte("x"), "label.jpg")
	if err == nil {
		t.Fatalf("expected transport error")
	}
}
