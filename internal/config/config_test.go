package config

import (
	"strings"
	"testing"
	"time"
)

// setenv wraps t.Setenv to keep test bodies terse.
func setenv(t *testing.T, k, v string) {
	t.Helper()
	t.Setenv(k, v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port default = %q", cfg.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if !cfg.CacheEnabled {
		t.Fatalf("CacheEnabled should default to true")
	}
	if cfg.OpenFoodFacts.Timeout != 10*time.Second {
		t.Fatalf("OFF timeout default = %v", cfg.OpenFoodFacts.Timeout)
	}
	if !strings.HasSuffix(cfg.OpenFoodFacts.ProductURL, "/") {
		t.Fatalf("ProductURL must end with '/': %q", cfg.OpenFoodFacts.ProductURL)
	}
	if cfg.Watsonx.ModelID != "ibm/granite-3-8b-instruct" {
		t.Fatalf("ModelID default = %q", cfg.Watsonx.ModelID)
	}
	if cfg.Watsonx.Timeout <= 0 {
		t.Fatalf("Watsonx timeout must be bounded, got %v", cfg.Watsonx.Timeout)
	}
	if cfg.Flight.Capacity != 10000 || cfg.Flight.TTL != 30*time.Second {
		t.Fatalf("Flight defaults = %+v", cfg.Flight)
	}
}

func TestLoad_NormalizesProductURL(t *testing.T) {
	setenv(t, "OFF_PRODUCT_URL", "https://example.test/api/v0/product")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenFoodFacts.ProductURL != "https://example.test/api/v0/product/" {
		t.Fatalf("ProductURL = %q", cfg.OpenFoodFacts.ProductURL)
	}
}

func TestLoad_NormalizesLogLevelWarning(t *testing.T) {
	setenv(t, "LOG_LEVEL", "warning")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":       "verbose",
		"OFF_TIMEOUT":     "-1s",
		"WATSONX_TIMEOUT": "0s",
		"FLIGHT_TTL":      "-5s",
		"RATE_BURST":      "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setenv(t, key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestLoad_CacheDisabled(t *testing.T) {
	setenv(t, "CACHE_ENABLED", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheEnabled {
		t.Fatalf("CacheEnabled should be false")
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"api/v1":   "/api/v1",
		"/api/v1/": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a , ,b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitCSV = %v", got)
	}
	if splitCSV("") != nil {
		t.Fatalf("splitCSV(\"\") should be nil")
	}
}
