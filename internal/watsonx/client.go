// Package watsonx implements the text-generation client for IBM watsonx.ai.
//
// Two Generator variants exist, selected once at construction: a Client that
// exchanges an IBM Cloud API key for an IAM bearer token and calls the text
// generation endpoint, and an Unconfigured placeholder used when credentials
// are absent. Call sites never branch on configuration state.
package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/healthybites/go-food-backend/internal/config"
)

// Generator produces free-form analysis text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New selects the Generator variant for the given credentials.
func New(cfg config.WatsonxConfig) Generator {
	if cfg.APIKey == "" || cfg.URL == "" || cfg.ProjectID == "" {
		log.Warn().Msg("watsonx credentials not configured, analysis runs in mock mode")
		return Unconfigured{}
	}
	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		projectID: cfg.ProjectID,
		modelID:   cfg.ModelID,
		tokenURL:  defaultTokenURL,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

const (
	defaultTokenURL   = "https://iam.cloud.ibm.com/identity/token"
	generationVersion = "2024-05-31"

	maxNewTokens      = 600
	minNewTokens      = 10
	repetitionPenalty = 1.1
)

// Client calls the watsonx.ai generation API with greedy decoding and a
// bounded request timeout.
type Client struct {
	apiKey    string
	baseURL   string
	projectID string
	modelID   string
	tokenURL  string
	client    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type generationRequest struct {
	ModelID    string `json:"model_id"`
	ProjectID  string `json:"project_id"`
	Input      string `json:"input"`
	Parameters struct {
		DecodingMethod    string  `json:"decoding_method"`
		MaxNewTokens      int     `json:"max_new_tokens"`
		MinNewTokens      int     `json:"min_new_tokens"`
		RepetitionPenalty float64 `json:"repetition_penalty"`
	} `json:"parameters"`
}

type generationResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

// Generate sends the prompt to the model and returns the generated text with
// stray markdown scrubbed.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire IAM token: %w", err)
	}

	var gr generationRequest
	gr.ModelID = c.modelID
	gr.ProjectID = c.projectID
	gr.Input = prompt
	gr.Parameters.DecodingMethod = "greedy"
	gr.Parameters.MaxNewTokens = maxNewTokens
	gr.Parameters.MinNewTokens = minNewTokens
	gr.Parameters.RepetitionPenalty = repetitionPenalty

	payload, err := json.Marshal(gr)
	if err != nil {
		return "", fmt.Errorf("marshal generation payload: %w", err)
	}

	u := c.baseURL + "/ml/v1/text/generation?version=" + generationVersion
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generation API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation API error %d: %s", resp.StatusCode, body)
	}

	var out generationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse generation JSON: %w", err)
	}
	if len(out.Results) == 0 {
		return "", fmt.Errorf("generation response carried no results")
	}

	text := scrubMarkdown(out.Results[0].GeneratedText)
	log.Info().Int("chars", len(text)).Msg("model generated analysis text")
	return text, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// bearerToken returns a cached IAM token, exchanging the API key for a fresh
// one when the cached token is within a minute of expiring.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint error %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("parse token JSON: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty token")
	}

	c.token = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.token, nil
}

// scrubMarkdown removes the markdown the prompt forbids but models still
// occasionally emit.
func scrubMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "##", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Unconfigured is the Generator used when credentials are absent. It returns
// a fixed placeholder block shaped like a real analysis so downstream parsing
// behaves identically in both modes.
type Unconfigured struct{}

// Generate returns the deterministic mock analysis.
func (Unconfigured) Generate(ctx context.Context, prompt string) (string, error) {
	return mockAnalysis, nil
}

const mockAnalysis = `OVERALL VERDICT
Rating: N/A (Mock Mode)

SUMMARY
This is a mock analysis. watsonx.ai credentials are not configured, so no model was called for this request.

KEY RISKS
Unable to analyze without proper API credentials.

POSITIVE HIGHLIGHTS
None available in mock mode.

RECOMMENDATION
Configure watsonx.ai credentials in the .env file to enable real analysis.

MARKETING TRAPS
Analysis unavailable without credentials.`
