// Package ocr implements label-photo text extraction backed by the Watson
// Discovery document API. As with the watsonx package, the variant is picked
// once at construction: a real Client when credentials are present, otherwise
// an Unconfigured placeholder.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/healthybites/go-food-backend/internal/config"
)

// ErrNoText is returned when the upstream processed the image but found no
// extractable text in it.
var ErrNoText = errors.New("ocr: no text could be extracted from the image")

// Extractor turns an image into text.
type Extractor interface {
	Extract(ctx context.Context, image []byte, filename string) (string, error)
}

// New selects the Extractor variant for the given credentials.
func New(cfg config.DiscoveryConfig) Extractor {
	if cfg.APIKey == "" || cfg.URL == "" || cfg.EnvironmentID == "" || cfg.CollectionID == "" {
		log.Warn().Msg("discovery credentials not configured, OCR runs in mock mode")
		return Unconfigured{}
	}
	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		environmentID: cfg.EnvironmentID,
		collectionID:  cfg.CollectionID,
		client:        &http.Client{Timeout: cfg.Timeout},
	}
}

const discoveryVersion = "2019-04-30"

// Client uploads images to a Discovery collection and reads back the text the
// service extracted from them.
type Client struct {
	apiKey        string
	baseURL       string
	environmentID string
	collectionID  string
	client        *http.Client
}

type addDocumentResponse struct {
	ExtractedMetadata struct {
		Text string `json:"text"`
	} `json:"extracted_metadata"`
}

// Extract uploads the image for OCR processing and returns the extracted text.
func (c *Client) Extract(ctx context.Context, image []byte, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish multipart body: %w", err)
	}

	u := fmt.Sprintf("%s/v1/environments/%s/collections/%s/documents?version=%s",
		c.baseURL,
		url.PathEscape(c.environmentID),
		url.PathEscape(c.collectionID),
		discoveryVersion,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return "", fmt.Errorf("build document request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth("apikey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call discovery API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read discovery response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("discovery API error %d: %s", resp.StatusCode, body)
	}

	var out addDocumentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse discovery JSON: %w", err)
	}
	if out.ExtractedMetadata.Text == "" {
		log.Warn().Str("filename", filename).Msg("no text extracted from image")
		return "", ErrNoText
	}

	log.Info().Str("filename", filename).Int("chars", len(out.ExtractedMetadata.Text)).Msg("extracted text from image")
	return out.ExtractedMetadata.Text, nil
}

// Unconfigured is the Extractor used when credentials are absent.
type Unconfigured struct{}

// Extract returns the fixed mock message.
func (Unconfigured) Extract(ctx context.Context, image []byte, filename string) (string, error) {
	return mockResult, nil
}

const mockResult = "Mock OCR Result: Watson Discovery credentials not configured. " +
	"In production, this would extract text from the uploaded image. " +
	"Please configure Watson Discovery credentials in your .env file."
