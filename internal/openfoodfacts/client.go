// Package openfoodfacts implements the HTTP client for the Open Food Facts
// product directory: free-text search over cgi/search.pl and barcode lookup
// over api/v0/product/{code}.json.
//
// The client is a thin transport wrapper. The fallback search strategy lives
// in the search package; cache policy lives in the services package.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned by Lookup when the directory reports status 0
// for a barcode.
var ErrNotFound = errors.New("openfoodfacts: product not found")

// Product is one search result or the basic part of a lookup.
type Product struct {
	Code     string `json:"id"`
	Name     string `json:"product_name"`
	Brand    string `json:"brand"`
	ImageURL string `json:"image_url"`
}

// Detail is the full record returned by a barcode lookup. Nutrients are an
// opaque JSON document the backend passes through without interpretation.
type Detail struct {
	Product
	IngredientsText string          `json:"ingredients_text"`
	Nutrients       json.RawMessage `json:"nutriments"`
}

// Client talks to the Open Food Facts API with a bounded per-request timeout.
type Client struct {
	searchURL  string
	productURL string // base URL ending with '/'
	client     *http.Client
}

// New constructs a Client. productURL must end with a trailing slash.
func New(searchURL, productURL string, timeout time.Duration) *Client {
	return &Client{
		searchURL:  searchURL,
		productURL: productURL,
		client:     &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Products []struct {
		ProductName       string `json:"product_name"`
		Brands            string `json:"brands"`
		Code              string `json:"code"`
		ImageFrontSmall   string `json:"image_front_small_url"`
	} `json:"products"`
}

// Search runs a single exact-term search returning up to pageSize results in
// the order the directory produced them.
func (c *Client) Search(ctx context.Context, term string, pageSize int) ([]Product, error) {
	q := url.Values{}
	q.Set("search_terms", term)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("page_size", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call search API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error %d: %s", resp.StatusCode, truncateBody(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parse search JSON: %w", err)
	}

	results := make([]Product, 0, len(sr.Products))
	for _, item := range sr.Products {
		results = append(results, Product{
			Code:     item.Code,
			Name:     orUnknown(item.ProductName),
			Brand:    item.Brands,
			ImageURL: item.ImageFrontSmall,
		})
	}
	return results, nil
}

type lookupResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName     string          `json:"product_name"`
		Brands          string          `json:"brands"`
		ImageFront      string          `json:"image_front_url"`
		ImageURL        string          `json:"image_url"`
		IngredientsText string          `json:"ingredients_text"`
		Nutriments      json.RawMessage `json:"nutriments"`
	} `json:"product"`
}

// Lookup fetches the full record for a barcode. A directory status of 0 maps
// to ErrNotFound; transport and decode failures are returned as-is for the
// caller to degrade.
func (c *Client) Lookup(ctx context.Context, barcode string) (*Detail, error) {
	u := c.productURL + url.PathEscape(barcode) + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call product API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read product response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product API error %d: %s", resp.StatusCode, truncateBody(body))
	}

	var lr lookupResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("parse product JSON: %w", err)
	}
	if lr.Status != 1 {
		return nil, ErrNotFound
	}

	img := lr.Product.ImageFront
	if img == "" {
		img = lr.Product.ImageURL
	}
	return &Detail{
		Product: Product{
			Code:     barcode,
			Name:     orUnknown(lr.Product.ProductName),
			Brand:    lr.Product.Brands,
			ImageURL: img,
		},
		IngredientsText: lr.Product.IngredientsText,
		Nutrients:       lr.Product.Nutriments,
	}, nil
}

func orUnknown(name string) string {
	if name == "" {
		return "Unknown Product"
	}
	return name
}

// truncateBody keeps upstream error bodies short enough for log lines.
func truncateBody(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
