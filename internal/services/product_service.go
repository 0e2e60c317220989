// Package services – ProductService
//
// This file implements ProductService, the application-level component that
// owns product search and barcode lookup. Search always goes to the remote
// food database through the fallback engine; barcode lookups are served
// cache-aside from the local tables, with concurrent misses for the same
// barcode coalesced into a single upstream call.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// the barcode or query and whether the response came from cache.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthybites/go-food-backend/internal/flight"
	"github.com/healthybites/go-food-backend/internal/openfoodfacts"
	"github.com/healthybites/go-food-backend/internal/repo"
)

const (
	// SourceCache marks responses served from the local tables.
	SourceCache = "cache"
	// SourceAPI marks responses fetched from the remote food database.
	SourceAPI = "api"
)

// Searcher runs a product name search against the remote directory.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []openfoodfacts.Product
}

// Lookuper fetches the full remote record for one barcode.
type Lookuper interface {
	Lookup(ctx context.Context, barcode string) (*openfoodfacts.Detail, error)
}

// ProductSummary is the barcode-lookup result without ingredient data.
type ProductSummary struct {
	Barcode  string `json:"barcode"`
	Name     string `json:"product_name"`
	Brand    string `json:"brand"`
	ImageURL string `json:"image_url"`
	Source   string `json:"source"`
}

// ProductDetail is the full product record including ingredient data.
type ProductDetail struct {
	ProductSummary
	Ingredients string          `json:"ingredients_text"`
	Nutrients   json.RawMessage `json:"nutrients,omitempty"`
}

// ProductService coordinates search, barcode lookup, and the product cache.
type ProductService struct {
	DB           *gorm.DB
	Engine       Searcher
	Directory    Lookuper
	Flight       *flight.Group[openfoodfacts.Detail]
	CacheEnabled bool
}

// Search validates the query and runs it through the fallback search engine.
// Results are never written to the cache tables.
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]openfoodfacts.Product, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("search.query", query),
			attribute.Int("search.limit", limit),
		),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.Engine.Search(ctx, query, limit), nil
}

// GetSummary serves a barcode lookup from the products table, falling back to
// the remote database on a miss. A remote hit is cached before returning.
func (s *ProductService) GetSummary(ctx context.Context, barcode string) (*ProductSummary, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "GetSummary",
		trace.WithAttributes(attribute.String("product.barcode", barcode)),
	)
	defer span.End()

	if s.CacheEnabled {
		if p, err := repo.GetProduct(ctx, s.DB, barcode); err == nil {
			span.SetAttributes(attribute.String("product.source", SourceCache))
			recordCache("products", true)
			return &ProductSummary{
				Barcode:  p.Barcode,
				Name:     p.ProductName,
				Brand:    p.Brand,
				ImageURL: p.ImageURL,
				Source:   SourceCache,
			}, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("barcode", barcode).Msg("product cache read failed, falling through to API")
		}
		recordCache("products", false)
	}

	detail, err := s.fetchAndCache(ctx, barcode)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product.source", SourceAPI))
	return &ProductSummary{
		Barcode:  detail.Code,
		Name:     detail.Name,
		Brand:    detail.Brand,
		ImageURL: detail.ImageURL,
		Source:   SourceAPI,
	}, nil
}

// GetDetail serves the full product record cache-aside. The cached form is
// only used when both the product row and its ingredients row are present;
// otherwise the remote record is fetched and both rows are refreshed.
func (s *ProductService) GetDetail(ctx context.Context, barcode string) (*ProductDetail, error) {
	tr := otel.Tracer("services/ProductService")
	ctx, span := tr.Start(ctx, "GetDetail",
		trace.WithAttributes(attribute.String("product.barcode", barcode)),
	)
	defer span.End()

	if s.CacheEnabled {
		if d, ok := s.cachedDetail(ctx, barcode); ok {
			span.SetAttributes(attribute.String("product.source", SourceCache))
			recordCache("ingredients", true)
			return d, nil
		}
		recordCache("ingredients", false)
	}

	detail, err := s.fetchAndCache(ctx, barcode)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product.source", SourceAPI))
	return &ProductDetail{
		ProductSummary: ProductSummary{
			Barcode:  detail.Code,
			Name:     detail.Name,
			Brand:    detail.Brand,
			ImageURL: detail.ImageURL,
			Source:   SourceAPI,
		},
		Ingredients: detail.IngredientsText,
		Nutrients:   detail.Nutrients,
	}, nil
}

// cachedDetail assembles a ProductDetail from the local tables. It reports
// false when either row is missing so the caller refetches the whole record.
func (s *ProductService) cachedDetail(ctx context.Context, barcode string) (*ProductDetail, bool) {
	p, err := repo.GetProduct(ctx, s.DB, barcode)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("barcode", barcode).Msg("product cache read failed, falling through to API")
		}
		return nil, false
	}
	ing, err := repo.GetIngredients(ctx, s.DB, barcode)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("barcode", barcode).Msg("ingredients cache read failed, falling through to API")
		}
		return nil, false
	}
	return &ProductDetail{
		ProductSummary: ProductSummary{
			Barcode:  p.Barcode,
			Name:     p.ProductName,
			Brand:    p.Brand,
			ImageURL: p.ImageURL,
			Source:   SourceCache,
		},
		Ingredients: ing.IngredientsText,
		Nutrients:   ing.Nutrients(),
	}, true
}

// fetchAndCache resolves the barcode against the remote database, coalescing
// concurrent misses for the same barcode, and writes the record through to the
// local tables. Store failures are logged and do not fail the request; a
// remote miss or transport failure surfaces as ErrProductNotFound without
// touching the cache.
func (s *ProductService) fetchAndCache(ctx context.Context, barcode string) (*openfoodfacts.Detail, error) {
	fetch := func(ctx context.Context) (openfoodfacts.Detail, error) {
		d, err := s.Directory.Lookup(ctx, barcode)
		if err != nil {
			return openfoodfacts.Detail{}, err
		}
		return *d, nil
	}

	var detail openfoodfacts.Detail
	var err error
	if s.Flight != nil {
		detail, err = s.Flight.Do(ctx, barcode, fetch)
	} else {
		detail, err = fetch(ctx)
	}
	if err != nil {
		if !errors.Is(err, openfoodfacts.ErrNotFound) {
			log.Warn().Err(err).Str("barcode", barcode).Msg("remote product lookup failed")
		}
		return nil, ErrProductNotFound
	}

	if s.CacheEnabled {
		s.storeDetail(ctx, &detail)
	}
	return &detail, nil
}

// storeDetail writes a remote record to the cache tables, best-effort.
func (s *ProductService) storeDetail(ctx context.Context, d *openfoodfacts.Detail) {
	if err := repo.UpsertProduct(ctx, s.DB, d.Code, d.Name, d.Brand, d.ImageURL); err != nil {
		log.Warn().Err(err).Str("barcode", d.Code).Msg("product cache write failed")
		return
	}
	if err := repo.UpsertIngredients(ctx, s.DB, d.Code, d.IngredientsText, d.Nutrients); err != nil {
		log.Warn().Err(err).Str("barcode", d.Code).Msg("ingredients cache write failed")
	}
}
