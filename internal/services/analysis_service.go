// Package services – AnalysisService
//
// This file implements AnalysisService, which turns ingredient text into the
// six-section health report. Free-form analysis always calls the language
// model; barcode-bound analysis is served cache-aside from the analysis table
// and only successful generations are written back.

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthybites/go-food-backend/internal/analysis"
	"github.com/healthybites/go-food-backend/internal/ocr"
	"github.com/healthybites/go-food-backend/internal/repo"
	"github.com/healthybites/go-food-backend/internal/watsonx"
)

// imageProductName labels analyses that originate from an uploaded photo
// rather than a catalogued product.
const imageProductName = "Uploaded Image Product"

// ProductResolver returns the full product record for a barcode.
type ProductResolver interface {
	GetDetail(ctx context.Context, barcode string) (*ProductDetail, error)
}

// Report is a parsed analysis: the raw model text plus the six sections in
// canonical order (overall verdict, summary, key risks, positive highlights,
// recommendation, marketing traps).
type Report struct {
	ProductName string   `json:"product_name"`
	Text        string   `json:"analysis"`
	Sections    []string `json:"sections"`
	Source      string   `json:"source"`
}

// Verdict returns the overall-verdict section.
func (r *Report) Verdict() string {
	if len(r.Sections) == 0 {
		return ""
	}
	return r.Sections[0]
}

// AnalysisService coordinates the language model, OCR, and the analysis cache.
type AnalysisService struct {
	DB           *gorm.DB
	Generator    watsonx.Generator
	Extractor    ocr.Extractor
	Products     ProductResolver
	CacheEnabled bool
}

// Analyze builds the prompt for the given ingredients and runs it through the
// language model. Generation failures degrade to a fixed advisory report
// instead of an error; the second return value reports whether generation
// succeeded, which decides cacheability.
func (s *AnalysisService) Analyze(ctx context.Context, productName, ingredients string) (*Report, bool, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Analyze",
		trace.WithAttributes(attribute.String("product.name", productName)),
	)
	defer span.End()

	ingredients = strings.TrimSpace(ingredients)
	if ingredients == "" {
		return nil, false, ErrEmptyIngredients
	}
	if productName == "" {
		productName = "Unknown Product"
	}

	prompt := analysis.BuildPrompt(productName, ingredients)
	text, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("product", productName).Msg("analysis generation failed")
		span.SetAttributes(attribute.Bool("analysis.degraded", true))
		return &Report{
			ProductName: productName,
			Text:        analysis.ErrorText,
			Sections:    analysis.ParseSections(analysis.ErrorText),
			Source:      SourceAPI,
		}, false, nil
	}

	return &Report{
		ProductName: productName,
		Text:        text,
		Sections:    analysis.ParseSections(text),
		Source:      SourceAPI,
	}, true, nil
}

// AnalyzeBarcode serves the analysis for a catalogued product cache-aside. A
// cached report is returned as-is; otherwise the product is resolved, its
// ingredients analyzed, and a successful report written back best-effort.
func (s *AnalysisService) AnalyzeBarcode(ctx context.Context, barcode string) (*Report, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "AnalyzeBarcode",
		trace.WithAttributes(attribute.String("product.barcode", barcode)),
	)
	defer span.End()

	if s.CacheEnabled {
		if a, err := repo.GetAnalysis(ctx, s.DB, barcode); err == nil {
			span.SetAttributes(attribute.String("analysis.source", SourceCache))
			recordCache("analyses", true)
			name := ""
			if p, perr := repo.GetProduct(ctx, s.DB, barcode); perr == nil {
				name = p.ProductName
			}
			sections := a.Sections()
			return &Report{
				ProductName: name,
				Text:        renderSections(sections),
				Sections:    sections,
				Source:      SourceCache,
			}, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("barcode", barcode).Msg("analysis cache read failed, regenerating")
		}
		recordCache("analyses", false)
	}

	detail, err := s.Products.GetDetail(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(detail.Ingredients) == "" {
		return nil, ErrNoIngredients
	}

	report, generated, err := s.Analyze(ctx, detail.Name, detail.Ingredients)
	if err != nil {
		return nil, err
	}

	if s.CacheEnabled && generated {
		if err := repo.UpsertAnalysis(ctx, s.DB, barcode, report.Sections, report.Verdict()); err != nil {
			log.Warn().Err(err).Str("barcode", barcode).Msg("analysis cache write failed")
		}
	}
	return report, nil
}

// AnalyzeImage extracts text from a label photo and analyzes it.
func (s *AnalysisService) AnalyzeImage(ctx context.Context, image []byte, filename string) (*Report, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "AnalyzeImage",
		trace.WithAttributes(attribute.String("image.filename", filename)),
	)
	defer span.End()

	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	text, err := s.Extractor.Extract(ctx, image, filename)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("image text extraction failed")
		return &Report{
			ProductName: imageProductName,
			Text:        analysis.ErrorText,
			Sections:    analysis.ParseSections(analysis.ErrorText),
			Source:      SourceAPI,
		}, nil
	}

	report, _, err := s.Analyze(ctx, imageProductName, text)
	return report, err
}

// renderSections rebuilds display text from cached sections, restoring the
// canonical headers so the result reads like a fresh model response.
func renderSections(sections []string) string {
	var b strings.Builder
	for i, label := range analysis.SectionLabels {
		if i >= len(sections) || sections[i] == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(label)
		b.WriteString(":\n")
		b.WriteString(sections[i])
	}
	return b.String()
}
