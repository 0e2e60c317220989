// Package repo – ProductAnalysis repository functions.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/healthybites/go-food-backend/internal/domain"
)

// GetAnalysis fetches the cached analysis for a barcode, or ErrNotFound.
func GetAnalysis(ctx context.Context, db *gorm.DB, barcode string) (*domain.ProductAnalysis, error) {
	var a domain.ProductAnalysis
	err := db.WithContext(ctx).
		Where("barcode = ?", barcode).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAnalysis stores or refreshes the parsed analysis for a barcode.
// The sections array is a single opaque sequence and is always replaced
// whole; the verdict follows the usual partial-update rule.
func UpsertAnalysis(ctx context.Context, db *gorm.DB, barcode string, sections []string, overallVerdict string) error {
	tx := db.WithContext(ctx)

	var existing domain.ProductAnalysis
	err := tx.Where("barcode = ?", barcode).First(&existing).Error
	switch {
	case err == nil:
		existing.SetSections(sections)
		updates := map[string]any{
			"sections_data": existing.SectionsData,
			"updated_at":    time.Now().UTC(),
		}
		if overallVerdict != "" {
			updates["overall_verdict"] = overallVerdict
		}
		return tx.Model(&domain.ProductAnalysis{}).
			Where("barcode = ?", barcode).
			Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		a := domain.ProductAnalysis{
			Barcode:        barcode,
			OverallVerdict: overallVerdict,
			CreatedAt:      time.Now().UTC(),
		}
		a.SetSections(sections)
		return tx.Create(&a).Error
	default:
		return err
	}
}
