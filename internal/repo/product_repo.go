// Package repo implements the data persistence layer for the cache tables,
// backed by GORM. This file provides repository functions for the Product model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only keyed
// reads and upserts.
//
// Error semantics:
//   - When a record is not found, Get functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated. Callers in the service layer treat
//     upsert failures as best-effort and never let them reach the request
//     boundary.
//
// Upsert semantics (shared by all three tables): an empty incoming field never
// clears a stored non-empty value. The analysis sections column is the one
// exception: it is a single opaque ordered sequence and is always replaced
// whole. Storing identical values twice leaves the row observably unchanged
// apart from its updated timestamp.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/healthybites/go-food-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// GetProduct fetches the basic product record for a barcode. If the record
// does not exist, it returns ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, barcode string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("barcode = ?", barcode).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProduct stores or refreshes the basic product record for a barcode.
// Empty name/brand/image values never overwrite stored non-empty ones.
func UpsertProduct(ctx context.Context, db *gorm.DB, barcode, name, brand, imageURL string) error {
	tx := db.WithContext(ctx)

	var existing domain.Product
	err := tx.Where("barcode = ?", barcode).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]any{"updated_at": time.Now().UTC()}
		if name != "" {
			updates["product_name"] = name
		}
		if brand != "" {
			updates["brand"] = brand
		}
		if imageURL != "" {
			updates["image_url"] = imageURL
		}
		return tx.Model(&domain.Product{}).
			Where("barcode = ?", barcode).
			Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		p := domain.Product{
			Barcode:     barcode,
			ProductName: name,
			Brand:       brand,
			ImageURL:    imageURL,
			CreatedAt:   time.Now().UTC(),
		}
		return tx.Create(&p).Error
	default:
		return err
	}
}
