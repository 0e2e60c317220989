// Package repo – ProductIngredients repository functions.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/healthybites/go-food-backend/internal/domain"
)

// GetIngredients fetches the ingredient record for a barcode, or ErrNotFound.
func GetIngredients(ctx context.Context, db *gorm.DB, barcode string) (*domain.ProductIngredients, error) {
	var ing domain.ProductIngredients
	err := db.WithContext(ctx).
		Where("barcode = ?", barcode).
		First(&ing).Error
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

// UpsertIngredients stores or refreshes the ingredient text and nutrient blob
// for a barcode. An empty ingredients text or nil nutrients document never
// overwrites a stored non-empty value.
func UpsertIngredients(ctx context.Context, db *gorm.DB, barcode, ingredientsText string, nutrients json.RawMessage) error {
	tx := db.WithContext(ctx)

	var existing domain.ProductIngredients
	err := tx.Where("barcode = ?", barcode).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]any{"updated_at": time.Now().UTC()}
		if ingredientsText != "" {
			updates["ingredients_text"] = ingredientsText
		}
		if len(nutrients) > 0 {
			updates["nutrients_data"] = string(nutrients)
		}
		return tx.Model(&domain.ProductIngredients{}).
			Where("barcode = ?", barcode).
			Updates(updates).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		ing := domain.ProductIngredients{
			Barcode:         barcode,
			IngredientsText: ingredientsText,
			CreatedAt:       time.Now().UTC(),
		}
		ing.SetNutrients(nutrients)
		return tx.Create(&ing).Error
	default:
		return err
	}
}
