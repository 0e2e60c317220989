package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/healthybites/go-food-backend/internal/domain"
)

func TestGetIngredients_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.ProductIngredients{})
	_, err := GetIngredients(context.Background(), db, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertIngredients_CreateThenGet(t *testing.T) {
	db := newRepoDB(t, &domain.ProductIngredients{})
	ctx := context.Background()

	nutrients := json.RawMessage(`{"sugars_100g":22.5,"salt_unit":"g"}`)
	if err := UpsertIngredients(ctx, db, "123", "Sugar, Palm Oil", nutrients); err != nil {
		t.Fatalf("UpsertIngredients: %v", err)
	}
	ing, err := GetIngredients(ctx, db, "123")
	if err != nil {
		t.Fatalf("GetIngredients: %v", err)
	}
	if ing.IngredientsText != "Sugar, Palm Oil" {
		t.Fatalf("text = %q", ing.IngredientsText)
	}
	if string(ing.Nutrients()) != string(nutrients) {
		t.Fatalf("nutrients = %s", ing.Nutrients())
	}
}

func TestUpsertIngredients_PartialUpdateKeepsNutrients(t *testing.T) {
	db := newRepoDB(t, &domain.ProductIngredients{})
	ctx := context.Background()

	nutrients := json.RawMessage(`{"fat_100g":30}`)
	if err := UpsertIngredients(ctx, db, "123", "Sugar", nutrients); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Refresh without nutrients must keep the stored document.
	if err := UpsertIngredients(ctx, db, "123", "Sugar, Salt", nil); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	ing, err := GetIngredients(ctx, db, "123")
	if err != nil {
		t.Fatalf("GetIngredients: %v", err)
	}
	if ing.IngredientsText != "Sugar, Salt" {
		t.Fatalf("text = %q", ing.IngredientsText)
	}
	if string(ing.Nutrients()) != string(nutrients) {
		t.Fatalf("nutrients clobbered: %s", ing.Nutrients())
	}
}

func TestUpsertIngredients_EmptyTextDoesNotClobber(t *testing.T) {
	db := newRepoDB(t, &domain.ProductIngredients{})
	ctx := context.Background()

	if err := UpsertIngredients(ctx, db, "123", "Sugar", nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := UpsertIngredients(ctx, db, "123", "", json.RawMessage(`{"salt_100g":1}`)); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	ing, _ := GetIngredients(ctx, db, "123")
	if ing.IngredientsText != "Sugar" {
		t.Fatalf("empty text clobbered stored value: %q", ing.IngredientsText)
	}
}
