package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/healthybites/go-food-backend/internal/domain"
)

func sixSections(first string) []string {
	return []string{first, "summary", "risks", "highlights", "recommendation", "traps"}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.ProductAnalysis{})
	_, err := GetAnalysis(context.Background(), db, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertAnalysis_CreateThenGet(t *testing.T) {
	db := newRepoDB(t, &domain.ProductAnalysis{})
	ctx := context.Background()

	if err := UpsertAnalysis(ctx, db, "123", sixSections("7/10 Safe"), "7/10 Safe"); err != nil {
		t.Fatalf("UpsertAnalysis: %v", err)
	}
	a, err := GetAnalysis(ctx, db, "123")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	got := a.Sections()
	if len(got) != 6 || got[0] != "7/10 Safe" {
		t.Fatalf("sections = %v", got)
	}
	if a.OverallVerdict != "7/10 Safe" {
		t.Fatalf("verdict = %q", a.OverallVerdict)
	}
}

func TestUpsertAnalysis_SectionsAlwaysReplacedWhole(t *testing.T) {
	db := newRepoDB(t, &domain.ProductAnalysis{})
	ctx := context.Background()

	if err := UpsertAnalysis(ctx, db, "123", sixSections("old"), "old"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// New sections with empty slots fully replace the previous array,
	// while an empty verdict keeps the stored one.
	next := []string{"", "", "new risks", "", "", ""}
	if err := UpsertAnalysis(ctx, db, "123", next, ""); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	a, err := GetAnalysis(ctx, db, "123")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	got := a.Sections()
	if got[0] != "" || got[2] != "new risks" {
		t.Fatalf("sections not replaced whole: %v", got)
	}
	if a.OverallVerdict != "old" {
		t.Fatalf("empty verdict clobbered stored value: %q", a.OverallVerdict)
	}
}

func TestUpsertAnalysis_Idempotent(t *testing.T) {
	db := newRepoDB(t, &domain.ProductAnalysis{})
	ctx := context.Background()

	s := sixSections("v")
	if err := UpsertAnalysis(ctx, db, "123", s, "v"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := UpsertAnalysis(ctx, db, "123", s, "v"); err != nil {
		t.Fatalf("second: %v", err)
	}
	var count int64
	if err := db.Model(&domain.ProductAnalysis{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}
