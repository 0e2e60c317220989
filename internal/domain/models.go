// Package domain defines the persistence models for the product cache tables.
// These types are mapped with GORM and form the data layer of the backend:
// one row per barcode in each of the products, product_ingredients, and
// product_analysis tables. The record kinds are independent: a product row
// may exist with no analysis row for the same barcode.
package domain

import (
	"encoding/json"
	"time"
)

// Product holds the basic directory record for a barcode.
//
// Fields:
//   - Barcode: primary key; the sole identity for all cache tables.
//   - ProductName / Brand / ImageURL: overwritten on refresh, but an empty
//     incoming value never clears a stored non-empty one (see repo.UpsertProduct).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Product struct {
	Barcode     string    `json:"id"           gorm:"type:varchar(50);primaryKey"`
	ProductName string    `json:"product_name" gorm:"type:varchar(255);not null;index:idx_product_name"`
	Brand       string    `json:"brand"        gorm:"type:varchar(255)"`
	ImageURL    string    `json:"image_url"    gorm:"type:text"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ProductIngredients holds the ingredient text and nutrient blob for a barcode.
// Nutrients are an opaque JSON document passed through from the directory
// without interpretation; storing the raw encoding preserves key order.
type ProductIngredients struct {
	Barcode         string    `json:"id"               gorm:"type:varchar(50);primaryKey"`
	IngredientsText string    `json:"ingredients_text" gorm:"type:text;not null"`
	NutrientsData   string    `json:"-"                gorm:"type:text"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// TableName returns the database table name for ProductIngredients.
func (ProductIngredients) TableName() string { return "product_ingredients" }

// SetNutrients stores a raw nutrient document.
func (p *ProductIngredients) SetNutrients(raw json.RawMessage) {
	p.NutrientsData = string(raw)
}

// Nutrients returns the stored nutrient document, or nil when absent.
func (p *ProductIngredients) Nutrients() json.RawMessage {
	if p.NutrientsData == "" {
		return nil
	}
	return json.RawMessage(p.NutrientsData)
}

// ProductAnalysis holds the parsed model assessment for a barcode. Sections are
// serialized as a JSON array of exactly six strings in the fixed order defined
// by the analysis package; the whole array is replaced on every refresh.
type ProductAnalysis struct {
	Barcode        string    `json:"barcode"         gorm:"type:varchar(50);primaryKey"`
	SectionsData   string    `json:"-"               gorm:"type:text;not null"`
	OverallVerdict string    `json:"overall_verdict" gorm:"type:varchar(500)"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName returns the database table name for ProductAnalysis.
func (ProductAnalysis) TableName() string { return "product_analysis" }

// SetSections serializes the section list into the row.
func (a *ProductAnalysis) SetSections(sections []string) {
	b, err := json.Marshal(sections)
	if err != nil {
		// A []string cannot fail to marshal; keep the row consistent anyway.
		a.SectionsData = "[]"
		return
	}
	a.SectionsData = string(b)
}

// Sections returns the stored section list. Malformed or missing data yields
// an empty slice so callers never see a partial decode.
func (a *ProductAnalysis) Sections() []string {
	if a.SectionsData == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(a.SectionsData), &out); err != nil {
		return []string{}
	}
	return out
}
