// Product HTTP handlers.
//
// This file exposes REST endpoints for product discovery:
//   - GET /search          (name search with word-based fallback)
//   - GET /product/{code}  (full product record, cache-aside)
//   - GET /barcode/{code}  (basic product record, cache-aside)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/healthybites/go-food-backend/internal/openfoodfacts"
	"github.com/healthybites/go-food-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ProductService defines product discovery operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ProductService interface {
	// Search runs a name search through the fallback engine.
	Search(ctx context.Context, query string, limit int) ([]openfoodfacts.Product, error)
	// GetSummary returns the basic product record for a barcode.
	GetSummary(ctx context.Context, barcode string) (*services.ProductSummary, error)
	// GetDetail returns the full product record for a barcode.
	GetDetail(ctx context.Context, barcode string) (*services.ProductDetail, error)
}

// AnalysisService defines ingredient analysis operations consumed by HTTP
// handlers.
type AnalysisService interface {
	// Analyze runs free-form ingredient text through the model.
	Analyze(ctx context.Context, productName, ingredients string) (*services.Report, bool, error)
	// AnalyzeBarcode analyzes a catalogued product, cache-aside.
	AnalyzeBarcode(ctx context.Context, barcode string) (*services.Report, error)
	// AnalyzeImage extracts text from a label photo and analyzes it.
	AnalyzeImage(ctx context.Context, image []byte, filename string) (*services.Report, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for products and analysis. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	prodSvc ProductService
	anlSvc  AnalysisService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(prodSvc ProductService, anlSvc AnalysisService) *Handlers {
	return &Handlers{prodSvc: prodSvc, anlSvc: anlSvc}
}

//
// DTOs
//

// SearchResponse is the JSON envelope for a product search.
type SearchResponse struct {
	Query    string                 `json:"query"`
	Count    int                    `json:"count"`
	Products []openfoodfacts.Product `json:"products"`
}

//
// Helpers
//

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// barcodeRE accepts the digit strings used by EAN/UPC/GTIN codes.
var barcodeRE = regexp.MustCompile(`^[0-9]{6,14}$`)

// parseLimit parses the limit query parameter. An absent parameter gets the
// default; a non-numeric or out-of-range value is rejected.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultSearchLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxSearchLimit {
		return 0, false
	}
	return limit, true
}

// validBarcode reports whether code looks like a retail barcode.
func validBarcode(code string) bool {
	return barcodeRE.MatchString(code)
}

//
// Handlers
//

// SearchProducts godoc
// @ID          searchProducts
// @Summary     Search products by name
// @Description Searches the food database by product name. When the exact
// @Description phrase yields nothing, retries with the longest words of the
// @Description query and merges the deduplicated results.
// @Tags        Products
// @Produce     json
//
// @Param       q      query  string  true   "Product name to search for"  example(amul butter)
// @Param       limit  query  int     false  "Maximum results"  minimum(1) maximum(50) default(10)
//
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /search [get]
func (h *Handlers) SearchProducts(c *gin.Context) {
	ctx := c.Request.Context()

	query := c.Query("q")
	limit, okLimit := parseLimit(c)
	if !okLimit {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "limit must be an integer between 1 and 50")
		return
	}

	products, err := h.prodSvc.Search(ctx, query, limit)
	if err != nil {
		switch err {
		case services.ErrEmptyQuery:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		}
		return
	}

	if products == nil {
		products = []openfoodfacts.Product{}
	}
	ok(c, http.StatusOK, SearchResponse{
		Query:    query,
		Count:    len(products),
		Products: products,
	})
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get full product record by barcode
// @Description Returns the product with its ingredients and nutrients. Served
// @Description from the local cache when available, otherwise fetched from the
// @Description food database and cached.
// @Tags        Products
// @Produce     json
//
// @Param       code  path  string  true  "Product barcode"  example(8901262010016)
//
// @Success     200  {object}  services.ProductDetail
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /product/{code} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	if !validBarcode(code) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "barcode must be 6-14 digits")
		return
	}

	detail, err := h.prodSvc.GetDetail(ctx, code)
	if err != nil {
		switch err {
		case services.ErrProductNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, detail)
}

// GetBarcode godoc
// @ID          getBarcode
// @Summary     Get basic product record by barcode
// @Description Returns the product name, brand, and image without ingredient
// @Description data. Served from the local cache when available.
// @Tags        Products
// @Produce     json
//
// @Param       code  path  string  true  "Product barcode"  example(8901262010016)
//
// @Success     200  {object}  services.ProductSummary
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /barcode/{code} [get]
func (h *Handlers) GetBarcode(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	if !validBarcode(code) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "barcode must be 6-14 digits")
		return
	}

	summary, err := h.prodSvc.GetSummary(ctx, code)
	if err != nil {
		switch err {
		case services.ErrProductNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, summary)
}
