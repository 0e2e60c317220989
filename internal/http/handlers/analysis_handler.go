// Analysis HTTP handlers.
//
// This file exposes REST endpoints for ingredient health analysis:
//   - POST /analyze                  (free-form ingredient text)
//   - POST /analyze/product/{code}   (catalogued product, cache-aside)
//   - POST /ocr                      (label photo upload)
//
// Analysis endpoints return 200 with readable prose even when the language
// model is unreachable; only invalid input and unknown products are errors.
package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/healthybites/go-food-backend/internal/services"
)

//
// DTOs
//

// AnalyzeRequest is the JSON payload for free-form ingredient analysis.
type AnalyzeRequest struct {
	// Ingredients is the ingredient list to analyze. It must be non-empty.
	Ingredients string `json:"ingredients_text" binding:"required,min=1" example:"Milk fat, salt, permitted natural colour"`
	// ProductName optionally labels the product in the generated report.
	ProductName string `json:"product_name" example:"Amul Butter"`
}

//
// Handlers
//

// AnalyzeIngredients godoc
// @ID          analyzeIngredients
// @Summary     Analyze free-form ingredient text
// @Description Runs the ingredient list through the language model and returns
// @Description the structured six-section health report. Never cached.
// @Tags        Analysis
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AnalyzeRequest  true  "Ingredient payload"
//
// @Success     200  {object}  services.Report
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /analyze [post]
func (h *Handlers) AnalyzeIngredients(c *gin.Context) {
	ctx := c.Request.Context()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ingredients_text required")
		return
	}

	report, _, err := h.anlSvc.Analyze(ctx, req.ProductName, req.Ingredients)
	if err != nil {
		switch err {
		case services.ErrEmptyIngredients:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ingredients_text required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnalysisFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, report)
}

// AnalyzeProduct godoc
// @ID          analyzeProduct
// @Summary     Analyze a catalogued product by barcode
// @Description Returns the cached report when one exists; otherwise resolves
// @Description the product, analyzes its ingredients, and caches a successful
// @Description report.
// @Tags        Analysis
// @Produce     json
//
// @Param       code  path  string  true  "Product barcode"  example(8901262010016)
//
// @Success     200  {object}  services.Report
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found or has no ingredients"
// @Router      /analyze/product/{code} [post]
func (h *Handlers) AnalyzeProduct(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	if !validBarcode(code) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "barcode must be 6-14 digits")
		return
	}

	report, err := h.anlSvc.AnalyzeBarcode(ctx, code)
	if err != nil {
		switch err {
		case services.ErrProductNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found")
		case services.ErrNoIngredients:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no ingredients found for product")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnalysisFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, report)
}

// AnalyzeImage godoc
// @ID          analyzeImage
// @Summary     Analyze a product label photo
// @Description Extracts text from the uploaded image via OCR and runs it
// @Description through the ingredient analysis. Only image uploads are
// @Description accepted.
// @Tags        Analysis
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       file  formData  file  true  "Label photo (JPEG, PNG, ...)"
//
// @Success     200  {object}  services.Report
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /ocr [post]
func (h *Handlers) AnalyzeImage(c *gin.Context) {
	ctx := c.Request.Context()

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file field required")
		return
	}
	if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedImage, "file must be an image")
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read uploaded file")
		return
	}

	report, err := h.anlSvc.AnalyzeImage(ctx, data, fh.Filename)
	if err != nil {
		switch err {
		case services.ErrEmptyImage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "uploaded file is empty")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnalysisFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, report)
}
