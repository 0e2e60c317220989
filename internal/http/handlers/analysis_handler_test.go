package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/healthybites/go-food-backend/internal/openfoodfacts"
	"github.com/healthybites/go-food-backend/internal/services"
)

type fakeProductService struct {
	summary      *services.ProductSummary
	detail       *services.ProductDetail
	err          error
	searchCalled bool
}

func (f *fakeProductService) Search(ctx context.Context, query string, limit int) ([]openfoodfacts.Product, error) {
	f.searchCalled = true
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func (f *fakeProductService) GetSummary(ctx context.Context, barcode string) (*services.ProductSummary, error) {
	return f.summary, f.err
}

func (f *fakeProductService) GetDetail(ctx context.Context, barcode string) (*services.ProductDetail, error) {
	return f.detail, f.err
}

type fakeAnalysisService struct {
	report       *services.Report
	err          error
	gotImage     []byte
	gotFilename  string
	imageCalled  bool
	barcodeCalls int
}

func (f *fakeAnalysisService) Analyze(ctx context.Context, productName, ingredients string) (*services.Report, bool, error) {
	return f.report, true, f.err
}

func (f *fakeAnalysisService) AnalyzeBarcode(ctx context.Context, barcode string) (*services.Report, error) {
	f.barcodeCalls++
	return f.report, f.err
}

func (f *fakeAnalysisService) AnalyzeImage(ctx context.Context, image []byte, filename string) (*services.Report, error) {
	f.imageCalled = true
	f.gotImage = image
	f.gotFilename = filename
	return f.report, f.err
}

func sampleReport() *services.Report {
	return &services.Report{
		ProductName: "Amul Butter",
		Text:        "OVERALL VERDICT: Healthy",
		Sections:    []string{"Healthy", "", "", "", "", ""},
		Source:      services.SourceAPI,
	}
}

func newHandlerRouter(anl AnalysisService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(&fakeProductService{}, anl)
	r.POST("/analyze", h.AnalyzeIngredients)
	r.POST("/analyze/product/:code", h.AnalyzeProduct)
	r.POST("/ocr", h.AnalyzeImage)
	return r
}

func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeIngredients_BadJSON(t *testing.T) {
	r := newHandlerRouter(&fakeAnalysisService{report: sampleReport()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != ErrCodeBadRequest {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestAnalyzeProduct_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", services.ErrProductNotFound, http.StatusNotFound},
		{"no ingredients", services.ErrNoIngredients, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newHandlerRouter(&fakeAnalysisService{err: tc.err})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze/product/12345678", nil))
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
		})
	}
}

func TestAnalyzeProduct_InvalidBarcode(t *testing.T) {
	anl := &fakeAnalysisService{report: sampleReport()}
	r := newHandlerRouter(anl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze/product/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if anl.barcodeCalls != 0 {
		t.Fatalf("service must not be called for invalid barcode")
	}
}

func TestAnalyzeImage_Success(t *testing.T) {
	anl := &fakeAnalysisService{report: sampleReport()}
	r := newHandlerRouter(anl)

	body, ct := multipartImage(t, "file", "label.jpg", "image/jpeg", []byte("jpeg-bytes"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ocr", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if !anl.imageCalled {
		t.Fatalf("service not called")
	}
	if string(anl.gotImage) != "jpeg-bytes" || anl.gotFilename != "label.jpg" {
		t.Fatalf("got image=%q filename=%q", anl.gotImage, anl.gotFilename)
	}
}

func TestAnalyzeImage_RejectsNonImage(t *testing.T) {
	anl := &fakeAnalysisService{report: sampleReport()}
	r := newHandlerRouter(anl)

	body, ct := multipartImage(t, "file", "notes.txt", "text/plain", []byte("hello"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ocr", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if anl.imageCalled {
		t.Fatalf("non-image must be rejected before OCR")
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != ErrCodeUnsupportedImage {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestAnalyzeImage_MissingFile(t *testing.T) {
	r := newHandlerRouter(&fakeAnalysisService{report: sampleReport()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ocr", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
