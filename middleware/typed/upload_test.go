package typed

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
)

type priceRow struct {
	Name  string  `csv:"name" json:"name" validate:"required"`
	Price float64 `csv:"price" json:"price" validate:"gt=0"`
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tours/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadHandler() handler.Handler[struct{}, []priceRow, []priceRow] {
	return ParseUpload(func(ctx handler.HandlerContext[struct{}, []priceRow], w http.ResponseWriter, r *http.Request) ([]priceRow, error) {
		return ctx.Body.Value(), nil
	})
}

func TestParseUpload_Formats(t *testing.T) {
	files := map[string]string{
		"tours.csv":  "name,price\nThe Forest Hiker,397\nThe Sea Explorer,497\n",
		"tours.json": `[{"name":"The Forest Hiker","price":397},{"name":"The Sea Explorer","price":497}]`,
	}
	for filename, content := range files {
		t.Run(filename, func(t *testing.T) {
			req := uploadRequest(t, filename, content)
			rows, err := uploadHandler()(newContext[struct{}, []priceRow](req), httptest.NewRecorder(), req)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(rows) != 2 || rows[1].Name != "The Sea Explorer" || rows[1].Price != 497 {
				t.Errorf("Unexpected rows %+v", rows)
			}
		})
	}
}

func TestParseUpload_Errors(t *testing.T) {
	cases := []struct {
		name, filename, content, message string
	}{
		{"bad extension", "tours.txt", "x", "File must be a CSV (.csv) or JSON (.json) file"},
		{"invalid row", "tours.csv", "name,price\nOk,1\n,5\n", "Row 3 validation failed"},
		{"empty file", "tours.json", "[]", "Uploaded file contains no data rows"},
		{"broken json", "tours.json", "[{", "Failed to parse uploaded file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := uploadRequest(t, tc.filename, tc.content)
			_, err := uploadHandler()(newContext[struct{}, []priceRow](req), httptest.NewRecorder(), req)
			apiErr, ok := err.(*core.APIError)
			if !ok || apiErr.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400 APIError, got %v", err)
			}
			if apiErr.Message != tc.message {
				t.Errorf("Expected %q, got %q", tc.message, apiErr.Message)
			}
		})
	}
}

func TestParseUpload_MissingFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "1")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tours/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err := uploadHandler()(newContext[struct{}, []priceRow](req), httptest.NewRecorder(), req)
	if apiErr, ok := err.(*core.APIError); !ok || apiErr.Message != "Missing or invalid 'file' field in form data" {
		t.Errorf("Expected missing file error, got %v", err)
	}
}
