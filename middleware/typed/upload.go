package typed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/platform-smith-labs/tourbook/core"
	"github.com/platform-smith-labs/tourbook/handler"
)

// maxUploadBytes bounds the multipart form kept in memory.
const maxUploadBytes = 8 << 20

// ParseUpload decodes a bulk file sent as multipart form field "file" into
// BodyTypeT, which must be a slice of row structs. ".csv" files are read with
// the `csv` tags and ".json" files must hold a JSON array. Every row is
// checked against its `validate` tags and the first failure is reported with
// its row number.
//
//	type TourRow struct {
//	    Name  string  `csv:"name" json:"name" validate:"required"`
//	    Price float64 `csv:"price" json:"price"`
//	}
//	MakeHandler(reg, info, importTours, typed.ParseUpload, typed.ResponseJSON) // BodyTypeT = []TourRow
func ParseUpload[ParamTypeT any, BodyTypeT any, ResponseBodyT any](next handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT]) handler.Handler[ParamTypeT, BodyTypeT, ResponseBodyT] {
	return func(ctx handler.HandlerContext[ParamTypeT, BodyTypeT], w http.ResponseWriter, r *http.Request) (ResponseBodyT, error) {
		var zeroResponse ResponseBodyT

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Failed to parse multipart form", err.Error())
		}

		file, fileHeader, err := r.FormFile("file")
		if err != nil {
			return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Missing or invalid 'file' field in form data")
		}
		defer file.Close()

		var rows BodyTypeT
		// CSV rows start on line 2; JSON rows are numbered from 1.
		firstRow := 1
		switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
		case ".csv":
			firstRow = 2
			err = gocsv.Unmarshal(file, &rows)
		case ".json":
			err = json.NewDecoder(file).Decode(&rows)
		default:
			return zeroResponse, core.NewAPIError(http.StatusBadRequest, "File must be a CSV (.csv) or JSON (.json) file")
		}
		if err != nil {
			return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Failed to parse uploaded file", err.Error())
		}

		list := reflect.ValueOf(rows)
		if list.Kind() != reflect.Slice || list.Len() == 0 {
			return zeroResponse, core.NewAPIError(http.StatusBadRequest, "Uploaded file contains no data rows")
		}

		for i := 0; i < list.Len(); i++ {
			if err := validate.Struct(list.Index(i).Interface()); err != nil {
				return zeroResponse, fieldError(fmt.Sprintf("Row %d validation failed", i+firstRow), err)
			}
		}

		ctx.Body = handler.NewNullable(rows)
		return next(ctx, w, r)
	}
}
