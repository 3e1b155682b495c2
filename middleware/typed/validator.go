package typed

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// validate checks the `validate` tags of params, CSV rows and ungated bodies.
var validate = validator.New()

var (
	customMu       sync.RWMutex
	customMessages = map[string]string{}
)

var camelBoundary = regexp.MustCompile("([a-z0-9])([A-Z])")

func init() {
	// Error keys follow the wire names: json, then csv, then query/param tags.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "csv", "query", "param"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return strings.ToLower(camelBoundary.ReplaceAllString(fld.Name, "${1}_${2}"))
	})
}

// RegisterValidation adds a custom tag to the validator used by ParseParams,
// ParseBody and ParseUpload. message completes "<field> <message>" in error
// responses. Register at startup, before routes serve traffic.
func RegisterValidation(tag string, fn validator.Func, message string) error {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return err
	}
	customMu.Lock()
	customMessages[tag] = message
	customMu.Unlock()
	return nil
}

func customMessage(tag string) (string, bool) {
	customMu.RLock()
	defer customMu.RUnlock()
	msg, ok := customMessages[tag]
	return msg, ok
}
