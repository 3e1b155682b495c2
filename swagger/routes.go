package swagger

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"

	"github.com/platform-smith-labs/tourbook/handler"
	"github.com/platform-smith-labs/tourbook/schema"
)

// InstanceName is the swag instance the generated document is registered under.
const InstanceName = "tourbook"

// document implements swag.Swagger over a live registry.
type document struct {
	info      Info
	routes    *handler.Registry
	contracts *schema.Registry
}

func (d *document) ReadDoc() string {
	b, err := GenerateJSON(d.info, d.routes, d.contracts)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// swag keeps a process-wide registry that panics on duplicate names, so one
// reader is registered and pointed at the most recently mounted document.
var (
	registerOnce sync.Once
	current      atomic.Pointer[document]
)

type currentDoc struct{}

func (currentDoc) ReadDoc() string {
	d := current.Load()
	if d == nil {
		return "{}"
	}
	return d.ReadDoc()
}

// SetupSwaggerUI registers the documentation routes on r:
//   - GET /swagger.json returns the generated document
//   - GET /swagger/* serves the interactive UI
//
//	swagger.SetupSwaggerUI(r, reg, schemas.Registry())
func SetupSwaggerUI(r chi.Router, routes *handler.Registry, contracts *schema.Registry) {
	SetupSwaggerUIWithPath(r, "", routes, contracts)
}

// SetupSwaggerUIWithPath is SetupSwaggerUI under a path prefix, e.g.
// "/api/docs" serves /api/docs/swagger.json and /api/docs/swagger/*.
func SetupSwaggerUIWithPath(r chi.Router, basePath string, routes *handler.Registry, contracts *schema.Registry) {
	basePath = strings.TrimSuffix(basePath, "/")

	doc := &document{info: DefaultInfo, routes: routes, contracts: contracts}
	current.Store(doc)
	registerOnce.Do(func() {
		swag.Register(InstanceName, currentDoc{})
	})

	r.Get(basePath+"/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		body, err := GenerateJSON(doc.info, doc.routes, doc.contracts)
		if err != nil {
			http.Error(w, "Failed to generate API specification", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	r.Get(basePath+"/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(basePath+"/swagger.json"),
		httpSwagger.InstanceName(InstanceName),
	))
}
