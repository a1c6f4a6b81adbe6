// Package swaggerkit serves the OpenAPI document and the Swagger UI
package swaggerkit

import (
	"net/http"

	phttp "issuebridge/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Options controls what Mount serves
type Options struct {
	Enabled     bool
	BaseURL     string // defaults to /api/v1
	TitleSuffix string
}

// Mount serves /api/docs/doc.json and the UI under /api/docs/ when enabled
func Mount(r phttp.Router, opt Options) {
	if !opt.Enabled {
		return
	}
	if opt.BaseURL == "" {
		opt.BaseURL = "/api/v1"
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(opt))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
