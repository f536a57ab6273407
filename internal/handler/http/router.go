package http

import (
	"net/http"

	middleware_http "shelf-vision/internal/middleware/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(products *ProductHandler, uploads *UploadHandler, health *HealthHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware_http.RequestID)
	// Recoverer wraps TraceMiddleware so a panic is recorded on the span first.
	r.Use(middleware.Recoverer)
	r.Use(middleware_http.TraceMiddleware)

	r.Get("/", health.Hello)
	r.Get("/healthz", health.Check)

	r.Post("/api/products", products.Create)
	r.Get("/api/products", products.GetAll)
	r.Get("/api/products/{id}", products.GetByID)
	r.Put("/api/products/{id}", products.Update)
	r.Delete("/api/products/{id}", products.Delete)

	r.Post("/upload", uploads.Upload)
	return r
}
