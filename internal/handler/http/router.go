package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retrosole/storefront/internal/service"
	"github.com/retrosole/storefront/pkg/health"
	"github.com/retrosole/storefront/pkg/middleware"
)

// RouterConfig holds the dependencies for the HTTP router.
type RouterConfig struct {
	Catalog   *service.CatalogService
	Inventory *service.InventoryService
	Feedback  *service.FeedbackService
	Health    *health.Handler
	CORS      middleware.CORSConfig

	// StaticDir, when set, is served under /static/ for locally stored
	// product images.
	StaticDir string

	Logger *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if cfg.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	shopHandler := NewShopHandler(cfg.Catalog, cfg.Logger)
	productHandler := NewProductHandler(cfg.Catalog, cfg.Logger)
	inventoryHandler := NewInventoryHandler(cfg.Inventory, cfg.Logger)
	feedbackHandler := NewFeedbackHandler(cfg.Feedback, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/shop/products", func(r chi.Router) {
			r.Get("/", shopHandler.ListProducts)
			r.Get("/{id}", shopHandler.GetProduct)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.ListProducts)
				r.Post("/", productHandler.CreateProduct)
				r.Get("/{id}", productHandler.GetProduct)
				r.Put("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
				r.Delete("/{id}/images/{imageID}", productHandler.RemoveImage)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", inventoryHandler.ListStock)
				r.Patch("/{sizeID}/stock", inventoryHandler.AdjustStock)
				r.Get("/{sizeID}/movements", inventoryHandler.ListMovements)
			})

			r.Delete("/feedback/{id}", feedbackHandler.DeleteFeedback)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/", feedbackHandler.SubmitFeedback)
			r.Get("/", feedbackHandler.ListFeedback)
			r.Get("/summary", feedbackHandler.FeedbackSummary)
		})
	})

	return r
}
