package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curetcore/velox-storefront/internal/cart"
	"github.com/curetcore/velox-storefront/internal/search"
	"github.com/curetcore/velox-storefront/internal/wishlist"
	"github.com/curetcore/velox-storefront/pkg/health"
	"github.com/curetcore/velox-storefront/pkg/middleware"
)

// NewRouter creates a chi router with all storefront session routes
// registered.
func NewRouter(
	carts *cart.Manager,
	searches *search.Manager,
	wishlists *wishlist.Manager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(allowedOrigins))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(carts, logger)
	searchHandler := NewSearchHandler(searches, logger)
	wishlistHandler := NewWishlistHandler(wishlists, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(SessionFromHeaders)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Put("/", cartHandler.PrimeCart)
			r.Put("/lines/{lineKey}", cartHandler.UpdateLine)
			r.Delete("/lines/{lineKey}", cartHandler.RemoveLine)
			r.Post("/upsells", cartHandler.LoadUpsells)
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.GetState)
			r.Delete("/", searchHandler.Close)
			r.Post("/query", searchHandler.SubmitQuery)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.GetWishlist)
			r.Delete("/", wishlistHandler.Clear)
			r.Post("/items", wishlistHandler.AddItem)
			r.Delete("/items/{itemId}", wishlistHandler.RemoveItem)
			r.Post("/toggle", wishlistHandler.Toggle)
		})
	})

	return r
}
