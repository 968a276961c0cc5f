package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all historical data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/historical", func(r chi.Router) {
		r.Get("/coverage", h.HandleGetCoverage)

		// Price endpoints
		r.Route("/prices", func(r chi.Router) {
			r.Get("/daily/{ticker}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetDailyPrices(w, r, chi.URLParam(r, "ticker"))
			})
			r.Get("/latest/{ticker}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetLatestPrice(w, r, chi.URLParam(r, "ticker"))
			})
			r.Get("/range", h.HandleGetPriceRange)
		})

		// Returns endpoints
		r.Route("/returns", func(r chi.Router) {
			r.Get("/daily/{ticker}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetDailyReturns(w, r, chi.URLParam(r, "ticker"))
			})
		})
	})
}
