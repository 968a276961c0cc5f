package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers universe routes
func (h *UniverseHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/universe", func(r chi.Router) {
		r.Get("/assets", h.HandleGetAssets)
		r.Post("/assets/{ticker}/prices", func(w http.ResponseWriter, r *http.Request) {
			h.HandleImportPrices(w, r, chi.URLParam(r, "ticker"))
		})

		r.Route("/portfolios/{versionID}/assets", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetPortfolioAssets(w, r, chi.URLParam(r, "versionID"))
			})
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				h.HandleSetPortfolioAssets(w, r, chi.URLParam(r, "versionID"))
			})
		})
	})
}
