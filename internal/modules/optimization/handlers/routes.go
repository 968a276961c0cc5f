package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers optimizer routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimizer/portfolios/{versionID}/frontier", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			h.HandleFrontier(w, r, chi.URLParam(r, "versionID"))
		})
		r.Get("/chart", func(w http.ResponseWriter, r *http.Request) {
			h.HandleFrontierChart(w, r, chi.URLParam(r, "versionID"))
		})
	})
}
