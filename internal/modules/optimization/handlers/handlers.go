// Package handlers provides HTTP handlers for efficient frontier requests.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/rs/zerolog"
)

// StatusClientClosedRequest is recorded when the client goes away before the
// response is written.
const StatusClientClosedRequest = 499

// FrontierService is the part of optimization.OptimizerService the handlers use.
type FrontierService interface {
	Optimize(ctx context.Context, req optimization.Request) (*optimization.Response, error)
	RenderChart(ctx context.Context, req optimization.Request) ([]byte, error)
}

// Handler handles optimizer HTTP requests
type Handler struct {
	service FrontierService
	log     zerolog.Logger
}

// NewHandler creates a new optimizer handler
func NewHandler(service FrontierService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimizer").Logger(),
	}
}

// FrontierRequest is the body of a frontier request.
type FrontierRequest struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// HandleFrontier handles POST /api/optimizer/portfolios/{versionID}/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request, versionID string) {
	var body FrontierRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, ok := h.parseRequest(w, versionID, body.DateFrom, body.DateTo)
	if !ok {
		return
	}

	resp, err := h.service.Optimize(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, req)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleFrontierChart handles GET /api/optimizer/portfolios/{versionID}/frontier/chart
func (h *Handler) HandleFrontierChart(w http.ResponseWriter, r *http.Request, versionID string) {
	query := r.URL.Query()
	req, ok := h.parseRequest(w, versionID, query.Get("dateFrom"), query.Get("dateTo"))
	if !ok {
		return
	}

	img, err := h.service.RenderChart(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err, req)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart")
	}
}

func (h *Handler) parseRequest(w http.ResponseWriter, versionID, dateFrom, dateTo string) (optimization.Request, bool) {
	id, err := strconv.ParseInt(versionID, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid portfolio version id")
		return optimization.Request{}, false
	}

	req, err := optimization.ParseRequest(id, dateFrom, dateTo)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return optimization.Request{}, false
	}
	return req, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error, req optimization.Request) {
	status := StatusForError(err)
	if status == StatusClientClosedRequest {
		h.log.Debug().
			Err(err).
			Int64("portfolio_version_id", req.PortfolioVersionID).
			Msg("Client went away before frontier was ready")
		w.WriteHeader(status)
		return
	}

	event := h.log.Warn()
	if status >= http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).
		Int64("portfolio_version_id", req.PortfolioVersionID).
		Int("status", status).
		Msg("Frontier request failed")

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Failed to compute efficient frontier"
	}
	h.writeError(w, status, msg)
}

// StatusForError maps service errors to HTTP status codes.
func StatusForError(err error) int {
	var insufficient *optimization.InsufficientDataError
	var optimize *optimization.OptimizationError
	var division *optimization.DivisionError

	switch {
	case errors.As(err, &insufficient), errors.As(err, &optimize), errors.As(err, &division):
		return http.StatusUnprocessableEntity
	case errors.Is(err, optimization.ErrUnknownTicker):
		return http.StatusBadRequest
	case errors.Is(err, optimization.ErrEmptyPortfolio):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
