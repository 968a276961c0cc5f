// Package handlers provides HTTP handlers for universe management.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/aristath/frontier/internal/utils"
	"github.com/rs/zerolog"
)

// maxUploadBytes bounds CSV uploads.
const maxUploadBytes = 16 << 20

// AssetStore is the part of universe.AssetRepository the handlers use.
type AssetStore interface {
	GetAll(ctx context.Context) ([]universe.Asset, error)
	GetVersion(ctx context.Context, id int64) (*universe.PortfolioVersion, error)
	SetTickers(ctx context.Context, portfolioVersionID int64, tickers []string) ([]string, error)
	EnsureAsset(ctx context.Context, ticker string) error
}

// PriceImporter stores externally supplied prices.
type PriceImporter interface {
	ImportPrices(ctx context.Context, ticker string, prices []universe.DailyPrice, source string) (int, int, error)
}

// UniverseHandlers contains HTTP handlers for universe endpoints
type UniverseHandlers struct {
	assets   AssetStore
	importer PriceImporter
	log      zerolog.Logger
}

// NewUniverseHandlers creates a new universe handlers instance
func NewUniverseHandlers(assets AssetStore, importer PriceImporter, log zerolog.Logger) *UniverseHandlers {
	return &UniverseHandlers{
		assets:   assets,
		importer: importer,
		log:      log.With().Str("handler", "universe").Logger(),
	}
}

// SetAssetsRequest is the body of a portfolio version update.
type SetAssetsRequest struct {
	Tickers []string `json:"tickers"`
}

// HandleGetAssets handles GET /api/universe/assets
func (h *UniverseHandlers) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assets.GetAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assets")
		h.writeError(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}
	if assets == nil {
		assets = []universe.Asset{}
	}
	h.writeJSON(w, http.StatusOK, assets)
}

// HandleGetPortfolioAssets handles GET /api/universe/portfolios/{versionID}/assets
func (h *UniverseHandlers) HandleGetPortfolioAssets(w http.ResponseWriter, r *http.Request, versionID string) {
	id, ok := h.parseVersionID(w, versionID)
	if !ok {
		return
	}

	version, err := h.assets.GetVersion(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_version_id", id).Msg("Failed to get portfolio version")
		h.writeError(w, http.StatusInternalServerError, "Failed to get portfolio version")
		return
	}
	if version == nil {
		h.writeError(w, http.StatusNotFound, "Portfolio version not found")
		return
	}

	h.writeJSON(w, http.StatusOK, version)
}

// HandleSetPortfolioAssets handles PUT /api/universe/portfolios/{versionID}/assets
func (h *UniverseHandlers) HandleSetPortfolioAssets(w http.ResponseWriter, r *http.Request, versionID string) {
	id, ok := h.parseVersionID(w, versionID)
	if !ok {
		return
	}

	var req SetAssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tickers, err := h.assets.SetTickers(r.Context(), id, req.Tickers)
	if err != nil {
		if errors.Is(err, universe.ErrInvalidTicker) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Int64("portfolio_version_id", id).Msg("Failed to set portfolio assets")
		h.writeError(w, http.StatusInternalServerError, "Failed to set portfolio assets")
		return
	}

	h.writeJSON(w, http.StatusOK, universe.PortfolioVersion{ID: id, Tickers: tickers})
}

// HandleImportPrices handles POST /api/universe/assets/{ticker}/prices with a
// CSV body (Date plus Close or Adj Close columns).
func (h *UniverseHandlers) HandleImportPrices(w http.ResponseWriter, r *http.Request, ticker string) {
	normalized := utils.NormalizeTickers([]string{ticker})
	if len(normalized) != 1 || universe.ValidateTicker(normalized[0]) != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid ticker")
		return
	}
	ticker = normalized[0]

	prices, err := universe.ParsePriceCSV(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.assets.EnsureAsset(r.Context(), ticker); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to create asset")
		h.writeError(w, http.StatusInternalServerError, "Failed to create asset")
		return
	}

	rows, rejected, err := h.importer.ImportPrices(r.Context(), ticker, prices, "csv")
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to import prices")
		h.writeError(w, http.StatusInternalServerError, "Failed to import prices")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":   ticker,
		"imported": rows,
		"rejected": rejected,
	})
}

func (h *UniverseHandlers) parseVersionID(w http.ResponseWriter, versionID string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(versionID), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid portfolio version id")
		return 0, false
	}
	return id, true
}

func (h *UniverseHandlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *UniverseHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
