// Package handlers provides HTTP handlers for historical data operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/frontier/internal/modules/universe"
	"github.com/aristath/frontier/internal/utils"
	"github.com/rs/zerolog"
)

const defaultLimit = 100

// Handler handles historical data HTTP requests
type Handler struct {
	historyDB *universe.HistoryDB
	log       zerolog.Logger
}

// NewHandler creates a new historical data handler
func NewHandler(
	historyDB *universe.HistoryDB,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		historyDB: historyDB,
		log:       log.With().Str("handler", "historical").Logger(),
	}
}

// HandleGetDailyPrices handles GET /api/historical/prices/daily/{ticker}
func (h *Handler) HandleGetDailyPrices(w http.ResponseWriter, r *http.Request, ticker string) {
	limit := parseLimit(r, defaultLimit)

	prices, err := h.historyDB.GetDailyPrices(ticker, limit)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get daily prices")
		http.Error(w, "Failed to get daily prices", http.StatusInternalServerError)
		return
	}

	h.writeData(w, map[string]interface{}{
		"ticker": ticker,
		"prices": prices,
		"count":  len(prices),
	})
}

// HandleGetLatestPrice handles GET /api/historical/prices/latest/{ticker}
func (h *Handler) HandleGetLatestPrice(w http.ResponseWriter, r *http.Request, ticker string) {
	prices, err := h.historyDB.GetDailyPrices(ticker, 1)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get latest price")
		http.Error(w, "Failed to get latest price", http.StatusInternalServerError)
		return
	}

	var latestPrice interface{}
	if len(prices) > 0 {
		latestPrice = prices[0]
	}

	h.writeData(w, map[string]interface{}{
		"ticker": ticker,
		"price":  latestPrice,
	})
}

// HandleGetPriceRange handles GET /api/historical/prices/range?tickers=A,B&from&to
// and returns the date-joined closes the optimizer would see.
func (h *Handler) HandleGetPriceRange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tickers := utils.NormalizeTickers(utils.ParseCSV(query.Get("tickers")))
	if len(tickers) == 0 {
		http.Error(w, "tickers parameter is required", http.StatusBadRequest)
		return
	}

	from, err := time.Parse(utils.DateLayout, query.Get("from"))
	if err != nil {
		http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to := time.Now().UTC()
	if v := query.Get("to"); v != "" {
		if to, err = time.Parse(utils.DateLayout, v); err != nil {
			http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	table, err := h.historyDB.ReadPrices(r.Context(), tickers, from, to)
	if err != nil {
		h.log.Error().Err(err).Strs("tickers", tickers).Msg("Failed to read price range")
		http.Error(w, "Failed to read price range", http.StatusInternalServerError)
		return
	}

	dates := make([]string, table.Len())
	closes := make([][]float64, table.Len())
	for i := range dates {
		dates[i] = table.Date(i).Format(utils.DateLayout)
		row := make([]float64, table.Width())
		for j := range row {
			row[j] = table.At(i, j)
		}
		closes[i] = row
	}

	h.writeData(w, map[string]interface{}{
		"tickers": table.Tickers(),
		"dates":   dates,
		"closes":  closes,
		"count":   len(dates),
	})
}

// HandleGetDailyReturns handles GET /api/historical/returns/daily/{ticker}
func (h *Handler) HandleGetDailyReturns(w http.ResponseWriter, r *http.Request, ticker string) {
	limit := parseLimit(r, defaultLimit)

	prices, err := h.historyDB.GetDailyPrices(ticker, limit+1) // Need one extra for return calculation
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get daily prices")
		http.Error(w, "Failed to get daily prices", http.StatusInternalServerError)
		return
	}

	returns := calculateReturns(prices)

	h.writeData(w, map[string]interface{}{
		"ticker":  ticker,
		"returns": returns,
		"count":   len(returns),
	})
}

// HandleGetCoverage handles GET /api/historical/coverage
func (h *Handler) HandleGetCoverage(w http.ResponseWriter, r *http.Request) {
	counts, err := h.historyDB.CountPrices(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count prices")
		http.Error(w, "Failed to count prices", http.StatusInternalServerError)
		return
	}

	h.writeData(w, map[string]interface{}{
		"tickers": counts,
	})
}

func parseLimit(r *http.Request, fallback int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			return parsedLimit
		}
	}
	return fallback
}

func (h *Handler) writeData(w http.ResponseWriter, data map[string]interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// calculateReturns calculates percentage returns from a newest-first price series
func calculateReturns(prices []universe.DailyPrice) []map[string]interface{} {
	returns := make([]map[string]interface{}, 0)

	for i := 0; i < len(prices)-1; i++ {
		currentPrice := prices[i].Close
		previousPrice := prices[i+1].Close

		if previousPrice > 0 {
			returnPct := ((currentPrice - previousPrice) / previousPrice) * 100
			returns = append(returns, map[string]interface{}{
				"date":   prices[i].Date,
				"return": returnPct,
			})
		}
	}

	return returns
}
