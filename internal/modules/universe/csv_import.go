package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// csvDateLayouts are the date formats accepted in price CSV files.
var csvDateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006"}

// ParsePriceCSV reads daily prices from a CSV export with a header row.
// A Date column and either Adj Close or Close are required; Open, High, Low
// and Volume are read when present. Column names are matched case-insensitively.
func ParsePriceCSV(r io.Reader) ([]DailyPrice, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	cols := parseCSVHeader(records[0])
	dateIdx, ok := cols["date"]
	if !ok {
		return nil, fmt.Errorf("CSV is missing a Date column")
	}
	closeIdx, ok := cols["adj close"]
	if !ok {
		closeIdx, ok = cols["close"]
	}
	if !ok {
		return nil, fmt.Errorf("CSV is missing a Close column")
	}

	prices := make([]DailyPrice, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) <= dateIdx || len(record) <= closeIdx {
			return nil, fmt.Errorf("line %d: expected at least %d fields", line+2, max(dateIdx, closeIdx)+1)
		}

		date, err := parseCSVDate(record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+2, err)
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid close %q", line+2, record[closeIdx])
		}

		p := DailyPrice{
			Date:  date,
			Close: closePrice,
			Open:  optionalFloat(record, cols, "open"),
			High:  optionalFloat(record, cols, "high"),
			Low:   optionalFloat(record, cols, "low"),
		}
		if idx, ok := cols["volume"]; ok && idx < len(record) {
			if v, err := strconv.ParseInt(strings.TrimSpace(record[idx]), 10, 64); err == nil {
				p.Volume = &v
			}
		}
		prices = append(prices, p)
	}

	return prices, nil
}

func parseCSVHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		cols[name] = i
	}
	return cols
}

func parseCSVDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", value)
}

func optionalFloat(record []string, cols map[string]int, name string) float64 {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return 0
	}
	return v
}
