package universe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/utils"
	"github.com/rs/zerolog"
)

// tickerPattern accepts provider symbols such as AAPL, BRK-B, VOW3.DE, ^GSPC
// and EURUSD=X.
var tickerPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,19}$`)

// ErrInvalidTicker is returned for tickers the providers cannot resolve.
var ErrInvalidTicker = errors.New("invalid ticker")

// ValidateTicker reports whether ticker is a well-formed, normalized symbol.
func ValidateTicker(ticker string) error {
	if !tickerPattern.MatchString(ticker) {
		return fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	return nil
}

// AssetRepository handles assets and portfolio versions in the universe database
type AssetRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *sql.DB, log zerolog.Logger) *AssetRepository {
	return &AssetRepository{
		db:  db,
		log: log.With().Str("repo", "asset").Logger(),
	}
}

// ListTickers returns the tickers of a portfolio version in position order.
// An unknown version yields an empty slice.
func (r *AssetRepository) ListTickers(ctx context.Context, portfolioVersionID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pa.ticker
		FROM portfolio_assets pa
		JOIN assets a ON a.ticker = pa.ticker
		WHERE pa.portfolio_version_id = ?
		ORDER BY pa.position
	`, portfolioVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio assets: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio asset: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio assets: %w", err)
	}

	return tickers, nil
}

// SetTickers replaces the members of a portfolio version, creating the version
// and any unknown assets. Tickers are normalized first; the stored list is
// returned.
func (r *AssetRepository) SetTickers(ctx context.Context, portfolioVersionID int64, tickers []string) ([]string, error) {
	if portfolioVersionID <= 0 {
		return nil, fmt.Errorf("invalid portfolio version id %d", portfolioVersionID)
	}

	normalized := utils.NormalizeTickers(tickers)
	for _, ticker := range normalized {
		if err := ValidateTicker(ticker); err != nil {
			return nil, err
		}
	}

	now := time.Now().Unix()
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO portfolio_versions (id, name, created_at, updated_at)
			VALUES (?, '', ?, ?)
			ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
		`, portfolioVersionID, now, now); err != nil {
			return fmt.Errorf("failed to upsert portfolio version: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM portfolio_assets WHERE portfolio_version_id = ?", portfolioVersionID,
		); err != nil {
			return fmt.Errorf("failed to clear portfolio assets: %w", err)
		}

		for position, ticker := range normalized {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO assets (ticker, name, created_at) VALUES (?, '', ?)", ticker, now,
			); err != nil {
				return fmt.Errorf("failed to insert asset %s: %w", ticker, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO portfolio_assets (portfolio_version_id, ticker, position)
				VALUES (?, ?, ?)
			`, portfolioVersionID, ticker, position); err != nil {
				return fmt.Errorf("failed to insert portfolio asset %s: %w", ticker, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Int64("portfolio_version_id", portfolioVersionID).
		Int("assets", len(normalized)).
		Msg("Updated portfolio version assets")

	return normalized, nil
}

// GetVersion returns a portfolio version with its tickers, or nil if it does
// not exist.
func (r *AssetRepository) GetVersion(ctx context.Context, id int64) (*PortfolioVersion, error) {
	version := PortfolioVersion{ID: id}
	err := r.db.QueryRowContext(ctx,
		"SELECT name FROM portfolio_versions WHERE id = ?", id,
	).Scan(&version.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio version %d: %w", id, err)
	}

	version.Tickers, err = r.ListTickers(ctx, id)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// EnsureAsset creates the asset if it does not exist yet.
func (r *AssetRepository) EnsureAsset(ctx context.Context, ticker string) error {
	if err := ValidateTicker(ticker); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO assets (ticker, name, created_at) VALUES (?, '', ?)", ticker, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset %s: %w", ticker, err)
	}
	return nil
}

// GetAll returns every asset ordered by ticker.
func (r *AssetRepository) GetAll(ctx context.Context) ([]Asset, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT ticker, name, last_synced FROM assets ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		var lastSynced sql.NullInt64
		if err := rows.Scan(&a.Ticker, &a.Name, &lastSynced); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		if lastSynced.Valid {
			a.LastSynced = &lastSynced.Int64
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// AllTickers returns every known ticker.
func (r *AssetRepository) AllTickers(ctx context.Context) ([]string, error) {
	assets, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, len(assets))
	for i, a := range assets {
		tickers[i] = a.Ticker
	}
	return tickers, nil
}

// MarkSynced records the time of the last successful price sync for ticker.
func (r *AssetRepository) MarkSynced(ctx context.Context, ticker string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE assets SET last_synced = ? WHERE ticker = ?", at.Unix(), ticker)
	if err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", ticker, err)
	}
	return nil
}
