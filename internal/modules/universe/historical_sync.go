package universe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultLookbackDays is the history fetched for a ticker with no stored prices.
	DefaultLookbackDays = 5 * 365
	// DefaultSyncWorkers bounds concurrent provider requests.
	DefaultSyncWorkers = 4
)

// SyncOptions tune a HistoricalSyncService. Zero values use the defaults.
type SyncOptions struct {
	LookbackDays   int
	Workers        int
	RateLimitDelay time.Duration
	Source         string
}

// HistoricalSyncService pulls daily prices from a provider into the history
// database for every known ticker.
type HistoricalSyncService struct {
	fetcher        HistoricalDataFetcher
	assets         AssetStore
	historyDB      HistoryDBInterface
	priceValidator *PriceValidator
	lookbackDays   int
	workers        int
	rateLimitDelay time.Duration
	source         string
	onSynced       func()
	now            func() time.Time
	log            zerolog.Logger
}

// NewHistoricalSyncService creates a new historical sync service
func NewHistoricalSyncService(
	fetcher HistoricalDataFetcher,
	assets AssetStore,
	historyDB HistoryDBInterface,
	priceValidator *PriceValidator,
	opts SyncOptions,
	log zerolog.Logger,
) *HistoricalSyncService {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultSyncWorkers
	}
	if opts.Source == "" {
		opts.Source = "yahoo"
	}
	if priceValidator == nil {
		priceValidator = NewPriceValidator(log)
	}
	return &HistoricalSyncService{
		fetcher:        fetcher,
		assets:         assets,
		historyDB:      historyDB,
		priceValidator: priceValidator,
		lookbackDays:   opts.LookbackDays,
		workers:        opts.Workers,
		rateLimitDelay: opts.RateLimitDelay,
		source:         opts.Source,
		now:            time.Now,
		log:            log.With().Str("service", "historical_sync").Logger(),
	}
}

// OnSynced registers a callback run after any sync that stored new prices.
// Used to invalidate cached frontiers.
func (s *HistoricalSyncService) OnSynced(fn func()) {
	s.onSynced = fn
}

// SyncAll syncs every ticker known to the asset store. A failing ticker is
// recorded in the report and does not stop the others.
func (s *HistoricalSyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	tickers, err := s.assets.AllTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}

	report := &SyncReport{Tickers: len(tickers), Failed: map[string]string{}}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			rows, rejected, err := s.SyncTicker(ctx, ticker)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed[ticker] = err.Error()
				s.log.Error().Err(err).Str("ticker", ticker).Msg("Historical price sync failed")
			case rows == 0:
				report.Skipped++
			default:
				report.Synced++
			}
			report.Rows += rows
			report.Rejected += rejected
			return nil
		})
	}
	_ = g.Wait()

	// Rows stored before a cancellation still count.
	if report.Rows > 0 && s.onSynced != nil {
		s.onSynced()
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	s.log.Info().
		Int("tickers", report.Tickers).
		Int("synced", report.Synced).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Int("rows", report.Rows).
		Msg("Historical sync complete")

	return report, nil
}

// SyncTicker fetches prices for ticker newer than the last stored date, or
// the configured lookback when nothing is stored yet. Returns the stored and
// rejected row counts.
func (s *HistoricalSyncService) SyncTicker(ctx context.Context, ticker string) (int, int, error) {
	now := s.now().UTC()

	latest, ok, err := s.historyDB.LatestDate(ctx, ticker)
	if err != nil {
		return 0, 0, err
	}
	start := now.AddDate(0, 0, -s.lookbackDays)
	if ok {
		start = latest.AddDate(0, 0, 1)
	}
	if start.After(now) {
		s.log.Debug().Str("ticker", ticker).Msg("Prices up to date")
		return 0, 0, nil
	}

	fetched, err := s.fetcher.GetHistoricalPrices(ctx, ticker, start, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch historical prices: %w", err)
	}
	defer s.rateLimit(ctx)

	if len(fetched) == 0 {
		s.log.Warn().Str("ticker", ticker).Str("source", s.source).Msg("No price data returned")
		return 0, 0, nil
	}

	prices := make([]DailyPrice, len(fetched))
	for i, p := range fetched {
		prices[i] = p.ToDailyPrice()
	}

	return s.store(ctx, ticker, prices, s.source)
}

// ImportPrices validates and stores prices from a non-provider source such as
// a CSV file. The OnSynced callback runs when rows were stored.
func (s *HistoricalSyncService) ImportPrices(ctx context.Context, ticker string, prices []DailyPrice, source string) (int, int, error) {
	rows, rejected, err := s.store(ctx, ticker, prices, source)
	if err != nil {
		return rows, rejected, err
	}
	if rows > 0 && s.onSynced != nil {
		s.onSynced()
	}
	return rows, rejected, nil
}

func (s *HistoricalSyncService) store(ctx context.Context, ticker string, prices []DailyPrice, source string) (int, int, error) {
	accepted, rejections := s.priceValidator.Validate(prices)
	if len(rejections) > 0 {
		s.log.Warn().
			Str("ticker", ticker).
			Int("rejected_count", len(rejections)).
			Msg("Rejected abnormal prices")
	}
	if len(accepted) == 0 {
		return 0, len(rejections), nil
	}

	if err := s.historyDB.SyncHistoricalPrices(ticker, accepted, source); err != nil {
		return 0, len(rejections), fmt.Errorf("failed to sync historical prices to database: %w", err)
	}
	if err := s.assets.MarkSynced(ctx, ticker, s.now()); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to record sync time")
	}

	return len(accepted), len(rejections), nil
}

func (s *HistoricalSyncService) rateLimit(ctx context.Context) {
	if s.rateLimitDelay <= 0 {
		return
	}
	select {
	case <-time.After(s.rateLimitDelay):
	case <-ctx.Done():
	}
}
