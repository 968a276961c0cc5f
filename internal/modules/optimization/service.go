package optimization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// DateLayout is the request date format.
	DateLayout = "2006-01-02"

	frontierCacheKind = "frontier"
	// DefaultCacheTTL is used when SetCache is given a non-positive TTL.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultComputeTimeout bounds one shared frontier computation.
	DefaultComputeTimeout = 2 * time.Minute
)

// Request identifies one optimisation run.
type Request struct {
	PortfolioVersionID int64
	DateFrom           time.Time
	DateTo             time.Time
}

// ParseRequest builds a Request from its textual parts. Dates use DateLayout.
func ParseRequest(versionID int64, dateFrom, dateTo string) (Request, error) {
	from, err := time.Parse(DateLayout, dateFrom)
	if err != nil {
		return Request{}, fmt.Errorf("invalid dateFrom %q: %w", dateFrom, err)
	}
	to, err := time.Parse(DateLayout, dateTo)
	if err != nil {
		return Request{}, fmt.Errorf("invalid dateTo %q: %w", dateTo, err)
	}
	if to.Before(from) {
		return Request{}, fmt.Errorf("dateTo %s is before dateFrom %s", dateTo, dateFrom)
	}
	return Request{PortfolioVersionID: versionID, DateFrom: from, DateTo: to}, nil
}

// OptimizerService resolves a portfolio version to its tickers, loads their
// prices and runs the frontier pipeline.
type OptimizerService struct {
	assets   AssetLister
	prices   PriceReader
	pipeline *Pipeline
	cache    ResultCache
	cacheTTL time.Duration
	timeout  time.Duration
	group    singleflight.Group
	log      zerolog.Logger

	// mu guards generation and orders cache writes against Invalidate.
	mu         sync.Mutex
	generation uint64
}

// NewOptimizerService creates the optimizer service.
func NewOptimizerService(assets AssetLister, prices PriceReader, optimizer *MVOptimizer, log zerolog.Logger) *OptimizerService {
	return &OptimizerService{
		assets:   assets,
		prices:   prices,
		pipeline: NewPipeline(optimizer, log),
		timeout:  DefaultComputeTimeout,
		log:      log.With().Str("service", "optimizer").Logger(),
	}
}

// SetCache enables result caching.
func (s *OptimizerService) SetCache(cache ResultCache, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s.cache = cache
	s.cacheTTL = ttl
}

// SetComputeTimeout bounds each shared computation. Non-positive values
// restore DefaultComputeTimeout.
func (s *OptimizerService) SetComputeTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultComputeTimeout
	}
	s.timeout = d
}

// Invalidate drops every cached frontier. Computations already running when
// it is called no longer write their results to the cache.
func (s *OptimizerService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

func (s *OptimizerService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Optimize computes the efficient frontier for req. A portfolio version with
// no assets returns an empty Response.
//
// Identical concurrent requests share one computation. It is detached from
// any caller's cancellation and bounded by the compute timeout; each caller
// stops waiting when its own context is done.
func (s *OptimizerService) Optimize(ctx context.Context, req Request) (*Response, error) {
	tickers, err := s.assets.ListTickers(ctx, req.PortfolioVersionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets for portfolio version %d: %w", req.PortfolioVersionID, err)
	}
	if len(tickers) == 0 {
		s.log.Debug().Int64("portfolio_version_id", req.PortfolioVersionID).Msg("Portfolio version has no assets")
		return &Response{}, nil
	}

	key := CacheKey(req, tickers)
	if resp, ok := s.cached(key); ok {
		return resp, nil
	}

	gen := s.currentGeneration()
	flight := s.group.DoChan(fmt.Sprintf("%s/%d", key, gen), func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.compute(cctx, req, tickers, key, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Debug().Str("key", key).Msg("Shared in-flight frontier computation")
		}
		return res.Val.(*Response), nil
	}
}

func (s *OptimizerService) compute(ctx context.Context, req Request, tickers []string, key string, gen uint64) (*Response, error) {
	start := time.Now()
	log := s.log.With().
		Str("run_id", uuid.New().String()).
		Int64("portfolio_version_id", req.PortfolioVersionID).
		Logger()

	prices, err := s.prices.ReadPrices(ctx, tickers, req.DateFrom, req.DateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to read prices: %w", err)
	}

	result, err := s.pipeline.Run(ctx, tickers, prices)
	if err != nil {
		log.Warn().Err(err).Int("assets", len(tickers)).Msg("Frontier computation failed")
		return nil, err
	}

	resp := NewResponse(result)
	s.store(key, gen, resp)

	log.Info().
		Int("assets", len(tickers)).
		Int("return_rows", result.ReturnRows).
		Int("dropped_rows", result.DroppedRows).
		Int("portfolios", result.Frontier.Len()).
		Dur("duration", time.Since(start)).
		Msg("Computed efficient frontier")

	return resp, nil
}

func (s *OptimizerService) cached(key string) (*Response, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok := s.cache.GetOptimizer(frontierCacheKind, key)
	if !ok {
		return nil, false
	}
	var resp Response
	if err := msgpack.Unmarshal(data, &resp); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cached frontier")
		return nil, false
	}
	return &resp, true
}

func (s *OptimizerService) store(key string, gen uint64, resp *Response) {
	if s.cache == nil {
		return
	}
	data, err := msgpack.Marshal(resp)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode frontier for cache")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug().Str("key", key).Msg("Prices changed during computation, not caching frontier")
		return
	}
	if err := s.cache.SetOptimizer(frontierCacheKind, key, data, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache frontier")
	}
}

// CacheKey identifies a request together with the tickers it resolved to, so
// that editing a portfolio version never serves a stale frontier.
func CacheKey(req Request, tickers []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s",
		req.PortfolioVersionID,
		strings.Join(tickers, ","),
		req.DateFrom.Format(DateLayout),
		req.DateTo.Format(DateLayout),
	)
	return hex.EncodeToString(h.Sum(nil))
}
