// Package enrichment fills classification gaps (sector, region) from
// external data sources. Sources are consulted in order, cheapest first;
// the pipeline never depends on enrichment succeeding, and a failure for
// one symbol never affects another.
package enrichment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/statementworks/folio/internal/domain"
)

const (
	// DefaultWorkers bounds concurrent lookups.
	DefaultWorkers = 4
	// DefaultTimeout is the per-call deadline.
	DefaultTimeout = 10 * time.Second
	// DefaultRateLimit is requests per second across all workers.
	DefaultRateLimit = 5
	// DefaultThreshold is the confidence below which an answer is
	// discarded and the next (more expensive) source is consulted.
	DefaultThreshold = 0.5
	// maxAttempts per source, with exponential backoff between attempts.
	maxAttempts = 2
)

// Source answers classification questions for a single symbol. A nil
// result with a nil error means the source has no opinion.
type Source interface {
	Name() string
	Lookup(ctx context.Context, symbol, name, product string) (*domain.Enrichment, error)
}

// Service orchestrates the ordered-fallback lookup chain over a shared
// cache and rate limiter.
type Service struct {
	sources   []Source
	cache     *Cache
	limiter   *rate.Limiter
	workers   int
	timeout   time.Duration
	threshold float64
	log       zerolog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithRateLimit sets lookups per second.
func WithRateLimit(rps int) Option {
	return func(s *Service) { s.limiter = rate.NewLimiter(rate.Limit(rps), rps) }
}

// WithThreshold sets the acceptance confidence.
func WithThreshold(t float64) Option {
	return func(s *Service) { s.threshold = t }
}

// NewService creates the enrichment service. Sources are tried in the
// order given; put the free source first.
func NewService(cache *Cache, log zerolog.Logger, sources []Source, opts ...Option) *Service {
	s := &Service{
		sources:   sources,
		cache:     cache,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		workers:   DefaultWorkers,
		timeout:   DefaultTimeout,
		threshold: DefaultThreshold,
		log:       log.With().Str("service", "enrichment").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request identifies one symbol needing enrichment.
type Request struct {
	Symbol  string
	Name    string
	Product string
}

// EnrichBatch resolves a set of symbols with bounded concurrency and
// returns whatever answers it found. Missing symbols simply stay absent;
// the caller degrades them to Unknown.
func (s *Service) EnrichBatch(ctx context.Context, requests []Request) map[string]domain.Enrichment {
	// Dedupe: the same symbol can appear in several accounts.
	unique := make(map[string]Request, len(requests))
	for _, req := range requests {
		if req.Symbol == "" {
			continue
		}
		if _, seen := unique[req.Symbol]; !seen {
			unique[req.Symbol] = req
		}
	}

	results := resultSet{m: make(map[string]domain.Enrichment, len(unique))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, req := range unique {
		req := req
		g.Go(func() error {
			if enr, ok := s.Enrich(gctx, req.Symbol, req.Name, req.Product); ok {
				results.put(req.Symbol, enr)
			}
			// Lookup failures degrade to Unknown; they never abort the batch.
			return nil
		})
	}
	// Workers only return nil; Wait is for the barrier.
	_ = g.Wait()

	return results.m
}

// Enrich resolves one symbol: cache first, then each source in order with
// retries and a per-call timeout. Returns false when no source produced
// an answer at or above the confidence threshold.
func (s *Service) Enrich(ctx context.Context, symbol, name, product string) (domain.Enrichment, bool) {
	if enr, ok := s.cache.Get(symbol); ok {
		return enr, true
	}

	for _, source := range s.sources {
		enr, err := s.lookupWithRetry(ctx, source, symbol, name, product)
		if err != nil {
			s.log.Warn().Err(err).
				Str("symbol", symbol).
				Str("source", source.Name()).
				Msg("Enrichment source failed")
			continue
		}
		if enr == nil {
			continue
		}
		if enr.Confidence < s.threshold {
			s.log.Debug().
				Str("symbol", symbol).
				Str("source", source.Name()).
				Float64("confidence", enr.Confidence).
				Msg("Answer below threshold, trying next source")
			continue
		}
		enr.Source = source.Name()
		s.cache.Put(symbol, *enr)
		return *enr, true
	}

	return domain.Enrichment{}, false
}

func (s *Service) lookupWithRetry(ctx context.Context, source Source, symbol, name, product string) (*domain.Enrichment, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		enr, err := source.Lookup(callCtx, symbol, name, product)
		cancel()
		if err == nil {
			return enr, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	return nil, lastErr
}

// resultSet is a mutex-guarded map for collecting worker results.
type resultSet struct {
	mu sync.Mutex
	m  map[string]domain.Enrichment
}

func (r *resultSet) put(k string, v domain.Enrichment) {
	r.mu.Lock()
	r.m[k] = v
	r.mu.Unlock()
}
