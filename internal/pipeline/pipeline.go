// Package pipeline runs one classification pass end to end: validate the
// raw input, normalize, classify, enrich what the rules left Unknown,
// compute base-currency metrics and aggregate rollups.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/statementworks/folio/internal/domain"
	"github.com/statementworks/folio/internal/modules/classifier"
	"github.com/statementworks/folio/internal/modules/enrichment"
	"github.com/statementworks/folio/internal/modules/metrics"
	"github.com/statementworks/folio/internal/modules/normalizer"
	"github.com/statementworks/folio/internal/modules/rollup"
)

// FatalInputError means the input is structurally unusable: the run is
// aborted rather than producing a document from garbage. Per-field parse
// failures inside records are not fatal; those degrade with warnings.
type FatalInputError struct {
	err error
}

func (e *FatalInputError) Error() string {
	return fmt.Sprintf("fatal input error: %v", e.err)
}

func (e *FatalInputError) Unwrap() error { return e.err }

// Enricher resolves external classifications for a batch of symbols.
// Implemented by the enrichment service; nil disables the stage.
type Enricher interface {
	EnrichBatch(ctx context.Context, requests []enrichment.Request) map[string]domain.Enrichment
}

// Result is one complete run: every holding fully classified and priced,
// plus the aggregated rollups.
type Result struct {
	RunID       string                   `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Holdings    []domain.EnrichedHolding `json:"holdings"`
	Summaries   []domain.AccountSummary  `json:"account_summaries"`
	Rollups     domain.Rollups           `json:"rollups"`
}

// Pipeline owns the stage services. Construct once, run per input batch.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	classifier *classifier.Classifier
	calculator *metrics.Calculator
	aggregator *rollup.Aggregator
	enricher   Enricher
	validate   *validator.Validate
	log        zerolog.Logger
}

// New creates a pipeline. A nil enricher skips the enrichment stage; the
// rule cascade's Unknowns then go straight to the exception report.
func New(rules classifier.Rules, enricher Enricher, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		normalizer: normalizer.New(log),
		classifier: classifier.New(rules, log),
		calculator: metrics.New(log),
		aggregator: rollup.New(log),
		enricher:   enricher,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log.With().Str("service", "pipeline").Logger(),
	}
}

// Run executes one pass. The same input always produces the same output
// apart from RunID and timestamps; enrichment answers are cached, so a
// re-run with a warm cache is deterministic too.
func (p *Pipeline) Run(ctx context.Context, input domain.Input) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := p.log.With().Str("run_id", runID).Logger()

	if err := p.validate.Struct(input); err != nil {
		return nil, &FatalInputError{err: err}
	}

	summaries := make([]domain.AccountSummary, len(input.Summaries))
	for i, raw := range input.Summaries {
		summaries[i] = p.normalizer.NormalizeSummary(raw)
	}

	holdings, err := p.classifyAll(ctx, input.Holdings)
	if err != nil {
		return nil, err
	}

	p.enrichUnknowns(ctx, holdings, log)

	holdings = p.calculator.Compute(holdings, summaries)
	rollups := p.aggregator.Aggregate(holdings, summaries)

	log.Info().
		Int("holdings", len(holdings)).
		Int("accounts", len(summaries)).
		Int("exceptions", len(rollups.Exceptions)).
		Dur("duration", time.Since(start)).
		Msg("Run complete")

	return &Result{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Holdings:    holdings,
		Summaries:   summaries,
		Rollups:     rollups,
	}, nil
}

// classifyAll normalizes and classifies every record with bounded
// parallelism. Output order matches input order.
func (p *Pipeline) classifyAll(ctx context.Context, records []domain.RawHoldingRecord) ([]domain.EnrichedHolding, error) {
	holdings := make([]domain.EnrichedHolding, len(records))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, raw := range records {
		i, raw := i, raw
		g.Go(func() error {
			normalized := p.normalizer.Normalize(raw)
			holdings[i] = domain.EnrichedHolding{
				NormalizedHolding: normalized,
				Classification:    p.classifier.Classify(normalized),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}
	return holdings, nil
}

// enrichUnknowns sends holdings with unresolved sector or region to the
// external sources and folds accepted answers back in. Failures leave the
// holding as the cascade classified it.
func (p *Pipeline) enrichUnknowns(ctx context.Context, holdings []domain.EnrichedHolding, log zerolog.Logger) {
	if p.enricher == nil {
		return
	}

	var requests []enrichment.Request
	indexBySymbol := make(map[string][]int)
	for i, h := range holdings {
		if h.Symbol == "" || h.Classification.AssetType == domain.AssetTypeAccountPlanPlaceholder {
			continue
		}
		if h.Classification.Sector != domain.SectorUnknown && h.Classification.IssuerRegion != domain.RegionUnknown {
			continue
		}
		if _, seen := indexBySymbol[h.Symbol]; !seen {
			requests = append(requests, enrichment.Request{
				Symbol:  h.Symbol,
				Name:    h.Name,
				Product: h.ProductLabel,
			})
		}
		indexBySymbol[h.Symbol] = append(indexBySymbol[h.Symbol], i)
	}
	if len(requests) == 0 {
		return
	}

	log.Debug().Int("symbols", len(requests)).Msg("Enriching unresolved holdings")
	answers := p.enricher.EnrichBatch(ctx, requests)

	enriched := 0
	for symbol, enr := range answers {
		for _, i := range indexBySymbol[symbol] {
			holdings[i].Classification = classifier.ApplyEnrichment(holdings[i].Classification, enr)
			enriched++
		}
	}
	log.Info().
		Int("requested", len(requests)).
		Int("answered", len(answers)).
		Int("holdings_updated", enriched).
		Msg("Enrichment pass complete")
}
