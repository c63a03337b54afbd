package enrichment

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statementworks/folio/internal/domain"
)

// fakeSource returns canned answers and counts calls.
type fakeSource struct {
	name    string
	answers map[string]*domain.Enrichment
	err     error
	calls   atomic.Int64
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(ctx context.Context, symbol, name, product string) (*domain.Enrichment, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.answers[symbol], nil
}

func memCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(nil, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestEnrich_FirstSourceWins(t *testing.T) {
	primary := &fakeSource{name: "quote", answers: map[string]*domain.Enrichment{
		"AAPL": {Sector: "Technology", Country: "United States", Confidence: 0.9},
	}}
	fallback := &fakeSource{name: "llm"}

	s := NewService(memCache(t), zerolog.Nop(), []Source{primary, fallback}, WithRateLimit(1000))

	enr, ok := s.Enrich(context.Background(), "AAPL", "Apple Inc", "Common Shares")
	require.True(t, ok)
	assert.Equal(t, "Technology", enr.Sector)
	assert.Equal(t, "quote", enr.Source)
	assert.Equal(t, int64(0), fallback.calls.Load(), "fallback must not be consulted")
}

func TestEnrich_FallsBackOnNoOpinionAndError(t *testing.T) {
	// First source has no opinion, second errors, third answers.
	empty := &fakeSource{name: "quote"}
	broken := &fakeSource{name: "broken", err: errors.New("boom")}
	llm := &fakeSource{name: "llm", answers: map[string]*domain.Enrichment{
		"ZZZZ": {Sector: "Industrials", Region: "Europe", Confidence: 0.7},
	}}

	s := NewService(memCache(t), zerolog.Nop(), []Source{empty, broken, llm}, WithRateLimit(1000))

	enr, ok := s.Enrich(context.Background(), "ZZZZ", "Mystery Corp", "")
	require.True(t, ok)
	assert.Equal(t, "llm", enr.Source)
	assert.Equal(t, int64(1), empty.calls.Load())
	// Errors are retried before giving up on a source.
	assert.Equal(t, int64(2), broken.calls.Load())
}

func TestEnrich_BelowThresholdTriesNextSource(t *testing.T) {
	weak := &fakeSource{name: "quote", answers: map[string]*domain.Enrichment{
		"XYZ": {Sector: "Energy", Confidence: 0.3},
	}}
	strong := &fakeSource{name: "llm", answers: map[string]*domain.Enrichment{
		"XYZ": {Sector: "Energy", Region: "Canada", Confidence: 0.8},
	}}

	s := NewService(memCache(t), zerolog.Nop(), []Source{weak, strong},
		WithRateLimit(1000), WithThreshold(0.5))

	enr, ok := s.Enrich(context.Background(), "XYZ", "", "")
	require.True(t, ok)
	assert.Equal(t, "llm", enr.Source)
	assert.InDelta(t, 0.8, enr.Confidence, 1e-9)
}

func TestEnrich_NoAnswerAnywhere(t *testing.T) {
	s := NewService(memCache(t), zerolog.Nop(), []Source{&fakeSource{name: "quote"}}, WithRateLimit(1000))

	_, ok := s.Enrich(context.Background(), "NOPE", "", "")
	assert.False(t, ok)
}

func TestEnrich_CacheShortCircuitsSources(t *testing.T) {
	cache := memCache(t)
	cache.Put("AAPL", domain.Enrichment{Sector: "Technology", Confidence: 0.9, Source: "quote"})

	source := &fakeSource{name: "quote"}
	s := NewService(cache, zerolog.Nop(), []Source{source}, WithRateLimit(1000))

	enr, ok := s.Enrich(context.Background(), "AAPL", "", "")
	require.True(t, ok)
	assert.Equal(t, "Technology", enr.Sector)
	assert.Equal(t, int64(0), source.calls.Load())
}

func TestEnrichBatch_DedupesSymbols(t *testing.T) {
	source := &fakeSource{name: "quote", answers: map[string]*domain.Enrichment{
		"ENB": {Sector: "Energy", Country: "Canada", Confidence: 0.9},
	}}
	s := NewService(memCache(t), zerolog.Nop(), []Source{source}, WithRateLimit(1000))

	answers := s.EnrichBatch(context.Background(), []Request{
		{Symbol: "ENB", Name: "Enbridge Inc"},
		{Symbol: "ENB", Name: "Enbridge Inc"}, // same symbol in another account
		{Symbol: ""},                          // cash rows are never requested
	})

	require.Len(t, answers, 1)
	assert.Equal(t, "Energy", answers["ENB"].Sector)
	assert.Equal(t, int64(1), source.calls.Load())
}

func TestEnrichBatch_MissingSymbolsStayAbsent(t *testing.T) {
	source := &fakeSource{name: "quote", answers: map[string]*domain.Enrichment{
		"ENB": {Sector: "Energy", Confidence: 0.9},
	}}
	s := NewService(memCache(t), zerolog.Nop(), []Source{source}, WithRateLimit(1000))

	answers := s.EnrichBatch(context.Background(), []Request{
		{Symbol: "ENB"},
		{Symbol: "NOPE"},
	})

	assert.Len(t, answers, 1)
	_, found := answers["NOPE"]
	assert.False(t, found)
}

func TestCache_FirstWriteWins(t *testing.T) {
	c := memCache(t)

	c.Put("ENB", domain.Enrichment{Sector: "Energy", Confidence: 0.9})
	c.Put("ENB", domain.Enrichment{Sector: "Utilities", Confidence: 0.4})

	enr, ok := c.Get("ENB")
	require.True(t, ok)
	assert.Equal(t, "Energy", enr.Sector)
	assert.Equal(t, 1, c.Len())
}

func TestCache_MemoryOnlyFlushIsNoop(t *testing.T) {
	c := memCache(t)
	c.Put("ENB", domain.Enrichment{Sector: "Energy", Confidence: 0.9})
	assert.NoError(t, c.Flush())
}
