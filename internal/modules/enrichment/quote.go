package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/statementworks/folio/internal/domain"
)

const defaultQuoteBaseURL = "https://query1.finance.yahoo.com/v7/finance/quote"

// QuoteSource answers from the public quote API. It is the cheap source
// and is always consulted first.
type QuoteSource struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewQuoteSource creates the quote source. An empty baseURL selects the
// public endpoint; tests point it at a local server.
func NewQuoteSource(baseURL string, log zerolog.Logger) *QuoteSource {
	if baseURL == "" {
		baseURL = defaultQuoteBaseURL
	}
	return &QuoteSource{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		log:     log.With().Str("client", "quote").Logger(),
	}
}

// Name identifies the source in logs and cache rows.
func (s *QuoteSource) Name() string { return "quote" }

// QuerySymbol converts a statement symbol to the quote API's convention.
// TSX trust units carry a .UN class suffix on statements but the API
// wants a dash plus the exchange suffix, so NWH.UN becomes NWH-UN.TO.
func QuerySymbol(symbol string) string {
	for _, class := range []string{".UN", ".B", ".A", ".U"} {
		if strings.HasSuffix(symbol, class) {
			base := strings.TrimSuffix(symbol, class)
			return base + "-" + strings.TrimPrefix(class, ".") + ".TO"
		}
	}
	if strings.HasSuffix(symbol, ".TO") || strings.HasSuffix(symbol, ".V") {
		return symbol
	}
	return symbol
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol    string `json:"symbol"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	Country   string `json:"country"`
	QuoteType string `json:"quoteType"`
	LongName  string `json:"longName"`
}

// Lookup fetches sector, industry and country for one symbol. A response
// that carries neither sector nor country is returned as nil: the source
// has no opinion and the next source gets a turn.
func (s *QuoteSource) Lookup(ctx context.Context, symbol, name, product string) (*domain.Enrichment, error) {
	result, err := s.fetchQuote(ctx, QuerySymbol(symbol))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	if result.Sector == "" && result.Country == "" {
		s.log.Debug().Str("symbol", symbol).Str("quote_type", result.QuoteType).
			Msg("Quote carries no classification fields")
		return nil, nil
	}

	enr := &domain.Enrichment{
		Sector:   result.Sector,
		Industry: result.Industry,
		Country:  result.Country,
	}
	// Both axes answered is a strong signal; one axis is still usable
	// but leaves more room for the fallback source to override.
	if result.Sector != "" && result.Country != "" {
		enr.Confidence = 0.9
	} else {
		enr.Confidence = 0.7
	}
	return enr, nil
}

func (s *QuoteSource) fetchQuote(ctx context.Context, symbol string) (*quoteResult, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,sector,industry,country,quoteType,longName")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("quote API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	if parsed.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote API error: %v", parsed.QuoteResponse.Error)
	}
	if len(parsed.QuoteResponse.Result) == 0 {
		return nil, nil
	}
	return &parsed.QuoteResponse.Result[0], nil
}
