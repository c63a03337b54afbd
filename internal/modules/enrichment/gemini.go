package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/statementworks/folio/internal/domain"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

const classifyPrompt = `You classify financial instruments. Given a ticker
symbol and whatever name or product text a brokerage statement provides,
answer with the instrument's economic sector, industry, issuer country and
the geographic region of its underlying exposure.

Respond with JSON only, no prose, in this shape:
{"sector": "...", "industry": "...", "country": "...", "region": "...", "confidence": 0.0}

Use confidence between 0 and 1 for how certain you are. Use an empty
string for any field you cannot determine.`

// GeminiSource is the expensive fallback: an LLM call for symbols the
// quote source could not classify.
type GeminiSource struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiSource creates the LLM source. Model may be empty to use the
// default.
func NewGeminiSource(ctx context.Context, apiKey, model string, log zerolog.Logger) (*GeminiSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiSource{
		client: client,
		model:  model,
		log:    log.With().Str("client", "gemini").Logger(),
	}, nil
}

// Name identifies the source in logs and cache rows.
func (s *GeminiSource) Name() string { return "llm" }

type llmAnswer struct {
	Sector     string  `json:"sector"`
	Industry   string  `json:"industry"`
	Country    string  `json:"country"`
	Region     string  `json:"region"`
	Confidence float64 `json:"confidence"`
}

// Lookup asks the model to classify one symbol. The model's own
// confidence passes through unchanged so the service threshold applies
// to it directly.
func (s *GeminiSource) Lookup(ctx context.Context, symbol, name, product string) (*domain.Enrichment, error) {
	question := fmt.Sprintf("Symbol: %s\nName: %s\nProduct: %s", symbol, name, product)
	contents := []*genai.Content{genai.NewContentFromText(question, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0)),
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(classifyPrompt, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, fmt.Errorf("model returned no text for %s", symbol)
	}

	var answer llmAnswer
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse model answer for %s: %w", symbol, err)
	}

	if answer.Sector == "" && answer.Country == "" && answer.Region == "" {
		s.log.Debug().Str("symbol", symbol).Msg("Model declined to classify")
		return nil, nil
	}

	return &domain.Enrichment{
		Sector:     answer.Sector,
		Industry:   answer.Industry,
		Region:     answer.Region,
		Country:    answer.Country,
		Confidence: answer.Confidence,
	}, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
