package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/polisight/polisight/internal/models"
)

// ClaudeAnalyzer analyzes post content with the Anthropic Messages API.
type ClaudeAnalyzer struct {
	client anthropic.Client
	model  string
	logger *slog.Logger
}

// NewClaudeAnalyzer creates an analyzer backed by the given model.
func NewClaudeAnalyzer(apiKey, model string, logger *slog.Logger) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

func (a *ClaudeAnalyzer) ModelName() string {
	return a.model
}

// Analyze sends the text to the model and parses the JSON it returns.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, text string, types []models.AnalysisType) (*Result, error) {
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(text, types))),
		},
	}

	resp, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var raw string
	for _, block := range resp.Content {
		if block.Type == "text" {
			raw = block.Text
			break
		}
	}
	if raw == "" {
		return nil, fmt.Errorf("no text content in model response")
	}

	result, err := parseResult(raw)
	if err != nil {
		a.logger.Warn("unparseable model response", "model", a.model, "error", err)
		return nil, err
	}
	return result, nil
}

// parseResult decodes the model's JSON answer, tolerating code fences.
func parseResult(raw string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	if result.SentimentScore < -1 || result.SentimentScore > 1 {
		return nil, fmt.Errorf("sentiment score %f out of range", result.SentimentScore)
	}
	return &result, nil
}
