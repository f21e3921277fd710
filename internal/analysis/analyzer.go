package analysis

import (
	"context"

	"github.com/polisight/polisight/internal/models"
)

// Result is the parsed output of one content analysis call.
type Result struct {
	SentimentScore    float64  `json:"sentiment_score"`
	EmotionalTone     string   `json:"emotional_tone"`
	Topics            []string `json:"topics"`
	EntitiesMentioned []string `json:"entities_mentioned"`
	PoliticalLeaning  string   `json:"political_leaning"`
}

// Analyzer produces a content analysis for a piece of post text.
// Implementations: the Claude-backed client and a keyword fallback.
type Analyzer interface {
	Analyze(ctx context.Context, text string, types []models.AnalysisType) (*Result, error)
	ModelName() string
}
