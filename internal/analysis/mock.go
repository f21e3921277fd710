package analysis

import (
	"context"
	"strings"

	"github.com/polisight/polisight/internal/models"
)

// KeywordAnalyzer is a deterministic fallback used when no API key is
// configured. It scores sentiment from a small keyword lexicon and
// extracts capitalized words as entities. Useful for development and
// tests, not a substitute for the LLM.
type KeywordAnalyzer struct{}

func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

func (a *KeywordAnalyzer) ModelName() string {
	return "keyword-fallback"
}

var positiveWords = map[string]bool{
	"great": true, "win": true, "support": true, "proud": true,
	"success": true, "hope": true, "progress": true, "together": true,
}

var negativeWords = map[string]bool{
	"bad": true, "fail": true, "corrupt": true, "crisis": true,
	"disaster": true, "attack": true, "lies": true, "shame": true,
}

func (a *KeywordAnalyzer) Analyze(ctx context.Context, text string, types []models.AnalysisType) (*Result, error) {
	result := &Result{EmotionalTone: "neutral"}
	words := strings.Fields(text)

	var score, hits float64
	for _, word := range words {
		w := strings.ToLower(strings.Trim(word, ".,!?;:\"'"))
		if positiveWords[w] {
			score++
			hits++
		}
		if negativeWords[w] {
			score--
			hits++
		}
	}
	if hits > 0 {
		result.SentimentScore = score / hits
	}
	switch {
	case result.SentimentScore > 0.2:
		result.EmotionalTone = "supportive"
	case result.SentimentScore < -0.2:
		result.EmotionalTone = "critical"
	}

	for _, t := range types {
		if t != models.AnalysisEntities {
			continue
		}
		seen := make(map[string]bool)
		for i, word := range words {
			w := strings.Trim(word, ".,!?;:\"'")
			// Skip sentence-initial capitals, they are usually not names.
			if i == 0 || len(w) < 2 || w[0] < 'A' || w[0] > 'Z' {
				continue
			}
			if !seen[w] {
				seen[w] = true
				result.EntitiesMentioned = append(result.EntitiesMentioned, w)
			}
		}
	}

	return result, nil
}
