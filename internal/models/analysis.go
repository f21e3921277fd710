package models

import (
	"fmt"
	"time"
)

// AnalysisType names a facet of LLM content analysis.
type AnalysisType string

const (
	AnalysisSentiment AnalysisType = "sentiment"
	AnalysisTopics    AnalysisType = "topics"
	AnalysisEntities  AnalysisType = "entities"
	AnalysisLeaning   AnalysisType = "leaning"
)

// DefaultAnalysisTypes mirrors the analysis facets requested when the caller
// does not specify any.
func DefaultAnalysisTypes() []AnalysisType {
	return []AnalysisType{AnalysisSentiment, AnalysisTopics, AnalysisEntities}
}

// ParseAnalysisTypes validates a caller-supplied list of analysis facets.
func ParseAnalysisTypes(raw []string) ([]AnalysisType, error) {
	if len(raw) == 0 {
		return DefaultAnalysisTypes(), nil
	}
	types := make([]AnalysisType, 0, len(raw))
	for _, s := range raw {
		switch t := AnalysisType(s); t {
		case AnalysisSentiment, AnalysisTopics, AnalysisEntities, AnalysisLeaning:
			types = append(types, t)
		default:
			return nil, fmt.Errorf("unknown analysis type: %q", s)
		}
	}
	return types, nil
}

// ContentAnalysis is the stored result of analyzing a single post.
type ContentAnalysis struct {
	ID               string    `bson:"_id" json:"id"`
	PostID           string    `bson:"post_id" json:"post_id"`
	SentimentScore   float64   `bson:"sentiment_score" json:"sentiment_score"` // -1 to 1
	SentimentLabel   string    `bson:"sentiment_label" json:"sentiment_label"`
	Topics           []string  `bson:"topics,omitempty" json:"topics,omitempty"`
	KeyEntities      []string  `bson:"key_entities,omitempty" json:"key_entities,omitempty"`
	PoliticalLeaning string    `bson:"political_leaning,omitempty" json:"political_leaning,omitempty"`
	Model            string    `bson:"model,omitempty" json:"model,omitempty"`
	AnalyzedAt       time.Time `bson:"analyzed_at" json:"analyzed_at"`
}

// SentimentLabel buckets a score into positive/neutral/negative.
func SentimentLabel(score float64) string {
	switch {
	case score > 0.2:
		return "positive"
	case score < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}
