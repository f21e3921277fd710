package analysis

import (
	"fmt"
	"strings"

	"github.com/polisight/polisight/internal/models"
)

const systemPrompt = "You are an AI assistant specialized in analyzing social media content. Respond ONLY with the requested JSON object."

// buildPrompt assembles the analysis prompt for the requested facets.
// The facets map onto the JSON keys the model is asked to return.
func buildPrompt(text string, types []models.AnalysisType) string {
	var keys []string
	for _, t := range types {
		switch t {
		case models.AnalysisSentiment:
			keys = append(keys,
				`- "sentiment_score": A float between -1.0 (very negative) and 1.0 (very positive), representing the overall sentiment.`,
				`- "emotional_tone": A single descriptive word accurately reflecting the dominant emotion (e.g., neutral, angry, supportive, sarcastic, hopeful, critical, informative).`)
		case models.AnalysisTopics:
			keys = append(keys,
				`- "topics": A list of 1-3 concise strings (1-4 words each) representing the primary subjects or themes discussed.`)
		case models.AnalysisEntities:
			keys = append(keys,
				`- "entities_mentioned": A list of strings, where each string is a named entity found in the text (people, organizations, locations, political figures/parties, specific legislation).`)
		case models.AnalysisLeaning:
			keys = append(keys,
				`- "political_leaning": One of "left", "center-left", "center", "center-right", "right", or "unclear", based only on the positions expressed in the text.`)
		}
	}

	return fmt.Sprintf(`Analyze the following social media text:

"""%s"""

Provide the complete analysis as a single JSON object with the following keys ONLY:
%s

Ensure the output is a single, valid JSON object. Respond ONLY with the JSON object.

JSON Output:`, sanitizeText(text), strings.Join(keys, "\n"))
}

// sanitizeText flattens newlines so the text cannot break out of the
// quoted block in the prompt.
func sanitizeText(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, `"""`, `'''`), "\n", " ")
}

// stripJSONFences removes a ```json ... ``` wrapper when the model adds one.
func stripJSONFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
