package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

// errUnparseable means no JSON object could be recovered from a reply.
var errUnparseable = errors.New("no JSON object in model reply")

const analysisSchema = `{
  "type": "object",
  "properties": {
    "isOpportunity": {"type": "boolean"},
    "problem":       {"type": "string"},
    "solution":      {"type": "string"},
    "summary":       {"type": "string"},
    "confidence":    {"type": "number"}
  },
  "required": ["isOpportunity", "problem", "solution", "summary", "confidence"]
}`

var analysisSchemaLoader = gojsonschema.NewStringLoader(analysisSchema)

// decodeAnalysis turns a raw model reply into an analysis. Each field that is
// missing or has the wrong type falls back to its own default. If nothing
// can be parsed the whole analysis is the fallback.
func decodeAnalysis(reply string) (models.OpportunityAnalysis, error) {
	obj, err := parseReplyObject(reply)
	if err != nil {
		return models.FallbackAnalysis(), err
	}

	invalid, err := invalidFields(obj)
	if err != nil {
		return models.FallbackAnalysis(), err
	}

	analysis := models.OpportunityAnalysis{
		Problem:  models.DefaultProblem,
		Solution: models.DefaultSolution,
		Summary:  models.DefaultSummary,
	}

	if !invalid["isOpportunity"] {
		analysis.IsOpportunity, _ = obj["isOpportunity"].(bool)
	}
	if !invalid["problem"] {
		analysis.Problem, _ = obj["problem"].(string)
	}
	if !invalid["solution"] {
		analysis.Solution, _ = obj["solution"].(string)
	}
	if !invalid["summary"] {
		analysis.Summary, _ = obj["summary"].(string)
	}
	if !invalid["confidence"] {
		if n, ok := obj["confidence"].(float64); ok {
			analysis.Confidence = models.ClampConfidence(n)
		}
	}

	return analysis, nil
}

// parseReplyObject decodes the reply directly, then retries on the first
// balanced object found inside it.
func parseReplyObject(reply string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &obj); err == nil && obj != nil {
		return obj, nil
	}

	candidate := extractJSONObject(cleanJSONBlock(reply))
	if candidate == "" {
		return nil, errUnparseable
	}
	obj = nil
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil || obj == nil {
		return nil, errUnparseable
	}
	return obj, nil
}

// invalidFields validates the object and returns the set of top-level
// properties that failed.
func invalidFields(obj map[string]any) (map[string]bool, error) {
	result, err := gojsonschema.Validate(analysisSchemaLoader, gojsonschema.NewGoLoader(obj))
	if err != nil {
		return nil, err
	}

	invalid := make(map[string]bool)
	if result.Valid() {
		return invalid, nil
	}

	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[:i]
		}
		invalid[field] = true
	}
	return invalid, nil
}

// cleanJSONBlock strips a surrounding markdown code fence.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// extractJSONObject returns the first balanced {...} in text, ignoring
// braces inside string literals. Returns "" if there is none.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
