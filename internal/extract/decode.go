package extract

import (
	"encoding/json"
	"math"
	"strings"
)

// cleanModelJSON strips Markdown fences and surrounding junk that models
// sometimes emit despite instructions to return raw JSON.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// decodeRawFields parses the model response and checks it against the
// requested schema. Any missing required field or non-finite amount is a
// schema violation, not a partial result.
func decodeRawFields(raw string) (RawFields, *ExtractionError) {
	var fields RawFields
	clean := cleanModelJSON(raw)

	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return RawFields{}, schemaError("unmarshal model response: %w (raw: %s)", err, raw)
	}

	if fields.Amount == nil {
		return RawFields{}, schemaError("model response missing required field \"amount\"")
	}
	if math.IsNaN(*fields.Amount) || math.IsInf(*fields.Amount, 0) {
		return RawFields{}, schemaError("model returned non-finite amount")
	}
	if fields.Description == nil || strings.TrimSpace(*fields.Description) == "" {
		return RawFields{}, schemaError("model response missing required field \"description\"")
	}
	if fields.Category == nil {
		return RawFields{}, schemaError("model response missing required field \"category\"")
	}
	if fields.Type == nil {
		return RawFields{}, schemaError("model response missing required field \"type\"")
	}

	return fields, nil
}
