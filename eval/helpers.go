package eval

import (
	"encoding/json"
	"strconv"
	"strings"
)

// parseJudgment decodes the judge model's strict-JSON response. Any parse
// failure yields a zero Judgment: scoring fails safe-low, it never aborts a
// batch. Individual non-numeric score fields also map to 0.
func parseJudgment(response string) Judgment {
	fields := decodeLooseJSON(response)
	if fields == nil {
		return Judgment{}
	}

	j := Judgment{
		Faithfulness: clampScore(rawToFloat(fields["faithfulness"])),
		Relevance:    clampScore(rawToFloat(fields["relevance"])),
		Safety:       clampScore(rawToFloat(fields["safety"])),
	}
	if raw, ok := fields["overall"]; ok {
		j.Overall = clampScore(rawToFloat(raw))
	} else {
		j.Overall = clampScore((j.Faithfulness + j.Relevance) / 2)
	}
	if raw, ok := fields["claims"]; ok {
		// ignore structurally invalid claims, keep the scores
		_ = json.Unmarshal(raw, &j.Claims)
	}
	if raw, ok := fields["justification"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			j.Justification = truncateRunes(s, justificationCap)
		}
	}
	return j
}

// decodeLooseJSON parses a JSON object, tolerating markdown code fences
// around it. Returns nil when no object can be recovered.
func decodeLooseJSON(s string) map[string]json.RawMessage {
	s = strings.TrimSpace(s)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err == nil {
		return fields
	}

	stripped := strings.TrimSpace(strings.Trim(s, "`"))
	stripped = strings.TrimSpace(strings.TrimPrefix(stripped, "json"))
	if err := json.Unmarshal([]byte(stripped), &fields); err == nil {
		return fields
	}

	// last resort: the outermost brace-delimited span
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(s[start:end+1]), &fields); err == nil {
			return fields
		}
	}
	return nil
}

// rawToFloat coerces a JSON value to a float: numbers directly, numeric
// strings via parsing, everything else 0.
func rawToFloat(raw json.RawMessage) float64 {
	if raw == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

// clampScore bounds a judge score to [0, 5].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

// clamp01 bounds a rate to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
