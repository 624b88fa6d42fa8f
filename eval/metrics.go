package eval

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// CurrentYear is the fixed reference year for the freshness metric. Pinned
// rather than read from the clock so reports stay reproducible.
const CurrentYear = 2025

// freshnessWindow is how many years back a source still counts as fresh.
const freshnessWindow = 5

const (
	nliPremiseCap    = 800
	nliHypothesisCap = 300
)

var (
	citationPattern = regexp.MustCompile(`\[(\d+)\]`)
	yearPattern     = regexp.MustCompile(`(19|20)\d{2}`)
	nonWordPattern  = regexp.MustCompile(`[^a-z0-9\x{4e00}-\x{9fa5}\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// EntailmentClassifier relates an evidence premise to an answer-sentence
// hypothesis. A nil classifier degrades the NLI metric to zero rates.
type EntailmentClassifier interface {
	Classify(ctx context.Context, premise, hypothesis string) (string, error)
}

// SplitSentences breaks text after sentence terminators (.!? and their CJK
// equivalents) that are followed by whitespace.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	var sentences []string
	var current []rune

	flush := func() {
		if s := strings.TrimSpace(string(current)); s != "" {
			sentences = append(sentences, s)
		}
		current = current[:0]
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		current = append(current, r)
		if isSentenceEnd(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			flush()
			for i++; i < len(runes) && unicode.IsSpace(runes[i]); i++ {
			}
			continue
		}
		i++
	}
	flush()
	return sentences
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// normalizeTokens lowercases and strips everything but latin alphanumerics,
// CJK characters and whitespace, then splits into a word bag.
func normalizeTokens(s string) []string {
	s = strings.ToLower(s)
	s = nonWordPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
	if s == "" {
		return nil
	}
	return strings.Split(s, " ")
}

// bestEvidence picks the evidence text with the largest normalized-token
// overlap with the sentence; ties keep the earliest candidate.
func bestEvidence(sentence string, ctxTexts []string) string {
	if len(ctxTexts) == 0 {
		return ""
	}
	sentSet := tokenSet(normalizeTokens(sentence))
	best := ctxTexts[0]
	bestScore := overlap(sentSet, ctxTexts[0])
	for _, t := range ctxTexts[1:] {
		if score := overlap(sentSet, t); score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func overlap(sentSet map[string]bool, text string) int {
	n := 0
	seen := make(map[string]bool)
	for _, tok := range normalizeTokens(text) {
		if sentSet[tok] && !seen[tok] {
			seen[tok] = true
			n++
		}
	}
	return n
}

// NLIRates classifies each answer sentence against its best-matching
// evidence text and reports the entailed and contradicted fractions.
// Sentences with no matching evidence or a failed classification are
// excluded from the denominator; an unavailable classifier yields 0/0
// (degraded, not fatal).
func NLIRates(ctx context.Context, classifier EntailmentClassifier, answerText string, ctxTexts []string) (supportRate, contradictionRate float64) {
	if classifier == nil || strings.TrimSpace(answerText) == "" {
		return 0, 0
	}
	sentences := SplitSentences(answerText)
	if len(sentences) == 0 {
		return 0, 0
	}

	supported, contradicted, total := 0, 0, 0
	for _, sent := range sentences {
		evidence := bestEvidence(sent, ctxTexts)
		if evidence == "" {
			continue
		}
		label, err := classifier.Classify(ctx, truncateRunes(evidence, nliPremiseCap), truncateRunes(sent, nliHypothesisCap))
		if err != nil || label == "" {
			continue
		}
		total++
		switch label {
		case "ENTAILMENT":
			supported++
		case "CONTRADICTION":
			contradicted++
		}
		// NEUTRAL counts toward the denominator only
	}
	if total == 0 {
		return 0, 0
	}
	return float64(supported) / float64(total), float64(contradicted) / float64(total)
}

// CitationStats summarizes the [n] citation markers in an answer.
type CitationStats struct {
	Count      int
	OutOfRange int
	Resolvable float64
}

// Citations extracts every [n] marker and checks it against the valid index
// range [1, max(1, ctxLen)]. The marker regex only matches unsigned
// integers, so zero-and-negative flagging cannot arise here. Resolvable is
// the fraction of reference URLs with an http or pmid: prefix, 0 without refs.
func Citations(answerText string, refs []string, ctxLen int) CitationStats {
	var stats CitationStats
	upper := max(1, ctxLen)
	for _, m := range citationPattern.FindAllStringSubmatch(answerText, -1) {
		stats.Count++
		// digits too large for int cannot name a valid evidence index
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > upper {
			stats.OutOfRange++
		}
	}
	if len(refs) > 0 {
		resolvable := 0
		for _, u := range refs {
			if u != "" && (strings.HasPrefix(u, "http") || strings.HasPrefix(u, "pmid:")) {
				resolvable++
			}
		}
		stats.Resolvable = float64(resolvable) / float64(len(refs))
	}
	return stats
}

// Freshness reports the fraction of reference URLs whose first embedded
// 4-digit year falls within the freshness window of CurrentYear. URLs
// without a year are skipped; no years at all yields 0.
func Freshness(refs []string) float64 {
	var years []int
	for _, u := range refs {
		m := yearPattern.FindString(u)
		if m == "" {
			continue
		}
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return 0
	}
	fresh := 0
	for _, y := range years {
		if CurrentYear-y <= freshnessWindow {
			fresh++
		}
	}
	return float64(fresh) / float64(len(years))
}
