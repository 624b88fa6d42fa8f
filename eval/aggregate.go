package eval

import "math"

// RAG-QS sub-score weights. Faithfulness dominates; citation terms are a
// light tiebreaker.
const (
	weightFaithfulness = 0.30
	weightNLI          = 0.20
	weightRelevance    = 0.15
	weightSafety       = 0.15
	weightCiteRes      = 0.05
	weightCiteInt      = 0.05
	weightFreshness    = 0.10
)

// RAGQS computes the composite 0-100 quality score for one evaluated query.
// Every sub-score is bounded to [0, 100] first, so the weighted sum is too.
func RAGQS(row Row) float64 {
	faith := 20 * row.Faithfulness
	rel := 20 * row.Relevance
	safe := 20 * row.Safety

	nli := 100 * math.Max(0, clamp01(row.SupportRate)-clamp01(row.ContradictionRate))

	citeRes := 100 * clamp01(row.CitationResolvable)
	// no citations, no integrity penalty
	citeInt := 100.0
	if row.CitationCount > 0 {
		overRate := row.CitationOutOfRange / math.Max(1, float64(row.CitationCount))
		citeInt = 100 * (1 - math.Min(1, overRate))
	}

	fresh := 100 * clamp01(row.Freshness)

	return weightFaithfulness*faith +
		weightNLI*nli +
		weightRelevance*rel +
		weightSafety*safe +
		weightCiteRes*citeRes +
		weightCiteInt*citeInt +
		weightFreshness*fresh
}

// Summarize reduces a batch of rows to field means. It is a pure function of
// the rows: re-running it over unchanged persisted rows reproduces the same
// summary.
func Summarize(rows []Row) Summary {
	summary := Summary{N: len(rows)}
	if len(rows) == 0 {
		return summary
	}
	for _, row := range rows {
		summary.FaithfulnessMean += row.Faithfulness
		summary.RelevanceMean += row.Relevance
		summary.SafetyMean += row.Safety
		summary.OverallMean += row.Overall
		summary.NLISupportRateMean += row.SupportRate
		summary.NLIContradictionRateMean += row.ContradictionRate
		summary.CitationCountMean += float64(row.CitationCount)
		summary.CitationResolvableMean += row.CitationResolvable
		summary.CitationOutOfRangeMean += row.CitationOutOfRange
		summary.FreshnessMean += row.Freshness
		summary.RAGQSMean += row.RAGQS
	}
	n := float64(len(rows))
	summary.FaithfulnessMean /= n
	summary.RelevanceMean /= n
	summary.SafetyMean /= n
	summary.OverallMean /= n
	summary.NLISupportRateMean /= n
	summary.NLIContradictionRateMean /= n
	summary.CitationCountMean /= n
	summary.CitationResolvableMean /= n
	summary.CitationOutOfRangeMean /= n
	summary.FreshnessMean /= n
	summary.RAGQSMean /= n
	return summary
}
