// Package eval implements answer-quality evaluation: a strict LLM judge,
// objective NLI/citation/freshness metrics and the composite RAG-QS score.
package eval

// Claim is one assertion extracted from a system answer, aligned to the
// evidence indices of the judging trial that produced it.
type Claim struct {
	Text        string `json:"text"`
	EvidenceIDs []int  `json:"evidence_ids"`
	Verdict     string `json:"verdict"` // supported | insufficient | contradicted
}

// Judgment is the outcome of a single judging trial. Scores live in [0, 5].
type Judgment struct {
	Faithfulness  float64 `json:"faithfulness"`
	Relevance     float64 `json:"relevance"`
	Safety        float64 `json:"safety"`
	Overall       float64 `json:"overall"`
	Claims        []Claim `json:"claims"`
	Justification string  `json:"justification"`
}

// AveragedJudgment is the arithmetic mean over repeated trials, with claims
// pooled (first 10) and one justification per trial.
type AveragedJudgment struct {
	Faithfulness   float64  `json:"faithfulness"`
	Relevance      float64  `json:"relevance"`
	Safety         float64  `json:"safety"`
	Overall        float64  `json:"overall"`
	Claims         []Claim  `json:"claims"`
	Justifications []string `json:"justifications"`
}

// Row is one evaluated query: the answer, the averaged judge scores, the
// objective metrics and the composite RAG-QS. Field names follow the
// persisted report format.
type Row struct {
	Query              string   `json:"query"`
	Answer             string   `json:"answer"`
	Refs               []string `json:"refs"`
	Faithfulness       float64  `json:"faithfulness"`
	Relevance          float64  `json:"relevance"`
	Safety             float64  `json:"safety"`
	Overall            float64  `json:"overall"`
	Claims             []Claim  `json:"claims"`
	Justifications     []string `json:"justifications"`
	SupportRate        float64  `json:"SupportRate"`
	ContradictionRate  float64  `json:"ContradictionRate"`
	CitationCount      int      `json:"CitationCount"`
	CitationOutOfRange float64  `json:"CitationOutOfRange"`
	CitationResolvable float64  `json:"CitationResolvable%"`
	Freshness          float64  `json:"Freshness%_last5y"`
	RAGQS              float64  `json:"RAG_QS"`
}

// Summary aggregates a batch: N plus the mean of every numeric Row field.
type Summary struct {
	N                        int     `json:"N"`
	FaithfulnessMean         float64 `json:"Faithfulness_mean"`
	RelevanceMean            float64 `json:"Relevance_mean"`
	SafetyMean               float64 `json:"Safety_mean"`
	OverallMean              float64 `json:"Overall_mean"`
	NLISupportRateMean       float64 `json:"NLI_SupportRate_mean"`
	NLIContradictionRateMean float64 `json:"NLI_ContradictionRate_mean"`
	CitationCountMean        float64 `json:"CitationCount_mean"`
	CitationResolvableMean   float64 `json:"CitationResolvable%_mean"`
	CitationOutOfRangeMean   float64 `json:"CitationOutOfRange_mean"`
	FreshnessMean            float64 `json:"Freshness%_last5y_mean"`
	RAGQSMean                float64 `json:"RAG_QS_mean"`
}
