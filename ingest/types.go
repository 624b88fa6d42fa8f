// Package ingest fetches drug-label and literature records from OpenFDA,
// PubMed and DailyMed, normalizes them into a single document schema and
// splits them into token-bounded chunks for indexing.
package ingest

// Document is one normalized source record. Immutable once written; the ID
// carries the source prefix, e.g. "openfda:<id>" or "pubmed:<pmid>".
type Document struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Title      string            `json:"title"`
	Text       string            `json:"text"`
	URL        string            `json:"url,omitempty"`
	Date       string            `json:"date,omitempty"`
	DrugNames  []string          `json:"drug_names"`
	Sections   map[string]string `json:"sections"`
	Provenance map[string]any    `json:"provenance"`
}

// Chunk is a token-bounded slice of one Document, ID "<parent>:<index>".
//
// Diseases is optional: one legacy ingestion path tagged chunks with a
// "Diseases" key instead of "parent". Readers accept both spellings (JSON
// field matching is case-insensitive) so old chunk files load into this one
// schema; writers only ever emit the canonical form.
type Chunk struct {
	ID         string         `json:"id"`
	Parent     string         `json:"parent"`
	Text       string         `json:"text"`
	Source     string         `json:"source"`
	URL        string         `json:"url,omitempty"`
	Diseases   string         `json:"diseases,omitempty"`
	Provenance map[string]any `json:"provenance,omitempty"`
}
