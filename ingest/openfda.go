package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const openFDAEndpoint = "https://api.fda.gov/drug/label.json"

// interPageDelay throttles paginated fetches against the public APIs.
const interPageDelay = 200 * time.Millisecond

// openFDASections are the label sections kept in the normalized document.
var openFDASections = []string{
	"indications_and_usage",
	"dosage_and_administration",
	"contraindications",
	"warnings",
	"adverse_reactions",
}

// OpenFDAClient fetches drug label records from the OpenFDA API.
type OpenFDAClient struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewOpenFDAClient() *OpenFDAClient {
	return &OpenFDAClient{
		BaseURL: openFDAEndpoint,
		APIKey:  os.Getenv("OPENFDA_API_KEY"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// openFDALabel mirrors the subset of the drug label payload we consume.
// Section values arrive as either a string or a list of strings, so they are
// held as raw JSON and flattened during normalization.
type openFDALabel struct {
	ID            string                     `json:"id"`
	SetID         string                     `json:"set_id"`
	EffectiveTime string                     `json:"effective_time"`
	OpenFDA       openFDAMeta                `json:"openfda"`
	Sections      map[string]json.RawMessage `json:"-"`
}

type openFDAMeta struct {
	BrandName     []string `json:"brand_name"`
	GenericName   []string `json:"generic_name"`
	SubstanceName []string `json:"substance_name"`
	ProductType   []string `json:"product_type"`
}

func (l *openFDALabel) UnmarshalJSON(data []byte) error {
	type alias openFDALabel
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Sections = make(map[string]json.RawMessage)
	for _, k := range openFDASections {
		if v, ok := raw[k]; ok {
			a.Sections[k] = v
		}
	}
	*l = openFDALabel(a)
	return nil
}

// Fetch pages through OpenFDA results for one search query. A 404 marks the
// end of the result set rather than an error.
func (c *OpenFDAClient) Fetch(ctx context.Context, query string, limit, maxPages int) ([]openFDALabel, error) {
	var results []openFDALabel
	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("search", query)
		params.Set("limit", fmt.Sprint(limit))
		params.Set("skip", fmt.Sprint(page*limit))
		params.Set("sort", "effective_time:desc")
		if c.APIKey != "" {
			params.Set("api_key", c.APIKey)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		res, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusNotFound {
			break
		}
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("openfda returned status %d: %s", res.StatusCode, string(body))
		}

		var data struct {
			Results []openFDALabel `json:"results"`
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("failed to parse openfda response: %w", err)
		}
		if len(data.Results) == 0 {
			break
		}
		results = append(results, data.Results...)
		time.Sleep(interPageDelay)
	}
	return results, nil
}

// NormalizeOpenFDA converts one raw label into the canonical Document shape.
// The URL stays empty here; the DailyMed pass resolves it from the set_id.
func NormalizeOpenFDA(item openFDALabel) Document {
	sections := make(map[string]string)
	for _, k := range openFDASections {
		raw, ok := item.Sections[k]
		if !ok {
			continue
		}
		if text := flattenSection(raw); text != "" {
			sections[k] = text
		}
	}

	var parts []string
	for _, k := range openFDASections {
		if v := sections[k]; v != "" {
			parts = append(parts, v)
		}
	}

	docID := item.ID
	if docID == "" {
		docID = item.SetID
	}
	if docID == "" {
		docID = uuid.NewString()
	}

	title := strings.Join(item.OpenFDA.BrandName, ", ")
	if title == "" {
		title = strings.Join(item.OpenFDA.GenericName, ", ")
	}
	if title == "" {
		title = "Unknown"
	}

	return Document{
		ID:        "openfda:" + docID,
		Source:    "openfda",
		Title:     title,
		Text:      strings.Join(parts, "\n\n"),
		Date:      item.EffectiveTime,
		DrugNames: uniqueNames(item.OpenFDA.BrandName, item.OpenFDA.GenericName, item.OpenFDA.SubstanceName),
		Sections:  sections,
		Provenance: map[string]any{
			"set_id":       item.SetID,
			"product_type": item.OpenFDA.ProductType,
		},
	}
}

// flattenSection joins list-valued label sections with blank lines.
func flattenSection(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "\n\n")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func uniqueNames(lists ...[]string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, list := range lists {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IngestOpenFDA fetches prescription and OTC drug labels and returns them
// normalized, newest first per query.
func IngestOpenFDA(ctx context.Context, client *OpenFDAClient) ([]Document, error) {
	queries := []string{
		`openfda.product_type:"HUMAN PRESCRIPTION DRUG"`,
		`openfda.product_type:"HUMAN OTC DRUG"`,
	}
	var docs []Document
	for _, q := range queries {
		items, err := client.Fetch(ctx, q, 100, 10)
		if err != nil {
			return nil, fmt.Errorf("openfda query %q: %w", q, err)
		}
		for _, item := range items {
			docs = append(docs, NormalizeOpenFDA(item))
		}
	}
	return docs, nil
}
