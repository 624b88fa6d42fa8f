package ingest

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedClient queries the NCBI E-utilities API.
type PubMedClient struct {
	BaseURL string
	Tool    string
	Email   string
	APIKey  string
	client  *http.Client
}

func NewPubMedClient() *PubMedClient {
	email := os.Getenv("CONTACT_EMAIL")
	if email == "" {
		email = "your_email@example.com"
	}
	return &PubMedClient{
		BaseURL: eutilsBase,
		Tool:    "medrag-demo",
		Email:   email,
		APIKey:  os.Getenv("NCBI_API_KEY"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *PubMedClient) params() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("tool", c.Tool)
	params.Set("email", c.Email)
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}
	return params
}

func (c *PubMedClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eutils %s returned status %d: %s", endpoint, res.StatusCode, string(body))
	}
	return body, nil
}

// Search returns up to retmax PMIDs matching the term.
func (c *PubMedClient) Search(ctx context.Context, term string, retmax int) ([]string, error) {
	params := c.params()
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", fmt.Sprint(retmax))

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}
	var data struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse esearch response: %w", err)
	}
	return data.ESearchResult.IDList, nil
}

// Fetch retrieves article XML for the given PMIDs.
func (c *PubMedClient) Fetch(ctx context.Context, pmids []string) ([]byte, error) {
	params := c.params()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	return c.get(ctx, "efetch.fcgi", params)
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID     string `xml:"MedlineCitation>PMID"`
	Title    string `xml:"MedlineCitation>Article>ArticleTitle"`
	Abstract struct {
		Text []string `xml:"AbstractText"`
	} `xml:"MedlineCitation>Article>Abstract"`
	Journal string `xml:"MedlineCitation>Article>Journal>Title"`
	Year    string `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
	IDs     []struct {
		Type  string `xml:"IdType,attr"`
		Value string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

// ParsePubMedXML extracts normalized documents from efetch article XML.
func ParsePubMedXML(data []byte) ([]Document, error) {
	var set pubmedArticleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse pubmed xml: %w", err)
	}
	docs := make([]Document, 0, len(set.Articles))
	for _, art := range set.Articles {
		pmid := strings.TrimSpace(art.PMID)
		var doi string
		for _, id := range art.IDs {
			if id.Type == "doi" {
				doi = strings.TrimSpace(id.Value)
				break
			}
		}
		docs = append(docs, Document{
			ID:        "pubmed:" + pmid,
			Source:    "pubmed",
			Title:     strings.TrimSpace(art.Title),
			Text:      strings.TrimSpace(strings.Join(art.Abstract.Text, " ")),
			URL:       fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
			Date:      strings.TrimSpace(art.Year),
			DrugNames: []string{},
			Sections:  map[string]string{},
			Provenance: map[string]any{
				"pmid":    pmid,
				"journal": strings.TrimSpace(art.Journal),
				"doi":     doi,
			},
		})
	}
	return docs, nil
}

// IngestPubMed searches a set of seed queries and normalizes the results.
func IngestPubMed(ctx context.Context, client *PubMedClient, queries []string) ([]Document, error) {
	if len(queries) == 0 {
		queries = []string{
			"ibuprofen AND dosage",
			"empagliflozin AND kidney disease",
			"amoxicillin AND dosing AND renal impairment",
		}
	}
	var docs []Document
	for _, q := range queries {
		ids, err := client.Search(ctx, q, 100)
		if err != nil {
			return nil, fmt.Errorf("pubmed search %q: %w", q, err)
		}
		if len(ids) == 0 {
			continue
		}
		xmlData, err := client.Fetch(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("pubmed fetch %q: %w", q, err)
		}
		parsed, err := ParsePubMedXML(xmlData)
		if err != nil {
			return nil, err
		}
		docs = append(docs, parsed...)
		time.Sleep(interPageDelay)
	}
	return docs, nil
}
