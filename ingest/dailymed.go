package ingest

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const dailyMedSPL = "https://dailymed.nlm.nih.gov/dailymed/services/v2/spls/%s.xml"

// dailyMedTextCap bounds the flattened SPL text; full labels can be enormous.
const dailyMedTextCap = 2_000_000

// DailyMedClient fetches Structured Product Labeling XML by set_id.
type DailyMedClient struct {
	BaseURL string
	client  *http.Client
}

func NewDailyMedClient() *DailyMedClient {
	return &DailyMedClient{
		BaseURL: dailyMedSPL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchSPL downloads the SPL XML for one set_id.
func (c *DailyMedClient) FetchSPL(ctx context.Context, setID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.BaseURL, setID), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dailymed returned status %d for set_id %s", res.StatusCode, setID)
	}
	return io.ReadAll(res.Body)
}

// ExtractSPLText flattens every character-data node in the SPL document into
// one whitespace-joined string, capped at dailyMedTextCap runes.
func ExtractSPLText(xmlData []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlData))
	var parts []string
	total := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			text := strings.TrimSpace(string(cd))
			if text == "" {
				continue
			}
			parts = append(parts, text)
			total += len(text) + 1
			if total >= dailyMedTextCap {
				break
			}
		}
	}
	joined := strings.Join(parts, " ")
	if len(joined) > dailyMedTextCap {
		runes := []rune(joined)
		if len(runes) > dailyMedTextCap {
			joined = string(runes[:dailyMedTextCap])
		}
	}
	return joined
}

// EnrichDailyMed resolves each OpenFDA document's set_id to its full DailyMed
// label. Fetch failures skip the record; a bad label must not end the batch.
func EnrichDailyMed(ctx context.Context, client *DailyMedClient, docs []Document) []Document {
	var enriched []Document
	for _, doc := range docs {
		setID, _ := doc.Provenance["set_id"].(string)
		if setID == "" {
			continue
		}
		xmlData, err := client.FetchSPL(ctx, setID)
		if err != nil {
			slog.Warn("skipping dailymed record", "set_id", setID, "err", err)
			continue
		}
		enriched = append(enriched, Document{
			ID:         "dailymed:" + setID,
			Source:     "dailymed",
			Title:      doc.Title,
			Text:       ExtractSPLText(xmlData),
			URL:        "https://dailymed.nlm.nih.gov/dailymed/lookup.cfm?setid=" + setID,
			Date:       doc.Date,
			DrugNames:  doc.DrugNames,
			Sections:   map[string]string{},
			Provenance: map[string]any{"set_id": setID},
		})
		time.Sleep(interPageDelay)
	}
	return enriched
}
