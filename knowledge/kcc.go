package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const kccSource = "kcc"

// KCCRecord is one Kisan Call Centre query and the expert's answer.
type KCCRecord struct {
	StateName string `json:"StateName"`
	Crop      string `json:"Crop"`
	QueryText string `json:"QueryText"`
	KccAns    string `json:"KccAns"`
}

// Format renders the record as a knowledge passage.
func (r KCCRecord) Format() string {
	return fmt.Sprintf("Farmer Query from %s:\n%s\n\nExpert Answer:\n%s\n\nCrop: %s\nSource: Kisan Call Centre",
		orDefault(r.StateName, "Unknown"),
		orDefault(r.QueryText, "No query"),
		orDefault(r.KccAns, "No answer"),
		orDefault(r.Crop, "General"))
}

// Chunk converts the record into a single-window chunk tagged with its state and crop.
func (r KCCRecord) Chunk() ChunkModel {
	body := r.Format()
	id := "kcc-" + hash(body)
	return ChunkModel{
		ChunkID:     id,
		Title:       "Kisan Call Centre",
		SectionPath: orDefault(r.Crop, "General"),
		SourceURI:   kccSource,
		Tags:        []string{"KCC", orDefault(r.StateName, "Unknown"), orDefault(r.Crop, "General")},
		Body:        body,
		SectionID:   id,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// KCCClient pages through the KCC dataset on data.gov.in.
type KCCClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

// NewKCCClient reads GOV_IN_API_KEY.
func NewKCCClient(datasetURL string, httpClient *http.Client) *KCCClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &KCCClient{
		apiKey:     os.Getenv("GOV_IN_API_KEY"),
		url:        datasetURL,
		httpClient: httpClient,
	}
}

func (c *KCCClient) FetchBatch(ctx context.Context, limit, offset int) ([]KCCRecord, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("error parsing KCC url: %w", err)
	}
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching KCC batch at offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("KCC request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Records []KCCRecord `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding KCC batch: %w", err)
	}
	return out.Records, nil
}
