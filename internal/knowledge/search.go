package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// searchTop is the number of ranked documents requested; only the best one is shown
const searchTop = 1

// maxResponseBytes bounds how much of a search response is read
const maxResponseBytes = 4 << 20

// SearchClient queries an Azure AI Search index over its REST API
type SearchClient struct {
	endpoint   string
	index      string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	logger     *zap.Logger
}

// SearchOption configures a SearchClient
type SearchOption func(*SearchClient)

// WithAPIVersion sets the api-version query parameter
func WithAPIVersion(version string) SearchOption {
	return func(c *SearchClient) {
		c.apiVersion = version
	}
}

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(client *http.Client) SearchOption {
	return func(c *SearchClient) {
		c.httpClient = client
	}
}

// NewSearchClient creates a new search client
func NewSearchClient(endpoint, index, apiKey string, logger *zap.Logger, opts ...SearchOption) *SearchClient {
	c := &SearchClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		index:      index,
		apiKey:     apiKey,
		apiVersion: "2024-07-01",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type searchRequest struct {
	Search string `json:"search"`
	Top    int    `json:"top"`
}

// Search looks up a readable key. The key is encoded the way the index stores
// it before being sent; records come back ranked, fields in document order.
func (c *SearchClient) Search(ctx context.Context, query string) ([]Record, error) {
	body, err := json.Marshal(searchRequest{
		Search: EncodeKey(query),
		Top:    searchTop,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search service returned status %s", resp.Status)
	}

	records, err := ParseRecords(data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("knowledge search completed",
		zap.String("index", c.index),
		zap.Int("results", len(records)),
	)

	return records, nil
}

// ParseRecords reads the "value" array of a search response
func ParseRecords(data []byte) ([]Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("search response is not valid JSON")
	}

	value := gjson.GetBytes(data, "value")
	if !value.IsArray() {
		return nil, fmt.Errorf("search response has no value array")
	}

	var records []Record
	value.ForEach(func(_, doc gjson.Result) bool {
		if !doc.IsObject() {
			return true
		}
		var rec Record
		doc.ForEach(func(key, val gjson.Result) bool {
			rec.Fields = append(rec.Fields, Field{Name: key.String(), Value: scalar(val)})
			return true
		})
		records = append(records, rec)
		return true
	})

	return records, nil
}

// scalar converts a JSON value into something fmt renders the way it was sent
func scalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.Str
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(v.Raw)
	default:
		return v.Raw
	}
}
