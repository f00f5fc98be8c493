// Package online talks to the third-party metasearch provider used when the
// catalog has no match, and records those misses for later curation.
package online

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/bizsearch/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the SerpAPI endpoint.
	DefaultBaseURL = "https://serpapi.com"
	// DefaultTimeout bounds one external search request.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

// SerpAPIClient searches Google Maps listings through SerpAPI.
type SerpAPIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewSerpAPIClient creates a client. An empty baseURL uses DefaultBaseURL and
// a non-positive timeout uses DefaultTimeout.
func NewSerpAPIClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *SerpAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerpAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type serpResponse struct {
	Error        string            `json:"error"`
	LocalResults []serpLocalResult `json:"local_results"`
}

type serpLocalResult struct {
	Title   string      `json:"title"`
	Address string      `json:"address"`
	Rating  interface{} `json:"rating"`
	Reviews interface{} `json:"reviews"`
	Phone   string      `json:"phone"`
	Website string      `json:"website"`
}

// Search returns the local results for text. Results keep the provider's order.
func (c *SerpAPIClient) Search(ctx context.Context, text string) ([]models.ExternalRecord, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("external search is not configured: missing api key")
	}

	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("q", text)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("external search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode external search response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("external search error: %s", decoded.Error)
	}

	out := make([]models.ExternalRecord, 0, len(decoded.LocalResults))
	for _, r := range decoded.LocalResults {
		out = append(out, r.toRecord())
	}
	c.logger.Debug("external search",
		zap.Int("results", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (r serpLocalResult) toRecord() models.ExternalRecord {
	rec := models.ExternalRecord{
		Title:   r.Title,
		Address: r.Address,
		Phone:   r.Phone,
		Website: r.Website,
	}
	rec.Rating = models.ParseRating(r.Rating)
	if r.Reviews != nil {
		n := models.ParseReviewCount(r.Reviews)
		rec.Reviews = &n
	}
	return rec
}
