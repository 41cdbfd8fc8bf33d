package foodimage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"diet-planner/internal/config"
)

// ErrNoImage is returned when the search has no result for the query.
var ErrNoImage = errors.New("no image found")

// Finder looks up a picture for a food item.
type Finder interface {
	FindImage(ctx context.Context, query string) (string, error)
}

// unsplashClient searches photos through the Unsplash API.
type unsplashClient struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// NewUnsplashClient creates a new Unsplash search client.
func NewUnsplashClient(cfg *config.Config) Finder {
	return &unsplashClient{
		baseURL:   strings.TrimSuffix(cfg.UnsplashURL, "/"),
		accessKey: cfg.UnsplashAccessKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FindImage returns the regular-size URL of the best match for query.
func (c *unsplashClient) FindImage(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("client_id", c.accessKey)
	params.Set("per_page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unsplash api error: status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Results) == 0 || result.Results[0].URLs.Regular == "" {
		return "", ErrNoImage
	}

	return result.Results[0].URLs.Regular, nil
}
