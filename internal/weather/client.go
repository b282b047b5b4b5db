package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Client handles open-meteo API interactions.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a client for baseURL. An empty baseURL selects the
// public open-meteo endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:   baseURL,
		UserAgent: "mapty/1.0",
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return io.ReadAll(resp.Body)
}

// StatusError reports a non-200 answer from the weather API.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather API error: %s", e.Status)
}

// Current fetches current conditions for a coordinate pair.
func (c *Client) Current(ctx context.Context, lat, lng float64) (*ForecastResponse, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", lat))
	params.Set("longitude", fmt.Sprintf("%.4f", lng))
	params.Set("timezone", "auto")
	params.Set("current_weather", "true")

	data, err := c.get(ctx, c.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var fc ForecastResponse
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return &fc, nil
}
