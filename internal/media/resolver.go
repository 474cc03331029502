package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPResolver resolves media-source identifiers against the hosting
// platform's resolve endpoint.
type HTTPResolver struct {
	httpClient *http.Client
	baseURL    string
}

// HTTPResolverConfig holds configuration for creating an HTTPResolver.
type HTTPResolverConfig struct {
	BaseURL string        // Required: platform base URL
	Timeout time.Duration // Optional: HTTP timeout, defaults to 10s
}

// NewHTTPResolver creates a resolver backed by the platform API.
func NewHTTPResolver(cfg HTTPResolverConfig) *HTTPResolver {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPResolver{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
	}
}

// resolveResponse is the platform's resolve payload.
type resolveResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Resolve asks the platform to turn a media-source identifier into a
// playable URL.
func (r *HTTPResolver) Resolve(ctx context.Context, mediaID string) (Resolved, error) {
	params := url.Values{}
	params.Set("media_id", mediaID)
	fullURL := r.baseURL + "/resolve?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return Resolved{}, fmt.Errorf("build resolve request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolve request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Resolved{}, fmt.Errorf("resolve failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var resolved resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&resolved); err != nil {
		return Resolved{}, fmt.Errorf("decode resolve response: %w", err)
	}
	if resolved.URL == "" {
		return Resolved{}, fmt.Errorf("resolve returned no url for %q", mediaID)
	}

	return Resolved{URL: resolved.URL, MimeType: resolved.MimeType}, nil
}
