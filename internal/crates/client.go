// Package crates provides a client for the crates.io registry API.
package crates

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrNotFound indicates the crate does not exist on the registry
	ErrNotFound = errors.New("crate not found on registry")
	// ErrRateLimit indicates the registry rate limit was exceeded
	ErrRateLimit = errors.New("registry rate limit exceeded")
	// ErrAPIError indicates a general registry API error
	ErrAPIError = errors.New("registry API error")
	// ErrNoVersions indicates the registry returned a crate with no versions
	ErrNoVersions = errors.New("registry returned no versions for crate")
)

// Client handles communication with the crates.io API.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// crateResponse is the subset of the crates.io crate endpoint we read.
// Versions are returned in descending recency order, so the first
// entry is the latest.
type crateResponse struct {
	Versions []versionEntry `json:"versions"`
}

// versionEntry is a single published version of a crate.
type versionEntry struct {
	Num string `json:"num"`
}

// NewClient creates a new crates.io API client.
func NewClient() *Client {
	return &Client{
		BaseURL:   "https://crates.io",
		UserAgent: "cratewatch/1.0",
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LatestVersion fetches the latest published version of a crate.
// "Latest" is the first entry of the registry's version list; no
// version comparison happens on this side.
func (c *Client) LatestVersion(name string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/crates/%s", c.BaseURL, url.PathEscape(name))

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIError, err)
	}
	defer resp.Body.Close()

	// Handle rate limiting
	if resp.StatusCode == 429 || resp.StatusCode == 403 {
		return "", ErrRateLimit
	}

	// Handle not found
	if resp.StatusCode == 404 {
		return "", ErrNotFound
	}

	// Handle other errors
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIError, err)
	}

	var crate crateResponse
	if err := json.Unmarshal(body, &crate); err != nil {
		return "", fmt.Errorf("%w: failed to parse registry response: %v", ErrAPIError, err)
	}

	if len(crate.Versions) == 0 {
		return "", ErrNoVersions
	}

	return crate.Versions[0].Num, nil
}
