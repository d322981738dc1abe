// Package celestrak fetches general-perturbation element sets from the
// public Celestrak GP endpoint, one catalog number at a time.
package celestrak

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://celestrak.org/NORAD/elements/gp.php?CATNR=%d&FORMAT=tle"

// ElementSet is one fetched record: the display name plus the two element
// lines, untrimmed of their checksums.
type ElementSet struct {
	Name  string
	Line1 string
	Line2 string
}

// Client retrieves element sets by catalog number.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client. baseURL must contain a %d verb for the catalog
// number; empty selects the public Celestrak endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch retrieves the current element set for one catalog number. A 200
// response with fewer than three lines (Celestrak's "no GP data found"
// answer included) is an error.
func (c *Client) Fetch(ctx context.Context, noradID int) (ElementSet, error) {
	url := fmt.Sprintf(c.baseURL, noradID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ElementSet{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ElementSet{}, fmt.Errorf("fetching elements for %d: %w", noradID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ElementSet{}, fmt.Errorf("unexpected status %d for catalog number %d", resp.StatusCode, noradID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ElementSet{}, fmt.Errorf("reading response body: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) < 3 {
		return ElementSet{}, fmt.Errorf("incomplete element data for catalog number %d", noradID)
	}
	return ElementSet{
		Name:  strings.TrimSpace(lines[0]),
		Line1: strings.TrimSpace(lines[1]),
		Line2: strings.TrimSpace(lines[2]),
	}, nil
}
