// Package clearbit looks up a company by email domain via the Clearbit
// Company API. Used as a best-effort enrichment source.
package clearbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the company lookup used by enrichment.
type Client interface {
	// FindByDomain returns the company registered for a domain.
	FindByDomain(ctx context.Context, domain string) (*Company, error)
}

// Company is the subset of the Clearbit payload enrichment cares about.
type Company struct {
	Name string
	Size int // employee count, 0 when unknown
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Clearbit client. The 5s timeout is the bound the
// enrichment pipeline tolerates for the company lookup.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://company.clearbit.com",
		http:    &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FindByDomain(ctx context.Context, domain string) (*Company, error) {
	u := fmt.Sprintf("%s/v1/domains/find?domain=%s", c.baseURL, url.QueryEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: find by domain")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.New(fmt.Sprintf("clearbit: find %s: status %d", domain, resp.StatusCode))
	}

	var body struct {
		Name    string `json:"name"`
		Metrics struct {
			Employees int `json:"employees"`
		} `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "clearbit: decode response")
	}

	return &Company{Name: body.Name, Size: body.Metrics.Employees}, nil
}
