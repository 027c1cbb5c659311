// Package ipapi resolves the caller's public IP (via ipify) and
// geolocates it (via ip-api.com). Both lookups are best-effort inputs
// to lead enrichment; callers are expected to drop errors.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the IP and geolocation lookups used by enrichment.
type Client interface {
	// ResolveIP returns the caller's public IP address.
	ResolveIP(ctx context.Context) (string, error)
	// ResolveGeo returns the location for an IP address.
	ResolveGeo(ctx context.Context, ip string) (*GeoLocation, error)
}

// GeoLocation is the subset of ip-api fields enrichment cares about.
type GeoLocation struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

// Option configures the client.
type Option func(*httpClient)

// WithIPBaseURL sets a custom ipify base URL (for testing).
func WithIPBaseURL(url string) Option {
	return func(c *httpClient) { c.ipBaseURL = url }
}

// WithGeoBaseURL sets a custom ip-api base URL (for testing).
func WithGeoBaseURL(url string) Option {
	return func(c *httpClient) { c.geoBaseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	ipBaseURL  string
	geoBaseURL string
	http       *http.Client
}

// NewClient creates a client with a 3s timeout, matching the bound the
// enrichment pipeline tolerates per lookup.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		ipBaseURL:  "https://api.ipify.org",
		geoBaseURL: "http://ip-api.com",
		http:       &http.Client{Timeout: 3 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ResolveIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ipBaseURL+"?format=json", nil)
	if err != nil {
		return "", eris.Wrap(err, "ipapi: build ip request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ipapi: resolve ip")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", eris.New(fmt.Sprintf("ipapi: resolve ip: status %d", resp.StatusCode))
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", eris.Wrap(err, "ipapi: decode ip response")
	}
	return body.IP, nil
}

func (c *httpClient) ResolveGeo(ctx context.Context, ip string) (*GeoLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geoBaseURL+"/json/"+ip, nil)
	if err != nil {
		return nil, eris.Wrap(err, "ipapi: build geo request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ipapi: resolve geo")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.New(fmt.Sprintf("ipapi: resolve geo: status %d", resp.StatusCode))
	}

	var body struct {
		Status   string `json:"status"`
		Country  string `json:"country"`
		City     string `json:"city"`
		Timezone string `json:"timezone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "ipapi: decode geo response")
	}
	if body.Status != "success" {
		return nil, eris.New(fmt.Sprintf("ipapi: resolve geo: status %q", body.Status))
	}

	return &GeoLocation{Country: body.Country, City: body.City, Timezone: body.Timezone}, nil
}
