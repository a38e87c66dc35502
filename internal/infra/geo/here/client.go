package here

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tinyhouse/internal/app/policies"
)

// Client resolves free-form addresses with the HERE Geocoding & Search API.
type Client struct {
	HTTP   *http.Client
	APIKey string
	APIURL string
}

type geocodeResponse struct {
	Items []struct {
		Address struct {
			CountryName string `json:"countryName"`
			State       string `json:"state"`
			County      string `json:"county"`
			City        string `json:"city"`
		} `json:"address"`
	} `json:"items"`
}

func (c *Client) Geocode(ctx context.Context, query string) (policies.Location, error) {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return policies.Location{}, errors.New("here: api key not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return policies.Location{}, policies.ErrLocationNotFound
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("apiKey", c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL()+"/v1/geocode?"+params.Encode(), nil)
	if err != nil {
		return policies.Location{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return policies.Location{}, fmt.Errorf("here: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return policies.Location{}, fmt.Errorf("here: unexpected status %d", resp.StatusCode)
	}
	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return policies.Location{}, fmt.Errorf("here: decode response: %w", err)
	}
	if len(out.Items) == 0 {
		return policies.Location{}, policies.ErrLocationNotFound
	}
	addr := out.Items[0].Address
	admin := addr.State
	if admin == "" {
		admin = addr.County
	}
	return policies.Location{Country: addr.CountryName, Admin: admin, City: addr.City}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) apiURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return "https://geocode.search.hereapi.com"
}

var _ policies.Geocoder = (*Client)(nil)
