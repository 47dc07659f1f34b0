package datetime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// geonamesBaseURL is the Geonames web service endpoint.
const geonamesBaseURL = "https://secure.geonames.org/"

// GeonamesClient queries the Geonames search and timezone web services. It
// is the remote fallback behind LocationResolver; every call is bounded by
// the configured HTTP timeout and retried with exponential backoff.
type GeonamesClient struct {
	BaseURL  string
	username string
	httpc    *http.Client
	retries  uint64
}

// NewGeonamesClient returns a client authenticated by Geonames username.
func NewGeonamesClient(username string, opts ...Option) *GeonamesClient {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &GeonamesClient{
		BaseURL:  geonamesBaseURL,
		username: username,
		httpc:    &http.Client{Timeout: cfg.HTTPTimeout},
		retries:  cfg.MaxRetries,
	}
}

type geonamesStatus struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

type geonamesSearchResponse struct {
	Geonames []struct {
		Name        string `json:"name"`
		CountryName string `json:"countryName"`
		Lat         string `json:"lat"`
		Lng         string `json:"lng"`
	} `json:"geonames"`
	Status *geonamesStatus `json:"status"`
}

type geonamesTimezoneResponse struct {
	TimezoneID string          `json:"timezoneId"`
	Status     *geonamesStatus `json:"status"`
}

// Search geocodes a free-text place name to its best match. The returned
// place label is "<name> <country>", collapsed to the country alone when the
// match is the country itself. Returns ErrNotFound for zero results and
// ErrUnavailable when the service could not be reached.
func (c *GeonamesClient) Search(ctx context.Context, query string) (place string, lat, lng float64, err error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxRows", "1")

	var resp geonamesSearchResponse
	if err := c.call(ctx, "searchJSON", params, &resp); err != nil {
		return "", 0, 0, err
	}
	if resp.Status != nil {
		return "", 0, 0, fmt.Errorf("geonames: %s: %w", resp.Status.Message, ErrUnavailable)
	}
	if len(resp.Geonames) == 0 {
		return "", 0, 0, fmt.Errorf("geonames: no result for %q: %w", query, ErrNotFound)
	}

	match := resp.Geonames[0]
	lat, errLat := strconv.ParseFloat(match.Lat, 64)
	lng, errLng := strconv.ParseFloat(match.Lng, 64)
	if errLat != nil || errLng != nil {
		return "", 0, 0, fmt.Errorf("geonames: bad coordinates for %q: %w", query, ErrNotFound)
	}

	place = displayName(match.Name, match.CountryName)
	return place, lat, lng, nil
}

// TimezoneAt resolves the timezone identifier at a coordinate via the
// Geonames timezone service.
func (c *GeonamesClient) TimezoneAt(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var resp geonamesTimezoneResponse
	if err := c.call(ctx, "timezoneJSON", params, &resp); err != nil {
		return "", err
	}
	if resp.Status != nil {
		return "", fmt.Errorf("geonames: %s: %w", resp.Status.Message, ErrUnavailable)
	}
	if resp.TimezoneID == "" {
		return "", ErrNotFound
	}
	return resp.TimezoneID, nil
}

// call performs one service request with bounded retry. Network errors and
// 5xx/429 responses are retried; other failures abort immediately. Either
// way the surfaced error wraps ErrUnavailable, never ErrNotFound: a failed
// check is not a missing place.
func (c *GeonamesClient) call(ctx context.Context, service string, params url.Values, out any) error {
	params.Set("username", c.username)
	endpoint := strings.TrimSuffix(c.BaseURL, "/") + "/" + service + "?" + params.Encode()

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("geonames %s: %w", service, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("geonames %s: status %d", service, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("geonames %s: status %d", service, resp.StatusCode))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("geonames %s: decoding response: %w", service, err))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return fmt.Errorf("%s: %w", err, ErrUnavailable)
	}
	return nil
}
