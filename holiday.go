package datetime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

// HolidayRecord is one holiday as reported by the data provider. Records are
// read-only once cached.
type HolidayRecord struct {
	Name    string // Holiday name as published
	Date    string // ISO date, YYYY-MM-DD
	Country string // ISO2 country code
}

// HolidayProvider fetches the holidays of one country for one year.
type HolidayProvider interface {
	Holidays(ctx context.Context, countryCode string, year int) ([]HolidayRecord, error)
}

type holidayKey struct {
	Country string
	Year    int
}

// HolidayCache memoizes holiday records per (country, year) for the process
// lifetime. Population is all-or-nothing: a key becomes visible only after a
// complete provider fetch, and concurrent first requests for the same key
// share a single in-flight fetch.
type HolidayCache struct {
	provider HolidayProvider

	mu      sync.RWMutex
	entries map[holidayKey][]HolidayRecord
	flight  singleflight.Group
}

// NewHolidayCache returns an empty cache backed by the given provider.
func NewHolidayCache(provider HolidayProvider) *HolidayCache {
	return &HolidayCache{
		provider: provider,
		entries:  make(map[holidayKey][]HolidayRecord),
	}
}

// Get returns the holiday records for (countryCode, year), fetching from the
// provider on first request. Repeated and concurrent lookups for the same
// key issue at most one provider call. Provider failures surface to every
// waiter and are not cached, so a later call may succeed.
func (c *HolidayCache) Get(ctx context.Context, countryCode string, year int) ([]HolidayRecord, error) {
	countryCode = strings.ToUpper(countryCode)
	key := holidayKey{Country: countryCode, Year: year}

	c.mu.RLock()
	records, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return records, nil
	}

	v, err, _ := c.flight.Do(flightKey(key), func() (any, error) {
		// Re-check: a previous flight may have populated the key already.
		c.mu.RLock()
		records, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return records, nil
		}

		// The fetch is shared across waiters, so it must not die with the
		// first caller's context. The provider's own timeout still bounds it.
		fetched, err := c.provider.Holidays(context.WithoutCancel(ctx), countryCode, year)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]HolidayRecord), nil
}

// Cached reports whether a (country, year) key is already populated.
func (c *HolidayCache) Cached(countryCode string, year int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[holidayKey{Country: strings.ToUpper(countryCode), Year: year}]
	return ok
}

func flightKey(k holidayKey) string {
	return k.Country + ":" + strconv.Itoa(k.Year)
}

// holidayAPIBaseURL is the Holiday API v1 endpoint.
const holidayAPIBaseURL = "https://holidayapi.com/v1/holidays"

// HolidayAPIClient is a HolidayProvider backed by the Holiday API. Calls are
// bounded by the configured HTTP timeout and retried with exponential
// backoff; exhaustion surfaces ErrUnavailable, never a silent empty result.
type HolidayAPIClient struct {
	BaseURL string
	key     string
	httpc   *http.Client
	retries uint64
}

// NewHolidayAPIClient returns a client authenticated by API key.
func NewHolidayAPIClient(key string, opts ...Option) *HolidayAPIClient {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &HolidayAPIClient{
		BaseURL: holidayAPIBaseURL,
		key:     key,
		httpc:   &http.Client{Timeout: cfg.HTTPTimeout},
		retries: cfg.MaxRetries,
	}
}

type holidayAPIResponse struct {
	Status   int    `json:"status"`
	Error    string `json:"error"`
	Holidays []struct {
		Name    string `json:"name"`
		Date    string `json:"date"`
		Country string `json:"country"`
	} `json:"holidays"`
}

// Holidays implements HolidayProvider.
func (c *HolidayAPIClient) Holidays(ctx context.Context, countryCode string, year int) ([]HolidayRecord, error) {
	params := url.Values{}
	params.Set("key", c.key)
	params.Set("country", countryCode)
	params.Set("year", strconv.Itoa(year))
	endpoint := c.BaseURL + "?" + params.Encode()

	var payload holidayAPIResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("holiday api: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("holiday api: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("holiday api: status %d", resp.StatusCode))
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return backoff.Permanent(fmt.Errorf("holiday api: decoding response: %w", err))
		}
		if payload.Error != "" {
			return backoff.Permanent(fmt.Errorf("holiday api: %s", payload.Error))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, fmt.Errorf("holidays for %s/%d: %s: %w", countryCode, year, err, ErrUnavailable)
	}

	records := make([]HolidayRecord, 0, len(payload.Holidays))
	for _, h := range payload.Holidays {
		if h.Name == "" || h.Date == "" {
			continue // malformed record, skip and keep loading
		}
		records = append(records, HolidayRecord{
			Name:    h.Name,
			Date:    h.Date,
			Country: strings.ToUpper(h.Country),
		})
	}
	return records, nil
}
