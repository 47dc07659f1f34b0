package datetime

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HolidayResolver fuzzy-matches a spoken holiday phrase against the cached
// holiday names of a country and returns the concrete date of its next
// occurrence.
type HolidayResolver struct {
	cache      *HolidayCache
	scorer     MatchScorer
	confidence float64
	maxForward int
	now        func() time.Time
}

// NewHolidayResolver wires a resolver over a holiday cache. The acceptance
// threshold, forward-year cap, scorer and clock come from options.
func NewHolidayResolver(cache *HolidayCache, opts ...Option) *HolidayResolver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newHolidayResolver(cfg, cache)
}

func newHolidayResolver(cfg *Config, cache *HolidayCache) *HolidayResolver {
	return &HolidayResolver{
		cache:      cache,
		scorer:     cfg.Scorer,
		confidence: cfg.HolidayConfidence,
		maxForward: cfg.MaxForwardYears,
		now:        cfg.Now,
	}
}

// Resolve returns the ISO date (YYYY-MM-DD) of the holiday best matching the
// phrase for the given country, starting the search at the given year. When
// the matched date has already passed, the search rolls forward year by year
// on the assumption that the holiday recurs annually, an approximation for
// lunar and other movable holidays. The forward search is capped, so a key
// that never yields a future match ends in ErrNotFound rather than looping.
//
// Returns ErrNotFound below the confidence threshold and ErrUnavailable when
// the holiday data could not be fetched.
func (r *HolidayResolver) Resolve(ctx context.Context, phrase, countryCode string, year int) (string, error) {
	query := normalizeHoliday(phrase)
	if query == "" {
		return "", ErrNotFound
	}

	for step := 0; step <= r.maxForward; step++ {
		date, err := r.resolveYear(ctx, query, countryCode, year+step)
		if err == nil {
			return date, nil
		}
		if !errors.Is(err, errDatePassed) {
			return "", err
		}
	}
	return "", fmt.Errorf("no upcoming %q within %d years: %w", phrase, r.maxForward, ErrNotFound)
}

// errDatePassed signals that the matched date lies in the past and the next
// year should be tried.
var errDatePassed = errors.New("holiday date passed")

func (r *HolidayResolver) resolveYear(ctx context.Context, query, countryCode string, year int) (string, error) {
	records, err := r.cache.Get(ctx, countryCode, year)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrNotFound
	}

	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = normalizeHoliday(rec.Name)
	}

	best, conf := matchOne(query, names, r.scorer)
	if best < 0 || conf < r.confidence {
		return "", ErrNotFound
	}

	dateStr := records[best].Date
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		// Unparseable record; the next year's list may be clean.
		return "", errDatePassed
	}
	if r.now().After(date) {
		return "", errDatePassed
	}
	return dateStr, nil
}
