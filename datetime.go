// Package datetime resolves free-form place names into IANA timezones and
// free-form holiday names into concrete calendar dates.
//
// Location resolution runs a chain of strategies over reference data from the
// Geonames bulk dump (see GazetteerStore), falling back to the remote Geonames
// search API when a username is configured. Holiday resolution fuzzy-matches
// against a per-(country, year) cache populated lazily from a holiday data
// provider.
package datetime

import (
	"errors"
	"fmt"
)

// Sentinel errors. ErrNotFound means the place or holiday does not exist in
// the reference data; ErrUnavailable means a remote source could not be
// reached, so callers can distinguish "doesn't exist" from "couldn't check".
var (
	ErrNotFound      = errors.New("not found")
	ErrUnavailable   = errors.New("data source unavailable")
	ErrIndexNotReady = errors.New("country index not ready")
)

// ResolvedLocation is the immutable result of a location resolution.
// DisplayName is a human-presentable label, not necessarily the input verbatim.
type ResolvedLocation struct {
	TimezoneID  string
	DisplayName string
}

// Service bundles the two resolvers over shared reference data.
type Service struct {
	Locations *LocationResolver
	Holidays  *HolidayResolver

	gazetteer *GazetteerStore
	countries *CountryCodeIndex
}

// New loads the gazetteer, starts country index population in the background
// and wires both resolvers. The country index population is deferred; lookups
// that arrive before it completes block for at most Config.ReadyTimeout.
//
// The holiday resolver is only wired when a holiday API key is configured;
// Holidays is nil otherwise. Likewise the remote geocoder fallback requires a
// Geonames username.
func New(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	store, err := newGazetteerStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading gazetteer: %w", err)
	}

	idx := NewCountryCodeIndex(cfg)
	go idx.Populate(store.Countries())

	svc := &Service{
		gazetteer: store,
		countries: idx,
	}
	svc.Locations = newLocationResolver(cfg, store, idx)

	if cfg.HolidayAPIKey != "" {
		provider := NewHolidayAPIClient(cfg.HolidayAPIKey,
			WithHTTPTimeout(cfg.HTTPTimeout), WithMaxRetries(cfg.MaxRetries))
		svc.Holidays = newHolidayResolver(cfg, NewHolidayCache(provider))
	}

	return svc, nil
}

// Gazetteer exposes the loaded reference data store.
func (s *Service) Gazetteer() *GazetteerStore { return s.gazetteer }

// Countries exposes the country code index.
func (s *Service) Countries() *CountryCodeIndex { return s.countries }
