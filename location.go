package datetime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LocationResolver turns a free-form place name or timezone identifier into
// a ResolvedLocation. Strategies are tried in order, first success wins:
//
//  1. direct IANA zone identifier
//  2. curated almanac place table
//  3. colloquial alias table
//  4. country name, substituting the country's capital
//  5. gazetteer city lookup, country qualifier over population rank
//  6. compound-token disambiguation across every split and token order
//  7. remote geocoder fallback (only when configured)
type LocationResolver struct {
	cfg       *Config
	gazetteer *GazetteerStore
	countries *CountryCodeIndex
	zones     *TimezoneLookup
	geocoder  *GeonamesClient // nil disables the remote fallback
}

// NewLocationResolver wires a resolver over already-built reference data.
func NewLocationResolver(store *GazetteerStore, index *CountryCodeIndex, opts ...Option) *LocationResolver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newLocationResolver(cfg, store, index)
}

func newLocationResolver(cfg *Config, store *GazetteerStore, index *CountryCodeIndex) *LocationResolver {
	r := &LocationResolver{
		cfg:       cfg,
		gazetteer: store,
		countries: index,
		zones:     NewTimezoneLookup(store),
	}
	if cfg.GeonamesUsername != "" {
		r.geocoder = NewGeonamesClient(cfg.GeonamesUsername,
			WithHTTPTimeout(cfg.HTTPTimeout), WithMaxRetries(cfg.MaxRetries))
	}
	return r
}

// Resolve maps a locale string to a timezone and display name. Returns
// ErrNotFound when every strategy fails, ErrIndexNotReady when reference
// data is still loading and ErrUnavailable when only a remote check failed.
func (r *LocationResolver) Resolve(ctx context.Context, locale string) (ResolvedLocation, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ResolvedLocation{}, ErrNotFound
	}

	if isZoneID(locale) {
		return ResolvedLocation{TimezoneID: locale, DisplayName: locale}, nil
	}

	if zone, ok := almanacZone(locale); ok {
		return ResolvedLocation{TimezoneID: zone, DisplayName: locale}, nil
	}

	if zone, ok := aliasZone(locale); ok {
		return ResolvedLocation{TimezoneID: zone, DisplayName: locale}, nil
	}

	loc, err := r.resolveCountry(locale)
	if err == nil {
		return loc, nil
	}
	if errors.Is(err, ErrIndexNotReady) {
		return ResolvedLocation{}, fmt.Errorf("resolving %q: %w", locale, err)
	}

	if loc, ok := r.resolveCity(locale, "", ""); ok {
		return loc, nil
	}

	if loc, ok := r.resolveCompound(locale); ok {
		return loc, nil
	}

	if r.geocoder != nil {
		loc, err := r.resolveRemote(ctx, locale)
		if err == nil {
			return loc, nil
		}
		if errors.Is(err, ErrUnavailable) {
			return ResolvedLocation{}, fmt.Errorf("resolving %q: %w", locale, err)
		}
	}

	return ResolvedLocation{}, fmt.Errorf("no timezone for %q: %w", locale, ErrNotFound)
}

// isZoneID reports whether s is a loadable IANA zone identifier, including
// slash-less ids ("UTC", "EST5EDT", "EST") and legacy links ("Japan").
// "Local" and the empty string load but name no fixed zone, so they are
// rejected. Lookup is case-sensitive: spoken forms like "est" fall through
// to the alias table.
func isZoneID(s string) bool {
	if s == "" || s == "Local" {
		return false
	}
	_, err := time.LoadLocation(s)
	return err == nil
}

// resolveCountry handles bare country names: the country's capital is
// substituted and city-level resolution retried, so "what time is it in
// Japan" resolves via Tokyo.
func (r *LocationResolver) resolveCountry(locale string) (ResolvedLocation, error) {
	code, err := r.countries.Resolve(locale)
	if err != nil {
		return ResolvedLocation{}, err
	}
	countryName := r.countries.NameOf(code)

	capital, err := r.countries.CapitalOf(locale)
	if err != nil {
		return ResolvedLocation{}, ErrNotFound
	}

	if loc, ok := r.resolveCity(capital, code, countryName); ok {
		return loc, nil
	}
	// Capital missing from the gazetteer; the almanac may still know it.
	if zone, ok := almanacZone(capital); ok {
		return ResolvedLocation{TimezoneID: zone, DisplayName: displayName(capital, countryName)}, nil
	}
	return ResolvedLocation{}, ErrNotFound
}

// resolveCity picks the best gazetteer entry for a city name. A country
// qualifier wins over population rank; among equally qualified candidates
// the strictly higher population wins, and equal populations keep the
// first-seen dataset order.
func (r *LocationResolver) resolveCity(name, countryCode, countryName string) (ResolvedLocation, bool) {
	entries := r.gazetteer.CitiesNamed(name)
	if len(entries) == 0 {
		return ResolvedLocation{}, false
	}

	best := -1
	if countryCode != "" {
		for i, e := range entries {
			if e.Country() != countryCode {
				continue
			}
			if best < 0 || e.Population > entries[best].Population {
				best = i
			}
		}
	}
	if best < 0 {
		countryName = "" // qualifier didn't match; display follows the winner
		for i, e := range entries {
			if best < 0 || e.Population > entries[best].Population {
				best = i
			}
		}
	}

	e := entries[best]
	if countryName == "" {
		countryName = r.countryDisplayName(e.Country())
	}
	return ResolvedLocation{
		TimezoneID:  e.Timezone(),
		DisplayName: displayName(e.City, countryName),
	}, true
}

// resolveCompound tries every split point and both {city, country} token
// orders for multi-token input, scoring candidate pairings by population.
func (r *LocationResolver) resolveCompound(locale string) (ResolvedLocation, bool) {
	tokens := strings.Fields(locale)
	if len(tokens) < 2 {
		return ResolvedLocation{}, false
	}

	var (
		bestEntry   CityTimezoneEntry
		bestCountry string
		bestPop     = int32(-1)
		found       bool
	)

	for i := 1; i < len(tokens); i++ {
		head := strings.Join(tokens[:i], " ")
		tail := strings.Join(tokens[i:], " ")

		for _, pair := range [][2]string{{head, tail}, {tail, head}} {
			cityStr, countryStr := pair[0], pair[1]
			code, err := r.countries.Resolve(countryStr)
			if err != nil {
				continue
			}
			for _, e := range r.gazetteer.CitiesNamed(cityStr) {
				if e.Country() != code {
					continue
				}
				if e.Population > bestPop {
					bestPop = e.Population
					bestEntry = e
					bestCountry = r.countries.NameOf(code)
					found = true
				}
			}
		}
	}

	if !found {
		return ResolvedLocation{}, false
	}
	return ResolvedLocation{
		TimezoneID:  bestEntry.Timezone(),
		DisplayName: displayName(bestEntry.City, bestCountry),
	}, true
}

// resolveRemote queries the Geonames search API and derives a timezone from
// the returned coordinates.
func (r *LocationResolver) resolveRemote(ctx context.Context, locale string) (ResolvedLocation, error) {
	place, lat, lng, err := r.geocoder.Search(ctx, locale)
	if err != nil {
		return ResolvedLocation{}, err
	}

	zone := r.zones.ZoneAt(lat, lng)
	if zone == "" {
		zone, err = r.geocoder.TimezoneAt(ctx, lat, lng)
		if err != nil {
			return ResolvedLocation{}, err
		}
	}
	if zone == "" {
		return ResolvedLocation{}, ErrNotFound
	}
	return ResolvedLocation{TimezoneID: zone, DisplayName: place}, nil
}

// countryDisplayName resolves an ISO2 code to a presentable country name,
// falling back to the gazetteer when the index has no entry.
func (r *LocationResolver) countryDisplayName(code string) string {
	if name := r.countries.NameOf(code); name != code {
		return name
	}
	if co, ok := r.gazetteer.CountryByCode(code); ok {
		return co.Name
	}
	return code
}

// displayName builds the presentable place label: "<city> <country>", or
// just the country when the city is the country ("Singapore").
func displayName(city, country string) string {
	if country == "" || normalizeKey(city) == normalizeKey(country) {
		return city
	}
	return city + " " + country
}
