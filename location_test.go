package datetime

import (
	"context"
	"errors"
	"testing"
	"time"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type testCity struct {
	name    string
	alt     string
	country string
	tz      string
	lat     float32
	lng     float32
	pop     int32
}

// newTestGazetteer builds a store directly from fixtures, bypassing the bulk
// load. Fixture order is the first-seen dataset order.
func newTestGazetteer(cities []testCity, countries []CountryEntry) *GazetteerStore {
	internOnce.Do(initInterners)
	g := &GazetteerStore{config: defaultConfig()}
	for _, tc := range cities {
		g.cities = append(g.cities, CityTimezoneEntry{
			City:       tc.name,
			CityAlt:    tc.alt,
			country:    countryInterner.intern(tc.country),
			timezone:   timezoneInterner.intern(tc.tz),
			Latitude:   tc.lat,
			Longitude:  tc.lng,
			Population: tc.pop,
		})
	}
	g.countries = countries
	g.buildNameIndex()
	g.buildCellIndex()
	return g
}

var fixtureCities = []testCity{
	{name: "Paris", country: "FR", tz: "Europe/Paris", lat: 48.85, lng: 2.35, pop: 2138551},
	{name: "Paris", country: "US", tz: "America/Chicago", lat: 33.66, lng: -95.55, pop: 25171},
	{name: "Tokyo", alt: "Tokio,Tōkyō", country: "JP", tz: "Asia/Tokyo", lat: 35.69, lng: 139.69, pop: 8336599},
	{name: "Portland", country: "US", tz: "America/Los_Angeles", lat: 45.52, lng: -122.67, pop: 652503},
	{name: "Portland", country: "AU", tz: "Australia/Melbourne", lat: -38.35, lng: 141.6, pop: 9712},
	{name: "Canberra", country: "AU", tz: "Australia/Sydney", lat: -35.28, lng: 149.13, pop: 367752},
	{name: "Ottawa", country: "CA", tz: "America/Toronto", lat: 45.41, lng: -75.7, pop: 812129},
	{name: "Franklin", country: "US", tz: "America/New_York", lat: 35.92, lng: -86.87, pop: 5000},
	{name: "Franklin", country: "US", tz: "America/Chicago", lat: 36.72, lng: -86.58, pop: 5000},
	{name: "Singapore", country: "SG", tz: "Asia/Singapore", lat: 1.29, lng: 103.85, pop: 3547809},
}

var fixtureCountries = []CountryEntry{
	{ISO: "FR", ISO3: "FRA", Name: "France", Capital: "Paris"},
	{ISO: "US", ISO3: "USA", Name: "United States", Capital: "Washington",
		AltNames: []string{"usa", "america", "united states of america"}},
	{ISO: "JP", ISO3: "JPN", Name: "Japan", Capital: "Tokyo", NativeName: "nippon"},
	{ISO: "AU", ISO3: "AUS", Name: "Australia", Capital: "Canberra"},
	{ISO: "CA", ISO3: "CAN", Name: "Canada", Capital: "Ottawa"},
	{ISO: "SG", ISO3: "SGP", Name: "Singapore", Capital: "Singapore"},
}

type LocationSuite struct {
	resolver *LocationResolver
	ctx      context.Context
}

var _ = Suite(&LocationSuite{})

func (s *LocationSuite) SetUpSuite(c *C) {
	cfg := defaultConfig()
	store := newTestGazetteer(fixtureCities, fixtureCountries)
	idx := NewCountryCodeIndex(cfg)
	idx.Populate(fixtureCountries)
	s.resolver = newLocationResolver(cfg, store, idx)
	s.ctx = context.Background()
}

func (s *LocationSuite) TestDirectZoneIdentifier(c *C) {
	for _, zone := range []string{"America/Chicago", "Europe/Paris", "Australia/Sydney", "UTC", "EST5EDT", "CST6CDT", "EST"} {
		loc, err := s.resolver.Resolve(s.ctx, zone)
		c.Assert(err, IsNil)
		c.Assert(loc.TimezoneID, Equals, zone)
		c.Assert(loc.DisplayName, Equals, zone)
	}
}

func (s *LocationSuite) TestAlmanacPlace(c *C) {
	loc, err := s.resolver.Resolve(s.ctx, "Dallas")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "America/Chicago")
	c.Assert(loc.DisplayName, Equals, "Dallas")
}

func (s *LocationSuite) TestAliasTable(c *C) {
	loc, err := s.resolver.Resolve(s.ctx, "China")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "Asia/Shanghai")

	loc, err = s.resolver.Resolve(s.ctx, "pacific time")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "America/Los_Angeles")
}

func (s *LocationSuite) TestCountryResolvesViaCapital(c *C) {
	loc, err := s.resolver.Resolve(s.ctx, "France")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "Europe/Paris")
	c.Assert(loc.DisplayName, Equals, "Paris France")

	// Country and "<capital> <country>" agree on the timezone.
	viaCapital, err := s.resolver.Resolve(s.ctx, "Paris France")
	c.Assert(err, IsNil)
	c.Assert(viaCapital.TimezoneID, Equals, loc.TimezoneID)
}

func (s *LocationSuite) TestLegacyZoneLinks(c *C) {
	// "Japan" is itself a zone identifier (a legacy link to Asia/Tokyo), so
	// it resolves directly rather than through the capital substitution.
	loc, err := s.resolver.Resolve(s.ctx, "Japan")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "Japan")
	c.Assert(loc.DisplayName, Equals, "Japan")
}

func (s *LocationSuite) TestCountryAliases(c *C) {
	for _, name := range []string{"america", "USA", "United States of America", "nippon", "AUS"} {
		_, err := s.resolver.Resolve(s.ctx, name)
		c.Assert(err, IsNil, Commentf("alias %q", name))
	}
}

func (s *LocationSuite) TestCityCollapsesToCountryName(c *C) {
	loc, err := s.resolver.Resolve(s.ctx, "SGP")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "Asia/Singapore")
	c.Assert(loc.DisplayName, Equals, "Singapore")
}

func (s *LocationSuite) TestHomonymPopulationRank(c *C) {
	// No qualifier: the higher-population Portland wins.
	loc, err := s.resolver.Resolve(s.ctx, "Portland")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "America/Los_Angeles")

	// Country qualifier overrides population ranking.
	loc, err = s.resolver.Resolve(s.ctx, "Portland Australia")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "Australia/Melbourne")
	c.Assert(loc.DisplayName, Equals, "Portland Australia")
}

func (s *LocationSuite) TestEqualRankKeepsDatasetOrder(c *C) {
	loc, err := s.resolver.Resolve(s.ctx, "Franklin")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "America/New_York")
}

func (s *LocationSuite) TestAlternateCityNames(c *C) {
	loc, err := s.resolver.Resolve(s.ctx, "Tokio")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "Asia/Tokyo")
}

func (s *LocationSuite) TestCompoundCountryFirst(c *C) {
	loc, err := s.resolver.Resolve(s.ctx, "Australia Portland")
	c.Assert(err, IsNil)
	c.Assert(loc.TimezoneID, Equals, "Australia/Melbourne")
}

func (s *LocationSuite) TestNotFound(c *C) {
	for _, input := range []string{"", "  ", "xyzzyqwerty", "Atlantis Lemuria"} {
		_, err := s.resolver.Resolve(s.ctx, input)
		c.Assert(errors.Is(err, ErrNotFound), Equals, true, Commentf("input %q", input))
	}
}

func TestResolveBeforeIndexReady(t *testing.T) {
	cfg := defaultConfig()
	cfg.ReadyTimeout = 20 * time.Millisecond

	store := newTestGazetteer(nil, nil)
	idx := NewCountryCodeIndex(cfg) // never populated
	r := newLocationResolver(cfg, store, idx)

	_, err := r.Resolve(context.Background(), "Japan")
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("Resolve before index ready: got %v, want ErrIndexNotReady", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		city, country, want string
	}{
		{"Tokyo", "Japan", "Tokyo Japan"},
		{"Singapore", "Singapore", "Singapore"},
		{"Paris", "France", "Paris France"},
		{"Monaco", "", "Monaco"},
	}
	for _, tt := range tests {
		if got := displayName(tt.city, tt.country); got != tt.want {
			t.Errorf("displayName(%q, %q) = %q, want %q", tt.city, tt.country, got, tt.want)
		}
	}
}

func TestIsZoneID(t *testing.T) {
	valid := []string{"America/Chicago", "Europe/Paris", "Asia/Kolkata", "UTC", "EST5EDT", "CST6CDT", "EST", "MST"}
	for _, z := range valid {
		if !isZoneID(z) {
			t.Errorf("isZoneID(%q) = false, want true", z)
		}
	}
	invalid := []string{"", "Paris", "est", "Nowhere/Nothing", "Local"}
	for _, z := range invalid {
		if isZoneID(z) {
			t.Errorf("isZoneID(%q) = true, want false", z)
		}
	}
}
