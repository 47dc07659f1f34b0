package datetime

import (
	"strings"
	"sync"
	"time"
)

// countryAliases maps ISO2 codes to curated alternate spellings heard in
// spoken queries. Countries without an entry simply have no alternates.
var countryAliases = map[string][]string{
	"US": {"usa", "u.s.", "u.s.a.", "united states of america", "america", "the states", "the united states"},
	"GB": {"uk", "u.k.", "britain", "great britain", "england", "united kingdom of great britain and northern ireland"},
	"AE": {"uae", "emirates"},
	"BO": {"bolivia"},
	"BN": {"brunei"},
	"CD": {"democratic republic of congo", "dr congo", "drc"},
	"CG": {"republic of the congo", "congo brazzaville"},
	"CI": {"ivory coast"},
	"CZ": {"czech republic"},
	"FM": {"micronesia"},
	"IR": {"iran"},
	"KP": {"north korea", "dprk"},
	"KR": {"south korea", "korea", "republic of korea"},
	"LA": {"laos"},
	"MD": {"moldova"},
	"MK": {"macedonia"},
	"NL": {"holland", "the netherlands"},
	"PS": {"palestine"},
	"RU": {"russian federation"},
	"SY": {"syria"},
	"TW": {"taiwan", "republic of china"},
	"TZ": {"tanzania"},
	"VA": {"vatican", "the vatican", "holy see"},
	"VE": {"venezuela"},
	"VN": {"vietnam"},
}

// countryNativeNames maps ISO2 codes to the country's own-language name.
var countryNativeNames = map[string]string{
	"AT": "österreich",
	"BR": "brasil",
	"CH": "schweiz",
	"CN": "zhongguo",
	"DE": "deutschland",
	"DK": "danmark",
	"EG": "misr",
	"ES": "españa",
	"FI": "suomi",
	"FR": "france",
	"GR": "hellas",
	"HR": "hrvatska",
	"HU": "magyarország",
	"IN": "bharat",
	"IT": "italia",
	"JP": "nippon",
	"MX": "méxico",
	"NL": "nederland",
	"NO": "norge",
	"PL": "polska",
	"PT": "portugal",
	"SE": "sverige",
	"TR": "türkiye",
}

// enrichCountry attaches curated alternate spellings and the native name to a
// parsed country row. Missing curated data leaves the entry untouched.
func enrichCountry(co CountryEntry) CountryEntry {
	if alts, ok := countryAliases[co.ISO]; ok {
		co.AltNames = alts
	}
	if native, ok := countryNativeNames[co.ISO]; ok {
		co.NativeName = native
	}
	return co
}

// CountryCodeIndex maps country names, alternate spellings and native names
// to ISO 3166-1 alpha-2 codes. Population may be deferred relative to first
// use: lookups block on a readiness gate for at most Config.ReadyTimeout and
// return ErrIndexNotReady on expiry, never hanging indefinitely.
type CountryCodeIndex struct {
	cfg *Config

	mu       sync.RWMutex
	byName   map[string]string // normalized name -> ISO2
	capitals map[string]string // ISO2 -> capital city name
	names    map[string]string // ISO2 -> primary name

	ready     chan struct{}
	readyOnce sync.Once
}

// NewCountryCodeIndex returns an empty, not-yet-ready index.
func NewCountryCodeIndex(cfg *Config) *CountryCodeIndex {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return &CountryCodeIndex{
		cfg:      cfg,
		byName:   make(map[string]string),
		capitals: make(map[string]string),
		names:    make(map[string]string),
		ready:    make(chan struct{}),
	}
}

// Populate flattens every country's primary name, alternate spellings and
// native name into the lookup map, then opens the readiness gate. Keys are
// case-insensitive; collisions are last-write-wins in dataset order. Entries
// without an ISO code are dropped; missing alternates or native names never
// fail the build.
func (x *CountryCodeIndex) Populate(entries []CountryEntry) {
	x.mu.Lock()
	for _, co := range entries {
		if co.ISO == "" {
			continue
		}
		x.add(co.Name, co.ISO)
		x.add(co.ISO, co.ISO)
		x.add(co.ISO3, co.ISO)
		for _, alt := range co.AltNames {
			x.add(alt, co.ISO)
		}
		x.add(co.NativeName, co.ISO)

		x.names[co.ISO] = co.Name
		if co.Capital != "" {
			x.capitals[co.ISO] = co.Capital
		}
	}
	x.mu.Unlock()

	x.readyOnce.Do(func() { close(x.ready) })
}

// add must be called with the write lock held.
func (x *CountryCodeIndex) add(name, iso string) {
	key := normalizeKey(name)
	if key == "" {
		return
	}
	x.byName[key] = iso
}

// Resolve maps any known spelling of a country to its ISO2 code. Returns
// ErrNotFound for unknown names and ErrIndexNotReady if population has not
// completed within the configured bound.
func (x *CountryCodeIndex) Resolve(name string) (string, error) {
	if err := x.awaitReady(); err != nil {
		return "", err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if iso, ok := x.byName[normalizeKey(name)]; ok {
		return iso, nil
	}
	return "", ErrNotFound
}

// CapitalOf returns the capital city of the country matching any known
// spelling of its name.
func (x *CountryCodeIndex) CapitalOf(name string) (string, error) {
	iso, err := x.Resolve(name)
	if err != nil {
		return "", err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if capital, ok := x.capitals[iso]; ok {
		return capital, nil
	}
	return "", ErrNotFound
}

// NameOf returns the primary name for an ISO2 code, or the code itself when
// unknown.
func (x *CountryCodeIndex) NameOf(code string) string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if name, ok := x.names[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// Ready reports whether population has completed, without blocking.
func (x *CountryCodeIndex) Ready() bool {
	select {
	case <-x.ready:
		return true
	default:
		return false
	}
}

func (x *CountryCodeIndex) awaitReady() error {
	select {
	case <-x.ready:
		return nil
	default:
	}

	timer := time.NewTimer(x.cfg.ReadyTimeout)
	defer timer.Stop()
	select {
	case <-x.ready:
		return nil
	case <-timer.C:
		return ErrIndexNotReady
	}
}
