package datetime

import "time"

// Config contains configuration for the resolvers and reference data stores.
type Config struct {
	DataDir  string // Directory for raw Geonames files (default: "./geonames-data")
	CacheDir string // Directory for parsed cache files (default: "./geonames-cache")

	// GeonamesUsername enables the remote geocoder fallback when non-empty.
	GeonamesUsername string
	// HolidayAPIKey enables the holiday data provider when non-empty.
	HolidayAPIKey string

	// HolidayConfidence is the minimum fuzzy-match score in [0,1] at which a
	// holiday name is accepted. Tuned by trial; 0.70 by default.
	HolidayConfidence float64
	// MaxForwardYears caps the forward-year search when a matched holiday
	// date has already passed.
	MaxForwardYears int

	// ReadyTimeout bounds how long lookups wait for deferred country index
	// population before returning ErrIndexNotReady.
	ReadyTimeout time.Duration
	// HTTPTimeout bounds each remote call.
	HTTPTimeout time.Duration
	// MaxRetries bounds the backoff retry loop around remote calls.
	MaxRetries uint64

	// Now supplies the current moment; overridable for tests.
	Now func() time.Time

	// Scorer overrides the fuzzy matching algorithm used for holiday names.
	Scorer MatchScorer
}

// Option is a functional option for configuring the package.
type Option func(*Config)

// WithDataDir sets the directory for raw data files.
func WithDataDir(dir string) Option {
	return func(c *Config) { c.DataDir = dir }
}

// WithCacheDir sets the directory for cache files.
func WithCacheDir(dir string) Option {
	return func(c *Config) { c.CacheDir = dir }
}

// WithGeonamesUsername enables the remote Geonames geocoder fallback.
func WithGeonamesUsername(u string) Option {
	return func(c *Config) { c.GeonamesUsername = u }
}

// WithHolidayAPIKey enables the holiday data provider.
func WithHolidayAPIKey(k string) Option {
	return func(c *Config) { c.HolidayAPIKey = k }
}

// WithHolidayConfidence sets the fuzzy-match acceptance threshold.
func WithHolidayConfidence(v float64) Option {
	return func(c *Config) { c.HolidayConfidence = v }
}

// WithMaxForwardYears caps the holiday forward-year rollover search.
func WithMaxForwardYears(n int) Option {
	return func(c *Config) { c.MaxForwardYears = n }
}

// WithReadyTimeout bounds the wait for deferred country index population.
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadyTimeout = d }
}

// WithHTTPTimeout bounds each remote call.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Config) { c.HTTPTimeout = d }
}

// WithMaxRetries bounds the retry loop around remote calls.
func WithMaxRetries(n uint64) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithNow overrides the current-moment provider.
func WithNow(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}

// WithScorer overrides the fuzzy matching algorithm.
func WithScorer(s MatchScorer) Option {
	return func(c *Config) { c.Scorer = s }
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	return &Config{
		DataDir:           "./geonames-data",
		CacheDir:          "./geonames-cache",
		HolidayConfidence: 0.70,
		MaxForwardYears:   5,
		ReadyTimeout:      5 * time.Second,
		HTTPTimeout:       12 * time.Second,
		MaxRetries:        3,
		Now:               time.Now,
		Scorer:            TokenSetScorer{},
	}
}
