package datetime

import (
	"archive/zip"
	"bufio"
	"bytes"
	"compress/bzip2"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// DataSourceID identifies a bulk data source type.
type DataSourceID string

const (
	DataSourceGeonamesCities  DataSourceID = "geonamesCities1000"
	DataSourceGeonamesCountry DataSourceID = "geonamesCountryInfo"
)

// DataSource defines a bulk data source for reference data.
type DataSource struct {
	URL  string       // Download URL
	Path string       // Local file name
	ID   DataSourceID // Identifier for processing logic
}

// dataSetFiles defines the Geonames bulk files backing the gazetteer.
var dataSetFiles = []DataSource{
	{URL: "https://download.geonames.org/export/dump/cities1000.zip", Path: "cities1000.zip", ID: DataSourceGeonamesCities},
	{URL: "https://download.geonames.org/export/dump/countryInfo.txt", Path: "countryInfo.txt", ID: DataSourceGeonamesCountry},
}

// s2CellLevel determines the granularity of the spatial index used for the
// nearest-city timezone fallback. Level 10 is roughly 10km cells at the
// equator, small enough to group nearby cities without exploding the index.
const s2CellLevel = 10

// geohashDedupePrecision collapses near-identical coordinates during the bulk
// load; 8 characters is roughly 40m of resolution.
const geohashDedupePrecision = 8

// stringInterner provides thread-safe string interning with integer indexes.
// Storing uint16 indexes instead of string headers in every city entry keeps
// the ~145K-entry table compact.
type stringInterner struct {
	mu     sync.RWMutex
	lookup []string          // index -> string
	index  map[string]uint16 // string -> index
}

// newStringInterner creates an interner with the given initial capacity.
// Index 0 is reserved for the empty string.
func newStringInterner(capacity int) *stringInterner {
	si := &stringInterner{
		lookup: make([]string, 1, capacity),
		index:  make(map[string]uint16, capacity),
	}
	si.lookup[0] = ""
	si.index[""] = 0
	return si
}

// intern returns the index for a string, creating it if needed.
func (si *stringInterner) intern(s string) uint16 {
	si.mu.RLock()
	if idx, ok := si.index[s]; ok {
		si.mu.RUnlock()
		return idx
	}
	si.mu.RUnlock()

	si.mu.Lock()
	defer si.mu.Unlock()
	if idx, ok := si.index[s]; ok {
		return idx
	}
	if len(si.lookup) > int(^uint16(0)) {
		panic(fmt.Sprintf("stringInterner capacity exceeded: %d entries", len(si.lookup)))
	}
	idx := uint16(len(si.lookup))
	si.lookup = append(si.lookup, s)
	si.index[s] = idx
	return idx
}

// get returns the string for an index, or empty string if out of bounds.
func (si *stringInterner) get(idx uint16) string {
	si.mu.RLock()
	defer si.mu.RUnlock()
	if int(idx) < len(si.lookup) {
		return si.lookup[idx]
	}
	return ""
}

var (
	// Geonames has ~252 countries and ~420 distinct timezone identifiers;
	// uint16 indexes leave ample headroom for both.
	countryInterner  *stringInterner
	timezoneInterner *stringInterner
	internOnce       sync.Once
)

func initInterners() {
	countryInterner = newStringInterner(300)
	timezoneInterner = newStringInterner(512)
}

// CityTimezoneEntry is one gazetteer city with its timezone. Multiple entries
// may share a name (homonymous cities in different countries); the resolver
// ranks them by population.
type CityTimezoneEntry struct {
	City       string  // Primary city name
	CityAlt    string  // Alternate names (comma-separated)
	country    uint16  // Index into countryInterner
	timezone   uint16  // Index into timezoneInterner
	Latitude   float32 // Latitude in degrees
	Longitude  float32 // Longitude in degrees
	Population int32   // Population count, the ranking key
}

// Country returns the ISO 3166-1 alpha-2 country code (e.g. "US", "FR").
func (c CityTimezoneEntry) Country() string {
	return countryInterner.get(c.country)
}

// Timezone returns the IANA timezone identifier (e.g. "America/Chicago").
func (c CityTimezoneEntry) Timezone() string {
	return timezoneInterner.get(c.timezone)
}

// CountryEntry is one country row from the Geonames country table, enriched
// with curated alternate spellings and native names where known.
type CountryEntry struct {
	Name       string   // Primary English name
	ISO        string   // ISO 3166-1 alpha-2 code, never empty
	ISO3       string   // ISO 3166-1 alpha-3 code
	Capital    string   // Capital city name
	Continent  string   // Continent code
	Population int32    // Population count
	GeonameID  int32    // Geonames id
	AltNames   []string // Curated alternate spellings, may be empty
	NativeName string   // Native-language name, may be empty
}

// cityGob is the gob serialization form (strings instead of intern indexes).
type cityGob struct {
	City       string
	CityAlt    string
	Country    string
	Timezone   string
	Latitude   float32
	Longitude  float32
	Population int32
}

// downloadMu serializes data file downloads and cache generation so
// concurrent constructors cannot corrupt files.
var downloadMu sync.Mutex

// httpClient is a shared HTTP client for bulk downloads.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// GazetteerStore holds the parsed place and timezone reference data. It is
// immutable after construction and safe for concurrent use.
type GazetteerStore struct {
	config    *Config
	cities    []CityTimezoneEntry // sorted by name, first-seen order within a name
	countries []CountryEntry
	nameIndex map[string][]int    // normalized name -> city indices
	cellIndex map[s2.CellID][]int // spatial index for nearest-city lookup
}

// NewGazetteerStore loads the reference data, downloading the Geonames bulk
// files on first use and caching the parsed form on disk for later runs.
func NewGazetteerStore(opts ...Option) (*GazetteerStore, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newGazetteerStore(cfg)
}

func newGazetteerStore(cfg *Config) (*GazetteerStore, error) {
	g := &GazetteerStore{config: cfg}
	internOnce.Do(initInterners)

	err := g.loadCache()
	if err != nil || len(g.cities) == 0 {
		// Reset any partially loaded cache state before a full reload.
		g.cities = nil
		g.countries = nil
		g.nameIndex = nil

		if downloadErr := g.downloadDataSets(); downloadErr != nil {
			return nil, fmt.Errorf("downloading data sets: %w", downloadErr)
		}
		if loadErr := g.loadDataSets(); loadErr != nil {
			return nil, fmt.Errorf("loading data sets: %w", loadErr)
		}
		if storeErr := g.storeCache(); storeErr != nil {
			slog.Warn("storing gazetteer cache failed", "err", storeErr)
		}
	}

	g.buildCellIndex()
	return g, nil
}

// CitiesNamed returns all city entries matching the given name, in first-seen
// dataset order. Matching is case-insensitive and includes alternate names.
func (g *GazetteerStore) CitiesNamed(name string) []CityTimezoneEntry {
	indices, ok := g.nameIndex[normalizeKey(name)]
	if !ok {
		return nil
	}
	out := make([]CityTimezoneEntry, len(indices))
	for i, idx := range indices {
		out[i] = g.cities[idx]
	}
	return out
}

// Countries returns all loaded country entries in dataset order.
func (g *GazetteerStore) Countries() []CountryEntry {
	return g.countries
}

// CountryByCode returns the country entry for an ISO2 code.
func (g *GazetteerStore) CountryByCode(code string) (CountryEntry, bool) {
	code = strings.ToUpper(code)
	for _, co := range g.countries {
		if co.ISO == code {
			return co, true
		}
	}
	return CountryEntry{}, false
}

// CityCount returns the number of loaded city entries.
func (g *GazetteerStore) CityCount() int { return len(g.cities) }

// downloadDataSets downloads the raw data files that are not present locally.
func (g *GazetteerStore) downloadDataSets() error {
	downloadMu.Lock()
	defer downloadMu.Unlock()

	if err := os.MkdirAll(g.config.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	for _, f := range dataSetFiles {
		localPath := filepath.Join(g.config.DataDir, f.Path)
		// Re-check existence inside the lock; another goroutine may have
		// finished the download already.
		if _, err := os.Stat(localPath); err == nil {
			continue
		}
		slog.Info("downloading reference data", "source", string(f.ID), "url", f.URL)
		if err := downloadFile(f.URL, localPath); err != nil {
			return fmt.Errorf("downloading %s: %w", f.ID, err)
		}
	}
	return nil
}

func downloadFile(url, path string) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}

	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(path) // best-effort cleanup of partial file
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	success = true
	return nil
}

// loadDataSets parses the raw data files and populates the store.
func (g *GazetteerStore) loadDataSets() error {
	// Local dedupe index so concurrent constructors don't race.
	dedupe := make(map[string]bool)

	for _, f := range dataSetFiles {
		localPath := filepath.Join(g.config.DataDir, f.Path)
		switch f.ID {
		case DataSourceGeonamesCities:
			if err := g.loadGeonamesCities(localPath, dedupe); err != nil {
				return fmt.Errorf("loading geonames cities: %w", err)
			}
		case DataSourceGeonamesCountry:
			if err := g.loadGeonamesCountryInfo(localPath); err != nil {
				return fmt.Errorf("loading geonames country info: %w", err)
			}
		}
	}

	sort.SliceStable(g.cities, func(i, j int) bool {
		return strings.ToLower(g.cities[i].City) < strings.ToLower(g.cities[j].City)
	})
	g.buildNameIndex()
	return nil
}

func (g *GazetteerStore) buildNameIndex() {
	g.nameIndex = make(map[string][]int)
	for i, city := range g.cities {
		key := normalizeKey(city.City)
		if key != "" {
			g.nameIndex[key] = append(g.nameIndex[key], i)
		}
		if city.CityAlt == "" {
			continue
		}
		for _, raw := range strings.Split(city.CityAlt, ",") {
			altKey := normalizeKey(raw)
			if altKey == "" || altKey == key {
				continue
			}
			g.nameIndex[altKey] = append(g.nameIndex[altKey], i)
		}
	}
}

func (g *GazetteerStore) loadGeonamesCities(path string, dedupe map[string]bool) error {
	rz, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening zip file: %w", err)
	}
	defer rz.Close()

	for _, uF := range rz.File {
		if err := g.processCityZipEntry(uF, dedupe); err != nil {
			return err
		}
	}
	return nil
}

// processCityZipEntry streams one file entry from the cities archive.
// Malformed rows are skipped, never fatal: bad field counts, unparseable
// coordinates and rows without a timezone are all dropped individually.
func (g *GazetteerStore) processCityZipEntry(uF *zip.File, dedupe map[string]bool) error {
	fi, err := uF.Open()
	if err != nil {
		return fmt.Errorf("opening file in zip: %w", err)
	}
	defer fi.Close()

	scanner := bufio.NewScanner(fi)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), "\t", 19)
		if len(fields) != 19 {
			continue
		}

		name := strings.TrimSpace(fields[1])
		country := strings.ToUpper(strings.TrimSpace(fields[8]))
		tz := strings.TrimSpace(fields[17])
		if name == "" || country == "" || tz == "" {
			continue
		}

		lat, errLat := strconv.ParseFloat(fields[4], 32)
		lng, errLng := strconv.ParseFloat(fields[5], 32)
		if errLat != nil || errLng != nil {
			continue
		}
		pop, _ := strconv.Atoi(fields[14]) // population 0 is acceptable

		// Collapse duplicate rows landing on the same coordinates and name.
		dedupeKey := geohash.EncodeWithPrecision(lat, lng, geohashDedupePrecision) + "|" + normalizeKey(name)
		if dedupe[dedupeKey] {
			continue
		}
		dedupe[dedupeKey] = true

		g.cities = append(g.cities, CityTimezoneEntry{
			City:       name,
			CityAlt:    fields[3],
			country:    countryInterner.intern(country),
			timezone:   timezoneInterner.intern(tz),
			Latitude:   float32(lat),
			Longitude:  float32(lng),
			Population: int32(pop),
		})
	}
	return scanner.Err()
}

func (g *GazetteerStore) loadGeonamesCountryInfo(path string) error {
	fi, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer fi.Close()

	scanner := bufio.NewScanner(fi)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		t := scanner.Text()
		if len(t) == 0 || t[0] == '#' {
			continue
		}

		fields := strings.SplitN(t, "\t", 19)
		if len(fields) != 19 || fields[0] == "" {
			continue
		}

		iso := strings.ToUpper(strings.TrimSpace(fields[0]))
		if iso == "" {
			continue
		}
		pop, _ := strconv.Atoi(fields[7])
		gid, _ := strconv.Atoi(fields[16])

		g.countries = append(g.countries, enrichCountry(CountryEntry{
			ISO:        iso,
			ISO3:       fields[1],
			Name:       fields[4],
			Capital:    fields[5],
			Continent:  fields[8],
			Population: int32(pop),
			GeonameID:  int32(gid),
		}))
	}
	return scanner.Err()
}

// buildCellIndex creates the S2 cell index used by the nearest-city timezone
// fallback.
func (g *GazetteerStore) buildCellIndex() {
	g.cellIndex = make(map[s2.CellID][]int)
	for i, city := range g.cities {
		ll := s2.LatLngFromDegrees(float64(city.Latitude), float64(city.Longitude))
		cell := s2.CellIDFromLatLng(ll).Parent(s2CellLevel)
		g.cellIndex[cell] = append(g.cellIndex[cell], i)
	}
}

// cellAndNeighbors returns the given cell plus its neighboring cells.
func (g *GazetteerStore) cellAndNeighbors(cell s2.CellID) []s2.CellID {
	cells := make([]s2.CellID, 0, 9)
	cells = append(cells, cell)

	edgeNeighbors := cell.EdgeNeighbors()
	for i := 0; i < 4; i++ {
		cells = append(cells, edgeNeighbors[i])
	}

	seen := make(map[s2.CellID]bool)
	for _, c := range cells {
		seen[c] = true
	}
	for i := 0; i < 4; i++ {
		for _, corner := range edgeNeighbors[i].EdgeNeighbors() {
			if !seen[corner] {
				cells = append(cells, corner)
				seen[corner] = true
			}
		}
	}
	return cells
}

// storeCache saves the parsed reference data to disk.
func (g *GazetteerStore) storeCache() error {
	cacheDir := g.config.CacheDir
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	gobCities := make([]cityGob, len(g.cities))
	for i, c := range g.cities {
		gobCities[i] = cityGob{
			City:       c.City,
			CityAlt:    c.CityAlt,
			Country:    c.Country(),
			Timezone:   c.Timezone(),
			Latitude:   c.Latitude,
			Longitude:  c.Longitude,
			Population: c.Population,
		}
	}

	writeGob := func(name string, v any) error {
		b := new(bytes.Buffer)
		if err := gob.NewEncoder(b).Encode(v); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(cacheDir, name), b.Bytes(), 0644)
	}

	if err := writeGob("cities.dmp", gobCities); err != nil {
		return err
	}
	if err := writeGob("countries.dmp", g.countries); err != nil {
		return err
	}
	return writeGob("nameindex.dmp", g.nameIndex)
}

// loadCache loads previously parsed reference data from disk.
func (g *GazetteerStore) loadCache() error {
	if err := g.loadCachedCities(); err != nil {
		return err
	}
	if err := g.loadCachedCountries(); err != nil {
		return err
	}
	return g.loadCachedNameIndex()
}

func openOptionallyBzippedFile(file string) (io.Reader, func() error, error) {
	if fh, err := os.Open(file + ".bz2"); err == nil {
		return bzip2.NewReader(fh), fh.Close, nil
	}
	fh, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", file, err)
	}
	return fh, fh.Close, nil
}

func (g *GazetteerStore) loadCachedCities() error {
	fh, cleanup, err := openOptionallyBzippedFile(filepath.Join(g.config.CacheDir, "cities.dmp"))
	if err != nil {
		return err
	}
	defer cleanup()

	var gobCities []cityGob
	if err := gob.NewDecoder(fh).Decode(&gobCities); err != nil {
		return err
	}

	g.cities = make([]CityTimezoneEntry, len(gobCities))
	for i, gc := range gobCities {
		g.cities[i] = CityTimezoneEntry{
			City:       gc.City,
			CityAlt:    gc.CityAlt,
			country:    countryInterner.intern(gc.Country),
			timezone:   timezoneInterner.intern(gc.Timezone),
			Latitude:   gc.Latitude,
			Longitude:  gc.Longitude,
			Population: gc.Population,
		}
	}
	return nil
}

func (g *GazetteerStore) loadCachedCountries() error {
	fh, cleanup, err := openOptionallyBzippedFile(filepath.Join(g.config.CacheDir, "countries.dmp"))
	if err != nil {
		return err
	}
	defer cleanup()

	return gob.NewDecoder(fh).Decode(&g.countries)
}

func (g *GazetteerStore) loadCachedNameIndex() error {
	fh, cleanup, err := openOptionallyBzippedFile(filepath.Join(g.config.CacheDir, "nameindex.dmp"))
	if err != nil {
		return err
	}
	defer cleanup()

	g.nameIndex = make(map[string][]int)
	return gob.NewDecoder(fh).Decode(&g.nameIndex)
}

// RegenerateCache forces a reload from the raw data files and rewrites the
// disk cache. The raw files must already exist in the data directory.
func RegenerateCache(opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	g := &GazetteerStore{config: cfg}
	internOnce.Do(initInterners)

	if err := g.loadDataSets(); err != nil {
		return fmt.Errorf("loading data sets: %w", err)
	}
	return g.storeCache()
}
