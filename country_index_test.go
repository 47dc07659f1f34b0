package datetime

import (
	"errors"
	"testing"
	"time"
)

func testIndex(t *testing.T) *CountryCodeIndex {
	t.Helper()
	idx := NewCountryCodeIndex(defaultConfig())
	idx.Populate([]CountryEntry{
		{ISO: "US", ISO3: "USA", Name: "United States", Capital: "Washington",
			AltNames: []string{"usa", "america", "the states"}},
		{ISO: "DE", ISO3: "DEU", Name: "Germany", Capital: "Berlin", NativeName: "deutschland"},
		{ISO: "FR", ISO3: "FRA", Name: "France", Capital: "Paris"},
		{ISO: "", Name: "Bad Row"}, // no ISO code, must be dropped
	})
	return idx
}

func TestCountryIndexResolve(t *testing.T) {
	idx := testIndex(t)

	tests := []struct {
		name string
		want string
	}{
		{"United States", "US"},
		{"UNITED STATES", "US"},
		{"usa", "US"},
		{"U.S.A", "US"}, // punctuation collapses in normalization
		{"America", "US"},
		{"Germany", "DE"},
		{"Deutschland", "DE"},
		{"DEU", "DE"},
		{"fr", "FR"},
	}
	for _, tt := range tests {
		got, err := idx.Resolve(tt.name)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := idx.Resolve("Bad Row"); !errors.Is(err, ErrNotFound) {
		t.Error("entry without ISO code must not be indexed")
	}
	if _, err := idx.Resolve("narnia"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(narnia): got %v, want ErrNotFound", err)
	}
}

func TestCountryIndexCapitalOf(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.CapitalOf("deutschland")
	if err != nil || got != "Berlin" {
		t.Fatalf("CapitalOf(deutschland) = %q, %v; want Berlin", got, err)
	}
	if _, err := idx.CapitalOf("narnia"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CapitalOf(narnia): got %v, want ErrNotFound", err)
	}
}

func TestCountryIndexNotReadyTimesOut(t *testing.T) {
	cfg := defaultConfig()
	cfg.ReadyTimeout = 20 * time.Millisecond
	idx := NewCountryCodeIndex(cfg)

	start := time.Now()
	_, err := idx.Resolve("France")
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("Resolve on unpopulated index: got %v, want ErrIndexNotReady", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("unready wait took %v, want bounded by ReadyTimeout", elapsed)
	}
}

func TestCountryIndexDeferredPopulation(t *testing.T) {
	cfg := defaultConfig()
	cfg.ReadyTimeout = 2 * time.Second
	idx := NewCountryCodeIndex(cfg)

	go func() {
		time.Sleep(10 * time.Millisecond)
		idx.Populate([]CountryEntry{{ISO: "FR", Name: "France", Capital: "Paris"}})
	}()

	got, err := idx.Resolve("France")
	if err != nil || got != "FR" {
		t.Fatalf("Resolve after deferred Populate = %q, %v; want FR", got, err)
	}
	if !idx.Ready() {
		t.Fatal("index must report ready after Populate")
	}
}

func TestCountryIndexLastWriteWins(t *testing.T) {
	idx := NewCountryCodeIndex(defaultConfig())
	idx.Populate([]CountryEntry{
		{ISO: "XA", Name: "Samesville"},
		{ISO: "XB", Name: "Samesville"},
	})

	got, err := idx.Resolve("samesville")
	if err != nil || got != "XB" {
		t.Fatalf("colliding name = %q, %v; want last-write-wins XB", got, err)
	}
}
