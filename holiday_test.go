package datetime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProvider serves canned holiday data and counts fetches.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	data  map[string][]HolidayRecord
	err   error
	delay time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		calls: make(map[string]int),
		data:  make(map[string][]HolidayRecord),
	}
}

func (p *fakeProvider) add(cc string, year int, records ...HolidayRecord) {
	p.data[fmt.Sprintf("%s:%d", cc, year)] = records
}

func (p *fakeProvider) Holidays(_ context.Context, cc string, year int) ([]HolidayRecord, error) {
	key := fmt.Sprintf("%s:%d", cc, year)
	p.mu.Lock()
	p.calls[key]++
	err := p.err
	records := p.data[key]
	delay := p.delay
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *fakeProvider) callCount(cc string, year int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[fmt.Sprintf("%s:%d", cc, year)]
}

func usHolidays2023() []HolidayRecord {
	return []HolidayRecord{
		{Name: "New Year's Day", Date: "2023-01-01", Country: "US"},
		{Name: "Independence Day", Date: "2023-07-04", Country: "US"},
		{Name: "Thanksgiving Day", Date: "2023-11-23", Country: "US"},
		{Name: "Christmas Day", Date: "2023-12-25", Country: "US"},
	}
}

func usHolidays2024() []HolidayRecord {
	return []HolidayRecord{
		{Name: "New Year's Day", Date: "2024-01-01", Country: "US"},
		{Name: "Christmas Day", Date: "2024-12-25", Country: "US"},
	}
}

func TestHolidayCacheMemoization(t *testing.T) {
	provider := newFakeProvider()
	provider.add("US", 2023, usHolidays2023()...)
	cache := NewHolidayCache(provider)
	ctx := context.Background()

	first, err := cache.Get(ctx, "US", 2023)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Get(ctx, "us", 2023) // country code case-insensitive
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("Get returned %d/%d records, want 4", len(first), len(second))
	}
	if got := provider.callCount("US", 2023); got != 1 {
		t.Fatalf("provider called %d times, want 1 (memoization)", got)
	}
	if !cache.Cached("US", 2023) {
		t.Fatal("key must report cached after population")
	}
}

func TestHolidayCacheExtendsToNewYears(t *testing.T) {
	provider := newFakeProvider()
	provider.add("US", 2023, usHolidays2023()...)
	provider.add("US", 2024, usHolidays2024()...)
	cache := NewHolidayCache(provider)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "US", 2023); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(ctx, "US", 2024); err != nil {
		t.Fatal(err)
	}
	if provider.callCount("US", 2023) != 1 || provider.callCount("US", 2024) != 1 {
		t.Fatal("each (country, year) key must fetch exactly once")
	}
}

func TestHolidayCacheConcurrentSingleFetch(t *testing.T) {
	provider := newFakeProvider()
	provider.add("US", 2023, usHolidays2023()...)
	provider.delay = 50 * time.Millisecond
	cache := NewHolidayCache(provider)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := cache.Get(context.Background(), "US", 2023)
			if err != nil || len(records) != 4 {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatal("concurrent Get calls must all succeed")
	}
	if got := provider.callCount("US", 2023); got != 1 {
		t.Fatalf("provider called %d times under concurrency, want 1", got)
	}
}

// cancelAwareProvider honors context cancellation during its artificial
// fetch delay, unlike fakeProvider which ignores the context.
type cancelAwareProvider struct {
	records []HolidayRecord
	delay   time.Duration
}

func (p cancelAwareProvider) Holidays(ctx context.Context, _ string, _ int) ([]HolidayRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.delay):
	}
	return p.records, nil
}

func TestHolidayCacheFetchOutlivesCallerCancel(t *testing.T) {
	cache := NewHolidayCache(cancelAwareProvider{
		records: usHolidays2023(),
		delay:   50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	records, err := cache.Get(ctx, "US", 2023)
	if err != nil {
		t.Fatalf("shared fetch must survive the caller's cancellation: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if !cache.Cached("US", 2023) {
		t.Fatal("completed fetch must populate the key")
	}
}

func TestHolidayCacheDoesNotCacheFailures(t *testing.T) {
	provider := newFakeProvider()
	provider.add("US", 2023, usHolidays2023()...)
	provider.err = fmt.Errorf("flaky: %w", ErrUnavailable)
	cache := NewHolidayCache(provider)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "US", 2023); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	if cache.Cached("US", 2023) {
		t.Fatal("failed fetch must not populate the key")
	}

	provider.mu.Lock()
	provider.err = nil
	provider.mu.Unlock()

	records, err := cache.Get(ctx, "US", 2023)
	if err != nil || len(records) != 4 {
		t.Fatalf("recovery Get = %d records, %v; want 4", len(records), err)
	}
}

func TestHolidayAPIClient(t *testing.T) {
	var gotCountry, gotYear string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCountry = r.URL.Query().Get("country")
		gotYear = r.URL.Query().Get("year")
		fmt.Fprint(w, `{"status":200,"holidays":[
			{"name":"Christmas Day","date":"2023-12-25","country":"us"},
			{"name":"Broken Record","date":"","country":"us"},
			{"name":"New Year's Day","date":"2023-01-01","country":"us"}
		]}`)
	}))
	defer srv.Close()

	client := NewHolidayAPIClient("test-key")
	client.BaseURL = srv.URL

	records, err := client.Holidays(context.Background(), "US", 2023)
	if err != nil {
		t.Fatal(err)
	}
	if gotCountry != "US" || gotYear != "2023" {
		t.Fatalf("request params country=%q year=%q", gotCountry, gotYear)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (record without date skipped)", len(records))
	}
	if records[0].Country != "US" {
		t.Errorf("country = %q, want upper-cased US", records[0].Country)
	}
}

func TestHolidayAPIClientRetriesThenUnavailable(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHolidayAPIClient("test-key", WithMaxRetries(2))
	client.BaseURL = srv.URL

	_, err := client.Holidays(context.Background(), "US", 2023)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("server saw %d attempts, want 3 (initial + 2 retries)", got)
	}
}

func TestHolidayAPIClientPermanentFailureNoRetry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewHolidayAPIClient("bad-key", WithMaxRetries(5))
	client.BaseURL = srv.URL

	_, err := client.Holidays(context.Background(), "US", 2023)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("server saw %d attempts, want 1 (4xx is permanent)", got)
	}
}
