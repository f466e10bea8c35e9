package offline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/pagebridge/internal/errors"
)

// siteFetcher serves a fixed set of assets and counts requests.
type siteFetcher struct {
	mu      sync.Mutex
	content map[string]string
	fail    map[string]bool
	calls   map[string]int
}

func newSite(content map[string]string) *siteFetcher {
	return &siteFetcher{content: content, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *siteFetcher) Fetch(_ context.Context, url string) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if f.fail[url] {
		return nil, fmt.Errorf("GET %s: 503 Service Unavailable", url)
	}
	body, ok := f.content[url]
	if !ok {
		return nil, fmt.Errorf("GET %s: 404 Not Found", url)
	}
	return &Response{URL: url, Status: 200, ContentType: "text/plain", Body: []byte(body)}, nil
}

func (f *siteFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var be *errors.BridgeError
	if !stderrors.As(err, &be) {
		t.Fatalf("error = %v, want *BridgeError %s", err, code)
	}
	if be.Code != code {
		t.Fatalf("Code = %s, want %s (%v)", be.Code, code, err)
	}
	if be.Category != errors.CategoryCache {
		t.Errorf("Category = %s, want %s", be.Category, errors.CategoryCache)
	}
}

func keys(t *testing.T, s Storage) []string {
	t.Helper()
	k, err := s.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	return k
}

func TestCacheName(t *testing.T) {
	tests := []struct {
		w    Worker
		want string
	}{
		{Worker{Fingerprint: "abc"}, "app-abc"},
		{Worker{Fingerprint: "abc", Prefix: "docs-"}, "docs-abc"},
	}
	for _, tt := range tests {
		if got := tt.w.CacheName(); got != tt.want {
			t.Errorf("CacheName() = %q, want %q", got, tt.want)
		}
	}
}

func TestInstallActivateReplacesGeneration(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	site := newSite(map[string]string{
		"/":                            "<html>",
		"/app.js":                      "v1",
		"https://fonts.example.com/x": "font",
	})
	assets := []string{"/", "/app.js", "https://fonts.example.com/x"}

	v1 := &Worker{Fingerprint: "f1", Assets: assets, Storage: storage, Fetcher: site}
	if err := v1.Install(ctx); err != nil {
		t.Fatalf("Install(f1) error = %v", err)
	}
	if err := v1.Activate(ctx); err != nil {
		t.Fatalf("Activate(f1) error = %v", err)
	}
	if got := storage.Len("app-f1"); got != 3 {
		t.Errorf("Len(app-f1) = %d, want 3", got)
	}

	site.content["/app.js"] = "v2"
	v2 := &Worker{Fingerprint: "f2", Assets: assets, Storage: storage, Fetcher: site}
	if err := v2.Install(ctx); err != nil {
		t.Fatalf("Install(f2) error = %v", err)
	}
	if diff := cmp.Diff([]string{"app-f1", "app-f2"}, keys(t, storage)); diff != "" {
		t.Errorf("Keys() before activate mismatch (-want +got):\n%s", diff)
	}

	if err := v2.Activate(ctx); err != nil {
		t.Fatalf("Activate(f2) error = %v", err)
	}
	if diff := cmp.Diff([]string{"app-f2"}, keys(t, storage)); diff != "" {
		t.Errorf("Keys() after activate mismatch (-want +got):\n%s", diff)
	}

	resp, err := v2.Fetch(ctx, "/app.js")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(resp.Body) != "v2" {
		t.Errorf("Fetch(/app.js) body = %q, want v2", resp.Body)
	}
	if got := site.count("/app.js"); got != 2 {
		t.Errorf("network fetches of /app.js = %d, want 2 (one per install)", got)
	}
}

func TestInstallAllOrNothing(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	site := newSite(map[string]string{"/": "<html>", "/app.js": "v1", "/app.css": "body{}"})

	v1 := &Worker{Fingerprint: "f1", Assets: []string{"/", "/app.js"}, Storage: storage, Fetcher: site}
	if err := v1.Install(ctx); err != nil {
		t.Fatalf("Install(f1) error = %v", err)
	}

	site.fail["/app.css"] = true
	v2 := &Worker{
		Fingerprint: "f2",
		Assets:      []string{"/", "/app.js", "/app.css"},
		Storage:     storage,
		Fetcher:     site,
	}
	err := v2.Install(ctx)
	requireCode(t, err, "E100")

	if diff := cmp.Diff([]string{"app-f1"}, keys(t, storage)); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got := storage.Len("app-f1"); got != 2 {
		t.Errorf("Len(app-f1) = %d, want 2", got)
	}
}

// flakyStorage fails Put after a number of successful puts.
type flakyStorage struct {
	*MemoryStorage
	okPuts  int
	puts    atomic.Int32
	deleted []string
}

func (s *flakyStorage) Open(ctx context.Context, name string) (Cache, error) {
	c, err := s.MemoryStorage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &flakyCache{Cache: c, s: s}, nil
}

func (s *flakyStorage) Delete(ctx context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return s.MemoryStorage.Delete(ctx, name)
}

type flakyCache struct {
	Cache
	s *flakyStorage
}

func (c *flakyCache) Put(ctx context.Context, r *Response) error {
	if int(c.s.puts.Add(1)) > c.s.okPuts {
		return stderrors.New("disk full")
	}
	return c.Cache.Put(ctx, r)
}

func TestInstallStorageFailureDropsGeneration(t *testing.T) {
	storage := &flakyStorage{MemoryStorage: NewMemoryStorage(), okPuts: 1}
	site := newSite(map[string]string{"/": "<html>", "/app.js": "v1"})

	w := &Worker{Fingerprint: "f1", Assets: []string{"/", "/app.js"}, Storage: storage, Fetcher: site}
	err := w.Install(context.Background())
	requireCode(t, err, "E100")

	if diff := cmp.Diff([]string{"app-f1"}, storage.deleted); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}
	if got := storage.Len("app-f1"); got != -1 {
		t.Errorf("Len(app-f1) = %d, want -1 (no cache)", got)
	}
}

func TestFailedReinstallKeepsGeneration(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStorage{MemoryStorage: NewMemoryStorage(), okPuts: 2}
	site := newSite(map[string]string{"/": "<html>", "/app.js": "v1"})

	w := &Worker{Fingerprint: "f1", Assets: []string{"/", "/app.js"}, Storage: storage, Fetcher: site}
	if err := w.Install(ctx); err != nil {
		t.Fatalf("first Install() error = %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	err := w.Install(ctx)
	requireCode(t, err, "E100")

	if len(storage.deleted) != 0 {
		t.Errorf("deleted = %v, want none", storage.deleted)
	}
	if got := storage.Len("app-f1"); got != 2 {
		t.Errorf("Len(app-f1) = %d, want 2", got)
	}
	resp, err := w.Fetch(ctx, "/app.js")
	if err != nil || string(resp.Body) != "v1" {
		t.Errorf("Fetch(/app.js) = %v, %v, want v1 from cache", resp, err)
	}
}

func TestFetchFallsBackToNetwork(t *testing.T) {
	ctx := context.Background()
	site := newSite(map[string]string{"/": "<html>", "/late.js": "late"})
	w := &Worker{Fingerprint: "f1", Assets: []string{"/"}, Storage: NewMemoryStorage(), Fetcher: site}
	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	resp, err := w.Fetch(ctx, "/late.js")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(resp.Body) != "late" {
		t.Errorf("Fetch(/late.js) body = %q, want late", resp.Body)
	}

	_, err = w.Fetch(ctx, "/missing.js")
	requireCode(t, err, "E102")

	w.Fetcher = nil
	_, err = w.Fetch(ctx, "/late.js")
	requireCode(t, err, "E102")
}

type countingObserver struct {
	installed, activated, hits, misses int
	deleted                            int
}

func (o *countingObserver) Installed(string, int, time.Duration) { o.installed++ }
func (o *countingObserver) Activated(_ string, deleted int)      { o.activated++; o.deleted += deleted }
func (o *countingObserver) Served(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func TestWorkerObserver(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	storage.Open(ctx, "app-old")
	site := newSite(map[string]string{"/": "<html>"})
	obs := &countingObserver{}

	w := &Worker{Fingerprint: "f1", Assets: []string{"/"}, Storage: storage, Fetcher: site, Observer: obs}
	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	w.Fetch(ctx, "/")
	w.Fetch(ctx, "/other")

	want := countingObserver{installed: 1, activated: 1, deleted: 1, hits: 1, misses: 1}
	if *obs != want {
		t.Errorf("observer = %+v, want %+v", *obs, want)
	}
}

func TestInstallConcurrencyLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context, url string) (*Response, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return &Response{Status: 200, Body: []byte(url)}, nil
	})

	var assets []string
	for i := range 10 {
		assets = append(assets, fmt.Sprintf("/a%d.js", i))
	}
	storage := NewMemoryStorage()
	w := &Worker{Fingerprint: "f", Assets: assets, Storage: storage, Fetcher: fetcher, Concurrency: 2}
	if err := w.Install(context.Background()); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrent fetches = %d, want <= 2", got)
	}
	if got := storage.Len("app-f"); got != 10 {
		t.Errorf("Len(app-f) = %d, want 10", got)
	}

	resp, err := w.Fetch(context.Background(), "/a3.js")
	if err != nil || string(resp.Body) != "/a3.js" {
		t.Errorf("Fetch(/a3.js) = %v, %v; want cached body keyed by asset url", resp, err)
	}
}
