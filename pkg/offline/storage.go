package offline

import (
	"context"
	"net/http"
	"sort"
	"sync"
)

// Response is a cached or fetched asset.
type Response struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
}

// Storage holds named cache generations.
type Storage interface {
	// Open returns the cache with the given name, creating it if needed.
	Open(ctx context.Context, name string) (Cache, error)
	// Keys lists the names of existing caches.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes a cache and everything in it. Deleting a missing
	// cache is not an error.
	Delete(ctx context.Context, name string) error
}

// Cache is one generation of cached assets keyed by request URL.
type Cache interface {
	Put(ctx context.Context, resp *Response) error
	// Match returns the cached response for url, or ok=false on a miss.
	Match(ctx context.Context, url string) (resp *Response, ok bool, err error)
}

// MemoryStorage is an in-process Storage. It is safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	caches map[string]*memoryCache
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]*Response)}
		s.caches[name] = c
	}
	return c, nil
}

func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.caches))
	for k := range s.caches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.caches, name)
	return nil
}

// Len returns the number of entries in the named cache, or -1 when the
// cache does not exist.
func (s *MemoryStorage) Len(name string) int {
	s.mu.RLock()
	c, ok := s.caches[name]
	s.mu.RUnlock()
	if !ok {
		return -1
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Response
}

func (c *memoryCache) Put(_ context.Context, resp *Response) error {
	cp := *resp
	cp.Body = append([]byte(nil), resp.Body...)

	c.mu.Lock()
	c.entries[resp.URL] = &cp
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Match(_ context.Context, url string) (*Response, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[url]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

func statusOK(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
