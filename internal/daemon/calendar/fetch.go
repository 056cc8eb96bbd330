// Package calendar adapts ICS subscription feeds into immutable domain event
// snapshots for the reminder manager.
package calendar

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// fetchTimeout bounds one ICS request.
const fetchTimeout = 15 * time.Second

// FetchResult contains the outcome of fetching a single ICS source.
type FetchResult struct {
	SourceID  string
	Body      []byte // ICS payload (either freshly fetched or from cache)
	FromCache bool   // true if we reused cached body due to 304
}

// cacheEntry holds HTTP cache state for a single ICS URL.
type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher fetches ICS feeds with ETag / Last-Modified revalidation.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// NewFetcher creates a new ICS fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		cache:  make(map[string]*cacheEntry),
	}
}

// Fetch retrieves one ICS source, reusing the cached body on 304.
func (f *Fetcher) Fetch(ctx context.Context, sourceID, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", sourceID, err)
	}

	f.mu.Lock()
	entry := f.cache[url]
	f.mu.Unlock()

	if entry != nil {
		if entry.etag != "" {
			req.Header.Set("If-None-Match", entry.etag)
		}
		if entry.lastModified != "" {
			req.Header.Set("If-Modified-Since", entry.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed: %w", sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && entry != nil {
		return &FetchResult{SourceID: sourceID, Body: entry.body, FromCache: true}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", sourceID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", sourceID, err)
	}

	f.mu.Lock()
	f.cache[url] = &cacheEntry{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		body:         body,
	}
	f.mu.Unlock()

	log.Printf("[calendar] fetched %s (%d bytes)", sourceID, len(body))
	return &FetchResult{SourceID: sourceID, Body: body}, nil
}
