package tts

import (
	"context"
	"sync"
)

// Catalog caches remote voice listings per language key for the lifetime of
// the process. Entries are immutable once fetched; Invalidate drops the whole
// cache so the next lookup refetches.
type Catalog struct {
	client Client

	mu         sync.Mutex
	byLanguage map[string][]Voice
}

func NewCatalog(client Client) *Catalog {
	return &Catalog{
		client:     client,
		byLanguage: make(map[string][]Voice),
	}
}

// Voices returns the voice listing for languageCode (empty for the global
// catalog), fetching and caching it on first use. Errors are never cached.
func (c *Catalog) Voices(ctx context.Context, languageCode string) ([]Voice, error) {
	c.mu.Lock()
	cached, ok := c.byLanguage[languageCode]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	voices, err := c.client.ListVoices(ctx, languageCode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byLanguage[languageCode] = voices
	c.mu.Unlock()
	return voices, nil
}

// Invalidate drops all cached listings.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.byLanguage = make(map[string][]Voice)
	c.mu.Unlock()
}
