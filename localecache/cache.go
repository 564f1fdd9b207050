// Package localecache keeps one lazily built entry per locale. An entry
// carries the moment it was created plus renderer handles for the three wire
// shapes; invalidating a locale is the signal that its translation data
// changed, there is no TTL.
package localecache

import (
	"sync"
	"time"

	"github.com/klablink/meteor-universe-i18n/format"
)

// Entry is the cached view of one locale. A zero UpdatedAt means the locale
// is unknown or has no loadable content.
type Entry struct {
	UpdatedAt time.Time
	JS        format.Renderer
	JSON      format.Renderer
	YML       format.Renderer
}

// Normalizer canonicalizes locale strings used as cache keys.
type Normalizer interface {
	Normalize(locale string) (string, bool)
}

// Builder creates the entry for a locale on first read.
type Builder func(locale string) *Entry

// Cache maps normalized locales to their entries.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	normalizer Normalizer
	build      Builder
}

func New(normalizer Normalizer, build Builder) *Cache {
	return &Cache{
		entries:    make(map[string]*Entry),
		normalizer: normalizer,
		build:      build,
	}
}

// Get returns the entry for locale, creating it on first read. A repeated Get
// without an intervening Invalidate returns the identical entry, timestamp
// included.
func (c *Cache) Get(locale string) *Entry {
	key := c.key(locale)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		entry = c.build(key)
		c.entries[key] = entry
	}
	return entry
}

// All returns a copy of the full mapping, for diagnostics and bulk use.
func (c *Cache) All() map[string]*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]*Entry, len(c.entries))
	for key, entry := range c.entries {
		out[key] = entry
	}
	return out
}

// Invalidate drops the entry for locale so the next read rebuilds it. No-op
// when absent.
func (c *Cache) Invalidate(locale string) {
	key := c.key(locale)

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// key canonicalizes the cache key; strings that fail normalization keep their
// raw form so unknown locales still land on a single entry each.
func (c *Cache) key(locale string) string {
	if normalized, ok := c.normalizer.Normalize(locale); ok {
		return normalized
	}
	return locale
}
