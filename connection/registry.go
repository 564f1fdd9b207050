package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pitabwire/util"
)

// ErrNoSuchConnection indicates a locale was set for a connection that was
// never opened or was already closed. This is a lifecycle-wiring defect in the
// caller, not an expected runtime condition.
var ErrNoSuchConnection = errors.New("no such connection")

// Normalizer canonicalizes locale strings before they are stored.
type Normalizer interface {
	Normalize(locale string) (string, bool)
}

// Registry maps live connection ids to their assigned locale. The hosting
// transport must call Open and Close exactly once each per connection, in
// that order.
type Registry struct {
	mu         sync.RWMutex
	locales    map[string]string
	normalizer Normalizer
}

func NewRegistry(normalizer Normalizer) *Registry {
	return &Registry{
		locales:    make(map[string]string),
		normalizer: normalizer,
	}
}

// Open creates an entry with an empty locale. A duplicate id overwrites
// silently; the transport guarantees ids are unique per open connection.
func (r *Registry) Open(id string) {
	r.mu.Lock()
	r.locales[id] = ""
	r.mu.Unlock()
}

// Close removes the entry. No-op when absent.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.locales, id)
	r.mu.Unlock()
}

// Locale returns the stored locale for id. The second return is false when
// the id is empty or has no entry.
func (r *Registry) Locale(id string) (string, bool) {
	if id == "" {
		return "", false
	}

	r.mu.RLock()
	locale, ok := r.locales[id]
	r.mu.RUnlock()
	return locale, ok
}

// SetLocale normalizes locale and assigns it to an already open connection.
// An unrecognized locale is logged and ignored. Setting a locale for an
// unknown id fails with ErrNoSuchConnection.
func (r *Registry) SetLocale(ctx context.Context, id, locale string) error {
	normalized, ok := r.normalizer.Normalize(locale)
	if !ok {
		util.Log(ctx).WithField("locale", locale).Error("SetLocale -- unrecognized locale")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok = r.locales[id]; !ok {
		return fmt.Errorf("set locale for connection %q: %w", id, ErrNoSuchConnection)
	}

	r.locales[id] = normalized
	return nil
}

// Len reports the number of open connections, for diagnostics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locales)
}

// Connections lists the ids of every open connection, for diagnostics.
func (r *Registry) Connections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.locales))
	for id := range r.locales {
		ids = append(ids, id)
	}
	return ids
}
