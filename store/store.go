// Package store owns the in-process translation data every other component
// renders from. Translation trees are merged per locale and change listeners
// fire whenever content for a locale is replaced.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

// Tree is a nested translation mapping, keys to strings or deeper trees.
type Tree = map[string]any

// Store is the live translation source. All methods are safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	translations  map[string]Tree
	currentLocale string
	defaultLocale string
	listeners     []func(locale string)
	bundle        *i18n.Bundle
}

func New(defaultLocale string) *Store {
	s := &Store{
		translations: make(map[string]Tree),
	}

	if normalized, ok := s.Normalize(defaultLocale); ok {
		defaultLocale = normalized
	}

	s.defaultLocale = defaultLocale
	s.currentLocale = defaultLocale
	s.bundle = i18n.NewBundle(language.Make(defaultLocale))
	return s
}

// Normalize canonicalizes a locale string, e.g. "en_us" becomes "en-US".
// The second return is false for malformed or unrecognized locales.
func (s *Store) Normalize(locale string) (string, bool) {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return "", false
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return "", false
	}

	return tag.String(), true
}

// AddTranslations deep merges a translation tree under the normalized locale
// and notifies no one; invalidation and change notification stay with the
// caller so they can be ordered correctly.
func (s *Store) AddTranslations(locale string, tree Tree) (string, error) {
	normalized, ok := s.Normalize(locale)
	if !ok {
		return "", fmt.Errorf("add translations: unrecognized locale %q", locale)
	}

	s.mu.Lock()
	dst, ok := s.translations[normalized]
	if !ok {
		dst = make(Tree)
		s.translations[normalized] = dst
	}
	mergeTree(dst, tree)
	s.feedBundle(normalized, tree)
	s.mu.Unlock()

	return normalized, nil
}

// Has reports whether any translation content exists for the locale.
func (s *Store) Has(locale string) bool {
	normalized, ok := s.Normalize(locale)
	if !ok {
		return false
	}

	s.mu.RLock()
	tree, ok := s.translations[normalized]
	s.mu.RUnlock()
	return ok && len(tree) > 0
}

// Translations returns a deep copy of the tree for locale, nil when none exist.
func (s *Store) Translations(locale string) Tree {
	normalized, ok := s.Normalize(locale)
	if !ok {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok := s.translations[normalized]
	if !ok {
		return nil
	}
	return copyTree(tree)
}

// Locales lists every locale with loaded content.
func (s *Store) Locales() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locales := make([]string, 0, len(s.translations))
	for locale := range s.translations {
		locales = append(locales, locale)
	}
	return locales
}

func (s *Store) DefaultLocale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultLocale
}

// CurrentLocale is the process-wide active locale.
func (s *Store) CurrentLocale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocale
}

// SetCurrentLocale switches the process-wide active locale and notifies
// listeners. Unrecognized locales are logged and ignored.
func (s *Store) SetCurrentLocale(ctx context.Context, locale string) {
	normalized, ok := s.Normalize(locale)
	if !ok {
		util.Log(ctx).WithField("locale", locale).Error("SetCurrentLocale -- unrecognized locale")
		return
	}

	s.mu.Lock()
	s.currentLocale = normalized
	s.mu.Unlock()

	s.NotifyChange(normalized)
}

// OnChange registers a listener fired whenever content for a locale changes.
func (s *Store) OnChange(fn func(locale string)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// NotifyChange fires every change listener for locale.
func (s *Store) NotifyChange(locale string) {
	s.mu.RLock()
	listeners := make([]func(string), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(locale)
	}
}

// Localize resolves cfg against the message bundle, trying locales in order.
// It serializes against AddTranslations so merges are never observed half done.
func (s *Store) Localize(locales []string, cfg *i18n.LocalizeConfig) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	localizer := i18n.NewLocalizer(s.bundle, locales...)
	return localizer.Localize(cfg)
}

// feedBundle registers the flattened leaves of tree as messages so the
// localizer-backed translation API sees every merge. Callers hold s.mu.
func (s *Store) feedBundle(locale string, tree Tree) {
	tag, err := language.Parse(locale)
	if err != nil {
		return
	}

	var messages []*i18n.Message
	flattenTree("", tree, func(id, value string) {
		messages = append(messages, &i18n.Message{ID: id, Other: value})
	})

	if len(messages) == 0 {
		return
	}
	_ = s.bundle.AddMessages(tag, messages...)
}

func mergeTree(dst, src Tree) {
	for key, value := range src {
		srcChild, srcIsTree := value.(map[string]any)
		if !srcIsTree {
			dst[key] = value
			continue
		}

		dstChild, dstIsTree := dst[key].(map[string]any)
		if !dstIsTree {
			dstChild = make(Tree)
			dst[key] = dstChild
		}
		mergeTree(dstChild, srcChild)
	}
}

func copyTree(src Tree) Tree {
	dst := make(Tree, len(src))
	for key, value := range src {
		if child, ok := value.(map[string]any); ok {
			dst[key] = copyTree(child)
			continue
		}
		dst[key] = value
	}
	return dst
}

func flattenTree(prefix string, tree Tree, emit func(id, value string)) {
	for key, value := range tree {
		id := key
		if prefix != "" {
			id = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]any:
			flattenTree(id, v, emit)
		case string:
			emit(id, v)
		case fmt.Stringer:
			emit(id, v.String())
		}
	}
}
