// Package loader fetches fresh translation content for a locale from a
// remote host. Loading is best-effort background work: every failure is
// logged and swallowed, the caller only ever sees a result or nothing.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pitabwire/util"

	"github.com/klablink/meteor-universe-i18n/store"
)

// Store is the slice of the translation store the loader mutates.
type Store interface {
	Normalize(locale string) (string, bool)
	AddTranslations(locale string, tree store.Tree) (string, error)
	CurrentLocale() string
	DefaultLocale() string
	NotifyChange(locale string)
}

// Cache is invalidated after every successful merge.
type Cache interface {
	Invalidate(locale string)
}

// Options steer a single Load call.
type Options struct {
	// Fresh appends a cache-busting timestamp to the request URL.
	Fresh bool
	// Host to fetch from, e.g. "https://translations.example.com".
	Host string
	// PathOnHost is the route prefix on the remote host.
	PathOnHost string
	// QueryParams are appended verbatim to the request URL.
	QueryParams url.Values
	// Silent suppresses the locale-change notification after a merge.
	Silent bool
}

// Result reports a successful load.
type Result struct {
	Locale string
	Tree   store.Tree
}

type Loader struct {
	client *http.Client
	store  Store
	cache  Cache
}

func New(client *http.Client, st Store, cache Cache) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client, store: st, cache: cache}
}

// remoteDocument is the wire shape of the remote endpoint's answer; Content
// holds the stringified JSON-with-comments translation tree.
type remoteDocument struct {
	Content string `json:"content"`
}

// Load fetches, merges and invalidates translation content for locale.
// It returns nil on any failure; failures are logged, never propagated.
func (l *Loader) Load(ctx context.Context, locale string, opts Options) *Result {
	log := util.Log(ctx).WithField("locale", locale)

	normalized, ok := l.store.Normalize(locale)
	if !ok {
		log.Error("Load -- unrecognized locale")
		return nil
	}

	requestURL := l.buildURL(normalized, opts)
	document, ok := l.fetch(ctx, log, requestURL)
	if !ok {
		return nil
	}

	if document.Content == "" {
		log.WithField("url", requestURL).Error("Load -- response carries no content")
		return nil
	}

	tree := make(store.Tree)
	if err := json.Unmarshal(stripJSONComments([]byte(document.Content)), &tree); err != nil {
		log.WithError(err).Error("Load -- could not parse translation content")
		return nil
	}

	if _, err := l.store.AddTranslations(normalized, tree); err != nil {
		log.WithError(err).Error("Load -- could not merge translation content")
		return nil
	}

	// Invalidate before anyone is told about the change, so the very next
	// read rebuilds instead of serving a stale entry.
	l.cache.Invalidate(normalized)

	if !opts.Silent && l.affectsActiveLocale(normalized) {
		l.store.NotifyChange(normalized)
	}

	return &Result{Locale: normalized, Tree: tree}
}

// affectsActiveLocale reports whether the updated locale is a prefix match of
// the current or the default locale; "fr" updating while "fr-CA" is active
// still changed content the active locale can see.
func (l *Loader) affectsActiveLocale(locale string) bool {
	prefix := strings.ToLower(locale)
	current := strings.ToLower(l.store.CurrentLocale())
	fallback := strings.ToLower(l.store.DefaultLocale())
	return strings.HasPrefix(current, prefix) || strings.HasPrefix(fallback, prefix)
}

func (l *Loader) buildURL(locale string, opts Options) string {
	query := url.Values{}
	for key, values := range opts.QueryParams {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set("type", "json")
	if opts.Fresh {
		query.Set("ts", strconv.FormatInt(time.Now().UnixMilli(), 10))
	}

	pathOnHost := strings.TrimSuffix(opts.PathOnHost, "/")
	return fmt.Sprintf("%s%s/%s?%s",
		strings.TrimSuffix(opts.Host, "/"), pathOnHost, url.PathEscape(locale), query.Encode())
}

func (l *Loader) fetch(ctx context.Context, log *util.LogEntry, requestURL string) (*remoteDocument, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		log.WithError(err).WithField("url", requestURL).Error("Load -- could not build request")
		return nil, false
	}

	resp, err := l.client.Do(req)
	if err != nil {
		log.WithError(err).WithField("url", requestURL).Error("Load -- request failed")
		return nil, false
	}
	defer util.CloseAndLogOnError(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.WithField("url", requestURL).WithField("status", resp.StatusCode).
			Error("Load -- unexpected response status")
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).WithField("url", requestURL).Error("Load -- could not read response")
		return nil, false
	}

	document := &remoteDocument{}
	if err = json.Unmarshal(body, document); err != nil {
		log.WithError(err).WithField("url", requestURL).Error("Load -- could not parse response")
		return nil, false
	}

	return document, true
}
