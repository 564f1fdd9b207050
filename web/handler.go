// Package web serves cached locale content over HTTP with content
// negotiation on the type query parameter.
package web

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/pitabwire/util"

	"github.com/klablink/meteor-universe-i18n/format"
	"github.com/klablink/meteor-universe-i18n/localecache"
)

// localePattern claims path segments that look like a locale: two or more
// letters optionally followed by letters, digits, hyphen or underscore.
var localePattern = regexp.MustCompile(`^[a-zA-Z]{2,}[a-zA-Z0-9_-]*$`)

var contentTypes = map[string]string{
	"js":   "application/javascript; charset=utf-8",
	"json": "application/json; charset=utf-8",
	"yml":  "text/yaml; charset=utf-8",
}

// Cache is the locale cache the handler reads entries from.
type Cache interface {
	Get(locale string) *localecache.Entry
}

// Handler serves GET <prefix>/<locale>?type=js|json|yml. Requests whose
// trailing segment does not look like a locale fall through to next.
type Handler struct {
	prefix  string
	cache   Cache
	headers map[string]string
	next    http.Handler
}

func NewHandler(prefix string, cache Cache, headers map[string]string, next http.Handler) *Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return &Handler{
		prefix:  strings.TrimSuffix(prefix, "/"),
		cache:   cache,
		headers: headers,
		next:    next,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	locale, ok := h.localeFromPath(r.URL.Path)
	if !ok {
		h.next.ServeHTTP(w, r)
		return
	}

	query := r.URL.Query()

	contentType := query.Get("type")
	if contentType == "" {
		contentType = "js"
	}
	mime, ok := contentTypes[contentType]
	if !ok {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	entry := h.cache.Get(locale)
	if entry == nil || entry.UpdatedAt.IsZero() {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	opts := format.Options{
		Namespace: query.Get("namespace"),
		Diff:      truthy(query.Get("diff")),
		Preload:   truthy(query.Get("preload")),
	}

	var render format.Renderer
	switch contentType {
	case "json":
		render = entry.JSON
	case "yml":
		render = entry.YML
	default:
		render = entry.JS
	}

	body, err := render(opts)
	if err != nil {
		util.Log(r.Context()).WithError(err).WithField("locale", locale).
			Error("ServeHTTP -- could not render locale content")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for key, value := range h.headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Last-Modified", entry.UpdatedAt.UTC().Format(http.TimeFormat))
	if truthy(query.Get("attachment")) {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", locale+".i18n."+contentType))
	}
	w.Header().Set("Content-Type", mime)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) localeFromPath(requestPath string) (string, bool) {
	segment, ok := strings.CutPrefix(requestPath, h.prefix+"/")
	if !ok {
		return "", false
	}

	segment = strings.TrimSuffix(segment, "/")
	if strings.Contains(segment, "/") || !localePattern.MatchString(segment) {
		return "", false
	}
	return segment, true
}

// truthy mirrors the loose boolean reading of query parameters: anything but
// an empty string, "0" and "false" counts as set.
func truthy(value string) bool {
	switch strings.ToLower(value) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}
