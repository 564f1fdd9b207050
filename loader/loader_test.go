package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/klablink/meteor-universe-i18n/store"
)

// recordingCache records invalidations.
type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Invalidate(locale string) {
	c.invalidated = append(c.invalidated, locale)
}

type LoaderSuite struct {
	suite.Suite

	store    *store.Store
	cache    *recordingCache
	changed  []string
	requests []*url.URL
	respond  func(w http.ResponseWriter)
	server   *httptest.Server
	loader   *Loader
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.store = store.New("en-US")
	s.cache = &recordingCache{}
	s.changed = nil
	s.requests = nil
	s.respond = func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"content": "{\"common\": {\"yes\": \"yes\"}}"}`))
	}

	s.store.OnChange(func(locale string) {
		s.changed = append(s.changed, locale)
	})

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests = append(s.requests, r.URL)
		s.respond(w)
	}))
	s.T().Cleanup(s.server.Close)

	s.loader = New(s.server.Client(), s.store, s.cache)
}

func (s *LoaderSuite) options() Options {
	return Options{Host: s.server.URL, PathOnHost: "/universe/locale"}
}

func (s *LoaderSuite) TestUnrecognizedLocaleResolvesWithoutResult() {
	result := s.loader.Load(context.Background(), "xx-YY", s.options())

	s.Nil(result)
	s.Empty(s.requests, "no request is issued for an unrecognized locale")
	s.Empty(s.cache.invalidated)
	s.False(s.store.Has("xx-YY"))
}

func (s *LoaderSuite) TestSuccessfulLoadMergesAndInvalidates() {
	s.respond = func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"content": "{// greeting\n\"common\": {\"yes\": \"yes\"}}"}`))
	}

	result := s.loader.Load(context.Background(), "en", s.options())

	s.Require().NotNil(result)
	s.Equal("en", result.Locale)
	s.True(s.store.Has("en"))
	s.Equal([]string{"en"}, s.cache.invalidated)

	// "en" prefix-matches the default locale "en-US", so observers hear
	// about the content change.
	s.Equal([]string{"en"}, s.changed)

	s.Require().Len(s.requests, 1)
	s.Equal("/universe/locale/en", s.requests[0].Path)
	s.Equal("json", s.requests[0].Query().Get("type"))
}

func (s *LoaderSuite) TestSilentLoadSkipsNotification() {
	result := s.loader.Load(context.Background(), "en", Options{
		Host:       s.server.URL,
		PathOnHost: "/universe/locale",
		Silent:     true,
	})

	s.Require().NotNil(result)
	s.Equal([]string{"en"}, s.cache.invalidated)
	s.Empty(s.changed)
}

func (s *LoaderSuite) TestUnrelatedLocaleSkipsNotification() {
	result := s.loader.Load(context.Background(), "fr", s.options())

	s.Require().NotNil(result)
	s.Equal([]string{"fr"}, s.cache.invalidated)
	s.Empty(s.changed, "fr does not prefix-match the active en-US locale")
}

func (s *LoaderSuite) TestFreshAppendsCacheBuster() {
	result := s.loader.Load(context.Background(), "en", Options{
		Host:       s.server.URL,
		PathOnHost: "/universe/locale",
		Fresh:      true,
	})

	s.Require().NotNil(result)
	s.Require().Len(s.requests, 1)
	s.NotEmpty(s.requests[0].Query().Get("ts"))
}

func (s *LoaderSuite) TestQueryParamsPassThrough() {
	result := s.loader.Load(context.Background(), "en", Options{
		Host:        s.server.URL,
		PathOnHost:  "/universe/locale",
		QueryParams: url.Values{"namespace": []string{"common"}},
	})

	s.Require().NotNil(result)
	s.Require().Len(s.requests, 1)
	s.Equal("common", s.requests[0].Query().Get("namespace"))
}

func (s *LoaderSuite) TestMissingContentMutatesNothing() {
	s.respond = func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"somethingElse": true}`))
	}

	result := s.loader.Load(context.Background(), "en", s.options())

	s.Nil(result)
	s.False(s.store.Has("en"))
	s.Empty(s.cache.invalidated)
	s.Empty(s.changed)
}

func (s *LoaderSuite) TestErrorStatusSwallowed() {
	s.respond = func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	s.Nil(s.loader.Load(context.Background(), "en", s.options()))
	s.False(s.store.Has("en"))
}

func (s *LoaderSuite) TestUnparseableResponseSwallowed() {
	s.respond = func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`not json at all`))
	}

	s.Nil(s.loader.Load(context.Background(), "en", s.options()))
	s.False(s.store.Has("en"))
}

func (s *LoaderSuite) TestUnreachableHostSwallowed() {
	s.server.Close()

	s.Nil(s.loader.Load(context.Background(), "en", s.options()))
	s.False(s.store.Has("en"))
}
