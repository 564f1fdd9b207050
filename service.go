// Package universei18n resolves, per connected client, which locale should
// render translated content and serves that content over HTTP and a remote
// method entry point. A Service owns the translation store, the per
// connection locale registry, the per locale content cache and the remote
// loader that refreshes translation data.
package universei18n

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pitabwire/util"
	"golang.org/x/sync/errgroup"

	"github.com/klablink/meteor-universe-i18n/config"
	"github.com/klablink/meteor-universe-i18n/connection"
	"github.com/klablink/meteor-universe-i18n/format"
	"github.com/klablink/meteor-universe-i18n/loader"
	"github.com/klablink/meteor-universe-i18n/localecache"
	"github.com/klablink/meteor-universe-i18n/refresh"
	"github.com/klablink/meteor-universe-i18n/store"
	"github.com/klablink/meteor-universe-i18n/transport"
	"github.com/klablink/meteor-universe-i18n/web"
)

const (
	defaultHTTPReadTimeoutSeconds  = 15
	defaultHTTPWriteTimeoutSeconds = 15
	defaultHTTPIdleTimeoutSeconds  = 60
)

// Service holds together all locale serving components. An instance is scoped
// to stay for the lifetime of the application.
type Service struct {
	name   string
	cfg    *config.I18NConfig
	logger *util.LogEntry
	client *http.Client

	store    *store.Store
	registry *connection.Registry
	cache    *localecache.Cache
	loader   *loader.Loader
	socket   *transport.Server
	refresh  *refresh.Pool
	handler  http.Handler

	translationsDir string
	fallback        http.Handler
}

// Option configures a Service before it is wired together.
type Option func(ctx context.Context, s *Service)

// NewService assembles a fully wired locale service. Configuration comes from
// the environment unless WithConfig overrides it.
func NewService(ctx context.Context, name string, opts ...Option) (*Service, error) {
	s := &Service{name: name}

	for _, opt := range opts {
		opt(ctx, s)
	}

	if s.cfg == nil {
		cfg, err := config.FromEnv[config.I18NConfig]()
		if err != nil {
			return nil, err
		}
		s.cfg = &cfg
	}

	if s.logger == nil {
		s.logger = util.NewLogger(ctx, loggerOptions(s.cfg)...)
	}

	if err := s.init(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) init(ctx context.Context) error {
	s.store = store.New(s.cfg.DefaultLocale)
	s.registry = connection.NewRegistry(s.store)
	s.cache = localecache.New(s.store, s.buildEntry)
	s.loader = loader.New(s.client, s.store, s.cache)

	s.socket = transport.NewServer()
	s.socket.OnConnect(s.registry.Open)
	s.socket.OnClose(s.registry.Close)
	s.registerMethods()

	pool, err := refresh.NewPool(s.cfg.RefreshWorkerCount, func(ctx context.Context, locale string) {
		s.loader.Load(ctx, locale, loader.Options{
			Host:       s.cfg.RemoteHost,
			PathOnHost: s.cfg.RemotePath,
		})
	})
	if err != nil {
		return err
	}
	s.refresh = pool

	dir := s.translationsDir
	if dir == "" {
		dir = s.cfg.TranslationsDir
	}
	if dir != "" {
		if err = s.store.LoadDir(ctx, dir); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.WebsocketPath, s.socket)
	mux.Handle(s.cfg.RoutePrefix+"/", web.NewHandler(s.cfg.RoutePrefix, s.cache, s.cfg.Headers, s.fallback))
	s.handler = mux
	return nil
}

// buildEntry creates the cache entry for a locale on first read. Locales
// without any loadable content get an entry with a zero timestamp, which the
// delivery endpoint reports as unavailable.
func (s *Service) buildEntry(locale string) *localecache.Entry {
	entry := &localecache.Entry{
		JS:   format.JS(s.store, locale),
		JSON: format.JSON(s.store, locale),
		YML:  format.YML(s.store, locale),
	}

	if s.store.Has(locale) {
		entry.UpdatedAt = time.Now()
	}
	return entry
}

func (s *Service) Name() string {
	return s.name
}

func (s *Service) Config() *config.I18NConfig {
	return s.cfg
}

// Log returns the service logger bound to the supplied context.
func (s *Service) Log(ctx context.Context) *util.LogEntry {
	return s.logger.WithContext(ctx).WithField("service", s.name)
}

// Store exposes the live translation store.
func (s *Service) Store() *store.Store {
	return s.store
}

// Registry exposes the connection locale registry.
func (s *Service) Registry() *connection.Registry {
	return s.registry
}

// Cache exposes the locale content cache.
func (s *Service) Cache() *localecache.Cache {
	return s.cache
}

// Loader exposes the remote locale loader.
func (s *Service) Loader() *loader.Loader {
	return s.loader
}

// Socket exposes the websocket transport for registering further methods.
func (s *Service) Socket() *transport.Server {
	return s.socket
}

// Handler is the service's full HTTP surface: locale delivery plus the
// websocket endpoint.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// AddTranslations merges a translation tree and drops the locale's cache
// entry so the next read rebuilds fresh content.
func (s *Service) AddTranslations(locale string, tree store.Tree) error {
	normalized, err := s.store.AddTranslations(locale, tree)
	if err != nil {
		return err
	}

	s.cache.Invalidate(normalized)
	return nil
}

// LocaleForConnection resolves the locale assigned to the connection the
// current code runs on behalf of. Falls back to the process current locale
// when no connection is resolvable or the connection never set one.
func (s *Service) LocaleForConnection(ctx context.Context) string {
	if id, ok := connection.Resolve(ctx, nil); ok {
		if locale, found := s.registry.Locale(id); found && locale != "" {
			return locale
		}
	}
	return s.store.CurrentLocale()
}

// Prefetch schedules best-effort background loads for the given locales
// against the configured remote host.
func (s *Service) Prefetch(ctx context.Context, locales ...string) {
	s.refresh.Prefetch(ctx, locales...)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTPServerPort,
		Handler:      s.handler,
		ReadTimeout:  defaultHTTPReadTimeoutSeconds * time.Second,
		WriteTimeout: defaultHTTPWriteTimeoutSeconds * time.Second,
		IdleTimeout:  defaultHTTPIdleTimeoutSeconds * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.Log(groupCtx).WithField("port", s.cfg.HTTPServerPort).Info("serving locale content")
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	defer s.refresh.Close()
	return group.Wait()
}

func loggerOptions(cfg *config.I18NConfig) []util.Option {
	opts := []util.Option{
		util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
		util.WithLogNoColor(!cfg.LoggingColored()),
	}
	if level, err := util.ParseLevel(cfg.LoggingLevel()); err == nil {
		opts = append(opts, util.WithLogLevel(level))
	}
	return opts
}
