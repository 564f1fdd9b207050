package universei18n

import (
	"context"
	"net/http"

	"github.com/pitabwire/util"

	"github.com/klablink/meteor-universe-i18n/config"
)

// WithConfig overrides the environment-derived configuration.
func WithConfig(cfg *config.I18NConfig) Option {
	return func(_ context.Context, s *Service) {
		s.cfg = cfg
	}
}

// WithLogger replaces the default logger.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, s *Service) {
		s.logger = util.NewLogger(ctx, opts...)
	}
}

// WithHTTPClient sets the client used for remote locale loads.
func WithHTTPClient(client *http.Client) Option {
	return func(_ context.Context, s *Service) {
		s.client = client
	}
}

// WithTranslations loads every translation file under dir at startup,
// overriding the configured translations directory.
func WithTranslations(dir string) Option {
	return func(_ context.Context, s *Service) {
		s.translationsDir = dir
	}
}

// WithFallbackHandler receives requests under the route prefix whose trailing
// segment does not look like a locale.
func WithFallbackHandler(next http.Handler) Option {
	return func(_ context.Context, s *Service) {
		s.fallback = next
	}
}
