package config

import (
	"context"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "universei18n/config/" + string(c)
}

const ctxKeyConfiguration = contextKey("configurationKey")

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

// I18NConfig holds every knob of the locale service.
type I18NConfig struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	ServiceName string `envDefault:"universe-i18n" env:"SERVICE_NAME" yaml:"service_name"`

	HTTPServerPort string `envDefault:":7315"      env:"HTTP_PORT"     yaml:"http_server_port"`
	WebsocketPath  string `envDefault:"/websocket" env:"SOCKET_PATH"   yaml:"websocket_path"`

	RoutePrefix   string `envDefault:"/universe/locale" env:"I18N_ROUTE_PREFIX"   yaml:"route_prefix"`
	DefaultLocale string `envDefault:"en-US"            env:"I18N_DEFAULT_LOCALE" yaml:"default_locale"`

	// SameLocaleOnServerConnection gates the remote-procedure locale setter.
	SameLocaleOnServerConnection bool `envDefault:"true" env:"I18N_SAME_LOCALE_ON_CONNECTION" yaml:"same_locale_on_connection"`

	TranslationsDir string            `env:"I18N_TRANSLATIONS_DIR" yaml:"translations_dir"`
	Headers         map[string]string `env:"I18N_HEADERS"          yaml:"headers"`

	RemoteHost string `env:"I18N_REMOTE_HOST"                         yaml:"remote_host"`
	RemotePath string `env:"I18N_REMOTE_PATH" envDefault:"/universe/locale" yaml:"remote_path"`

	RefreshWorkerCount int `envDefault:"4" env:"I18N_REFRESH_WORKER_COUNT" yaml:"refresh_worker_count"`
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingColored() bool
}

var _ ConfigurationLogLevel = new(I18NConfig)

func (c *I18NConfig) LoggingLevel() string {
	return c.LogLevel
}

func (c *I18NConfig) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *I18NConfig) LoggingColored() bool {
	return c.LogColored
}

type ConfigurationI18N interface {
	GetRoutePrefix() string
	GetDefaultLocale() string
	CanSetLocaleOnConnection() bool
	TranslationHeaders() map[string]string
}

var _ ConfigurationI18N = new(I18NConfig)

func (c *I18NConfig) GetRoutePrefix() string {
	return c.RoutePrefix
}

func (c *I18NConfig) GetDefaultLocale() string {
	return c.DefaultLocale
}

func (c *I18NConfig) CanSetLocaleOnConnection() bool {
	return c.SameLocaleOnServerConnection
}

func (c *I18NConfig) TranslationHeaders() map[string]string {
	return c.Headers
}
