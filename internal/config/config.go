// Package config loads the resource server configuration from a config
// file, JWKS_GUARD_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	playvalidator "github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/auth0/go-jwks-guard/validator"
)

// EnvPrefix prefixes every environment variable, e.g. JWKS_GUARD_AUTH_ISSUER.
const EnvPrefix = "JWKS_GUARD"

// Config is the resource server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" default:"0.0.0.0"`
	Port            int           `mapstructure:"port" default:"5002" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"10s" validate:"min=0s"`
	CORSOrigins     []string      `mapstructure:"cors_origins" default:"[\"http://localhost:5173\",\"http://localhost:8081\"]"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AuthConfig holds the token validation settings.
type AuthConfig struct {
	JWKSURL           string                         `mapstructure:"jwks_url" validate:"omitempty,url"`
	DiscoverJWKS      bool                           `mapstructure:"discover_jwks"`
	Issuer            string                         `mapstructure:"issuer" validate:"required,url"`
	Audience          []string                       `mapstructure:"audience" validate:"required,min=1,dive,required"`
	AllowedAlgorithms []validator.SignatureAlgorithm `mapstructure:"allowed_algorithms" default:"[\"RS256\"]" validate:"required,min=1,dive,required"`
	DefaultAlgorithm  validator.SignatureAlgorithm   `mapstructure:"default_algorithm" default:"RS256" validate:"required"`
	CacheFreshness    time.Duration                  `mapstructure:"cache_freshness" default:"1h" validate:"min=0s"`
	FetchTimeout      time.Duration                  `mapstructure:"fetch_timeout" default:"10s" validate:"min=0s"`
	ClockSkew         time.Duration                  `mapstructure:"clock_skew" validate:"min=0s"`
	AllowKidFallback  bool                           `mapstructure:"allow_kid_fallback"`
	StaleKeySet       bool                           `mapstructure:"stale_key_set" default:"true"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" default:"text" validate:"oneof=text json"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" default:"true"`
	Path    string `mapstructure:"path" default:"/metrics" validate:"startswith=/"`
}

// settings flattens c into viper keys.
func (c Config) settings() map[string]any {
	return map[string]any{
		"server.host":             c.Server.Host,
		"server.port":             c.Server.Port,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"server.cors_origins":     c.Server.CORSOrigins,
		"auth.jwks_url":           c.Auth.JWKSURL,
		"auth.discover_jwks":      c.Auth.DiscoverJWKS,
		"auth.issuer":             c.Auth.Issuer,
		"auth.audience":           c.Auth.Audience,
		"auth.allowed_algorithms": c.Auth.AllowedAlgorithms,
		"auth.default_algorithm":  c.Auth.DefaultAlgorithm,
		"auth.cache_freshness":    c.Auth.CacheFreshness,
		"auth.fetch_timeout":      c.Auth.FetchTimeout,
		"auth.clock_skew":         c.Auth.ClockSkew,
		"auth.allow_kid_fallback": c.Auth.AllowKidFallback,
		"auth.stale_key_set":      c.Auth.StaleKeySet,
		"log.level":               c.Log.Level,
		"log.format":              c.Log.Format,
		"metrics.enabled":         c.Metrics.Enabled,
		"metrics.path":            c.Metrics.Path,
	}
}

// Default returns the configuration with only the struct defaults applied.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}
	return &cfg, nil
}

// InitViper returns a viper instance that reads config.yaml from the
// working directory, ./config or /etc/jwks-guard, and JWKS_GUARD_*
// environment variables.
func InitViper() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/jwks-guard/")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Registering every key as a default is what lets AutomaticEnv see
	// nested keys during Unmarshal.
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	for key, value := range cfg.settings() {
		v.SetDefault(key, value)
	}

	return v, nil
}

// Load reads the configuration and validates it. A missing config file is
// not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that the key set location is known.
func (c *Config) Validate() error {
	if err := playvalidator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Auth.JWKSURL == "" && !c.Auth.DiscoverJWKS {
		return errors.New("invalid config: auth.jwks_url is required unless auth.discover_jwks is set")
	}
	return nil
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"host":            "server.host",
	"port":            "server.port",
	"jwks-url":        "auth.jwks_url",
	"discover-jwks":   "auth.discover_jwks",
	"issuer":          "auth.issuer",
	"audience":        "auth.audience",
	"algorithms":      "auth.allowed_algorithms",
	"cache-freshness": "auth.cache_freshness",
	"kid-fallback":    "auth.allow_kid_fallback",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// BindFlags registers the persistent flags of cmd and binds them to v.
// Flag values only take effect when set on the command line.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (default: ./config.yaml)")
	flags.String("host", "", "Host to bind to")
	flags.IntP("port", "p", 0, "Port to listen on")
	flags.String("jwks-url", "", "URL of the JWKS document")
	flags.Bool("discover-jwks", false, "Discover the JWKS URL from the issuer's OpenID configuration")
	flags.String("issuer", "", "Expected token issuer")
	flags.StringSlice("audience", nil, "Accepted token audiences")
	flags.StringSlice("algorithms", nil, "Accepted signature algorithms")
	flags.Duration("cache-freshness", 0, "How long a fetched key set is used before refreshing")
	flags.Bool("kid-fallback", false, "Verify with the first key when no key matches the token kid")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")

	for name, key := range flagKeys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

// ConfigFile returns the --config flag value, if any.
func ConfigFile(flags *pflag.FlagSet) string {
	f := flags.Lookup("config")
	if f == nil {
		return ""
	}
	return f.Value.String()
}
