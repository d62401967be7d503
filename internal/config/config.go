// Package config loads server and client settings from flags with environment fallbacks.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrJWTSecretRequired - без секрета нельзя ни выдать, ни проверить токен
var ErrJWTSecretRequired = errors.New("JWT_SECRET is required")

// Config содержит настройки сервера. Загружается один раз при старте.
type Config struct {
	// Server
	Addr            string
	ShutdownTimeout time.Duration

	// Database
	DBPath string

	// Session
	JWTSecret    string
	CookieDomain string
	CookieSecure bool

	// Logging
	LogLevel slog.Level

	// Rate limit для register/login
	AuthRateLimit  int
	AuthRateWindow time.Duration
	// Прокси, которым разрешено передавать адрес клиента в X-Forwarded-For
	TrustedProxies []netip.Prefix

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectBase  string
	OAuthSuccessURL    string

	ShowVersion bool
}

// Load parses args; every flag defaults to its environment variable, then to a built-in value.
// Flags win over environment.
func Load(args []string, getenv func(string) string) (*Config, error) {
	return load(args, getenv, os.Stderr)
}

func load(args []string, getenv func(string) string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	env := envReader{getenv: getenv}

	fs := flag.NewFlagSet("babysteps-server", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Addr, "addr", env.str("BABYSTEPS_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", env.str("BABYSTEPS_DB_PATH", "babysteps.db"), "SQLite database path")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", env.str("JWT_SECRET", ""), "session token signing secret")
	fs.StringVar(&cfg.CookieDomain, "cookie-domain", env.str("COOKIE_DOMAIN", ""), "session cookie domain")
	fs.BoolVar(&cfg.CookieSecure, "cookie-secure", env.boolean("COOKIE_SECURE", false), "always mark session cookie Secure")
	logLevel := fs.String("log-level", env.str("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	fs.IntVar(&cfg.AuthRateLimit, "auth-rate-limit", env.integer("AUTH_RATE_LIMIT", 10), "register/login requests per window per IP")
	fs.DurationVar(&cfg.AuthRateWindow, "auth-rate-window", env.duration("AUTH_RATE_WINDOW", time.Minute), "rate limit window")
	trustedProxies := fs.String("trusted-proxies", env.str("TRUSTED_PROXIES", ""), "comma-separated proxy IPs or CIDRs allowed to set X-Forwarded-For")
	fs.StringVar(&cfg.GoogleClientID, "google-client-id", env.str("OAUTH_GOOGLE_CLIENT_ID", ""), "Google OAuth client id")
	fs.StringVar(&cfg.GoogleClientSecret, "google-client-secret", env.str("OAUTH_GOOGLE_CLIENT_SECRET", ""), "Google OAuth client secret")
	fs.StringVar(&cfg.OAuthRedirectBase, "oauth-redirect-base", env.str("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"), "public base URL for OAuth callbacks")
	fs.StringVar(&cfg.OAuthSuccessURL, "oauth-success-url", env.str("OAUTH_SUCCESS_REDIRECT", "/"), "where to send the user after OAuth login")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", env.duration("SHUTDOWN_TIMEOUT", 10*time.Second), "graceful shutdown timeout")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}

	proxies, err := parsePrefixes(*trustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	cfg.TrustedProxies = proxies

	if cfg.JWTSecret == "" {
		return nil, ErrJWTSecretRequired
	}
	if cfg.AuthRateLimit <= 0 {
		return nil, fmt.Errorf("auth rate limit must be positive, got %d", cfg.AuthRateLimit)
	}

	return cfg, nil
}

// GoogleEnabled reports whether Google login is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// parsePrefixes разбирает список через запятую; одиночный IP становится /32 или /128
func parsePrefixes(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// envReader читает переменные окружения; некорректные значения заменяются default
type envReader struct {
	getenv func(string) string
}

func (e envReader) str(key, defaultVal string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func (e envReader) integer(key string, defaultVal int) int {
	i, err := strconv.Atoi(e.str(key, ""))
	if err != nil {
		return defaultVal
	}
	return i
}

func (e envReader) boolean(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(e.str(key, ""))
	if err != nil {
		return defaultVal
	}
	return b
}

func (e envReader) duration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(e.str(key, ""))
	if err != nil {
		return defaultVal
	}
	return d
}
