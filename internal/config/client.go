package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ClientConfig содержит настройки CLI клиента
type ClientConfig struct {
	ServerURL string
	DBPath    string
	Platform  string
	LogLevel  slog.Level

	// Args - команда и ее аргументы после флагов
	Args        []string
	ShowVersion bool
}

// LoadClient parses client flags; BABYSTEPS_SERVER_URL, BABYSTEPS_CLIENT_DB and
// BABYSTEPS_PLATFORM provide defaults.
func LoadClient(args []string, getenv func(string) string) (*ClientConfig, error) {
	return loadClient(args, getenv, os.Stderr)
}

func loadClient(args []string, getenv func(string) string, output io.Writer) (*ClientConfig, error) {
	cfg := &ClientConfig{}
	env := envReader{getenv: getenv}

	fs := flag.NewFlagSet("babysteps", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.ServerURL, "server", env.str("BABYSTEPS_SERVER_URL", "http://localhost:8080"), "server URL")
	fs.StringVar(&cfg.DBPath, "db", env.str("BABYSTEPS_CLIENT_DB", "babysteps-client.db"), "path to local session cache")
	fs.StringVar(&cfg.Platform, "platform", env.str("BABYSTEPS_PLATFORM", "native"), "session mode: native (bearer + cache) or web (cookie)")
	logLevel := fs.String("log-level", env.str("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()

	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}

	switch cfg.Platform {
	case "native", "web":
	default:
		return nil, fmt.Errorf("unknown platform %q: want native or web", cfg.Platform)
	}

	return cfg, nil
}
