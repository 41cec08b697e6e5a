// Package huddle parses realtime command flags and composes the transport
// entrypoint.
package huddle

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/huddleworks/huddle/internal/platform/cmd"
	server "github.com/huddleworks/huddle/internal/services/realtime/app"
)

// Config holds realtime command configuration.
type Config struct {
	HTTPAddr     string `env:"HUDDLE_HTTP_ADDR"              envDefault:":8080"`
	CookieName   string `env:"HUDDLE_SESSION_COOKIE_NAME"    envDefault:"huddle.sid"`
	CookieSecret string `env:"HUDDLE_SESSION_COOKIE_SECRET"`
	RedisAddr    string `env:"HUDDLE_REDIS_ADDR"`
	SQLitePath   string `env:"HUDDLE_SQLITE_PATH"            envDefault:"data/huddle.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "realtime HTTP listen address")
	fs.StringVar(&cfg.CookieName, "cookie-name", cfg.CookieName, "session cookie name shared with the HTTP layer")
	fs.StringVar(&cfg.CookieSecret, "cookie-secret", cfg.CookieSecret, "session cookie signing secret shared with the HTTP layer")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis session store address (preferred when set)")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "sqlite session store path used when redis is not configured")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the realtime app and starts serving connections.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceHuddle, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:     cfg.HTTPAddr,
			CookieName:   cfg.CookieName,
			CookieSecret: cfg.CookieSecret,
			RedisAddr:    cfg.RedisAddr,
			SQLitePath:   cfg.SQLitePath,
		}); err != nil {
			return fmt.Errorf("serve realtime: %w", err)
		}
		return nil
	})
}
