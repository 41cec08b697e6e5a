package huddle

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("huddle", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.CookieName != "huddle.sid" {
		t.Fatalf("expected default cookie name, got %q", cfg.CookieName)
	}
	if cfg.SQLitePath != "data/huddle.db" {
		t.Fatalf("expected default sqlite path, got %q", cfg.SQLitePath)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("HUDDLE_HTTP_ADDR", "env-addr")
	t.Setenv("HUDDLE_REDIS_ADDR", "env-redis")
	t.Setenv("HUDDLE_SESSION_COOKIE_SECRET", "env-secret")

	fs := flag.NewFlagSet("huddle", flag.ContinueOnError)
	args := []string{
		"-http-addr", "flag-addr",
		"-redis-addr", "flag-redis",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-addr" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.RedisAddr != "flag-redis" {
		t.Fatalf("expected flag redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.CookieSecret != "env-secret" {
		t.Fatalf("expected env cookie secret, got %q", cfg.CookieSecret)
	}
}
