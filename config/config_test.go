package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg := LoadConfig()
	if cfg.ServerPort != 8080 {
		t.Fatalf("default port: got %d", cfg.ServerPort)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Fatalf("default database config: %+v", cfg.Database)
	}
	if cfg.Auth.TokenTTL != 30*24*time.Hour {
		t.Fatalf("default token ttl: got %v", cfg.Auth.TokenTTL)
	}
	if cfg.IsProduction() {
		t.Fatalf("test env must not be production")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("EVENTS_BACKEND", "rabbitmq")

	cfg := LoadConfig()
	if cfg.ServerPort != 9090 {
		t.Fatalf("port override: got %d", cfg.ServerPort)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("jwt secret override: got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("token ttl override: got %v", cfg.Auth.TokenTTL)
	}
	if !cfg.Database.UseSSL {
		t.Fatalf("db ssl override not applied")
	}
	if cfg.Events.Backend != "rabbitmq" {
		t.Fatalf("events backend override: got %q", cfg.Events.Backend)
	}
	if !cfg.IsProduction() {
		t.Fatalf("production env not detected")
	}
}
