package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("REDIS_DATABASE", "")

	cfg := Load()

	if cfg.DBHost != "localhost" {
		t.Errorf("expected default DB host, got %s", cfg.DBHost)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.RedisAddress != "" || cfg.RedisDatabase != 0 {
		t.Errorf("redis mirror should be disabled by default, got %q db %d", cfg.RedisAddress, cfg.RedisDatabase)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("REDIS_DATABASE", "3")
	t.Setenv("DEBUG", "YES")

	cfg := Load()

	if cfg.DBHost != "db.internal" || cfg.ServerPort != "9090" {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if cfg.RedisAddress != "redis:6379" || cfg.RedisDatabase != 3 {
		t.Errorf("unexpected redis settings %q db %d", cfg.RedisAddress, cfg.RedisDatabase)
	}
	if !cfg.Debug {
		t.Error("DEBUG=YES should enable debug logging")
	}
}

func TestGetEnvInt_InvalidValue(t *testing.T) {
	t.Setenv("REDIS_DATABASE", "two")
	if got := getEnvInt("REDIS_DATABASE", 5); got != 5 {
		t.Errorf("expected default 5 for invalid value, got %d", got)
	}
}
