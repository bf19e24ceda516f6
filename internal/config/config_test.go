package config

import "testing"

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("UPLOAD_DIR", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env development, got %q", cfg.Env)
	}
	if cfg.UploadDir != "uploads" {
		t.Fatalf("expected default upload dir, got %q", cfg.UploadDir)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("default env should be development")
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ENV", "staging")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg := Load()
	if cfg.Port != "9999" || cfg.Env != "staging" || cfg.RedisURL != "redis://localhost:6379" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Fatal("staging should not be development")
	}
}

func TestProductionRequiresRedis(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("REDIS_URL", "")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing REDIS_URL in production")
		}
	}()
	Load()
}
