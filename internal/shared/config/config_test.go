package config

import (
	"testing"
	"time"
)

func TestLoadAppliesImportOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("CORS_ALLOW_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("IMPORT_LOOKUP_TIMEOUT", "3s")
	t.Setenv("IMPORT_DEPLOY_CONCURRENCY", "8")
	t.Setenv("IMPORT_MAX_DISPLAYED_ERRORS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env production, got %s", cfg.Env)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
	if cfg.Import.LookupTimeout != 3*time.Second {
		t.Fatalf("expected lookup timeout 3s, got %s", cfg.Import.LookupTimeout)
	}
	if cfg.Import.DeployConcurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.Import.DeployConcurrency)
	}
	if cfg.Import.MaxDisplayedErrors != 10 {
		t.Fatalf("expected max errors 10, got %d", cfg.Import.MaxDisplayedErrors)
	}
}

func TestLoadRejectsS3WithoutBucket(t *testing.T) {
	t.Setenv("OBJECT_STORE", "s3")
	t.Setenv("S3_BUCKET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for s3 without bucket")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Import.MaxDisplayedErrors != 5 {
		t.Fatalf("expected 5 displayed errors, got %d", cfg.Import.MaxDisplayedErrors)
	}
	if cfg.Import.BatchTTL != time.Hour {
		t.Fatalf("expected 1h batch ttl, got %s", cfg.Import.BatchTTL)
	}
}

func TestParseEmptyReportsBadDefault(t *testing.T) {
	var cfg struct {
		Workers int `env:"WORKERS" envDefault:"four"`
	}
	if err := parseEmpty(&cfg); err == nil {
		t.Fatalf("expected error for malformed default")
	}
}
