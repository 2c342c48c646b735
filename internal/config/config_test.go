package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "MODULEID_START", "CORS_ORIGINS", "EXPORT_RATE_PER_MIN"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.Mode != ModeOffline || cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ModuleIDStart != 5000 || cfg.ExportRatePerMin != 30 {
		t.Fatalf("unexpected export defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("MODULEID_START", "7000")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("MINIO_USE_SSL", "")
	cfg := FromEnv()
	if cfg.ModuleIDStart != 7000 {
		t.Fatalf("moduleid start = %d", cfg.ModuleIDStart)
	}
	if !cfg.MinioUseSSL {
		t.Fatalf("online mode should default to TLS for minio")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CATEGORY_DEFAULT=From File\nLOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATEGORY_DEFAULT", "")
	os.Unsetenv("CATEGORY_DEFAULT")
	t.Setenv("LOG_LEVEL", "warn")
	cfg := Load(path)
	if cfg.CategoryDefault != "From File" {
		t.Fatalf("category default = %q", cfg.CategoryDefault)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("environment should win over the file, got %q", cfg.LogLevel)
	}
}
