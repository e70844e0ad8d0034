package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("HTTPAddr=%q want=%q", cfg.HTTPAddr, ":3000")
	}
	if cfg.Store.Backend != "redis" {
		t.Fatalf("Store.Backend=%q want=%q", cfg.Store.Backend, "redis")
	}
	if cfg.Events.Backend != "none" {
		t.Fatalf("Events.Backend=%q want=%q", cfg.Events.Backend, "none")
	}
	if cfg.Rail.Timeout != 10*time.Second {
		t.Fatalf("Rail.Timeout=%v want=%v", cfg.Rail.Timeout, 10*time.Second)
	}
}

func TestApplyEnv_overrides(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, envMap(map[string]string{
		"RAIL_API_KEY":  "secret",
		"STORE_BACKEND": "sqlite",
		"REDIS_ADDR":    "",
		"RAIL_TIMEOUT":  "3s",
	}))
	if err != nil {
		t.Fatalf("applyEnv() = %v; want nil", err)
	}

	if cfg.Rail.APIKey != "secret" {
		t.Errorf("Rail.APIKey=%q want=%q", cfg.Rail.APIKey, "secret")
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend=%q want=%q", cfg.Store.Backend, "sqlite")
	}
	// empty values leave the default in place
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr=%q want=%q", cfg.Redis.Addr, "redis:6379")
	}
	if cfg.Rail.Timeout != 3*time.Second {
		t.Errorf("Rail.Timeout=%v want=%v", cfg.Rail.Timeout, 3*time.Second)
	}
}

func TestApplyEnv_badTimeout(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, envMap(map[string]string{"RAIL_TIMEOUT": "soon"}))
	if err == nil {
		t.Fatal("applyEnv(RAIL_TIMEOUT=soon) = nil; want error")
	}
}

func TestLoad_fileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http_addr: ":8080"
store:
  backend: postgres
postgres:
  host: db
  db: journeys
rail:
  api_key: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configFileEnv, path)
	t.Setenv("RAIL_API_KEY", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v; want nil", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr=%q want=%q", cfg.HTTPAddr, ":8080")
	}
	if cfg.Store.Backend != "postgres" {
		t.Errorf("Store.Backend=%q want=%q", cfg.Store.Backend, "postgres")
	}
	if cfg.Postgres.Host != "db" || cfg.Postgres.Port != "5432" {
		t.Errorf("Postgres=%+v want host=db port=5432", cfg.Postgres)
	}
	if cfg.Rail.APIKey != "from-env" {
		t.Errorf("Rail.APIKey=%q want=%q", cfg.Rail.APIKey, "from-env")
	}
}

func TestLoad_missingFile(t *testing.T) {
	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Load() with missing file = nil; want error")
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	cfg.DisplayTimezone = "Not/AZone"
	if loc := cfg.Location(); loc != time.UTC {
		t.Fatalf("Location()=%v want=UTC", loc)
	}
}
