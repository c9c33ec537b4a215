package mappings

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/mcmappings/scheme"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{Version: "1.20.1"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("base url: got %q", cfg.BaseURL)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("concurrency: got %d", cfg.Concurrency)
	}
	if cfg.HTTP.Timeout != 30*time.Second || cfg.HTTP.MaxBytes != 10*1024*1024 {
		t.Errorf("http: got %+v", cfg.HTTP)
	}
	if cfg.Scheme != scheme.Mojang {
		t.Errorf("scheme: got %v", cfg.Scheme)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("level: got %v", cfg.Level())
	}
}

func TestConfig_Invalid(t *testing.T) {
	tests := map[string]*Config{
		"missing version": {},
		"bad base url":    {Version: "1.20.1", BaseURL: "not a url"},
		"concurrency":     {Version: "1.20.1", Concurrency: 1000},
		"listen":          {Version: "1.20.1", Listen: "nope"},
		"log level":       {Version: "1.20.1", LogLevel: "loud"},
		"scheme":          {Version: "1.20.1", Scheme: scheme.Scheme(9)},
	}
	for name, cfg := range tests {
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcmappings.yaml")
	data := `version: "1.19.4"
scheme: Yarn
concurrency: 8
listen: "127.0.0.1:8090"
log_level: debug
http:
  timeout: 5s
  user_agent: test-agent
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Version != "1.19.4" || cfg.Scheme != scheme.Yarn || cfg.Concurrency != 8 {
		t.Errorf("got %+v", cfg)
	}
	if cfg.HTTP.Timeout != 5*time.Second || cfg.HTTP.UserAgent != "test-agent" {
		t.Errorf("http: got %+v", cfg.HTTP)
	}
	if cfg.HTTP.MaxBytes == 0 {
		t.Error("max_bytes default not applied")
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level: got %v", cfg.Level())
	}
}

func TestLoadConfigFile_UnknownScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("version: \"1.20.1\"\nscheme: mcp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}
