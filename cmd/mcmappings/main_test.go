package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/mcmappings/scheme"
)

func TestResolveConfig_FlagsOnly(t *testing.T) {
	cfg, err := resolveConfig(options{
		version:  "1.19.2",
		scheme:   scheme.Intermediary,
		logLevel: "warn",
		set:      map[string]bool{},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Version != "1.19.2" || cfg.Scheme != scheme.Intermediary || cfg.LogLevel != "warn" {
		t.Errorf("got %+v", cfg)
	}
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	// WHAT: Values from the file survive unless the flag was set explicitly.
	path := filepath.Join(t.TempDir(), "mcmappings.yaml")
	data := "version: \"1.18.2\"\nscheme: searge\nconcurrency: 2\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(options{
		configPath:  path,
		version:     defaultVersion,
		scheme:      scheme.Yarn,
		concurrency: 16,
		logLevel:    "info",
		set:         map[string]bool{"scheme": true},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Version != "1.18.2" {
		t.Errorf("version: got %q, want file value", cfg.Version)
	}
	if cfg.Scheme != scheme.Yarn {
		t.Errorf("scheme: got %v, want flag value", cfg.Scheme)
	}
	if cfg.Concurrency != 2 || cfg.LogLevel != "debug" {
		t.Errorf("got %+v", cfg)
	}
}

func TestResolveConfig_Invalid(t *testing.T) {
	_, err := resolveConfig(options{
		version:     defaultVersion,
		concurrency: 0,
		serve:       "not-an-addr",
		logLevel:    "info",
		set:         map[string]bool{"serve": true},
	})
	if err == nil {
		t.Fatal("expected validation error for -serve")
	}
}
