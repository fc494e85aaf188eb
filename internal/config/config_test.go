package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without a config file should fall back to defaults: %v", err)
	}
	if cfg.Port != 8080 || cfg.SessionPolicy != "replace" || cfg.SendBuffer != 64 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	bad := []byte("port: not-a-number\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "config.bad.yaml"), bad, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_ENV", "bad")

	if _, err := Load(); err == nil {
		t.Fatal("malformed config should fail to load")
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := []byte("port: 9000\nsession_policy: reject\nring_timeout: 10s\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "config.custom.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_ENV", "custom")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9000 || cfg.SessionPolicy != "reject" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.RingTimeout.Seconds() != 10 {
		t.Fatalf("duration not parsed: %v", cfg.RingTimeout)
	}
}
