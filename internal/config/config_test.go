package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backlog/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if path != missing {
		t.Fatalf("expected resolved path %s, got %s", missing, path)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir should be absolute: %s", cfg.Paths.DataDir)
	}
	if cfg.Paths.LogDir != filepath.Join(cfg.Paths.DataDir, "logs") {
		t.Fatalf("log dir should default under data dir: %s", cfg.Paths.LogDir)
	}
	if cfg.Paths.SocketPath != filepath.Join(cfg.Paths.DataDir, "backlogd.sock") {
		t.Fatalf("socket should default under data dir: %s", cfg.Paths.SocketPath)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %#v", cfg.Logging)
	}
}

func TestLoadParsesFile(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.toml")
	contents := `
[paths]
data_dir = "` + filepath.Join(base, "state") + `"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(cfgPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected file to be read")
	}
	if cfg.Paths.DataDir != filepath.Join(base, "state") {
		t.Fatalf("unexpected data dir: %s", cfg.Paths.DataDir)
	}
	// Normalization lowercases logging values.
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %#v", cfg.Logging)
	}
}

func TestLoadRejectsBadLoggingValues(t *testing.T) {
	base := t.TempDir()
	cfgPath := filepath.Join(base, "config.toml")
	contents := `
[logging]
format = "xml"
`
	if err := os.WriteFile(cfgPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(cfgPath); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestValidateRequiresPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "   "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty data dir")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	expanded, err := config.ExpandPath("~/state")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if !strings.HasPrefix(expanded, home) {
		t.Fatalf("expected %s under %s", expanded, home)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestSampleConfigParses(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}
