package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "name: talker\nmaster_uri: http://localhost:11311\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "talker" {
		t.Errorf("Name = %q, want %q", cfg.Name, "talker")
	}
	if cfg.LogDir != "./logs" {
		t.Errorf("LogDir = %q, want default %q", cfg.LogDir, "./logs")
	}
}

func TestLoadRequiresName(t *testing.T) {
	path := writeTempConfig(t, "master_uri: http://localhost:11311\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: want an error for a missing name, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatalf("Load: want an error for a missing file, got nil")
	}
}

func TestLoadHonorsDebugEnvOverride(t *testing.T) {
	path := writeTempConfig(t, "name: talker\ndebug: false\n")
	t.Setenv("ROSNODE_DEBUG", "true")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Fatalf("Debug = false, want true after ROSNODE_DEBUG=true override")
	}
}
