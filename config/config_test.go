// ABOUTME: Tests for configuration load/save functionality
// ABOUTME: Validates TOML parsing and default config fallback behavior

package config

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MonoThreshold != 6 {
		t.Errorf("Expected MonoThreshold 6, got %d", cfg.MonoThreshold)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tmpfile, err := os.CreateTemp(t.TempDir(), "simfile-analyzer-*.toml")
	if err != nil {
		t.Fatal(err)
	}

	defer os.Remove(tmpfile.Name())
	tmpfile.Close()

	cfg := DefaultConfig()
	cfg.MonoThreshold = 9
	cfg.CustomPatterns = []string{"0001,0010,0100"}

	if err := SaveConfig(tmpfile.Name(), cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.MonoThreshold != cfg.MonoThreshold {
		t.Errorf("MonoThreshold mismatch: got %d, want %d", loaded.MonoThreshold, cfg.MonoThreshold)
	}
	if len(loaded.CustomPatterns) != 1 || loaded.CustomPatterns[0] != cfg.CustomPatterns[0] {
		t.Errorf("CustomPatterns mismatch: got %v, want %v", loaded.CustomPatterns, cfg.CustomPatterns)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	if err != nil {
		t.Errorf("Expected no error for non-existent file, got: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.MonoThreshold != defaults.MonoThreshold {
		t.Errorf("Expected default MonoThreshold %d, got %d", defaults.MonoThreshold, cfg.MonoThreshold)
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	tmpfile, err := os.CreateTemp(t.TempDir(), "simfile-analyzer-bad-*.toml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.WriteString("not = [valid"); err != nil {
		t.Fatal(err)
	}
	tmpfile.Close()

	if _, err := LoadConfig(tmpfile.Name()); err == nil {
		t.Fatal("expected error for malformed TOML, got nil")
	}
}
