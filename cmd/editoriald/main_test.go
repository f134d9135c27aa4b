package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"editorial/internal/config"
)

func TestLoadConfigReadsFile(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := "[paths]\n" +
		"data_dir = \"" + filepath.Join(base, "data") + "\"\n" +
		"api_bind = \"127.0.0.1:7999\"\n" +
		"[storage]\nbackend = \"memory\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7999" {
		t.Fatalf("unexpected bind %q", cfg.Paths.APIBind)
	}
	if cfg.Storage.Backend != config.BackendMemory {
		t.Fatalf("unexpected backend %q", cfg.Storage.Backend)
	}
}

func TestLoadConfigRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"floppy\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := loadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestRootCommandRejectsArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"unexpected"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for positional args")
	}
}
