package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "-p", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config file: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "-p", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestConfigShowResolvesFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "upload_dir")
	requireContains(t, out, "max_concurrent_jobs")
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "is valid")

	badPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(badPath, []byte("[logging]\nlevel = \"verbose\"\n"), 0o644); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, badPath); err == nil {
		t.Fatal("expected error for invalid config")
	}
}
