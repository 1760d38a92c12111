// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, source priority, YAML parsing and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// withCleanEnv isolates a test from the caller's environment and working
// directory, returning the config directory it points MAARIF_CONFIG_DIR at.
func withCleanEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"MAARIF_API_URL", "MAARIF_STORE", "MAARIF_STORE_PATH", "MAARIF_REDIS_ADDR",
		"MAARIF_REDIS_DB", "MAARIF_CHAT_HISTORY_LIMIT", "MAARIF_AUTH_CHECK_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("MAARIF_CONFIG_DIR", dir)
	t.Chdir(t.TempDir())
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := withCleanEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("expected APIURL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.StoreBackend != StoreFile {
		t.Errorf("expected file store, got %s", cfg.StoreBackend)
	}
	if cfg.StorePath != filepath.Join(dir, "store.json") {
		t.Errorf("unexpected store path %s", cfg.StorePath)
	}
	if cfg.ChatHistoryLimit != 10 {
		t.Errorf("expected history limit 10, got %d", cfg.ChatHistoryLimit)
	}
	if cfg.AuthCheckTimeout != 8*time.Second {
		t.Errorf("expected 8s auth check timeout, got %s", cfg.AuthCheckTimeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := withCleanEnv(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
api_url: http://from-file:9000
chat:
  history_limit: 0
store:
  backend: sqlite
`)
	t.Setenv("MAARIF_API_URL", "http://from-env:7000/")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != "http://from-env:7000" {
		t.Errorf("expected env URL without trailing slash, got %s", cfg.APIURL)
	}
	if cfg.ChatHistoryLimit != 0 {
		t.Errorf("expected history limit 0 from file, got %d", cfg.ChatHistoryLimit)
	}
	if cfg.StoreBackend != StoreSQLite {
		t.Errorf("expected sqlite from file, got %s", cfg.StoreBackend)
	}
	if cfg.StorePath != filepath.Join(dir, "store.db") {
		t.Errorf("unexpected sqlite path %s", cfg.StorePath)
	}
}

func TestLoad_DotEnvIsLowestPriority(t *testing.T) {
	dir := withCleanEnv(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "api_url: http://from-file\n")
	writeFile(t, ".env", "MAARIF_API_URL=http://from-dotenv\nLOG_LEVEL=debug\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != "http://from-file" {
		t.Errorf("expected file to win over .env, got %s", cfg.APIURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LOG_LEVEL from .env, got %s", cfg.LogLevel)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	withCleanEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := withCleanEnv(t)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "store: [unterminated")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown store", map[string]string{"MAARIF_STORE": "etcd"}, "MAARIF_STORE"},
		{"negative history", map[string]string{"MAARIF_CHAT_HISTORY_LIMIT": "-1"}, "MAARIF_CHAT_HISTORY_LIMIT"},
		{"history not int", map[string]string{"MAARIF_CHAT_HISTORY_LIMIT": "ten"}, "integer"},
		{"bad timeout", map[string]string{"MAARIF_AUTH_CHECK_TIMEOUT": "soon"}, "duration"},
		{"zero timeout", map[string]string{"MAARIF_AUTH_CHECK_TIMEOUT": "0s"}, "positive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withCleanEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"localhost:8001":        "http://localhost:8001",
		"https://plan.example":  "https://plan.example",
		"http://127.0.0.1:8001": "http://127.0.0.1:8001",
	}
	for in, want := range tests {
		if got := ensureScheme(in); got != want {
			t.Errorf("ensureScheme(%q) = %q, want %q", in, got, want)
		}
	}
}
