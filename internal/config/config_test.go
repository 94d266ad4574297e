package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolateEnv points XDG and ENERDEX_* lookups at a clean temp dir.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	for _, key := range []string{
		"ENERDEX_PORT", "ENERDEX_GEMINI_API_KEY", "ENERDEX_GEMINI_MODEL",
		"ENERDEX_DATA_DIR", "ENERDEX_TIMEOUT", "ENERDEX_RETRIEVAL_LIMIT",
		"ENERDEX_LOG_LEVEL", "ENERDEX_API_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func writeConfigFile(t *testing.T, configHome, content string) {
	t.Helper()
	dir := filepath.Join(configHome, "enerdex")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4600 {
		t.Errorf("Port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "" {
		t.Errorf("APIKey = %q, want empty by default", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("Model = %q", cfg.Gemini.Model)
	}
	if cfg.Assistant.Timeout != "30s" || cfg.Assistant.RetrievalLimit != 5 {
		t.Errorf("Assistant = %+v", cfg.Assistant)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	configHome := isolateEnv(t)
	writeConfigFile(t, configHome, `{
		"server.port": 9999,
		"gemini.model": "gemini-1.5-pro",
		"assistant.retrieval_limit": 10
	}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Errorf("Model = %q", cfg.Gemini.Model)
	}
	if cfg.Assistant.RetrievalLimit != 10 {
		t.Errorf("RetrievalLimit = %d, want 10", cfg.Assistant.RetrievalLimit)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	configHome := isolateEnv(t)
	writeConfigFile(t, configHome, `{"server.port": 9999, "gemini.model": "from-file"}`)
	t.Setenv("ENERDEX_PORT", "7000")
	t.Setenv("ENERDEX_GEMINI_MODEL", "from-env")
	t.Setenv("ENERDEX_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want env override 7000", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "from-env" {
		t.Errorf("Model = %q, want env override", cfg.Gemini.Model)
	}
	if cfg.Assistant.Timeout != "5s" {
		t.Errorf("Timeout = %q, want 5s", cfg.Assistant.Timeout)
	}
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	configHome := isolateEnv(t)
	writeConfigFile(t, configHome, `{"serverport": 9999}`)

	if _, err := Load(); err == nil {
		t.Error("Load() succeeded with unknown key, want error")
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	configHome := isolateEnv(t)
	writeConfigFile(t, configHome, `{not json`)

	if _, err := Load(); err == nil {
		t.Error("Load() succeeded with malformed file, want error")
	}
}

func TestAPIToken_EnvWins(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("ENERDEX_API_TOKEN", "from-env")

	token, err := APIToken(dir)
	if err != nil {
		t.Fatalf("APIToken() error = %v", err)
	}
	if token != "from-env" {
		t.Errorf("token = %q, want env value", token)
	}
}

func TestAPIToken_GeneratedAndStable(t *testing.T) {
	dir := isolateEnv(t)

	first, err := APIToken(dir)
	if err != nil {
		t.Fatalf("APIToken() error = %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}

	second, err := APIToken(dir)
	if err != nil {
		t.Fatalf("APIToken() second call error = %v", err)
	}
	if first != second {
		t.Errorf("token changed between calls: %q vs %q", first, second)
	}

	info, err := os.Stat(filepath.Join(dir, "api_token"))
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}
}
