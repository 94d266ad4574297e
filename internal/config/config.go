// Package config loads enerdex settings from defaults, an XDG config file,
// and ENERDEX_* environment variables, in increasing order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Assistant AssistantConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type GeminiConfig struct {
	// APIKey may be empty; the assistant then runs in a degraded mode where
	// every model-backed operation reports the model as unavailable.
	APIKey string
	Model  string
}

type StorageConfig struct {
	DataDir string
}

type AssistantConfig struct {
	// Timeout bounds each model call, as a time.ParseDuration string.
	Timeout string
	// RetrievalLimit caps how many producer rows ground one chat turn.
	RetrievalLimit int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Assistant: AssistantConfig{
			Timeout:        "30s",
			RetrievalLimit: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file (if present) and applies
// environment overrides. A missing Gemini API key is not an error.
func Load() (Config, error) {
	cfg := defaults()

	if err := applyFile(&cfg, configFilePath()); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)

	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "enerdex-data"
		}
	}
	return filepath.Join(dir, "enerdex")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "enerdex", "config.json")
}

// applyFile merges a flat JSON object of dotted keys into cfg. A missing file
// is fine; a malformed one is a hard error so typos don't pass silently.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	for key, value := range raw {
		if err := setKey(cfg, key, value); err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
	}
	return nil
}

func setKey(cfg *Config, key string, value any) error {
	switch key {
	case "server.port":
		n, ok := asInt(value)
		if !ok {
			return fmt.Errorf("key %q: expected number", key)
		}
		cfg.Server.Port = n
	case "gemini.api_key":
		cfg.Gemini.APIKey, _ = value.(string)
	case "gemini.model":
		cfg.Gemini.Model, _ = value.(string)
	case "storage.data_dir":
		cfg.Storage.DataDir, _ = value.(string)
	case "assistant.timeout":
		cfg.Assistant.Timeout, _ = value.(string)
	case "assistant.retrieval_limit":
		n, ok := asInt(value)
		if !ok {
			return fmt.Errorf("key %q: expected number", key)
		}
		cfg.Assistant.RetrievalLimit = n
	case "log.level":
		cfg.Log.Level, _ = value.(string)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ENERDEX_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("ENERDEX_GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("ENERDEX_GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("ENERDEX_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("ENERDEX_TIMEOUT"); v != "" {
		cfg.Assistant.Timeout = v
	}
	if v := os.Getenv("ENERDEX_RETRIEVAL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Assistant.RetrievalLimit = n
		}
	}
	if v := os.Getenv("ENERDEX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
