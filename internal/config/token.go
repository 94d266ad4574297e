package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tokenFileName = "api_token"

// APIToken returns the bearer token protecting the management API. The
// ENERDEX_API_TOKEN environment variable wins; otherwise the token is read
// from the data directory, generated on first use.
func APIToken(dataDir string) (string, error) {
	if v := os.Getenv("ENERDEX_API_TOKEN"); v != "" {
		return v, nil
	}

	path := filepath.Join(dataDir, tokenFileName)
	if data, err := os.ReadFile(path); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing API token: %w", err)
	}
	return token, nil
}
