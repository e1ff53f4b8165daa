package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mockt/mockt/internal/store"
)

const redacted = "********"

// YAML renders the effective settings with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(normalize(c.settings, true))
}

// WriteDefault writes the default settings to path. An existing file is
// left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	dataHome, err := store.DataHome()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(normalize(nest(defaults(dataHome)), false))
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// nest turns dotted keys into nested maps.
func nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = value
	}
	return out
}

// normalize prints durations as strings and optionally masks secrets.
func normalize(m map[string]any, mask bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			out[k] = normalize(val, mask)
		case time.Duration:
			out[k] = val.String()
		case string:
			if mask && val != "" && isSecret(k) {
				out[k] = redacted
			} else {
				out[k] = val
			}
		default:
			out[k] = v
		}
	}
	return out
}

func isSecret(key string) bool {
	return key == "api_key" || key == "secret_key" || key == "access_key"
}
