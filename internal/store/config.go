package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GlobalConfig is the per-user configuration in ~/.coursebuilder/config.json.
type GlobalConfig struct {
	// ServerURL is the course builder API the editor talks to.
	ServerURL string `json:"serverUrl,omitempty"`

	// AuthorToken is sent as a bearer token on every API call.
	AuthorToken string `json:"authorToken,omitempty"`

	// Autosave debounce and per-request timeout, as Go durations ("2s", "15s").
	Debounce       string `json:"debounce,omitempty"`
	RequestTimeout string `json:"requestTimeout,omitempty"`

	// LastCourse is reopened by `coursebuilder edit` when no course id is given.
	LastCourse string `json:"lastCourse,omitempty"`

	Keymap *KeymapConfig `json:"keymap,omitempty"`
}

// KeymapConfig overrides the editor shortcut chords.
type KeymapConfig struct {
	Duplicate []string `json:"duplicate,omitempty"`
	Delete    []string `json:"delete,omitempty"`
	Undo      []string `json:"undo,omitempty"`
}

// DebounceDuration parses Debounce; zero means "use the default".
func (c *GlobalConfig) DebounceDuration() time.Duration {
	return parseDuration(c.Debounce)
}

func (c *GlobalConfig) RequestTimeoutDuration() time.Duration {
	return parseDuration(c.RequestTimeout)
}

func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.coursebuilder).
	if v := strings.TrimSpace(os.Getenv("COURSEBUILDER_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".coursebuilder"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Temp file + rename: the TUI and CLI may write concurrently.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
