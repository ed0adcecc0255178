package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ssh-vanity/internal/domain"
)

// SettingsKey is the key the form settings are stored under.
const SettingsKey = "shweb-settings"

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
	Clear() error
}

// JSONStore persists string-keyed values in a single JSON object on disk.
// Settings live under SettingsKey; other keys in the file are preserved.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads settings from disk layered over DefaultSettings. A missing file,
// a missing key, or missing members leave the defaults in place.
func (s *JSONStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := DefaultSettings()
	values, err := s.readLocked()
	if err != nil {
		return domain.Settings{}, err
	}

	raw, ok := values[SettingsKey]
	if !ok || string(raw) == "null" {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("decode %s: %w", SettingsKey, err)
	}
	return cfg, nil
}

// Save writes settings under SettingsKey.
func (s *JSONStore) Save(cfg domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readLocked()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	values[SettingsKey] = raw
	return s.writeLocked(values)
}

// Clear removes the stored settings so the next Load returns defaults.
func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := values[SettingsKey]; !ok {
		return nil
	}
	delete(values, SettingsKey)
	return s.writeLocked(values)
}

func (s *JSONStore) readLocked() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, err
	}

	values := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// writeLocked writes indented JSON and creates parent directories.
func (s *JSONStore) writeLocked(values map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}
