package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	defaultStoreDirName  = ".blogreader"
	defaultStoreFileName = "chat-settings.json"
)

// storeFile is the on-disk envelope; versioned so the format can evolve.
type storeFile struct {
	Version  int          `json:"version"`
	Settings ChatSettings `json:"settings"`
}

// ResolveStorePath resolves the settings store path, expanding a leading "~"
// and falling back to the user home directory when no path is given.
func ResolveStorePath(storePath string) string {
	trimmed := strings.TrimSpace(storePath)
	if trimmed != "" {
		if strings.HasPrefix(trimmed, "~") {
			if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
				return filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
			}
		}
		return filepath.Clean(trimmed)
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(os.TempDir(), "blogreader", defaultStoreFileName)
	}
	return filepath.Join(home, defaultStoreDirName, defaultStoreFileName)
}

// Store persists ChatSettings across sessions. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the given path (see ResolveStorePath).
func NewStore(path string) *Store {
	return &Store{path: ResolveStorePath(path)}
}

// Load reads the persisted settings, tolerating a missing or corrupt file by
// returning defaults.
func (s *Store) Load() ChatSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() ChatSettings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Default()
	}
	var parsed storeFile
	if err := json5.Unmarshal(data, &parsed); err != nil {
		return Default()
	}
	return parsed.Settings.WithDefaults()
}

// Save writes the settings atomically (temp file + rename).
func (s *Store) Save(settings ChatSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(settings.WithDefaults())
}

func (s *Store) saveLocked(settings ChatSettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(storeFile{Version: 1, Settings: settings}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Update applies fn to the current settings and persists the result,
// returning the normalized value that was stored.
func (s *Store) Update(fn func(ChatSettings) ChatSettings) (ChatSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.loadLocked()).WithDefaults()
	if err := s.saveLocked(next); err != nil {
		return ChatSettings{}, err
	}
	return next, nil
}
