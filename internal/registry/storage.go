package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Storage persists the provider map as one document.
type Storage interface {
	Load() (map[string]Entry, error)
	Save(providers map[string]Entry) error
}

// Locker is implemented by storages that guard a load-modify-save cycle.
type Locker interface {
	Lock() error
	Unlock() error
}

// FileStorage keeps the registry in a JSON file. A sibling ".lock" file is
// flocked between Lock and Unlock so that two mailctl processes do not
// interleave their read-modify-write cycles.
type FileStorage struct {
	Path   string
	Logger *slog.Logger

	lock *flock.Flock
}

func NewFileStorage(path string, logger *slog.Logger) *FileStorage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStorage{Path: path, Logger: logger}
}

func (s *FileStorage) Lock() error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("ensure registry dir: %w", err)
	}
	s.lock = flock.New(s.Path + ".lock")
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock registry: %w", err)
	}
	return nil
}

func (s *FileStorage) Unlock() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	if err != nil {
		return fmt.Errorf("unlock registry: %w", err)
	}
	return nil
}

// Load reads the registry file. A missing file yields Defaults.
func (s *FileStorage) Load() (map[string]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.Logger.Info("registry file not found, using defaults", "path", s.Path)
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	providers := map[string]Entry{}
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", s.Path, err)
	}
	s.Logger.Debug("registry loaded", "path", s.Path, "providers", len(providers))
	return providers, nil
}

// Save replaces the registry file. The document is written to a temporary
// file in the same directory and renamed over the old one.
func (s *FileStorage) Save(providers map[string]Entry) error {
	data, err := json.MarshalIndent(providers, "", "    ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ensure registry dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}

	s.Logger.Info("registry saved", "path", s.Path, "providers", len(providers))
	return nil
}

// MemoryStorage is an in-process Storage, mostly useful in tests.
type MemoryStorage struct {
	mu        sync.Mutex
	providers map[string]Entry
	saves     int
}

func NewMemoryStorage(providers map[string]Entry) *MemoryStorage {
	return &MemoryStorage{providers: copyProviders(providers)}
}

func (s *MemoryStorage) Load() (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProviders(s.providers), nil
}

func (s *MemoryStorage) Save(providers map[string]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = copyProviders(providers)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStorage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func copyProviders(in map[string]Entry) map[string]Entry {
	out := make(map[string]Entry, len(in))
	for name, entry := range in {
		out[name] = entry
	}
	return out
}
