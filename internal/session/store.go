package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the storage key the access token is persisted under.
const DefaultKey = "DLINK_ACCESS_TOKEN"

// ErrNoToken is returned by a Store that holds no token.
var ErrNoToken = errors.New("no access token")

// Store persists a single access token.
type Store interface {
	// Get returns the stored token or ErrNoToken.
	Get() (string, error)
	// Set replaces the stored token.
	Set(token string) error
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

// FileStore keeps the token in a YAML file that may be shared with other
// values, each under its own key. The file is re-read on every Get so state
// written by another process is picked up.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileStore returns a FileStore backed by path. An empty key selects DefaultKey.
func NewFileStore(path, key string) *FileStore {
	if key == "" {
		key = DefaultKey
	}

	return &FileStore{
		path: path,
		key:  key,
	}
}

func (s *FileStore) Get() (string, error) {
	const op = "session.FileStore.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, ok := values[s.key]
	if !ok || token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

func (s *FileStore) Set(token string) error {
	const op = "session.FileStore.Set"

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	values[s.key] = token

	if err := s.write(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *FileStore) Clear() error {
	const op = "session.FileStore.Clear"

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := values[s.key]; !ok {
		return nil
	}
	delete(values, s.key)

	if err := s.write(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}

	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	return nil
}

// MemoryStore keeps the token in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	return nil
}
