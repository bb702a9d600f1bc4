package session

import (
	"sync"

	"github.com/smartapp/smartapp/internal/config"
)

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() error {
	return m.Save("")
}

// FileStore keeps the token in the CLI configuration file, next to the
// server URL. Other settings in the file are preserved on every write.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by the config file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := config.LoadOrDefault(f.path)
	if err != nil {
		return "", err
	}
	return cfg.CurrentToken, nil
}

func (f *FileStore) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := config.LoadOrDefault(f.path)
	if err != nil {
		return err
	}
	cfg.CurrentToken = token
	return cfg.WriteConfig(f.path)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := config.LoadOrDefault(f.path)
	if err != nil {
		return err
	}
	cfg.CurrentToken = ""
	cfg.Email = ""
	return cfg.WriteConfig(f.path)
}
