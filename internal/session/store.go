package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

func (s *MemoryStore) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryStore) Save(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryStore) Clear() { s.Save("") }

// fileConfig is the on-disk layout of the CLI config.
type fileConfig struct {
	Auths map[string]string `json:"auths"`
}

// FileStore keeps one token per API address in a JSON file, the way the
// CLI remembers logins between runs.
type FileStore struct {
	path string
	addr string

	mu sync.Mutex
}

// DefaultConfigPath is ~/.bugboard/config.json.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".bugboard", "config.json"), nil
}

func NewFileStore(path, addr string) *FileStore {
	return &FileStore{path: path, addr: addr}
}

func (s *FileStore) read() (*fileConfig, error) {
	cfg := &fileConfig{Auths: map[string]string{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", s.path, err)
	}
	if cfg.Auths == nil {
		cfg.Auths = map[string]string{}
	}
	return cfg, nil
}

func (s *FileStore) write(cfg *fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (s *FileStore) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.read()
	if err != nil {
		return ""
	}
	return cfg.Auths[s.addr]
}

// Save persists token. Write failures are returned by SaveErr; Save itself
// satisfies the token store contract.
func (s *FileStore) Save(token string) { _ = s.SaveErr(token) }

func (s *FileStore) SaveErr(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.read()
	if err != nil {
		return err
	}
	if token == "" {
		delete(cfg.Auths, s.addr)
	} else {
		cfg.Auths[s.addr] = token
	}
	return s.write(cfg)
}

func (s *FileStore) Clear() { s.Save("") }
