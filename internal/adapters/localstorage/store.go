// Package localstorage provides credential stores with browser local-storage
// semantics: two string keys ("user" and "access_token") and no stored expiry.
// Expiry is derived from the token by the session layer.
package localstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// Storage keys shared by every local-storage flavoured store.
const (
	KeyUser        = "user"
	KeyAccessToken = "access_token"
)

var (
	_ ports.CredentialStore = (*Memory)(nil)
	_ ports.CredentialStore = (*File)(nil)
)

// Memory is an in-process key/value store. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// Load returns the stored halves.
func (m *Memory) Load(_ context.Context) (domainauth.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domainauth.Credentials{User: m.items[KeyUser], AccessToken: m.items[KeyAccessToken]}, nil
}

// Save writes both keys under one lock. The expiry is not stored.
func (m *Memory) Save(_ context.Context, creds domainauth.Credentials, _ time.Time) error {
	if !creds.Complete() {
		return errors.New("localstorage: both user and token are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[KeyUser] = creds.User
	m.items[KeyAccessToken] = creds.AccessToken
	return nil
}

// Clear removes both keys.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, KeyUser)
	delete(m.items, KeyAccessToken)
	return nil
}

// SetItem writes a single raw key. It exists so callers and tests can
// reproduce partially written state left behind by older clients.
func (m *Memory) SetItem(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

// Item returns a single raw key.
func (m *Memory) Item(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

// File persists the two keys as a small JSON document, for command-line clients
// that need the session to outlive the process.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a store persisting to path. The file is created on first save.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns <user config dir>/holygrail/session.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "holygrail", "session.json"), nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Load reads the document. A missing file reads as empty credentials.
func (f *File) Load(_ context.Context) (domainauth.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.read()
	if err != nil {
		return domainauth.Credentials{}, err
	}
	return domainauth.Credentials{User: items[KeyUser], AccessToken: items[KeyAccessToken]}, nil
}

// Save replaces the document with both keys using write-then-rename.
func (f *File) Save(_ context.Context, creds domainauth.Credentials, _ time.Time) error {
	if !creds.Complete() {
		return errors.New("localstorage: both user and token are required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(map[string]string{KeyUser: creds.User, KeyAccessToken: creds.AccessToken})
}

// Clear removes the document. A missing file is not an error.
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	items := map[string]string{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return items, nil
}

func (f *File) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return errors.Join(cause, rmErr)
		}
		return cause
	}

	if err := tmp.Chmod(0o600); err != nil {
		return cleanup(fmt.Errorf("chmod temp session file: %w", err))
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write temp session file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return cleanup(fmt.Errorf("close temp session file: %w", err))
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return cleanup(fmt.Errorf("replace session file: %w", err))
	}
	return nil
}
