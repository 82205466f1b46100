package authsession

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
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// fileRecord is one session in the file. Keys mirror the storage fields.
type fileRecord struct {
	Fields    map[string]string `json:"fields"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// FileStore keeps sessions in a single JSON file readable only by its owner.
// It is the terminal counterpart of browser local storage.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(_ context.Context, key string, s *Session, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !s.Valid() {
		return ErrInvalidSession
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.read()
	if err != nil {
		return err
	}

	rec := fileRecord{Fields: s.Fields()}
	if ttl > 0 {
		exp := f.now().Add(ttl).UTC()
		rec.ExpiresAt = &exp
	}
	records[key] = rec
	return f.write(records)
}

func (f *FileStore) Load(_ context.Context, key string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.read()
	if err != nil {
		return nil, err
	}
	rec, ok := records[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if rec.ExpiresAt != nil && f.now().After(*rec.ExpiresAt) {
		delete(records, key)
		_ = f.write(records)
		return nil, ErrSessionExpired
	}
	return sessionFromFields(key, rec.Fields)
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	return f.write(records)
}

func (f *FileStore) read() (map[string]fileRecord, error) {
	records := make(map[string]fileRecord)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: corrupt session file %s: %w", ErrStoreFailed, f.path, err)
	}
	return records, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (f *FileStore) write(records map[string]fileRecord) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	return nil
}
