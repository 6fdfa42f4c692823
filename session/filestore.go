package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore persists the session as a single JSON document on disk.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given file path. The directory
// is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read loads the stored session. A missing or unreadable file, or a file
// holding malformed JSON, yields nil: stale local state must never block
// startup. Tokens lacking an expiry instant are backfilled defensively,
// though Write stamps them so this only fires on records written by older
// builds.
func (fs *FileStore) Read() *StoredSession {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	raw, err := os.ReadFile(fs.path)
	if err != nil {
		return nil
	}
	var s StoredSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s.Tokens.StampExpiry()
	return &s
}

// Write persists the session, replacing whatever was stored. Writing nil
// clears the store.
func (fs *FileStore) Write(s *StoredSession) error {
	if s == nil {
		return fs.Clear()
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	raw, err := json.Marshal(Normalize(s))
	if err != nil {
		return errors.Wrap(err, "[FileStore.Write] marshal")
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileStore.Write] mkdir")
	}
	// Write-then-rename so a crash mid-write cannot corrupt the record.
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Write] write")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[FileStore.Write] rename")
	}
	return nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove")
	}
	return nil
}

var _ Store = (*FileStore)(nil)
