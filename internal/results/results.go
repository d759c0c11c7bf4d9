// Package results keeps a JSON history of finished sessions on disk.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// Entry is one finished session
type Entry struct {
	SessionID string                `json:"session_id"`
	Finished  time.Time             `json:"finished"`
	Rounds    int                   `json:"rounds"`
	Standings []protocol.PlayerInfo `json:"standings"`
}

// Log appends entries to a JSON array file. Each append rewrites the file
// atomically, so readers see the old history or the new one, never a mix.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog returns a log backed by path. The file is created on first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the backing file
func (l *Log) Path() string {
	return l.path
}

// Load returns every recorded entry, oldest first
func (l *Log) Load() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Append records one session
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return err
	}
	entries = append(entries, e)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return writeAtomic(l.path, append(data, '\n'), 0o644)
}

func (l *Log) load() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse results %s: %w", l.path, err)
	}
	return entries, nil
}

// writeAtomic writes to a temp file in the target's directory and renames it
// into place.
func writeAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
