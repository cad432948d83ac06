package calllog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/lamina/core"
)

// JSONLStore appends records to a file, one JSON document per line.
type JSONLStore struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewJSONLStore opens (or creates) path for appending. Parent directories
// are created as needed.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("call log path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create call log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open call log: %w", err)
	}

	return &JSONLStore{path: path, file: f}, nil
}

// Path returns the file location.
func (s *JSONLStore) Path() string { return s.path }

// Append writes rec as a single line.
func (s *JSONLStore) Append(_ context.Context, rec core.CallRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal call record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("call log %s is closed", s.path)
	}

	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write call record: %w", err)
	}

	return nil
}

// Close closes the underlying file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil

	return err
}
