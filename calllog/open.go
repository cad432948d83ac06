package calllog

import (
	"fmt"
	"io"

	"github.com/hupe1980/lamina/core"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Open builds the store for backend. The returned closer is never nil. A
// "none" (or empty) backend yields a nil store.
func Open(backend, path string) (core.CallLogStore, io.Closer, error) {
	switch backend {
	case "", BackendNone:
		return nil, nopCloser{}, nil
	case BackendMemory:
		return NewInMemoryStore(), nopCloser{}, nil
	case BackendJSONL:
		s, err := NewJSONLStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown call log backend %q", backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
