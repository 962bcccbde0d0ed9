// Package repository persists the interviewer ledger document.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/interviewsched/internal/domain/ledger"
	"github.com/okian/interviewsched/pkg/logger"
)

var _ ledger.Persister = (*JSONFileStore)(nil)

// JSONFileStore keeps the ledger as a single JSON document on disk.
// Every Save rewrites the whole file.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
	log  logger.Logger
}

// NewJSONFileStore returns a store backed by path. The file is created on
// the first Save.
func NewJSONFileStore(path string, opts ...Option) *JSONFileStore {
	o := apply(opts)
	return &JSONFileStore{path: path, log: o.log}
}

// Path returns the document location.
func (s *JSONFileStore) Path() string { return s.path }

// Load reads the document. A missing file is an empty ledger.
func (s *JSONFileStore) Load(ctx context.Context) (ledger.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug(ctx, "ledger file absent, starting empty", logger.String("path", s.path))
		return ledger.Document{}, nil
	}
	if err != nil {
		return ledger.Document{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc ledger.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ledger.Document{}, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, s.path, err)
	}
	return doc, nil
}

// Save writes doc to a temporary file and renames it over the document so a
// crash never leaves a half-written ledger behind.
func (s *JSONFileStore) Save(ctx context.Context, doc ledger.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	s.log.Debug(ctx, "ledger saved",
		logger.String("path", s.path),
		logger.Int("interviews", len(doc.Interviews)),
	)
	return nil
}
