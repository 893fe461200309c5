// File: internal/store/store.go
package store

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/plan"
)

// The pipeline's only shared mutable state lives in three plain JSON files.
// Each stage reads a store in full, computes per record, and writes the
// whole collection back; stages never run concurrently with each other, so
// the files need no locking, only crash safety (atomic rename on write).
// Keeping them human-diffable is a feature: operators edit them by hand
// between stages.

// Catalog is the durable owner of DirectoryRecord state.
type Catalog interface {
	Load() ([]catalog.DirectoryRecord, error)
	Save([]catalog.DirectoryRecord) error
}

// Plan is the durable owner of SubmissionTarget state.
type Plan interface {
	Load() ([]plan.SubmissionTarget, error)
	Save([]plan.SubmissionTarget) error
}

// QueueEntry is one record awaiting browser verification, with enough
// context for an operator scanning the queue file by eye.
type QueueEntry struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// Queue is the browser-check queue between triage and verify.
type Queue interface {
	Load() ([]QueueEntry, error)
	Save([]QueueEntry) error
}

// jsonFile implements read-all/write-back over a single JSON array file.
type jsonFile[T any] struct {
	path string
	log  *zap.Logger
	// missingOK makes Load treat a missing file as an empty collection.
	// The catalog demands an existing file (running against nothing is a
	// configuration error); queue and plan start empty.
	missingOK bool
}

func (s *jsonFile[T]) Load() ([]T, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) && s.missingOK {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		// A malformed store is a fatal configuration error: proceeding
		// would clobber state the operator may be able to repair by hand.
		return nil, fmt.Errorf("store %s is corrupt: %w", s.path, err)
	}
	s.log.Debug("Store loaded", zap.String("path", s.path), zap.Int("items", len(items)))
	return items, nil
}

func (s *jsonFile[T]) Save(items []T) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store %s: %w", s.path, err)
	}

	// Write-rename so a crash mid-save never leaves a truncated store.
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write store %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store %s: %w", s.path, err)
	}

	s.log.Debug("Store saved", zap.String("path", s.path), zap.Int("items", len(items)))
	return nil
}

// NewCatalog opens the directory catalog store at path.
func NewCatalog(path string, logger *zap.Logger) Catalog {
	return &jsonFile[catalog.DirectoryRecord]{path: path, log: logger.Named("store")}
}

// NewPlan opens the submission plan store at path. A missing file is an
// empty plan; the plan stage creates it.
func NewPlan(path string, logger *zap.Logger) Plan {
	return &jsonFile[plan.SubmissionTarget]{path: path, log: logger.Named("store"), missingOK: true}
}

// NewQueue opens the browser-check queue at path. A missing file is an
// empty queue.
func NewQueue(path string, logger *zap.Logger) Queue {
	return &jsonFile[QueueEntry]{path: path, log: logger.Named("store"), missingOK: true}
}
