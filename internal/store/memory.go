// File: internal/store/memory.go
package store

import (
	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/plan"
)

// In-memory store implementations. Stage packages are written against the
// store interfaces precisely so tests can run the full read-compute-write
// cycle without touching disk.

// MemCatalog is an in-memory Catalog.
type MemCatalog struct {
	Records []catalog.DirectoryRecord
	Saves   int
}

func (m *MemCatalog) Load() ([]catalog.DirectoryRecord, error) {
	return append([]catalog.DirectoryRecord(nil), m.Records...), nil
}

func (m *MemCatalog) Save(records []catalog.DirectoryRecord) error {
	m.Records = append([]catalog.DirectoryRecord(nil), records...)
	m.Saves++
	return nil
}

// MemPlan is an in-memory Plan.
type MemPlan struct {
	Targets []plan.SubmissionTarget
	Saves   int
}

func (m *MemPlan) Load() ([]plan.SubmissionTarget, error) {
	return append([]plan.SubmissionTarget(nil), m.Targets...), nil
}

func (m *MemPlan) Save(targets []plan.SubmissionTarget) error {
	m.Targets = append([]plan.SubmissionTarget(nil), targets...)
	m.Saves++
	return nil
}

// MemQueue is an in-memory Queue.
type MemQueue struct {
	Entries []QueueEntry
	Saves   int
}

func (m *MemQueue) Load() ([]QueueEntry, error) {
	return append([]QueueEntry(nil), m.Entries...), nil
}

func (m *MemQueue) Save(entries []QueueEntry) error {
	m.Entries = append([]QueueEntry(nil), entries...)
	m.Saves++
	return nil
}
