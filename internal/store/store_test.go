// File: internal/store/store_test.go
package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/plan"
)

func TestCatalogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directories.json")
	cat := NewCatalog(path, zap.NewNop())

	records := []catalog.DirectoryRecord{
		{Name: "alpha", URL: "https://alpha.example", SiteStatus: catalog.StatusActive, AuthType: catalog.AuthNone},
		{Name: "beta", URL: "https://beta.example", SiteStatus: catalog.StatusDomainDead, AnalysisError: "no such host"},
	}
	require.NoError(t, cat.Save(records))

	loaded, err := cat.Load()
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestCatalogMissingFileIsError(t *testing.T) {
	cat := NewCatalog(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())
	_, err := cat.Load()
	assert.Error(t, err, "running against a nonexistent catalog is a configuration error")
}

func TestPlanAndQueueMissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()

	p := NewPlan(filepath.Join(dir, "plan.json"), zap.NewNop())
	targets, err := p.Load()
	require.NoError(t, err)
	assert.Empty(t, targets)

	q := NewQueue(filepath.Join(dir, "queue.json"), zap.NewNop())
	entries, err := q.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCorruptStoreIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directories.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "trunc`), 0o644))

	cat := NewCatalog(path, zap.NewNop())
	_, err := cat.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")

	// The corrupt file must survive untouched for hand repair.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"name": "trunc`, string(raw))
}

func TestSaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	p := NewPlan(path, zap.NewNop())

	require.NoError(t, p.Save([]plan.SubmissionTarget{{DirectoryName: "one", Status: plan.TargetPending}}))
	require.NoError(t, p.Save([]plan.SubmissionTarget{{DirectoryName: "two", Status: plan.TargetDiscovered}}))

	loaded, err := p.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "two", loaded[0].DirectoryName)

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreOutputIsHumanReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	q := NewQueue(path, zap.NewNop())
	require.NoError(t, q.Save([]QueueEntry{{Name: "alpha", URL: "https://alpha.example"}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  ", "stores are indented for operator diffing")
}
