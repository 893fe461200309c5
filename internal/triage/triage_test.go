// File: internal/triage/triage_test.go
package triage

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

func TestPartition(t *testing.T) {
	records := []catalog.DirectoryRecord{
		{Name: "dead", SiteStatus: catalog.StatusDomainDead},
		{Name: "resolved", SiteStatus: catalog.StatusActive, AuthType: catalog.AuthNone, CaptchaType: catalog.CaptchaNone},
		{Name: "flaky", SiteStatus: catalog.StatusTimeout, AnalysisError: "deadline exceeded"},
		{Name: "mystery-auth", SiteStatus: catalog.StatusActive, AuthType: catalog.AuthUnknown, CaptchaType: catalog.CaptchaNone},
		{Name: "mystery-captcha", SiteStatus: catalog.StatusActive, AuthType: catalog.AuthNone, CaptchaType: catalog.CaptchaUnknown},
	}

	res := Partition(records)

	require.Len(t, res.Terminal, 1)
	assert.Equal(t, "dead", res.Terminal[0].Name)

	names := make([]string, len(res.Queue))
	for i, e := range res.Queue {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"flaky", "mystery-auth", "mystery-captcha"}, names)

	// The probe error travels with the queue entry for the operator.
	assert.Equal(t, "deadline exceeded", res.Queue[0].Error)
}

func TestMergeIsAdditive(t *testing.T) {
	records := []catalog.DirectoryRecord{
		{Name: "still-flaky", SiteStatus: catalog.StatusTimeout},
		{Name: "now-fine", SiteStatus: catalog.StatusActive, AuthType: catalog.AuthNone, CaptchaType: catalog.CaptchaNone},
		{Name: "fresh", SiteStatus: catalog.StatusError},
	}
	existing := []store.QueueEntry{
		{Name: "still-flaky", URL: "https://still-flaky.example"},
		{Name: "now-fine", URL: "https://now-fine.example"},
	}
	fresh := []store.QueueEntry{
		{Name: "still-flaky", URL: "https://still-flaky.example"},
		{Name: "fresh", URL: "https://fresh.example"},
	}

	merged := Merge(existing, fresh, records)

	// Unprocessed survivors stay, duplicates collapse, resolved drop out.
	want := []store.QueueEntry{
		{Name: "still-flaky", URL: "https://still-flaky.example"},
		{Name: "fresh", URL: "https://fresh.example"},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merged queue mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWritesOnlyTheQueue(t *testing.T) {
	cat := &store.MemCatalog{Records: []catalog.DirectoryRecord{
		{Name: "dead", SiteStatus: catalog.StatusNotFound},
		{Name: "queue-me", SiteStatus: catalog.StatusUnknown},
	}}
	queue := &store.MemQueue{}

	summary, err := Run(context.Background(), cat, queue, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Terminal)
	assert.Equal(t, 1, summary.Queued)

	assert.Equal(t, 0, cat.Saves, "triage must not touch the catalog")
	require.Equal(t, 1, queue.Saves)
	require.Len(t, queue.Entries, 1)
	assert.Equal(t, "queue-me", queue.Entries[0].Name)
}
