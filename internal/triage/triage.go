// File: internal/triage/triage.go

// Package triage partitions the catalog after a classification pass:
// terminal failures are parked for audit, everything ambiguous goes onto
// the browser-check queue for the verify stage. The partition itself is a
// pure function so it can be tested without any store plumbing.
package triage

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

// Result is the outcome of one triage pass.
type Result struct {
	Terminal []catalog.DirectoryRecord
	Queue    []store.QueueEntry
}

// Partition splits records into the terminal-failure set and the
// browser-check queue. Queued: anything active or unresolved, and any
// active record whose auth or captcha classification is still unknown.
func Partition(records []catalog.DirectoryRecord) Result {
	var res Result
	for _, r := range records {
		if r.SiteStatus.Terminal() {
			res.Terminal = append(res.Terminal, r)
			continue
		}
		needsCheck := r.SiteStatus.NeedsReprobe() ||
			r.AuthType == catalog.AuthUnknown || r.AuthType == "" ||
			r.CaptchaType == catalog.CaptchaUnknown
		if needsCheck {
			res.Queue = append(res.Queue, store.QueueEntry{
				Name:  r.Name,
				URL:   r.ProbeURL(),
				Error: r.AnalysisError,
			})
		}
	}
	return res
}

// Merge combines a freshly computed queue with the existing one. Additive:
// an entry already queued but not yet processed survives unless its record
// has since resolved. Entries are keyed by directory name.
func Merge(existing, fresh []store.QueueEntry, records []catalog.DirectoryRecord) []store.QueueEntry {
	resolved := make(map[string]bool, len(records))
	for _, r := range records {
		stillAmbiguous := r.SiteStatus.NeedsReprobe() ||
			r.AuthType == catalog.AuthUnknown || r.AuthType == "" ||
			r.CaptchaType == catalog.CaptchaUnknown
		if !stillAmbiguous || r.SiteStatus.Terminal() {
			resolved[r.Name] = true
		}
	}

	seen := make(map[string]bool)
	var out []store.QueueEntry
	for _, e := range append(append([]store.QueueEntry(nil), existing...), fresh...) {
		if seen[e.Name] || resolved[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out
}

// Summary is the aggregate outcome of a triage run.
type Summary struct {
	Total    int
	Terminal int
	Queued   int
}

// Run executes triage against the stores: recompute the partition, merge
// with the surviving queue, write the queue back. The catalog itself is
// not modified; triage has no side effect beyond the queue file.
func Run(ctx context.Context, cat store.Catalog, queue store.Queue, logger *zap.Logger) (*Summary, error) {
	log := logger.Named("triage")

	records, err := cat.Load()
	if err != nil {
		return nil, err
	}
	existing, err := queue.Load()
	if err != nil {
		return nil, err
	}

	res := Partition(records)
	merged := Merge(existing, res.Queue, records)

	if err := queue.Save(merged); err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(records), Terminal: len(res.Terminal), Queued: len(merged)}
	log.Info("Triage complete",
		zap.Int("total", summary.Total),
		zap.Int("terminal", summary.Terminal),
		zap.Int("queued", summary.Queued),
	)
	for status, n := range catalog.CountByStatus(records) {
		log.Info("Catalog status", zap.String("status", string(status)), zap.Int("count", n))
	}
	return summary, nil
}
