// File: internal/discoverer/discoverer.go

// Package discoverer implements the form discovery stage: for every pending
// submission target it renders the submission page, extracts the forms and
// their fields through an in-page script, and persists the field metadata
// on the target. Discovery is a read-only visit; nothing is typed into the
// page here.
package discoverer

import (
	"context"
	"errors"
	"sync"

	"github.com/chromedp/cdproto/network"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/lister-cli/internal/browser"
	"github.com/xkilldash9x/lister-cli/internal/config"
	"github.com/xkilldash9x/lister-cli/internal/plan"
	"github.com/xkilldash9x/lister-cli/internal/signals"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

// Discoverer walks pending targets and records what their pages offer.
type Discoverer struct {
	cfg           config.DiscoveryConfig
	autosaveEvery int
	pages         browser.Factory
	logger        *zap.Logger

	mu        sync.Mutex
	processed int
}

// New builds a Discoverer over the given page factory.
func New(cfg config.DiscoveryConfig, autosaveEvery int, pages browser.Factory, logger *zap.Logger) *Discoverer {
	return &Discoverer{
		cfg:           cfg,
		autosaveEvery: autosaveEvery,
		pages:         pages,
		logger:        logger.Named("discoverer"),
	}
}

// Summary is the aggregate outcome of a discovery pass.
type Summary struct {
	Processed int
	ByStatus  map[plan.TargetStatus]int
}

// discoveryResult mirrors the result shape of the form extraction script.
type discoveryResult struct {
	URL       string                `json:"url"`
	Title     string                `json:"title"`
	FormCount int                   `json:"formCount"`
	Forms     []plan.DiscoveredForm `json:"forms"`
}

// Run discovers forms for every target still pending. Field lists are
// replaced wholesale on each visit; pages change between runs and stale
// selectors are worse than no selectors.
func (d *Discoverer) Run(ctx context.Context, planStore store.Plan) (*Summary, error) {
	targets, err := planStore.Load()
	if err != nil {
		return nil, err
	}

	var work []int
	for i := range targets {
		if targets[i].Status.NeedsDiscovery() {
			work = append(work, i)
		}
	}
	d.logger.Info("Discovering forms",
		zap.Int("targets", len(targets)),
		zap.Int("pending", len(work)),
		zap.Int("concurrency", d.cfg.Concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for _, idx := range work {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			d.discoverTarget(gctx, &targets[idx])
			d.maybeAutosave(targets, planStore)
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	if err := planStore.Save(targets); err != nil {
		return nil, err
	}

	s := &Summary{Processed: len(work), ByStatus: plan.CountByStatus(targets)}
	for status, n := range s.ByStatus {
		d.logger.Info("Discovery result", zap.String("status", string(status)), zap.Int("count", n))
	}
	return s, nil
}

func (d *Discoverer) maybeAutosave(targets []plan.SubmissionTarget, planStore store.Plan) {
	if d.autosaveEvery <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed++
	if d.processed%d.autosaveEvery == 0 {
		if err := planStore.Save(targets); err != nil {
			d.logger.Warn("Autosave failed", zap.Error(err))
		}
	}
}

// discoverTarget renders one submission page and extracts its forms.
func (d *Discoverer) discoverTarget(ctx context.Context, t *plan.SubmissionTarget) {
	log := d.logger.With(zap.String("directory", t.DirectoryName), zap.String("url", t.SubmissionURL))

	opCtx, cancel := context.WithTimeout(ctx, d.cfg.HardLimit)
	defer cancel()

	page, err := d.pages.NewPage(opCtx, browser.WithBlockedResources(
		network.ResourceTypeImage,
		network.ResourceTypeMedia,
		network.ResourceTypeFont,
	))
	if err != nil {
		d.setFailure(t, err)
		log.Warn("Failed to open page", zap.Error(err))
		return
	}
	defer page.Close()

	if err := page.Navigate(opCtx, t.SubmissionURL); err != nil {
		d.setFailure(t, err)
		log.Debug("Navigation failed", zap.String("status", string(t.Status)), zap.Error(err))
		return
	}
	if err := page.Settle(opCtx, d.cfg.SettleWait); err != nil {
		d.setFailure(t, err)
		return
	}

	var res discoveryResult
	if err := page.Evaluate(opCtx, browser.DiscoverFormsScript, &res); err != nil {
		d.setFailure(t, err)
		log.Debug("Form extraction failed", zap.Error(err))
		return
	}

	// The rendered page may have revealed a login wall the classifier
	// missed; a password field on the submission page means this target
	// needs an account before anything else.
	if res.FormCount == 0 {
		loginGated := false
		if html, herr := page.HTML(opCtx); herr == nil {
			loginGated = signals.Analyze(html, res.Title).RequiresLogin
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		t.Forms = nil
		if loginGated {
			t.Status = plan.TargetLoginRequired
			log.Debug("Submission page is login-gated")
		} else {
			t.Status = plan.TargetNoFormFound
		}
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// FormPath records where the forms actually live, post-redirect.
	t.FormPath = res.URL
	t.Forms = res.Forms
	t.Status = plan.TargetDiscovered
	log.Debug("Forms discovered",
		zap.Int("forms", len(res.Forms)),
		zap.String("form_path", res.URL),
	)
}

// setFailure maps a browser failure onto the target taxonomy.
func (d *Discoverer) setFailure(t *plan.SubmissionTarget, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if errors.Is(err, context.DeadlineExceeded) {
		t.Status = plan.TargetTimeout
	} else {
		t.Status = plan.TargetError
	}
}
