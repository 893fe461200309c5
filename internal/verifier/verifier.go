// File: internal/verifier/verifier.go

// Package verifier implements the browser verification stage. It re-probes
// the ambiguous remainder of the catalog with a real rendering engine, so
// sites whose markup is assembled client-side get the same signal scan the
// HTTP classifier gives static pages. Every verdict is written back under
// the reprobe rule: this stage is allowed to resurrect records the cheap
// pass declared dead.
package verifier

import (
	"context"
	"errors"
	"sync"

	"github.com/chromedp/cdproto/network"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/lister-cli/internal/browser"
	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/config"
	"github.com/xkilldash9x/lister-cli/internal/signals"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

// Verifier drives headless page loads over the browser-check queue.
type Verifier struct {
	cfg           config.VerifierConfig
	autosaveEvery int
	pages         browser.Factory
	logger        *zap.Logger

	// mu guards the records slice during autosave; workers otherwise own
	// disjoint indices.
	mu        sync.Mutex
	processed int
}

// New builds a Verifier over the given page factory.
func New(cfg config.VerifierConfig, autosaveEvery int, pages browser.Factory, logger *zap.Logger) *Verifier {
	return &Verifier{
		cfg:           cfg,
		autosaveEvery: autosaveEvery,
		pages:         pages,
		logger:        logger.Named("verifier"),
	}
}

// Summary is the aggregate outcome of a verification pass.
type Summary struct {
	Processed int
	Resolved  int
	Remaining int
}

// pageProbe mirrors the result shape of the deep DOM probe script.
type pageProbe struct {
	InputCount int      `json:"inputCount"`
	FormCount  int      `json:"formCount"`
	SignupBtns []string `json:"signupBtns"`
	OAuthBtns  []string `json:"oauthBtns"`
}

// Run processes the browser-check queue: each queued record is rendered,
// scanned, and refined in the catalog. Entries whose record resolves leave
// the queue; the still-ambiguous remainder survives for the next pass.
func (v *Verifier) Run(ctx context.Context, cat store.Catalog, queue store.Queue) (*Summary, error) {
	records, err := cat.Load()
	if err != nil {
		return nil, err
	}
	entries, err := queue.Load()
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(records))
	for i := range records {
		index[records[i].Name] = i
	}

	var work []int
	for _, e := range entries {
		if i, ok := index[e.Name]; ok {
			work = append(work, i)
		}
	}
	v.logger.Info("Verifying queued directories",
		zap.Int("queued", len(entries)),
		zap.Int("matched", len(work)),
		zap.Int("concurrency", v.cfg.Concurrency),
	)

	if err := v.runPool(ctx, records, work, cat, false); err != nil {
		return nil, err
	}

	if err := cat.Save(records); err != nil {
		return nil, err
	}

	// Rebuild the queue from the refreshed records: resolved entries drop
	// out, repeat offenders stay for another pass or a hand audit.
	var remaining []store.QueueEntry
	for _, e := range entries {
		i, ok := index[e.Name]
		if !ok {
			continue
		}
		if stillAmbiguous(&records[i]) {
			e.Error = records[i].AnalysisError
			remaining = append(remaining, e)
		}
	}
	if err := queue.Save(remaining); err != nil {
		return nil, err
	}

	s := &Summary{
		Processed: len(work),
		Resolved:  len(work) - len(remaining),
		Remaining: len(remaining),
	}
	v.logger.Info("Verification complete",
		zap.Int("processed", s.Processed),
		zap.Int("resolved", s.Resolved),
		zap.Int("remaining", s.Remaining),
	)
	return s, nil
}

// RunRecheck is the deep pass: it sweeps the whole catalog for live records
// whose auth classification is still unknown and re-renders them with a
// longer settle and an in-page DOM probe. SPAs that mount their login
// widgets late are the usual customers.
func (v *Verifier) RunRecheck(ctx context.Context, cat store.Catalog) (*Summary, error) {
	records, err := cat.Load()
	if err != nil {
		return nil, err
	}

	var work []int
	for i := range records {
		r := &records[i]
		if r.SiteStatus == catalog.StatusActive &&
			(r.AuthType == catalog.AuthUnknown || r.AuthType == "") {
			work = append(work, i)
		}
	}
	v.logger.Info("Rechecking unknown-auth directories",
		zap.Int("count", len(work)),
		zap.Int("concurrency", v.cfg.Concurrency),
	)

	if err := v.runPool(ctx, records, work, cat, true); err != nil {
		return nil, err
	}
	if err := cat.Save(records); err != nil {
		return nil, err
	}

	resolved := 0
	for _, i := range work {
		if records[i].AuthType != catalog.AuthUnknown && records[i].AuthType != "" {
			resolved++
		}
	}
	s := &Summary{Processed: len(work), Resolved: resolved, Remaining: len(work) - resolved}
	v.logger.Info("Recheck complete",
		zap.Int("processed", s.Processed),
		zap.Int("resolved", s.Resolved),
	)
	return s, nil
}

// runPool fans the work indices out over a bounded pool. Workers own their
// index exclusively; the mutex only serializes autosaves against writes.
func (v *Verifier) runPool(ctx context.Context, records []catalog.DirectoryRecord, work []int, cat store.Catalog, deep bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Concurrency)
	for _, idx := range work {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			v.verifyRecord(gctx, records, idx, deep)
			v.maybeAutosave(records, cat)
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (v *Verifier) maybeAutosave(records []catalog.DirectoryRecord, cat store.Catalog) {
	if v.autosaveEvery <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.processed++
	if v.processed%v.autosaveEvery == 0 {
		if err := cat.Save(records); err != nil {
			v.logger.Warn("Autosave failed", zap.Error(err))
		}
	}
}

// verifyRecord renders one record's probe URL and refines it in place.
// Every failure mode becomes a status value; nothing escapes the worker.
func (v *Verifier) verifyRecord(ctx context.Context, records []catalog.DirectoryRecord, idx int, deep bool) {
	rec := &records[idx]
	log := v.logger.With(zap.String("directory", rec.Name), zap.String("url", rec.ProbeURL()))

	opCtx, cancel := context.WithTimeout(ctx, v.cfg.HardLimit)
	defer cancel()

	// Stylesheets are safe to drop here: this stage only reads markup and
	// never depends on computed visibility.
	page, err := v.pages.NewPage(opCtx, browser.WithBlockedResources(
		network.ResourceTypeImage,
		network.ResourceTypeMedia,
		network.ResourceTypeFont,
		network.ResourceTypeStylesheet,
	))
	if err != nil {
		v.recordFailure(rec, err)
		log.Warn("Failed to open page", zap.Error(err))
		return
	}
	defer page.Close()

	if err := page.Navigate(opCtx, rec.ProbeURL()); err != nil {
		v.recordFailure(rec, err)
		log.Debug("Navigation failed", zap.String("status", string(rec.SiteStatus)), zap.Error(err))
		return
	}

	settle := v.cfg.SettleWait
	if deep {
		settle = v.cfg.DeepSettleWait
	}
	if err := page.Settle(opCtx, settle); err != nil {
		v.recordFailure(rec, err)
		return
	}

	title, err := page.Title(opCtx)
	if err != nil {
		v.recordFailure(rec, err)
		return
	}
	html, err := page.HTML(opCtx)
	if err != nil {
		v.recordFailure(rec, err)
		return
	}

	a := signals.Analyze(html, title)

	if deep && (a.AuthType == catalog.AuthUnknown || a.AuthType == "") {
		// The rendered markup still carries no auth signal; ask the page
		// itself what its buttons say.
		var probe pageProbe
		if err := page.Evaluate(opCtx, browser.PageProbeScript, &probe); err == nil {
			providers := signals.ProvidersFromButtons(probe.OAuthBtns)
			hasForm := a.HasForm || probe.InputCount > 0 || probe.FormCount > 0
			a.AuthType = signals.DeriveAuthType(providers, false, hasForm)
			if len(providers) > 0 || len(probe.SignupBtns) > 0 {
				a.RequiresLogin = a.RequiresLogin || len(providers) > 0
			}
		} else {
			log.Debug("DOM probe failed", zap.Error(err))
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	applyAnalysis(rec, a)
	log.Debug("Record verified",
		zap.String("site_status", string(rec.SiteStatus)),
		zap.String("auth_type", string(rec.AuthType)),
		zap.String("captcha_type", string(rec.CaptchaType)),
	)
}

// applyAnalysis folds a signal scan into the record. The browser pass has
// rendering authority, so every refinement is a reprobe.
func applyAnalysis(rec *catalog.DirectoryRecord, a signals.Analysis) {
	switch {
	case a.CloudflareChallenge:
		rec.Refine(catalog.StatusCloudflareBlocked, true)
		return
	case a.DomainParked:
		rec.Refine(catalog.StatusDomainParked, true)
		return
	case a.NotFound:
		rec.Refine(catalog.StatusNotFound, true)
		return
	}

	rec.Refine(catalog.StatusActive, true)
	rec.AuthType = a.AuthType
	rec.CaptchaType = a.CaptchaType
	rec.RequiresLogin = a.RequiresLogin
	if a.PricingType != catalog.PricingUnknown {
		rec.PricingType = a.PricingType
		rec.PricingSignals = a.PricingSignals
	}
}

// recordFailure maps a browser failure onto the status taxonomy. Timeouts
// keep their own status because they are worth a retry; everything else is
// a plain error with the cause preserved for triage.
func (v *Verifier) recordFailure(rec *catalog.DirectoryRecord, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if errors.Is(err, context.DeadlineExceeded) {
		rec.Refine(catalog.StatusTimeout, true)
	} else {
		rec.Refine(catalog.StatusError, true)
	}
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	rec.AnalysisError = msg
}

// stillAmbiguous mirrors the triage queue predicate over a refreshed record.
func stillAmbiguous(r *catalog.DirectoryRecord) bool {
	if r.SiteStatus.Terminal() {
		return false
	}
	return r.SiteStatus.NeedsReprobe() ||
		r.AuthType == catalog.AuthUnknown || r.AuthType == "" ||
		r.CaptchaType == catalog.CaptchaUnknown
}
