// File: internal/submitter/submitter.go

// Package submitter implements the submission engine: the only stage that
// writes to other people's websites. It fills discovered forms from the
// product profile and clicks submit, under a process-wide rate ceiling and
// hard per-target policy gates. Anything the engine is not sure about it
// leaves for a human instead of guessing.
package submitter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/lister-cli/internal/browser"
	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/config"
	"github.com/xkilldash9x/lister-cli/internal/matcher"
	"github.com/xkilldash9x/lister-cli/internal/plan"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

// confirmationFragments are scanned on the landing page after a submit
// click; any hit counts as an acknowledgment.
var confirmationFragments = []string{
	"thank you", "thanks for", "success", "successfully submitted",
	"submission received", "we'll review", "we will review",
	"has been submitted", "under review", "received your",
}

// Submitter fills and submits discovered forms.
type Submitter struct {
	cfg           config.SubmitConfig
	autosaveEvery int
	pages         browser.Factory
	match         *matcher.Matcher
	limiter       *rate.Limiter
	logger        *zap.Logger

	mu        sync.Mutex
	processed int
}

// New builds a Submitter. The rate limiter spans the whole process: the
// pool size bounds parallel tabs, the limiter bounds submissions per
// minute, and both hold regardless of each other.
func New(cfg config.SubmitConfig, mcfg config.MatcherConfig, autosaveEvery int, pages browser.Factory, logger *zap.Logger) *Submitter {
	interval := time.Minute / time.Duration(cfg.RatePerMinute)
	return &Submitter{
		cfg:           cfg,
		autosaveEvery: autosaveEvery,
		pages:         pages,
		match:         matcher.New(mcfg),
		limiter:       rate.NewLimiter(rate.Every(interval), 1),
		logger:        logger.Named("submitter"),
	}
}

// Summary is the aggregate outcome of a submission pass.
type Summary struct {
	Attempted int
	Submitted int
	ByStatus  map[plan.TargetStatus]int
}

// fillOutcome mirrors the result shape of the in-page fill script.
type fillOutcome struct {
	Filled  int `json:"filled"`
	Skipped int `json:"skipped"`
}

// clickOutcome mirrors the result shape of the submit click script.
type clickOutcome struct {
	Clicked    bool   `json:"clicked"`
	Reason     string `json:"reason"`
	ButtonText string `json:"buttonText"`
}

// Run processes every discovered target through the policy gates, the
// matcher, and the browser. Targets in any other status are untouched;
// rerunning the stage resumes exactly where the last run stopped.
func (s *Submitter) Run(ctx context.Context, cat store.Catalog, planStore store.Plan, profile *plan.Profile) (*Summary, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	records, err := cat.Load()
	if err != nil {
		return nil, err
	}
	targets, err := planStore.Load()
	if err != nil {
		return nil, err
	}

	index := make(map[string]*catalog.DirectoryRecord, len(records))
	for i := range records {
		index[records[i].Name] = &records[i]
	}

	var work []int
	for i := range targets {
		if targets[i].Status == plan.TargetDiscovered {
			work = append(work, i)
		}
	}
	s.logger.Info("Submitting to directories",
		zap.Int("targets", len(targets)),
		zap.Int("discovered", len(work)),
		zap.Int("concurrency", s.cfg.Concurrency),
		zap.Int("rate_per_minute", s.cfg.RatePerMinute),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, idx := range work {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			s.submitTarget(gctx, &targets[idx], index[targets[idx].DirectoryName], profile)
			s.maybeAutosave(targets, planStore)
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	if err := planStore.Save(targets); err != nil {
		return nil, err
	}

	summary := &Summary{Attempted: len(work), ByStatus: plan.CountByStatus(targets)}
	summary.Submitted = summary.ByStatus[plan.TargetSubmitted]
	for status, n := range summary.ByStatus {
		s.logger.Info("Submission result", zap.String("status", string(status)), zap.Int("count", n))
	}
	return summary, nil
}

func (s *Submitter) maybeAutosave(targets []plan.SubmissionTarget, planStore store.Plan) {
	if s.autosaveEvery <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	if s.processed%s.autosaveEvery == 0 {
		if err := planStore.Save(targets); err != nil {
			s.logger.Warn("Autosave failed", zap.Error(err))
		}
	}
}

// submitTarget runs one target through gates, matching, and the browser.
func (s *Submitter) submitTarget(ctx context.Context, t *plan.SubmissionTarget, rec *catalog.DirectoryRecord, profile *plan.Profile) {
	log := s.logger.With(zap.String("directory", t.DirectoryName), zap.String("url", t.SubmissionURL))

	// Policy gates run on catalog knowledge before a single byte leaves
	// the machine. A gated target costs nothing and touches nothing.
	if status, reason := s.gate(rec); status != "" {
		s.setStatus(t, status, nil)
		log.Info("Target gated", zap.String("status", string(status)), zap.String("reason", reason))
		return
	}

	form := t.PrincipalForm()
	if form == nil {
		s.setStatus(t, plan.TargetNoFormFound, nil)
		return
	}

	// Matching is pure computation; resolve it before opening a tab so an
	// unmatchable form never generates traffic.
	res := s.match.Match(form, profile, t.Copy)
	if len(res.Instructions) == 0 && len(res.Uploads) == 0 {
		s.setStatus(t, plan.TargetNoFieldsMatched, nil)
		log.Info("No fields matched", zap.Int("fields", len(form.Fields)))
		return
	}
	if len(res.UnmatchedRequired) > 0 {
		// A required field we cannot answer makes the whole form
		// unsubmittable; a partial submission is spam.
		names := make([]string, 0, len(res.UnmatchedRequired))
		for _, f := range res.UnmatchedRequired {
			names = append(names, f.Label)
		}
		s.setStatus(t, plan.TargetNoFieldsMatched, &plan.SubmitResult{
			Error: "required fields unmatched: " + strings.Join(names, ", "),
		})
		log.Info("Required fields unmatched", zap.Strings("fields", names))
		return
	}

	// One token per submission attempt, across all workers.
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.HardLimit)
	defer cancel()

	result, status := s.drive(opCtx, t, form, res, log)
	s.setStatus(t, status, result)
	log.Info("Submission attempt finished",
		zap.String("status", string(status)),
		zap.Int("filled", resultFilled(result)),
	)
}

// gate applies the catalog-level policy checks, most restrictive first.
func (s *Submitter) gate(rec *catalog.DirectoryRecord) (plan.TargetStatus, string) {
	if rec == nil {
		return "", ""
	}
	if rec.CaptchaType.Blocking() {
		return plan.TargetCaptcha, string(rec.CaptchaType)
	}
	if rec.AuthType.RequiresAccount() && !s.cfg.AttemptLoginRequired {
		return plan.TargetSkippedLogin, string(rec.AuthType)
	}
	if rec.PricingType == catalog.PricingPaid && !s.cfg.AttemptPaid {
		return plan.TargetSkippedPaid, string(rec.PricingType)
	}
	return "", ""
}

// drive performs the in-browser portion: navigate, re-check for a rendered
// captcha, fill, attach uploads, click, confirm.
func (s *Submitter) drive(ctx context.Context, t *plan.SubmissionTarget, form *plan.DiscoveredForm, res matcher.Result, log *zap.Logger) (*plan.SubmitResult, plan.TargetStatus) {
	// Images stay unblocked here: some forms preview the uploaded logo
	// and break when the preview request dies.
	page, err := s.pages.NewPage(ctx, browser.WithBlockedResources(
		network.ResourceTypeMedia,
		network.ResourceTypeFont,
	))
	if err != nil {
		return s.failure(err)
	}
	defer page.Close()

	target := t.FormPath
	if target == "" {
		target = t.SubmissionURL
	}
	if err := page.Navigate(ctx, target); err != nil {
		return s.failure(err)
	}
	if err := page.Settle(ctx, s.cfg.SettleWait); err != nil {
		return s.failure(err)
	}

	// The catalog said no captcha, but widgets load late; check what the
	// page actually rendered before typing anything.
	if html, herr := page.HTML(ctx); herr == nil {
		if captchaRendered(html) {
			return nil, plan.TargetCaptcha
		}
	}

	var fill fillOutcome
	if err := page.Evaluate(ctx, callScript(browser.FillFieldsScript, res.Instructions), &fill); err != nil {
		return s.failure(err)
	}
	result := &plan.SubmitResult{Filled: fill.Filled, Skipped: fill.Skipped}

	for _, up := range res.Uploads {
		if err := page.SetUploads(ctx, up.Selector, []string{up.Path}); err != nil {
			// A failed upload is not fatal; the field lands on the skipped
			// side of the ledger and the attempt continues.
			result.Skipped++
			log.Debug("Upload failed", zap.String("selector", up.Selector), zap.Error(err))
		}
	}

	if fill.Filled == 0 {
		result.Error = "fill script matched no elements"
		return result, plan.TargetNoFieldsMatched
	}

	var click clickOutcome
	if err := page.Evaluate(ctx, callScript(browser.ClickSubmitScript, form.Selector), &click); err != nil {
		return result, plan.TargetSubmitError
	}
	if !click.Clicked {
		result.Error = click.Reason
		return result, plan.TargetFilledNoSubmit
	}
	result.SubmitButtonText = click.ButtonText

	if err := page.Settle(ctx, s.cfg.ConfirmWait); err != nil {
		return result, plan.TargetSubmitTimeout
	}

	landing, _ := page.Location(ctx)
	result.LandingURL = landing
	html, err := page.HTML(ctx)
	if err != nil {
		return result, plan.TargetSubmitTimeout
	}

	if confirmed(html) || (landing != "" && landing != target) {
		return result, plan.TargetSubmitted
	}
	// The click landed but nothing confirms receipt. Defer to a human
	// rather than double-submitting on a rerun.
	return result, plan.TargetDeferred
}

func (s *Submitter) failure(err error) (*plan.SubmitResult, plan.TargetStatus) {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	result := &plan.SubmitResult{Error: msg}
	if errors.Is(err, context.DeadlineExceeded) {
		return result, plan.TargetSubmitTimeout
	}
	return result, plan.TargetSubmitError
}

// resultFilled reads the filled count from a possibly-nil result.
func resultFilled(result *plan.SubmitResult) int {
	if result == nil {
		return 0
	}
	return result.Filled
}

func (s *Submitter) setStatus(t *plan.SubmissionTarget, status plan.TargetStatus, result *plan.SubmitResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Status = status
	if result != nil {
		t.SubmitResult = result
	}
}

// callScript wraps a function-expression script with a JSON-encoded
// argument so the whole call is a single evaluate.
func callScript(script string, arg any) string {
	raw, err := json.Marshal(arg)
	if err != nil {
		raw = []byte("null")
	}
	return script + "(" + string(raw) + ")"
}

// captchaRendered checks the rendered markup for a live captcha widget.
func captchaRendered(html string) bool {
	lower := strings.ToLower(html)
	for _, frag := range []string{"g-recaptcha", "h-captcha", "cf-turnstile", "grecaptcha"} {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// confirmed scans the landing page for submission acknowledgment text.
func confirmed(html string) bool {
	lower := strings.ToLower(html)
	for _, frag := range confirmationFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
