// File: internal/classifier/classifier.go

// Package classifier implements the plain-HTTP classification stage: a
// bounded pool of cheap network probes that assigns preliminary liveness,
// auth, captcha, and pricing attributes to every catalog record. Anything
// it cannot resolve confidently it leaves as unknown for the browser
// verifier rather than guessing.
package classifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/lister-cli/internal/catalog"
	"github.com/xkilldash9x/lister-cli/internal/config"
	"github.com/xkilldash9x/lister-cli/internal/signals"
	"github.com/xkilldash9x/lister-cli/internal/store"
)

// maxBodyBytes caps how much of a response we pull for signal scanning.
// Directory pages are small; anything bigger is bulk content we don't need.
const maxBodyBytes = 2 << 20

// Classifier probes directory records over plain HTTP.
type Classifier struct {
	cfg    config.ClassifierConfig
	client *http.Client
	logger *zap.Logger
}

// New builds a Classifier with a redirect-following client. TLS errors are
// ignored on purpose: half the long tail of directory sites has broken
// certs, and a cert error tells us nothing about the submission form.
func New(cfg config.ClassifierConfig, logger *zap.Logger) *Classifier {
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		MaxIdleConnsPerHost: 2,
		DisableKeepAlives:   true,
	}
	return &Classifier{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		logger: logger.Named("classifier"),
	}
}

// Summary is the aggregate outcome of a classification pass.
type Summary struct {
	Total    int
	ByStatus map[catalog.SiteStatus]int
}

// Run classifies every record in the catalog and writes the result back.
// The pass is idempotent: rerunning reclassifies rather than accumulates.
func (c *Classifier) Run(ctx context.Context, cat store.Catalog) (*Summary, error) {
	records, err := cat.Load()
	if err != nil {
		return nil, err
	}
	c.logger.Info("Classifying directories",
		zap.Int("count", len(records)),
		zap.Int("concurrency", c.cfg.Concurrency),
	)

	// Workers own disjoint indices of the shared slice, so there is no
	// racing on records and no result reordering.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i := range records {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			c.classifyRecord(gctx, &records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	if err := cat.Save(records); err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(records), ByStatus: catalog.CountByStatus(records)}
	for status, n := range summary.ByStatus {
		c.logger.Info("Classification result", zap.String("status", string(status)), zap.Int("count", n))
	}
	return summary, nil
}

// classifyRecord probes a single record in place. Every failure mode
// becomes a status value on the record; nothing escapes the worker.
func (c *Classifier) classifyRecord(ctx context.Context, rec *catalog.DirectoryRecord) {
	target := rec.ProbeURL()
	log := c.logger.With(zap.String("directory", rec.Name), zap.String("url", target))

	if status, reason := vetURL(target); status != "" {
		rec.Refine(status, true)
		if status == catalog.StatusFacebookGroup {
			// A Facebook group is reachable but only through a Facebook
			// account; no amount of probing changes that.
			rec.AuthType = catalog.AuthFacebook
			rec.CaptchaType = catalog.CaptchaNone
			rec.RequiresLogin = true
		} else {
			rec.AuthType = catalog.AuthUnknown
			rec.CaptchaType = catalog.CaptchaUnknown
		}
		rec.AnalysisError = reason
		log.Debug("Record rejected before probing", zap.String("status", string(status)))
		return
	}

	body, finalURL, status, err := c.fetch(ctx, target)
	if err != nil {
		rec.Refine(classifyFetchError(err), true)
		rec.AuthType = catalog.AuthUnknown
		rec.CaptchaType = catalog.CaptchaUnknown
		rec.AnalysisError = truncate(err.Error(), 200)
		log.Debug("Probe failed", zap.String("status", string(rec.SiteStatus)), zap.Error(err))
		return
	}

	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		rec.Refine(catalog.StatusNotFound, true)
		rec.AnalysisError = fmt.Sprintf("HTTP %d", status)
		return
	case isBotChallenge(status, body):
		rec.Refine(catalog.StatusCloudflareBlocked, true)
		rec.AnalysisError = fmt.Sprintf("HTTP %d", status)
		return
	case status >= 400:
		rec.Refine(catalog.StatusError, true)
		rec.AuthType = catalog.AuthUnknown
		rec.CaptchaType = catalog.CaptchaUnknown
		rec.AnalysisError = fmt.Sprintf("HTTP %d", status)
		return
	}

	a := signals.Analyze(body, "")
	rec.Refine(catalog.StatusActive, true)
	switch {
	case a.NotFound:
		rec.Refine(catalog.StatusNotFound, true)
	case a.DomainParked:
		rec.Refine(catalog.StatusDomainParked, true)
	case a.CloudflareChallenge:
		rec.Refine(catalog.StatusCloudflareBlocked, true)
	}
	rec.AuthType = a.AuthType
	rec.CaptchaType = a.CaptchaType
	rec.RequiresLogin = a.RequiresLogin
	if a.PricingType != catalog.PricingUnknown {
		rec.PricingType = a.PricingType
		rec.PricingSignals = a.PricingSignals
	}
	if rec.SiteStatus == catalog.StatusActive {
		rec.AnalysisError = ""
	}
	if redirectedToHomepage(target, finalURL) {
		log.Debug("Submission URL redirected to homepage", zap.String("final_url", finalURL))
	}
}

// fetch issues the probe request and returns the body, the post-redirect
// URL, and the response status.
func (c *Classifier) fetch(ctx context.Context, target string) (body, finalURL string, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", 0, err
	}
	defer resp.Body.Close()

	finalURL = resp.Request.URL.String()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") &&
		!strings.Contains(contentType, "text/plain") &&
		!strings.Contains(contentType, "application/xhtml") {
		// Non-HTML is usually an API endpoint or a file download; there
		// is nothing to scan, but the site itself is alive.
		return "", finalURL, resp.StatusCode, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", finalURL, resp.StatusCode, fmt.Errorf("reading body: %w", err)
	}
	return string(raw), finalURL, resp.StatusCode, nil
}

// vetURL rejects records whose URL cannot be probed at all. Catalog seeding
// ingests arbitrary text, so some "URLs" are really descriptions.
func vetURL(raw string) (catalog.SiteStatus, string) {
	if raw == "" {
		return catalog.StatusInvalidURL, "no url"
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") ||
		strings.ContainsAny(raw, " \"") || strings.Contains(raw, "**") {
		return catalog.StatusInvalidURL, "malformed url"
	}
	if _, err := url.Parse(raw); err != nil {
		return catalog.StatusInvalidURL, truncate(err.Error(), 200)
	}
	if strings.Contains(raw, "facebook.com/groups/") {
		return catalog.StatusFacebookGroup, ""
	}
	return "", ""
}

// classifyFetchError maps transport failures onto the status taxonomy.
func classifyFetchError(err error) catalog.SiteStatus {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return catalog.StatusDomainDead
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return catalog.StatusDomainDead
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return catalog.StatusTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return catalog.StatusTimeout
	}
	return catalog.StatusError
}

// isBotChallenge spots Cloudflare-style interstitials, which arrive as 403
// or 503 with a challenge page body.
func isBotChallenge(status int, body string) bool {
	if status != http.StatusForbidden && status != http.StatusServiceUnavailable {
		return false
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "just a moment") ||
		strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "attention required")
}

// redirectedToHomepage reports whether a deep submission link bounced to
// the site root, a common sign the submission page was removed.
func redirectedToHomepage(original, final string) bool {
	o, err1 := url.Parse(original)
	f, err2 := url.Parse(final)
	if err1 != nil || err2 != nil || final == "" {
		return false
	}
	return (f.Path == "/" || f.Path == "") && o.Path != "/" && o.Path != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Probe exposes a single-record classification for ad hoc use (and tests
// that want to bypass the pool). It mirrors one worker iteration exactly.
func (c *Classifier) Probe(ctx context.Context, rec *catalog.DirectoryRecord) {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout+time.Second)
	defer cancel()
	c.classifyRecord(probeCtx, rec)
}
