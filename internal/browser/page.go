// File: internal/browser/page.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/config"
)

// chromePage is the chromedp-backed Page implementation. One tab, one
// worker; the tab context dies with Close and takes any in-flight CDP
// calls with it.
type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger

	closeOnce sync.Once
}

var _ Page = (*chromePage)(nil)

// run executes actions against the tab, bounded by both the tab context
// and the caller's context. The caller's deadline is the per-record hard
// limit; hitting it cancels only this tab's work.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, opCancel := combineContext(p.ctx, ctx)
	defer opCancel()
	err := chromedp.Run(opCtx, actions...)
	if err == nil {
		return nil
	}
	// The derived context only ever reports Canceled, even when the
	// caller's deadline killed it. Restore the caller's error so the stage
	// failure mappers can tell a hard-limit expiry from a crashed tab.
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %v", cerr, err)
	}
	return err
}

// Navigate loads the URL and waits for the body element to exist. The
// navigation timeout is separate from the caller's hard limit so a stalled
// TLS handshake reports as navigation failure, not a generic deadline.
func (p *chromePage) Navigate(ctx context.Context, url string) error {
	navTimeout := p.cfg.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 12 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(ctx, navTimeout)
	defer navCancel()

	if err := p.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		// A navigation-local timeout must not carry the deadline identity,
		// or the stage mappers would file a stalled handshake as a
		// hard-limit timeout.
		if navCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("navigation timed out after %s: %v", navTimeout, err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Settle sleeps inside the tab context so cancellation still interrupts it.
func (p *chromePage) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return p.run(ctx, chromedp.Sleep(d))
}

func (p *chromePage) Title(ctx context.Context) (string, error) {
	var title string
	if err := p.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// HTML serializes the rendered DOM, which is the whole point of the
// browser stages: it includes everything client-side JS built.
func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		root, err := dom.GetDocument().Do(c)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(c)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("failed to capture DOM: %w", err)
	}
	return html, nil
}

func (p *chromePage) Location(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// Evaluate runs script in the page and decodes the JSON result into out.
// Pass nil when the result does not matter.
func (p *chromePage) Evaluate(ctx context.Context, script string, out any) error {
	if err := p.run(ctx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// SetUploads attaches local files to the file input at selector.
func (p *chromePage) SetUploads(ctx context.Context, selector string, files []string) error {
	if err := p.run(ctx, chromedp.SetUploadFiles(selector, files, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to set upload files on %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Close() {
	p.closeOnce.Do(p.cancel)
}

// combineContext derives a context that is cancelled when either parent
// is. chromedp calls need the tab context for the CDP session but must
// also honor the per-record deadline.
func combineContext(tabCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(tabCtx)
	stop := context.AfterFunc(opCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
