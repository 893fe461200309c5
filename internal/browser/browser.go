// File: internal/browser/browser.go

// Package browser owns the headless Chrome lifecycle for the verify,
// discover, and submit stages. One allocator (one Chrome process) is shared
// per stage run; each worker gets its own isolated tab context, so a crash
// or hang in one page never takes a sibling down with it.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lister-cli/internal/config"
)

// Page is the narrow surface the pipeline stages drive. Stages depend on
// this interface, not on chromedp, so their logic is testable against
// scripted fakes.
type Page interface {
	// Navigate loads the URL and waits for the DOM to be ready.
	Navigate(ctx context.Context, url string) error
	// Settle lets client-side rendering catch up after a load.
	Settle(ctx context.Context, d time.Duration) error
	// Title returns the document title.
	Title(ctx context.Context) (string, error)
	// HTML returns the serialized rendered DOM.
	HTML(ctx context.Context) (string, error)
	// Location returns the page's current URL (post-redirect).
	Location(ctx context.Context) (string, error)
	// Evaluate runs a script and decodes its JSON result into out.
	Evaluate(ctx context.Context, script string, out any) error
	// SetUploads attaches local files to a file input.
	SetUploads(ctx context.Context, selector string, files []string) error
	// Close tears the tab down.
	Close()
}

// Factory creates pages. The stage worker pools hold a Factory; production
// code passes the Manager, tests pass fakes.
type Factory interface {
	NewPage(ctx context.Context, opts ...PageOption) (Page, error)
}

// PageOption customizes one tab.
type PageOption func(*pageConfig)

type pageConfig struct {
	blocked []network.ResourceType
}

// WithBlockedResources aborts requests for the given resource types.
// Blocking images, media, and fonts cuts page load times dramatically
// across a long queue; the submit stage keeps images because some forms
// preview uploads.
func WithBlockedResources(types ...network.ResourceType) PageOption {
	return func(pc *pageConfig) { pc.blocked = types }
}

// Manager holds the shared allocator context and hands out tab contexts.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewManager launches the allocator. The browser process itself starts
// lazily with the first tab.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened systems and in containers.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	)
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(arg, "=")
		if !strings.HasPrefix(key, "--") {
			key = "--" + key
		}
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Manager{
		cfg:         cfg,
		logger:      logger.Named("browser"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// NewPage opens an isolated tab context. The caller must Close it.
func (m *Manager) NewPage(ctx context.Context, opts ...PageOption) (Page, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("browser manager is shut down")
	}
	m.mu.Unlock()

	var pc pageConfig
	for _, opt := range opts {
		opt(&pc)
	}

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	// Materialize the tab and set the viewport before anyone navigates.
	if err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(int64(m.cfg.ViewportWidth), int64(m.cfg.ViewportHeight), 1, false),
	); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to initialize tab: %w", err)
	}

	p := &chromePage{
		ctx:    tabCtx,
		cancel: tabCancel,
		cfg:    m.cfg,
		logger: m.logger,
	}

	if len(pc.blocked) > 0 {
		if err := p.enableBlocking(pc.blocked); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

// Shutdown kills the browser process. Outstanding pages become unusable.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.allocCancel()
	m.logger.Debug("Browser allocator shut down")
}

// enableBlocking turns on fetch interception and fails requests for the
// blocked resource types, continuing everything else.
func (p *chromePage) enableBlocking(blocked []network.ResourceType) error {
	blockSet := make(map[network.ResourceType]bool, len(blocked))
	for _, t := range blocked {
		blockSet[t] = true
	}

	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		// The handler must not block the event loop; resolve the paused
		// request from a fresh goroutine against the tab's executor.
		go func() {
			c := chromedp.FromContext(p.ctx)
			if c == nil {
				return
			}
			execCtx := cdp.WithExecutor(p.ctx, c.Target)
			if blockSet[e.ResourceType] {
				_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			} else {
				_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
			}
		}()
	})

	if err := chromedp.Run(p.ctx, fetch.Enable()); err != nil {
		return fmt.Errorf("failed to enable request interception: %w", err)
	}
	return nil
}
