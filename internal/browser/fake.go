// File: internal/browser/fake.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/json-iterator/go"
)

// Scripted fakes for the stage packages' tests. They live here rather than
// in a _test.go file because every browser-driven stage package needs them.

// FakePage is a Page whose every response is scripted by the test.
type FakePage struct {
	NavigateErr error
	// NavigateDelay blocks Navigate until the context dies or the delay
	// elapses, for exercising per-record hard limits.
	NavigateDelay time.Duration
	SettleErr     error
	TitleValue    string
	HTMLValue     string
	LocationValue string
	// EvaluateResult is JSON-decoded into the out argument of Evaluate.
	// EvaluateFn, when set, takes precedence and sees the full script.
	EvaluateResult any
	EvaluateErr    error
	EvaluateFn     func(script string, out any) error
	UploadErr      error

	mu        sync.Mutex
	Navigated []string
	Uploads   map[string][]string
	Evaluated []string
	Closed    bool
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.Navigated = append(p.Navigated, url)
	p.mu.Unlock()
	if p.NavigateDelay > 0 {
		select {
		case <-ctx.Done():
			// Same error surface as the real page: the context error stays
			// reachable through errors.Is under a wrapping message.
			return fmt.Errorf("navigation failed: %w", ctx.Err())
		case <-time.After(p.NavigateDelay):
		}
	}
	return p.NavigateErr
}

func (p *FakePage) Settle(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.SettleErr
}

func (p *FakePage) Title(ctx context.Context) (string, error)    { return p.TitleValue, nil }
func (p *FakePage) HTML(ctx context.Context) (string, error)     { return p.HTMLValue, nil }
func (p *FakePage) Location(ctx context.Context) (string, error) { return p.LocationValue, nil }

func (p *FakePage) Evaluate(ctx context.Context, script string, out any) error {
	p.mu.Lock()
	p.Evaluated = append(p.Evaluated, script)
	p.mu.Unlock()
	if p.EvaluateFn != nil {
		return p.EvaluateFn(script, out)
	}
	if p.EvaluateErr != nil {
		return p.EvaluateErr
	}
	if out == nil || p.EvaluateResult == nil {
		return nil
	}
	raw, err := json.Marshal(p.EvaluateResult)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (p *FakePage) SetUploads(ctx context.Context, selector string, files []string) error {
	if p.UploadErr != nil {
		return p.UploadErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Uploads == nil {
		p.Uploads = make(map[string][]string)
	}
	p.Uploads[selector] = files
	return nil
}

func (p *FakePage) Close() {
	p.mu.Lock()
	p.Closed = true
	p.mu.Unlock()
}

// FakeFactory dispenses fake pages and tracks how many are open at once,
// which is how the pool-bound tests assert their concurrency ceiling.
type FakeFactory struct {
	// NewPageFn builds the page for each call. When nil, a zero FakePage
	// is returned.
	NewPageFn func() (Page, error)

	mu      sync.Mutex
	open    int
	Created int
	MaxOpen int
}

func (f *FakeFactory) NewPage(ctx context.Context, opts ...PageOption) (Page, error) {
	var page Page
	if f.NewPageFn != nil {
		p, err := f.NewPageFn()
		if err != nil {
			return nil, err
		}
		page = p
	} else {
		page = &FakePage{}
	}

	f.mu.Lock()
	f.Created++
	f.open++
	if f.open > f.MaxOpen {
		f.MaxOpen = f.open
	}
	f.mu.Unlock()

	return &countedPage{Page: page, release: f.release}, nil
}

func (f *FakeFactory) release() {
	f.mu.Lock()
	f.open--
	f.mu.Unlock()
}

// countedPage decrements the factory's open-tab gauge exactly once.
type countedPage struct {
	Page
	release func()
	once    sync.Once
}

func (c *countedPage) Close() {
	c.once.Do(c.release)
	c.Page.Close()
}
