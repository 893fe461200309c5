// File: internal/browser/page_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCombineContextHonorsOpContext(t *testing.T) {
	opCtx, opCancel := context.WithCancel(context.Background())
	derived, cleanup := combineContext(context.Background(), opCtx)
	defer cleanup()

	opCancel()
	select {
	case <-derived.Done():
	case <-time.After(time.Second):
		t.Fatal("derived context survived the op context")
	}
}

func TestRunKeepsHardLimitIdentity(t *testing.T) {
	// The per-record hard limit expires on the caller's context, but the
	// derived tab context reports plain Canceled. run must hand back an
	// error the failure mappers can recognize as a deadline.
	tabCtx, tabCancel := context.WithCancel(context.Background())
	defer tabCancel()
	p := &chromePage{ctx: tabCtx, cancel: tabCancel, logger: zap.NewNop()}

	opCtx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := p.run(opCtx, chromedp.Title(new(string)))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunKeepsCallerCancelIdentity(t *testing.T) {
	p := &chromePage{ctx: context.Background(), cancel: func() {}, logger: zap.NewNop()}

	opCtx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.run(opCtx, chromedp.Title(new(string)))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}
