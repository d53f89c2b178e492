package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform/platformtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastDetector(timeout time.Duration) *Detector {
	return New(Options{Timeout: timeout, Settle: 10 * time.Millisecond, LoadTimeout: time.Second})
}

func TestWait_NoActivityUnblocksImmediately(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := fastDetector(5 * time.Second)

	start := time.Now()
	outcome, err := d.Wait(context.Background(), page, func(context.Context) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, Quiescent, outcome)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, page.Subscribers(), "subscription must be released")
}

func TestWait_RequestsFinishDuringAction(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := fastDetector(5 * time.Second)

	outcome, err := d.Wait(context.Background(), page, func(context.Context) error {
		page.Emit(platform.RequestStarted{ID: "1", Method: "GET", URL: "https://x/api"})
		page.Emit(platform.RequestFinished{ID: "1", Status: 200})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Quiescent, outcome)
}

func TestWait_WaitsForOutstandingRequest(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := fastDetector(5 * time.Second)

	go func() {
		time.Sleep(100 * time.Millisecond)
		page.Emit(platform.RequestFinished{ID: "late", Failed: true})
	}()

	start := time.Now()
	outcome, err := d.Wait(context.Background(), page, func(context.Context) error {
		page.Emit(platform.RequestStarted{ID: "late", Method: "POST", URL: "https://x/save"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Quiescent, outcome)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_StalledRequestTimesOut(t *testing.T) {
	page := platformtest.NewPage("p1")
	timeout := 150 * time.Millisecond
	d := fastDetector(timeout)

	start := time.Now()
	outcome, err := d.Wait(context.Background(), page, func(context.Context) error {
		page.Emit(platform.RequestStarted{ID: "stuck", Method: "GET", URL: "https://x/stall"})
		return nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, TimedOut, outcome)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWait_NavigationWaitsForLoad(t *testing.T) {
	page := platformtest.NewPage("p1")
	page.LoadGate = make(chan struct{})
	d := fastDetector(200 * time.Millisecond)

	go func() {
		time.Sleep(400 * time.Millisecond)
		close(page.LoadGate)
	}()

	start := time.Now()
	outcome, err := d.Wait(context.Background(), page, func(context.Context) error {
		page.Emit(platform.RequestStarted{ID: "never", URL: "https://x/slow"})
		page.Emit(platform.FrameNavigated{URL: "https://x/next", MainFrame: true})
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, Navigated, outcome, "navigation cancels the request timeout")
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestWait_SubframeNavigationIgnored(t *testing.T) {
	page := platformtest.NewPage("p1")
	page.LoadGate = make(chan struct{}) // never opens
	d := fastDetector(5 * time.Second)

	outcome, err := d.Wait(context.Background(), page, func(context.Context) error {
		page.Emit(platform.FrameNavigated{URL: "https://ads/frame", MainFrame: false})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Quiescent, outcome)
}

func TestWait_ActionErrorSkipsSettle(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := New(Options{Timeout: 5 * time.Second, Settle: 5 * time.Second})
	boom := errors.New("boom")

	start := time.Now()
	outcome, err := d.Wait(context.Background(), page, func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Failed, outcome)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, page.Subscribers())
}

func TestWait_ActionPanicBecomesError(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := fastDetector(time.Second)
	_, err := d.Wait(context.Background(), page, func(context.Context) error { panic("kaboom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestWait_ModalUnblocksBlockedAction(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := fastDetector(5 * time.Second)
	release := make(chan struct{})
	defer close(release)

	outcome, err := d.Wait(context.Background(), page, func(context.Context) error {
		page.Emit(platform.DialogOpened{Dialog: &platformtest.Dialog{Kind: "alert", Text: "hi"}})
		<-release
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, ModalOpened, outcome)
}

func TestWait_ContextCanceled(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := fastDetector(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := d.Wait(ctx, page, func(ctx context.Context) error {
		page.Emit(platform.RequestStarted{ID: "x"})
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWait_PageClosedUnblocks(t *testing.T) {
	page := platformtest.NewPage("p1")
	d := fastDetector(5 * time.Second)

	outcome, err := d.Wait(context.Background(), page, func(ctx context.Context) error {
		page.Emit(platform.RequestStarted{ID: "x"})
		return page.Close(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, Quiescent, outcome)
}

func TestNew_Defaults(t *testing.T) {
	d := New(Options{})
	assert.Equal(t, 10*time.Second, d.Options().Timeout)
	assert.Equal(t, 5*time.Second, d.Options().LoadTimeout)
	assert.Equal(t, time.Duration(0), d.Options().Settle)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "timed_out", TimedOut.String())
	assert.Equal(t, "failed", Failed.String())
}
