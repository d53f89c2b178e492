package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/completion"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform/platformtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedInput struct {
	mu      sync.Mutex
	events  []platform.RecorderEvent
	enabled []bool
	flushes int
}

func (r *recordedInput) Record(e platform.RecorderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedInput) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = append(r.enabled, enabled)
}

func (r *recordedInput) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
}

func (r *recordedInput) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTestContext(f *platformtest.Factory, mutate ...func(*Options)) *Context {
	opts := Options{
		LoadTimeout: time.Second,
		Detector:    completion.New(completion.Options{Timeout: time.Second, Settle: time.Millisecond}),
	}
	for _, m := range mutate {
		m(&opts)
	}
	c := NewContext(f, opts)
	c.SetModalHandlers(map[ModalKind]string{
		ModalDialog:      "browser_handle_dialog",
		ModalFileChooser: "browser_file_upload",
	})
	return c
}

func TestEnsureTab_ConcurrentCallersShareOneSession(t *testing.T) {
	f := &platformtest.Factory{Gate: make(chan struct{})}
	c := newTestContext(f)

	const callers = 8
	tabs := make([]*Tab, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tabs[i], errs[i] = c.EnsureTab(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(f.Gate)
	wg.Wait()

	assert.Equal(t, 1, f.Creates())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, tabs[0], tabs[i])
	}
	assert.Len(t, c.Tabs(), 1)
}

func TestEnsureTab_AdoptsInitialPage(t *testing.T) {
	f := &platformtest.Factory{InitialPages: 1}
	c := newTestContext(f)

	tab, err := c.EnsureTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "page-1", tab.Page().ID())
	assert.Len(t, c.Tabs(), 1)
}

func TestEnsureTab_CreationFailureAllowsRetry(t *testing.T) {
	boom := errors.New("no browser")
	f := &platformtest.Factory{Err: boom}
	c := newTestContext(f)

	_, err := c.EnsureTab(context.Background())
	assert.ErrorIs(t, err, boom)

	f.Err = nil
	_, err = c.EnsureTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.Creates())
}

func TestEnsureTab_PassesClientInfo(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	c.SetClientInfo(platform.ClientInfo{Name: "inspector", Version: "1.2"})

	_, err := c.EnsureTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "inspector", f.Client().Name)
}

func TestEnsureTab_InstallsRequestRules(t *testing.T) {
	f := &platformtest.Factory{}
	rules := platform.RequestRules{Blocked: []string{"ads.example.com"}}
	c := newTestContext(f, func(o *Options) { o.Rules = rules })

	_, err := c.EnsureTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rules, f.LastSession().Rules())
}

func TestCloseTab_LastTabClosesSessionOnce(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f, func(o *Options) { o.SaveTrace = true })

	_, err := c.EnsureTab(context.Background())
	require.NoError(t, err)
	s := f.LastSession()
	assert.True(t, s.Tracing())

	url, err := c.CloseTab(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", url)

	// The page-closed relay must not trigger a second teardown.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, s.Closes())
	assert.False(t, s.Tracing())
	assert.False(t, c.HasCurrentTab())
	assert.Empty(t, c.Tabs())
}

func TestCloseTab_ReselectsNeighbour(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	ctx := context.Background()

	first, err := c.EnsureTab(ctx)
	require.NoError(t, err)
	second, err := c.NewTab(ctx)
	require.NoError(t, err)
	third, err := c.NewTab(ctx)
	require.NoError(t, err)
	assert.Same(t, third, c.CurrentTab())

	idx := 2
	_, err = c.CloseTab(ctx, &idx)
	require.NoError(t, err)
	assert.Same(t, second, c.CurrentTab())

	_, err = c.SelectTab(ctx, 0)
	require.NoError(t, err)
	_, err = c.CloseTab(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, second, c.CurrentTab())
	assert.Equal(t, []*Tab{second}, c.Tabs())
	assert.True(t, first.Page().(*platformtest.Page).Closed())
}

func TestCloseTab_UnknownIndex(t *testing.T) {
	c := newTestContext(&platformtest.Factory{})
	_, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	idx := 4
	_, err = c.CloseTab(context.Background(), &idx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectTab_NotFound(t *testing.T) {
	c := newTestContext(&platformtest.Factory{})
	_, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	_, err = c.SelectTab(context.Background(), 7)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "tab 7 not found", err.Error())
}

func TestSelectTab_BringsToFront(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	ctx := context.Background()
	first, err := c.EnsureTab(ctx)
	require.NoError(t, err)
	_, err = c.NewTab(ctx)
	require.NoError(t, err)

	got, err := c.SelectTab(ctx, 0)
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, 1, first.Page().(*platformtest.Page).Fronts())
}

func TestCurrentTabOrDie_NoTab(t *testing.T) {
	c := newTestContext(&platformtest.Factory{})
	_, err := c.CurrentTabOrDie()
	require.ErrorIs(t, err, ErrNoActiveTab)
	assert.Contains(t, err.Error(), `Use the "browser_navigate" tool`)
}

func TestPopupBecomesTab(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	first, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	f.LastSession().OpenPopup()
	require.Eventually(t, func() bool { return len(c.Tabs()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Same(t, first, c.CurrentTab(), "popups do not steal selection")
}

func TestPageClosedByBrowser_LastTabTearsDown(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	tab, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	require.NoError(t, tab.Page().Close(context.Background()))
	require.Eventually(t, func() bool { return f.LastSession().Closed() }, time.Second, 5*time.Millisecond)
	assert.False(t, c.HasCurrentTab())

	// A later command starts a fresh session once the teardown finished.
	require.Eventually(t, func() bool {
		_, err := c.EnsureTab(context.Background())
		return err == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.Creates())
}

func TestEnsureTab_FailsWhileClosing(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	_, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	s := f.LastSession()
	s.CloseGate = make(chan struct{})
	closed := make(chan error, 1)
	go func() { closed <- c.CloseSession(context.Background()) }()
	require.Eventually(t, func() bool { return s.Closes() == 1 }, time.Second, 5*time.Millisecond)

	_, err = c.EnsureTab(context.Background())
	assert.ErrorIs(t, err, ErrSessionLifecycleConflict)

	// A concurrent close joins the one in flight.
	second := make(chan error, 1)
	go func() { second <- c.CloseSession(context.Background()) }()

	close(s.CloseGate)
	require.NoError(t, <-closed)
	require.NoError(t, <-second)
	assert.Equal(t, 1, s.Closes())
}

func TestCloseSession_WaitsForCreation(t *testing.T) {
	f := &platformtest.Factory{Gate: make(chan struct{})}
	c := newTestContext(f)

	created := make(chan error, 1)
	go func() {
		_, err := c.EnsureTab(context.Background())
		created <- err
	}()
	require.Eventually(t, func() bool { return f.Creates() == 1 }, time.Second, 5*time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- c.CloseSession(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(f.Gate)

	require.NoError(t, <-closed)
	<-created
	require.NotNil(t, f.LastSession())
	assert.True(t, f.LastSession().Closed())
	assert.False(t, c.HasCurrentTab())
}

func TestCloseSession_NoSessionIsNoop(t *testing.T) {
	c := newTestContext(&platformtest.Factory{})
	assert.NoError(t, c.CloseSession(context.Background()))
}

func TestRecorderEventsFlowToRecorder(t *testing.T) {
	f := &platformtest.Factory{}
	rec := &recordedInput{}
	c := newTestContext(f, func(o *Options) { o.Recorder = rec })

	_, err := c.EnsureTab(context.Background())
	require.NoError(t, err)
	f.LastSession().EmitRecorder(platform.RecorderEvent{Kind: platform.ActionAdded, Code: "await page.click('#go');"})
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	c.SetInputRecorderEnabled(false)
	require.NoError(t, c.Dispose(context.Background()))
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []bool{true, false}, rec.enabled)
	assert.Equal(t, 1, rec.flushes)
}

func TestListTabsMarkdown(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	ctx := context.Background()

	assert.Equal(t, []string{
		"### Open tabs",
		`No open tabs. Use the "browser_navigate" tool to navigate to a page first.`,
		"",
	}, c.ListTabsMarkdown(ctx, true))

	first, err := c.EnsureTab(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.ListTabsMarkdown(ctx, false), "single tab is not listed unless forced")

	first.Page().(*platformtest.Page).SetTitle("Home")
	require.NoError(t, first.Navigate(ctx, "https://example.com/"))
	_, err = c.NewTab(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"### Open tabs",
		"- 0: [Home] (https://example.com/)",
		"- 1: (current) [] (about:blank)",
		"",
	}, c.ListTabsMarkdown(ctx, false))
}

func TestCaptureSnapshot(t *testing.T) {
	f := &platformtest.Factory{}
	c := newTestContext(f)
	ctx := context.Background()

	text, err := c.CaptureSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)

	tab, err := c.EnsureTab(ctx)
	require.NoError(t, err)
	page := tab.Page().(*platformtest.Page)
	page.SetTitle("Form")
	page.SetSnapshot(`- button "Save" [ref=e1]`)
	page.Emit(platform.ConsoleMessage{Type: "error", Text: "boom"})
	require.Eventually(t, func() bool { return len(tab.ConsoleMessages()) == 1 }, time.Second, 5*time.Millisecond)

	text, err = c.CaptureSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"### New console messages",
		"- [ERROR] boom",
		"",
		"### Page state",
		"- Page URL: about:blank",
		"- Page Title: Form",
		"- Page Snapshot:",
		"```yaml",
		`- button "Save" [ref=e1]`,
		"```",
	}, "\n"), text)

	text, err = c.CaptureSnapshot(ctx)
	require.NoError(t, err)
	assert.NotContains(t, text, "New console messages", "console lines are reported once")
}

func TestRegistry_DisposeAll(t *testing.T) {
	r := NewRegistry()
	var factories []*platformtest.Factory
	for range 3 {
		f := &platformtest.Factory{}
		c := newTestContext(f)
		_, err := c.EnsureTab(context.Background())
		require.NoError(t, err)
		r.Add(c)
		factories = append(factories, f)
	}
	idle := newTestContext(&platformtest.Factory{})
	r.Add(idle)
	r.Remove(idle)
	assert.Equal(t, 3, r.Len())

	require.NoError(t, r.DisposeAll(context.Background()))
	assert.Equal(t, 0, r.Len())
	for _, f := range factories {
		assert.True(t, f.LastSession().Closed())
	}
}
