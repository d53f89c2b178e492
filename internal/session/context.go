// Package session owns the browser session behind an MCP connection: its
// lazy creation and teardown, the open tabs and the current-tab pointer.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/completion"
	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// ActionRecorder receives user input recorded in the session's pages.
type ActionRecorder interface {
	Record(e platform.RecorderEvent)
	SetEnabled(enabled bool)
	Flush()
}

// Options configures a Context.
type Options struct {
	Rules       platform.RequestRules
	SaveTrace   bool
	TraceDir    string
	LoadTimeout time.Duration
	Detector    *completion.Detector
	// Recorder, when set, is fed the user input recorded in every session.
	Recorder ActionRecorder
}

// future is a lifecycle transition other callers can wait on.
type future struct {
	done chan struct{}
	err  error
}

func newFuture() *future { return &future{done: make(chan struct{})} }

func (f *future) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Context is the per-connection session state. The underlying session is
// absent, being created, or ready; creation and teardown are each a single
// shared future, so concurrent callers converge on one of each.
type Context struct {
	factory  platform.SessionFactory
	opts     Options
	detector *completion.Detector

	openMu sync.Mutex // serializes opening the initial page

	mu            sync.Mutex
	client        platform.ClientInfo
	modalHandlers map[ModalKind]string
	generation    uint64
	session       platform.Session
	creating      *future
	closing       *future
	sessionSub    *platform.Subscription[platform.SessionEvent]
	recorderSub   *platform.Subscription[platform.RecorderEvent]
	tabs          []*Tab
	current       *Tab
}

// NewContext returns a Context with no session.
func NewContext(factory platform.SessionFactory, opts Options) *Context {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = completion.DefaultOptions().LoadTimeout
	}
	det := opts.Detector
	if det == nil {
		det = completion.New(completion.DefaultOptions())
	}
	return &Context{
		factory:       factory,
		opts:          opts,
		detector:      det,
		modalHandlers: make(map[ModalKind]string),
	}
}

// SetClientInfo records the MCP client; it is passed to the next session.
func (c *Context) SetClientInfo(info platform.ClientInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = info
}

// SetModalHandlers names the tool that resolves each modal kind.
func (c *Context) SetModalHandlers(handlers map[ModalKind]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range handlers {
		c.modalHandlers[k] = v
	}
}

func (c *Context) modalHandler(kind ModalKind) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modalHandlers[kind]
}

// Tabs returns the open tabs in order.
func (c *Context) Tabs() []*Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Tab(nil), c.tabs...)
}

// CurrentTab returns the selected tab or nil.
func (c *Context) CurrentTab() *Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// HasCurrentTab reports whether a tab is selected.
func (c *Context) HasCurrentTab() bool {
	return c.CurrentTab() != nil
}

// CurrentTabOrDie returns the selected tab or ErrNoActiveTab.
func (c *Context) CurrentTabOrDie() (*Tab, error) {
	if t := c.CurrentTab(); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf(`%w. Use the "browser_navigate" tool to navigate to a page first`, ErrNoActiveTab)
}

// EnsureTab makes sure a session with at least one tab exists and returns
// the current tab.
func (c *Context) EnsureTab(ctx context.Context) (*Tab, error) {
	s, gen, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}
	c.openMu.Lock()
	defer c.openMu.Unlock()
	if t := c.CurrentTab(); t != nil {
		return t, nil
	}
	page, err := s.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if c.adoptPage(gen, page) == nil {
		return nil, ErrSessionLifecycleConflict
	}
	return c.CurrentTabOrDie()
}

// NewTab opens another page and selects it.
func (c *Context) NewTab(ctx context.Context) (*Tab, error) {
	s, gen, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	t := c.adoptPage(gen, page)
	if t == nil {
		return nil, ErrSessionLifecycleConflict
	}
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
	return t, nil
}

// SelectTab brings the tab at index to the front and selects it.
func (c *Context) SelectTab(ctx context.Context, index int) (*Tab, error) {
	c.mu.Lock()
	if index < 0 || index >= len(c.tabs) {
		c.mu.Unlock()
		return nil, fmt.Errorf("tab %d %w", index, ErrNotFound)
	}
	t := c.tabs[index]
	c.mu.Unlock()

	if err := t.page.BringToFront(ctx); err != nil {
		return nil, fmt.Errorf("bring tab %d to front: %w", index, err)
	}
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
	return t, nil
}

// CloseTab closes the tab at index, or the current tab when index is nil,
// and returns its URL. Closing the last tab tears the session down.
func (c *Context) CloseTab(ctx context.Context, index *int) (string, error) {
	c.mu.Lock()
	var t *Tab
	if index == nil {
		t = c.current
	} else if *index >= 0 && *index < len(c.tabs) {
		t = c.tabs[*index]
	}
	c.mu.Unlock()
	if t == nil {
		if index == nil {
			return "", fmt.Errorf("current tab %w", ErrNotFound)
		}
		return "", fmt.Errorf("tab %d %w", *index, ErrNotFound)
	}

	url := t.page.URL()
	last := c.removeTab(t)
	if err := t.page.Close(ctx); err != nil {
		L_warn("close page failed", "tab", t.ID, "error", err)
	}
	if last {
		return url, c.CloseSession(ctx)
	}
	return url, nil
}

// ListTabsMarkdown renders the tab listing. With exactly one tab and force
// unset it returns nothing.
func (c *Context) ListTabsMarkdown(ctx context.Context, force bool) []string {
	tabs := c.Tabs()
	current := c.CurrentTab()
	if len(tabs) == 1 && !force {
		return nil
	}
	if len(tabs) == 0 {
		return []string{
			"### Open tabs",
			`No open tabs. Use the "browser_navigate" tool to navigate to a page first.`,
			"",
		}
	}
	lines := []string{"### Open tabs"}
	for i, t := range tabs {
		marker := ""
		if t == current {
			marker = " (current)"
		}
		lines = append(lines, fmt.Sprintf("- %d:%s [%s] (%s)", i, marker, t.Title(ctx), t.page.URL()))
	}
	return append(lines, "")
}

// CaptureSnapshot renders the current tab's page state.
func (c *Context) CaptureSnapshot(ctx context.Context) (string, error) {
	t := c.CurrentTab()
	if t == nil {
		return "", nil
	}
	return t.CaptureSnapshot(ctx)
}

// SetInputRecorderEnabled toggles background input recording. Disabling
// flushes what was recorded so far.
func (c *Context) SetInputRecorderEnabled(enabled bool) {
	if c.opts.Recorder != nil {
		c.opts.Recorder.SetEnabled(enabled)
	}
}

// ensureSession returns the ready session, joining an in-flight creation or
// starting one. Creation fails while a teardown is in flight.
func (c *Context) ensureSession(ctx context.Context) (platform.Session, uint64, error) {
	c.mu.Lock()
	if c.closing != nil {
		c.mu.Unlock()
		return nil, 0, ErrSessionLifecycleConflict
	}
	if c.session != nil {
		s, gen := c.session, c.generation
		c.mu.Unlock()
		return s, gen, nil
	}
	if f := c.creating; f != nil {
		c.mu.Unlock()
		if err := f.wait(ctx); err != nil {
			return nil, 0, err
		}
		c.mu.Lock()
		s, gen := c.session, c.generation
		c.mu.Unlock()
		if s == nil {
			return nil, 0, ErrSessionLifecycleConflict
		}
		return s, gen, nil
	}

	f := newFuture()
	c.creating = f
	c.generation++
	gen := c.generation
	client := c.client
	c.mu.Unlock()

	// Other callers share this creation, so it must not die with this caller.
	s, err := c.setupSession(context.WithoutCancel(ctx), gen, client)

	c.mu.Lock()
	c.creating = nil
	if err == nil {
		c.session = s
	}
	c.mu.Unlock()
	f.err = err
	close(f.done)

	if err != nil {
		return nil, 0, err
	}
	return s, gen, nil
}

func (c *Context) setupSession(ctx context.Context, gen uint64, client platform.ClientInfo) (platform.Session, error) {
	start := time.Now()
	s, err := c.factory.CreateSession(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	fail := func(err error) (platform.Session, error) {
		if cerr := s.Close(ctx); cerr != nil {
			L_warn("close half-created session failed", "error", cerr)
		}
		return nil, err
	}

	if !c.opts.Rules.Empty() {
		if err := s.SetRequestRules(ctx, c.opts.Rules); err != nil {
			return fail(fmt.Errorf("install request rules: %w", err))
		}
	}

	var recSub *platform.Subscription[platform.RecorderEvent]
	if c.opts.Recorder != nil {
		recSub, err = s.Record(ctx)
		if err != nil {
			L_warn("input recorder unavailable", "error", err)
			recSub = nil
		} else {
			c.opts.Recorder.SetEnabled(true)
			go c.pumpRecorder(recSub)
		}
	}

	sub := s.Subscribe(0)
	go c.pumpSession(gen, sub)

	pages, err := s.Pages(ctx)
	if err != nil {
		sub.Close()
		if recSub != nil {
			recSub.Close()
		}
		return fail(fmt.Errorf("list pages: %w", err))
	}
	for _, p := range pages {
		c.adoptPage(gen, p)
	}

	if c.opts.SaveTrace {
		if err := s.StartTracing(ctx, platform.TraceOptions{Dir: c.opts.TraceDir}); err != nil {
			L_warn("start tracing failed", "error", err)
		}
	}

	c.mu.Lock()
	c.sessionSub = sub
	c.recorderSub = recSub
	c.mu.Unlock()

	L_elapsed(start, "browser session ready", "pages", len(pages))
	return s, nil
}

func (c *Context) pumpSession(gen uint64, sub *platform.Subscription[platform.SessionEvent]) {
	for e := range sub.Events() {
		if e.PageCreated != nil {
			c.adoptPage(gen, e.PageCreated)
		}
	}
}

func (c *Context) pumpRecorder(sub *platform.Subscription[platform.RecorderEvent]) {
	for e := range sub.Events() {
		c.opts.Recorder.Record(e)
	}
}

// adoptPage tracks page as a tab unless it already is one or belongs to a
// session generation that is gone. The first tab becomes current.
func (c *Context) adoptPage(gen uint64, page platform.Page) *Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.closing != nil {
		return nil
	}
	for _, t := range c.tabs {
		if t.page.ID() == page.ID() {
			return t
		}
	}
	t := newTab(c, page)
	c.tabs = append(c.tabs, t)
	if c.current == nil {
		c.current = t
	}
	L_debug("tab opened", "tab", t.ID, "index", len(c.tabs)-1)
	return t
}

// removeTab drops t and reselects the nearest tab by index. It reports
// whether t was the last tab; only the call that removed t sees true.
func (c *Context) removeTab(t *Tab) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := -1
	for i, x := range c.tabs {
		if x == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	c.tabs = append(c.tabs[:idx], c.tabs[idx+1:]...)
	if c.current == t {
		c.current = nil
		if n := len(c.tabs); n > 0 {
			c.current = c.tabs[min(idx, n-1)]
		}
	}
	return len(c.tabs) == 0
}

// pageClosed handles a page that went away on its own.
func (c *Context) pageClosed(t *Tab) {
	if !c.removeTab(t) {
		return
	}
	go func() {
		if err := c.CloseSession(context.Background()); err != nil {
			L_warn("close session after last tab failed", "error", err)
		}
	}()
}

// CloseSession tears the session down. Concurrent calls share one teardown;
// with no session it is a no-op.
func (c *Context) CloseSession(ctx context.Context) error {
	c.mu.Lock()
	if f := c.closing; f != nil {
		c.mu.Unlock()
		return f.wait(ctx)
	}
	if c.session == nil && c.creating == nil {
		c.mu.Unlock()
		return nil
	}
	f := newFuture()
	c.closing = f
	creating := c.creating
	c.mu.Unlock()

	tctx := context.WithoutCancel(ctx)
	if creating != nil {
		_ = creating.wait(tctx)
	}

	c.mu.Lock()
	s := c.session
	sub, recSub := c.sessionSub, c.recorderSub
	c.session, c.sessionSub, c.recorderSub = nil, nil, nil
	c.tabs, c.current = nil, nil
	c.generation++
	c.mu.Unlock()

	err := c.teardown(tctx, s, sub, recSub)

	c.mu.Lock()
	c.closing = nil
	c.mu.Unlock()
	f.err = err
	close(f.done)
	return err
}

func (c *Context) teardown(ctx context.Context, s platform.Session, sub *platform.Subscription[platform.SessionEvent], recSub *platform.Subscription[platform.RecorderEvent]) error {
	if s == nil {
		return nil
	}
	if c.opts.Recorder != nil {
		c.opts.Recorder.Flush()
	}
	if sub != nil {
		sub.Close()
	}
	if recSub != nil {
		recSub.Close()
	}
	if c.opts.SaveTrace {
		if err := s.StopTracing(ctx); err != nil {
			L_warn("stop tracing failed", "error", err)
		}
	}
	if err := s.Close(ctx); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	L_info("browser session closed")
	return nil
}

// Dispose tears the session down for good.
func (c *Context) Dispose(ctx context.Context) error {
	return c.CloseSession(ctx)
}
