package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ingpoc/ui-test-generation-mcp/internal/completion"
	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// Request is one network request seen by a tab.
type Request struct {
	ID         string
	Method     string
	URL        string
	Status     int
	StatusText string
	Failed     bool
	Done       bool
}

func (r Request) String() string {
	s := fmt.Sprintf("[%s] %s", strings.ToUpper(r.Method), r.URL)
	switch {
	case r.Failed:
		s += " => [FAILED]"
	case r.Done:
		s += fmt.Sprintf(" => [%d] %s", r.Status, r.StatusText)
	}
	return s
}

// ConsoleLine renders a console message the way console tools report it.
func ConsoleLine(m platform.ConsoleMessage) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(m.Type), m.Text)
}

// Tab wraps one page of the session. It tracks the page's modal states and
// its console and network history, and relays page events to completion
// waits after applying them, so a wait never sees a dialog before the tab
// knows about it.
type Tab struct {
	ID string

	owner *Context
	page  platform.Page
	sub   *platform.Subscription[platform.Event]
	hub   *platform.Hub[platform.Event]
	done  chan struct{}

	mu          sync.Mutex
	modals      []ModalState
	console     []platform.ConsoleMessage
	consoleSeen int
	requests    []*Request
	byID        map[string]*Request
}

func newTab(owner *Context, page platform.Page) *Tab {
	t := &Tab{
		ID:    uuid.NewString(),
		owner: owner,
		page:  page,
		sub:   page.Subscribe(0),
		hub:   platform.NewHub[platform.Event]("tab"),
		done:  make(chan struct{}),
		byID:  make(map[string]*Request),
	}
	go t.run()
	return t
}

// Page returns the underlying page.
func (t *Tab) Page() platform.Page { return t.page }

// Done is closed once the page is gone and the tab stopped relaying events.
func (t *Tab) Done() <-chan struct{} { return t.done }

func (t *Tab) run() {
	defer close(t.done)
	defer t.hub.Close()
	defer t.sub.Close()

	for e := range t.sub.Events() {
		t.apply(e)
		t.hub.Publish(e)
		if _, closed := e.(platform.PageClosed); closed {
			break
		}
	}
	t.owner.pageClosed(t)
}

func (t *Tab) apply(e platform.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev := e.(type) {
	case platform.RequestStarted:
		if prev, ok := t.byID[ev.ID]; ok {
			prev.Done = true
			if ev.Redirect != nil {
				prev.Status = ev.Redirect.Status
				prev.StatusText = ev.Redirect.StatusText
			}
		}
		r := &Request{ID: ev.ID, Method: ev.Method, URL: ev.URL}
		t.requests = append(t.requests, r)
		t.byID[ev.ID] = r
	case platform.RequestFinished:
		if r, ok := t.byID[ev.ID]; ok {
			r.Done = true
			r.Status = ev.Status
			r.StatusText = ev.StatusText
			r.Failed = ev.Failed
			delete(t.byID, ev.ID)
		}
	case platform.FrameNavigated:
		if ev.MainFrame {
			t.clearCollectedLocked()
		}
	case platform.ConsoleMessage:
		t.console = append(t.console, ev)
	case platform.DialogOpened:
		t.modals = append(t.modals, dialogState(ev.Dialog))
		L_debug("dialog opened", "tab", t.ID, "type", ev.Dialog.Type())
	case platform.FileChooserOpened:
		t.modals = append(t.modals, fileChooserState(ev.Chooser))
		L_debug("file chooser opened", "tab", t.ID)
	}
}

func (t *Tab) clearCollectedLocked() {
	t.console = nil
	t.consoleSeen = 0
	t.requests = nil
	t.byID = make(map[string]*Request)
}

// Subscribe relays page events after the tab has applied them.
func (t *Tab) Subscribe(buffer int) *platform.Subscription[platform.Event] {
	return t.hub.Subscribe(buffer)
}

// WaitLoad waits for the page's load event.
func (t *Tab) WaitLoad(ctx context.Context) error {
	return t.page.WaitLoad(ctx)
}

// ConsoleMessages returns the console history since the last navigation.
func (t *Tab) ConsoleMessages() []platform.ConsoleMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]platform.ConsoleMessage(nil), t.console...)
}

// Requests returns the network history since the last navigation.
func (t *Tab) Requests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Request, len(t.requests))
	for i, r := range t.requests {
		out[i] = *r
	}
	return out
}

// WaitForCompletion runs fn and waits until its effects on the page settle.
func (t *Tab) WaitForCompletion(ctx context.Context, fn func(context.Context) error) (completion.Outcome, error) {
	return t.owner.detector.Wait(ctx, t, fn)
}

// Navigate loads url. A page that takes longer than the load timeout to fire
// its load event is still considered navigated.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	t.mu.Lock()
	t.clearCollectedLocked()
	t.mu.Unlock()

	if err := t.page.Navigate(ctx, url); err != nil {
		return err
	}
	lctx, cancel := context.WithTimeout(ctx, t.owner.opts.LoadTimeout)
	defer cancel()
	if err := t.page.WaitLoad(lctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// Title returns the document title, or "" if it cannot be read.
func (t *Tab) Title(ctx context.Context) string {
	title, err := t.page.Title(ctx)
	if err != nil {
		L_debug("read title failed", "tab", t.ID, "error", err)
		return ""
	}
	return title
}

// CaptureSnapshot renders the page state: pending modal states if any,
// otherwise new console messages, URL, title and the accessibility snapshot.
func (t *Tab) CaptureSnapshot(ctx context.Context) (string, error) {
	if len(t.ModalStates()) > 0 {
		return strings.Join(t.ModalStatesMarkdown(), "\n"), nil
	}

	var lines []string
	t.mu.Lock()
	fresh := t.console[t.consoleSeen:]
	t.consoleSeen = len(t.console)
	if len(fresh) > 0 {
		lines = append(lines, "### New console messages")
		for _, m := range fresh {
			lines = append(lines, "- "+ConsoleLine(m))
		}
		lines = append(lines, "")
	}
	t.mu.Unlock()

	snapshot, err := t.page.AriaSnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capture snapshot: %w", err)
	}
	lines = append(lines,
		"### Page state",
		"- Page URL: "+t.page.URL(),
		"- Page Title: "+t.Title(ctx),
		"- Page Snapshot:",
		"```yaml",
		snapshot,
		"```",
	)
	return strings.Join(lines, "\n"), nil
}
