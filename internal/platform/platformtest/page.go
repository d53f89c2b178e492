package platformtest

import (
	"context"
	"errors"
	"sync"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// Page is a fake platform.Page. Exported hook fields must be set before the
// page is handed to the code under test.
type Page struct {
	id      string
	session *Session
	hub     *platform.Hub[platform.Event]

	mu          sync.Mutex
	url         string
	title       string
	closed      bool
	history     []string
	historyIdx  int
	navigations []string
	keys        []string
	snapshot    string
	snapshots   int
	fronts      int

	// OnNavigate replaces the default navigation, which commits the URL
	// and publishes a main-frame FrameNavigated.
	OnNavigate func(ctx context.Context, url string) error
	// LoadGate, when non-nil, holds WaitLoad until it is closed.
	LoadGate chan struct{}
	// OnEvaluate answers Evaluate; the default returns "undefined".
	OnEvaluate func(function string) (string, error)
	// OnWaitForText answers WaitForText; the default succeeds at once.
	OnWaitForText func(ctx context.Context, text string, gone bool) error
	// ScreenshotData is returned by Screenshot and PDF.
	ScreenshotData []byte
	// SnapshotErr fails AriaSnapshot.
	SnapshotErr error
}

// NewPage returns a detached page at about:blank.
func NewPage(id string) *Page {
	return &Page{
		id:       id,
		url:      "about:blank",
		hub:      platform.NewHub[platform.Event]("fake-page"),
		history:  []string{"about:blank"},
		snapshot: "- document",
	}
}

var errClosed = errors.New("page closed")

func (p *Page) ID() string { return p.id }

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

// SetTitle changes the document title.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// SetSnapshot changes what AriaSnapshot returns.
func (p *Page) SetSnapshot(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = s
}

// Commit changes the URL and publishes a main-frame navigation, as if the
// page navigated on its own.
func (p *Page) Commit(url string) {
	p.mu.Lock()
	p.url = url
	p.history = append(p.history[:p.historyIdx+1], url)
	p.historyIdx = len(p.history) - 1
	p.mu.Unlock()
	p.hub.Publish(platform.FrameNavigated{URL: url, MainFrame: true})
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if p.isClosed() {
		return errClosed
	}
	p.mu.Lock()
	p.navigations = append(p.navigations, url)
	hook := p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		return hook(ctx, url)
	}
	p.Commit(url)
	return nil
}

// Navigations returns every URL passed to Navigate.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

func (p *Page) move(delta int) error {
	p.mu.Lock()
	idx := p.historyIdx + delta
	if idx < 0 || idx >= len(p.history) {
		p.mu.Unlock()
		return nil
	}
	p.historyIdx = idx
	p.url = p.history[idx]
	url := p.url
	p.mu.Unlock()
	p.hub.Publish(platform.FrameNavigated{URL: url, MainFrame: true})
	return nil
}

func (p *Page) GoBack(context.Context) error    { return p.move(-1) }
func (p *Page) GoForward(context.Context) error { return p.move(1) }

func (p *Page) WaitLoad(ctx context.Context) error {
	if p.LoadGate == nil {
		return nil
	}
	select {
	case <-p.LoadGate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Page) BringToFront(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fronts++
	return nil
}

// Fronts returns how often BringToFront was called.
func (p *Page) Fronts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fronts
}

func (p *Page) Close(context.Context) error {
	if p.session != nil {
		p.session.removePage(p)
	}
	p.markClosed()
	return nil
}

func (p *Page) markClosed() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.hub.Publish(platform.PageClosed{})
	p.hub.Close()
}

func (p *Page) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Closed reports whether the page went away.
func (p *Page) Closed() bool { return p.isClosed() }

func (p *Page) Screenshot(context.Context, platform.ScreenshotOptions) ([]byte, error) {
	if p.isClosed() {
		return nil, errClosed
	}
	return p.ScreenshotData, nil
}

func (p *Page) PDF(context.Context) ([]byte, error) {
	if p.isClosed() {
		return nil, errClosed
	}
	return p.ScreenshotData, nil
}

func (p *Page) Evaluate(_ context.Context, function string) (string, error) {
	if p.OnEvaluate != nil {
		return p.OnEvaluate(function)
	}
	return "undefined", nil
}

func (p *Page) PressKey(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

// Keys returns every key pressed.
func (p *Page) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func (p *Page) WaitForText(ctx context.Context, text string, gone bool) error {
	if p.OnWaitForText != nil {
		return p.OnWaitForText(ctx, text, gone)
	}
	return nil
}

func (p *Page) AriaSnapshot(context.Context) (string, error) {
	if p.SnapshotErr != nil {
		return "", p.SnapshotErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots++
	return p.snapshot, nil
}

// Snapshots returns how often AriaSnapshot was computed.
func (p *Page) Snapshots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots
}

func (p *Page) Subscribe(buffer int) *platform.Subscription[platform.Event] {
	return p.hub.Subscribe(buffer)
}

// Subscribers returns the number of live page subscriptions.
func (p *Page) Subscribers() int { return p.hub.Len() }

// Emit publishes a page event.
func (p *Page) Emit(e platform.Event) { p.hub.Publish(e) }

// Dialog is a fake platform.Dialog.
type Dialog struct {
	Kind string
	Text string

	mu       sync.Mutex
	accepted bool
	dismiss  bool
	prompt   string
}

func (d *Dialog) Type() string    { return d.Kind }
func (d *Dialog) Message() string { return d.Text }

func (d *Dialog) Accept(_ context.Context, promptText string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accepted = true
	d.prompt = promptText
	return nil
}

func (d *Dialog) Dismiss(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dismiss = true
	return nil
}

// Result returns whether the dialog was accepted or dismissed and the prompt text.
func (d *Dialog) Result() (accepted, dismissed bool, prompt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted, d.dismiss, d.prompt
}

// FileChooser is a fake platform.FileChooser.
type FileChooser struct {
	Many bool

	mu    sync.Mutex
	files []string
	sets  int
}

func (c *FileChooser) Multiple() bool { return c.Many }

func (c *FileChooser) SetFiles(_ context.Context, paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append([]string(nil), paths...)
	c.sets++
	return nil
}

// Files returns the files set and how many times SetFiles was called.
func (c *FileChooser) Files() ([]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files, c.sets
}
