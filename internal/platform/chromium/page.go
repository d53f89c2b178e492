package chromium

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/model"
	"github.com/ingpoc/ui-test-generation-mcp/internal/output"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ysmood/gson"
)

// waitForTextJS resolves truthy once the body text matches the wanted state.
const waitForTextJS = `(text, gone) => {
	const body = document.body ? document.body.innerText : '';
	return body.includes(text) !== gone;
}`

// Page wraps one rod page and turns its CDP events into platform events.
type Page struct {
	s  *Session
	rp *rod.Page

	cancel context.CancelFunc
	events *platform.Hub[platform.Event]

	mu       sync.Mutex
	url      string
	statuses map[proto.NetworkRequestID]*proto.NetworkResponse
	closed   bool
}

func newPage(s *Session, rp *rod.Page) *Page {
	ctx, cancel := context.WithCancel(s.ctx)
	p := &Page{
		s:        s,
		rp:       rp.Context(ctx),
		cancel:   cancel,
		events:   platform.NewHub[platform.Event]("chromium-page"),
		statuses: make(map[proto.NetworkRequestID]*proto.NetworkResponse),
	}
	return p
}

// listen relays CDP events until the page closes.
func (p *Page) listen() {
	if info, err := p.rp.Info(); err == nil {
		p.mu.Lock()
		p.url = info.URL
		p.mu.Unlock()
	}
	wait := p.rp.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			ev := platform.RequestStarted{
				ID:     string(e.RequestID),
				Method: e.Request.Method,
				URL:    e.Request.URL,
			}
			if res := e.RedirectResponse; res != nil {
				ev.Redirect = &platform.RequestFinished{ID: ev.ID, Status: res.Status, StatusText: res.StatusText}
			}
			p.events.Publish(ev)
		},
		func(e *proto.NetworkResponseReceived) {
			p.mu.Lock()
			p.statuses[e.RequestID] = e.Response
			p.mu.Unlock()
		},
		func(e *proto.NetworkLoadingFinished) {
			ev := platform.RequestFinished{ID: string(e.RequestID)}
			if res := p.takeStatus(e.RequestID); res != nil {
				ev.Status = res.Status
				ev.StatusText = res.StatusText
			}
			p.events.Publish(ev)
		},
		func(e *proto.NetworkLoadingFailed) {
			p.takeStatus(e.RequestID)
			p.events.Publish(platform.RequestFinished{ID: string(e.RequestID), StatusText: e.ErrorText, Failed: true})
		},
		func(e *proto.PageFrameNavigated) {
			main := e.Frame.ParentID == ""
			if main {
				p.mu.Lock()
				p.url = e.Frame.URL
				p.mu.Unlock()
				if p.s.isRecording() {
					p.s.publishRecorded(navigationSignal(p.ID(), e.Frame.URL))
				}
			}
			p.events.Publish(platform.FrameNavigated{URL: e.Frame.URL, MainFrame: main})
		},
		func(e *proto.PageJavascriptDialogOpening) {
			L_debug("chromium: dialog opened", "type", e.Type, "message", e.Message)
			p.events.Publish(platform.DialogOpened{Dialog: &dialog{page: p, kind: string(e.Type), message: e.Message}})
		},
		func(e *proto.PageFileChooserOpened) {
			p.events.Publish(platform.FileChooserOpened{Chooser: &fileChooser{
				page:     p,
				node:     e.BackendNodeID,
				multiple: e.Mode == proto.PageFileChooserOpenedModeSelectMultiple,
			}})
		},
		func(e *proto.RuntimeConsoleAPICalled) {
			p.events.Publish(platform.ConsoleMessage{Type: string(e.Type), Text: consoleText(e.Args)})
		},
		func(e *proto.RuntimeBindingCalled) {
			if e.Name != recorderBinding {
				return
			}
			ev, ok := parseRecorderPayload(e.Payload)
			if !ok {
				L_debug("chromium: malformed recorder payload", "payload", e.Payload)
				return
			}
			ev.PageID = p.ID()
			p.s.publishRecorded(ev)
		},
		func(e *proto.InspectorDetached) {
			p.markClosed()
		},
	)
	if err := (proto.PageSetInterceptFileChooserDialog{Enabled: true}).Call(p.rp); err != nil {
		L_debug("chromium: file chooser interception unavailable", "page", p.ID(), "error", err)
	}
	go wait()
}

func (p *Page) takeStatus(id proto.NetworkRequestID) *proto.NetworkResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.statuses[id]
	delete(p.statuses, id)
	return res
}

// markClosed publishes PageClosed once and stops the event relay.
func (p *Page) markClosed() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.events.Publish(platform.PageClosed{})
	p.cancel()
	p.events.Close()
}

// ID implements platform.Page.
func (p *Page) ID() string { return string(p.rp.TargetID) }

// URL implements platform.Page.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Title implements platform.Page.
func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.rp.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.Title, nil
}

// Navigate implements platform.Page.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.rp.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// GoBack implements platform.Page.
func (p *Page) GoBack(ctx context.Context) error {
	return p.rp.Context(ctx).NavigateBack()
}

// GoForward implements platform.Page.
func (p *Page) GoForward(ctx context.Context) error {
	return p.rp.Context(ctx).NavigateForward()
}

// WaitLoad implements platform.Page.
func (p *Page) WaitLoad(ctx context.Context) error {
	return p.rp.Context(ctx).WaitLoad()
}

// BringToFront implements platform.Page.
func (p *Page) BringToFront(ctx context.Context) error {
	_, err := p.rp.Context(ctx).Activate()
	return err
}

// Close implements platform.Page.
func (p *Page) Close(ctx context.Context) error {
	err := p.rp.Context(ctx).Close()
	p.markClosed()
	return err
}

// Screenshot implements platform.Page.
func (p *Page) Screenshot(ctx context.Context, opts platform.ScreenshotOptions) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if opts.Format == platform.ImageJPEG {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		if opts.Quality > 0 {
			req.Quality = gson.Int(opts.Quality)
		}
	}
	data, err := p.rp.Context(ctx).Screenshot(opts.FullPage, req)
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return data, nil
}

// PDF implements platform.Page.
func (p *Page) PDF(ctx context.Context) ([]byte, error) {
	r, err := p.rp.Context(ctx).PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

// Evaluate implements platform.Page.
func (p *Page) Evaluate(ctx context.Context, function string) (string, error) {
	res, err := p.rp.Context(ctx).Evaluate(rod.Eval(function).ByPromise())
	if err != nil {
		return "", err
	}
	return renderResult(res), nil
}

// PressKey implements platform.Page. Combinations such as "Control+a" hold
// the modifiers while the final key is typed.
func (p *Page) PressKey(ctx context.Context, key string) error {
	mods, k, err := parseKey(key)
	if err != nil {
		return err
	}
	kb := p.rp.Context(ctx).Keyboard
	for _, m := range mods {
		if err := kb.Press(m); err != nil {
			return fmt.Errorf("press %s: %w", key, err)
		}
	}
	typeErr := kb.Type(k)
	for i := len(mods) - 1; i >= 0; i-- {
		if err := kb.Release(mods[i]); err != nil && typeErr == nil {
			typeErr = err
		}
	}
	if typeErr != nil {
		return fmt.Errorf("press %s: %w", key, typeErr)
	}
	return nil
}

// WaitForText implements platform.Page.
func (p *Page) WaitForText(ctx context.Context, text string, gone bool) error {
	return p.rp.Context(ctx).Wait(rod.Eval(waitForTextJS, text, gone))
}

// AriaSnapshot implements platform.Page.
func (p *Page) AriaSnapshot(ctx context.Context) (string, error) {
	tree, err := proto.AccessibilityGetFullAXTree{}.Call(p.rp.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("accessibility tree: %w", err)
	}
	nodes := model.PruneEmptyGroups(model.BuildTree(rawNodes(tree.Nodes)))
	model.GenerateRefs(nodes)
	L_debug("chromium: snapshot", "page", p.ID(), "axNodes", len(tree.Nodes), "nodes", model.CountNodes(nodes))
	return output.AriaSnapshot(nodes)
}

// Subscribe implements platform.Page.
func (p *Page) Subscribe(buffer int) *platform.Subscription[platform.Event] {
	return p.events.Subscribe(buffer)
}

func (p *Page) installRecorder() error {
	if err := (proto.RuntimeAddBinding{Name: recorderBinding}).Call(p.rp); err != nil {
		return fmt.Errorf("add binding: %w", err)
	}
	if _, err := p.rp.EvalOnNewDocument("(" + recorderJS + ")()"); err != nil {
		return fmt.Errorf("register recorder script: %w", err)
	}
	if _, err := p.rp.Eval(recorderJS); err != nil {
		return fmt.Errorf("run recorder script: %w", err)
	}
	return nil
}

// renderResult formats an evaluation result as indented JSON.
func renderResult(res *proto.RuntimeRemoteObject) string {
	if res == nil || res.Type == proto.RuntimeRemoteObjectTypeUndefined {
		return "undefined"
	}
	return res.Value.JSON("", "  ")
}

type dialog struct {
	page    *Page
	kind    string
	message string
}

func (d *dialog) Type() string    { return d.kind }
func (d *dialog) Message() string { return d.message }

func (d *dialog) Accept(ctx context.Context, promptText string) error {
	return proto.PageHandleJavaScriptDialog{Accept: true, PromptText: promptText}.Call(d.page.rp.Context(ctx))
}

func (d *dialog) Dismiss(ctx context.Context) error {
	return proto.PageHandleJavaScriptDialog{Accept: false}.Call(d.page.rp.Context(ctx))
}

type fileChooser struct {
	page     *Page
	node     proto.DOMBackendNodeID
	multiple bool
}

func (c *fileChooser) Multiple() bool { return c.multiple }

func (c *fileChooser) SetFiles(ctx context.Context, paths []string) error {
	if !c.multiple && len(paths) > 1 {
		return fmt.Errorf("file chooser accepts a single file, got %d", len(paths))
	}
	return proto.DOMSetFileInputFiles{Files: paths, BackendNodeID: c.node}.Call(c.page.rp.Context(ctx))
}
