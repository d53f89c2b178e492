package chromium

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// Session is one browser (launched) or one incognito context (attached).
type Session struct {
	browser *rod.Browser
	stealth bool

	// launcher is set when the session owns the browser process.
	launcher      *launcher.Launcher
	removeProfile bool

	ctx    context.Context
	cancel context.CancelFunc

	events   *platform.Hub[platform.SessionEvent]
	recorder *platform.Hub[platform.RecorderEvent]

	mu        sync.Mutex
	pages     map[proto.TargetTargetID]*Page
	recording bool
	router    *rod.HijackRouter
	traceDir  string
	closed    bool
}

func newSession(browser *rod.Browser, useStealth bool) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		browser:  browser,
		stealth:  useStealth,
		ctx:      ctx,
		cancel:   cancel,
		events:   platform.NewHub[platform.SessionEvent]("chromium-session"),
		recorder: platform.NewHub[platform.RecorderEvent]("chromium-recorder"),
		pages:    make(map[proto.TargetTargetID]*Page),
	}

	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(browser); err != nil {
		cancel()
		return nil, fmt.Errorf("discover targets: %w", err)
	}
	go browser.Context(ctx).EachEvent(
		func(e *proto.TargetTargetCreated) {
			if s.owns(e.TargetInfo) {
				go s.attachTarget(e.TargetInfo.TargetID)
			}
		},
		func(e *proto.TargetTargetDestroyed) {
			s.targetGone(e.TargetID)
		},
		func(e *proto.TargetTargetCrashed) {
			L_warn("chromium: target crashed", "targetID", e.TargetID)
			s.targetGone(e.TargetID)
		},
	)()
	return s, nil
}

// owns reports whether a target is a top-level page of this session's
// browser context.
func (s *Session) owns(info *proto.TargetTargetInfo) bool {
	if info == nil || info.Type != proto.TargetTargetInfoTypePage {
		return false
	}
	return s.browser.BrowserContextID == "" || info.BrowserContextID == s.browser.BrowserContextID
}

func (s *Session) attachTarget(id proto.TargetTargetID) {
	s.mu.Lock()
	_, known := s.pages[id]
	closed := s.closed
	s.mu.Unlock()
	if known || closed {
		return
	}
	rp, err := s.browser.PageFromTarget(id)
	if err != nil {
		L_debug("chromium: attach target failed", "targetID", id, "error", err)
		return
	}
	s.wrap(rp)
}

// wrap returns the Page for rp, creating and announcing it on first sight.
func (s *Session) wrap(rp *rod.Page) *Page {
	s.mu.Lock()
	if p, ok := s.pages[rp.TargetID]; ok {
		s.mu.Unlock()
		return p
	}
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	p := newPage(s, rp)
	s.pages[rp.TargetID] = p
	recording := s.recording
	s.mu.Unlock()

	p.listen()
	if recording {
		if err := p.installRecorder(); err != nil {
			L_warn("chromium: install recorder failed", "page", p.ID(), "error", err)
		}
	}
	s.events.Publish(platform.SessionEvent{PageCreated: p})
	return p
}

func (s *Session) targetGone(id proto.TargetTargetID) {
	s.mu.Lock()
	p, ok := s.pages[id]
	delete(s.pages, id)
	s.mu.Unlock()
	if ok {
		p.markClosed()
	}
}

// Pages implements platform.Session.
func (s *Session) Pages(ctx context.Context) ([]platform.Page, error) {
	res, err := proto.TargetGetTargets{}.Call(s.browser.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	var pages []platform.Page
	for _, info := range res.TargetInfos {
		if !s.owns(info) {
			continue
		}
		s.mu.Lock()
		p, ok := s.pages[info.TargetID]
		s.mu.Unlock()
		if !ok {
			rp, err := s.browser.PageFromTarget(info.TargetID)
			if err != nil {
				return nil, fmt.Errorf("attach page %s: %w", info.TargetID, err)
			}
			if p = s.wrap(rp); p == nil {
				continue
			}
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// NewPage implements platform.Session.
func (s *Session) NewPage(ctx context.Context) (platform.Page, error) {
	b := s.browser.Context(ctx)
	var (
		rp  *rod.Page
		err error
	)
	if s.stealth {
		rp, err = stealth.Page(b)
	} else {
		rp, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	p := s.wrap(rp)
	if p == nil {
		return nil, fmt.Errorf("open page: session closed")
	}
	return p, nil
}

// Subscribe implements platform.Session.
func (s *Session) Subscribe(buffer int) *platform.Subscription[platform.SessionEvent] {
	return s.events.Subscribe(buffer)
}

// SetRequestRules implements platform.Session. Requests to disallowed
// origins fail as if blocked by the client.
func (s *Session) SetRequestRules(ctx context.Context, rules platform.RequestRules) error {
	router := s.browser.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if rules.Allows(h.Request.URL().String()) {
			h.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}
		L_debug("chromium: request blocked", "url", h.Request.URL().String())
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})
	if err != nil {
		return fmt.Errorf("install request rules: %w", err)
	}
	go router.Run()

	s.mu.Lock()
	old := s.router
	s.router = router
	s.mu.Unlock()
	if old != nil {
		_ = old.Stop()
	}
	return nil
}

// Record implements platform.Session.
func (s *Session) Record(ctx context.Context) (*platform.Subscription[platform.RecorderEvent], error) {
	sub := s.recorder.Subscribe(0)

	s.mu.Lock()
	first := !s.recording
	s.recording = true
	pages := make([]*Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	if first {
		for _, p := range pages {
			if err := p.installRecorder(); err != nil {
				sub.Close()
				return nil, fmt.Errorf("install recorder: %w", err)
			}
		}
	}
	return sub, nil
}

func (s *Session) isRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *Session) publishRecorded(e platform.RecorderEvent) {
	s.recorder.Publish(e)
}

// StartTracing implements platform.Session.
func (s *Session) StartTracing(ctx context.Context, opts platform.TraceOptions) error {
	err := proto.TracingStart{
		TraceConfig:  &proto.TracingTraceConfig{IncludedCategories: opts.Categories},
		TransferMode: proto.TracingStartTransferModeReturnAsStream,
	}.Call(s.browser.Context(ctx))
	if err != nil {
		return fmt.Errorf("start tracing: %w", err)
	}
	s.mu.Lock()
	s.traceDir = opts.Dir
	s.mu.Unlock()
	return nil
}

// StopTracing implements platform.Session. The trace is written to the
// directory given to StartTracing as trace-<unix ms>.json.
func (s *Session) StopTracing(ctx context.Context) error {
	b := s.browser.Context(ctx)
	var done proto.TracingTracingComplete
	wait := b.WaitEvent(&done)
	if err := (proto.TracingEnd{}).Call(b); err != nil {
		return fmt.Errorf("stop tracing: %w", err)
	}
	wait()

	s.mu.Lock()
	dir := s.traceDir
	s.mu.Unlock()
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create trace dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("trace-%d.json", time.Now().UnixMilli()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, rod.NewStreamReader(b, done.Stream)); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	L_info("chromium: trace saved", "path", path)
	return nil
}

// Close implements platform.Session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	router := s.router
	pages := s.pages
	s.pages = make(map[proto.TargetTargetID]*Page)
	s.mu.Unlock()

	if router != nil {
		_ = router.Stop()
	}
	for _, p := range pages {
		p.markClosed()
	}
	err := s.browser.Close()
	s.cancel()
	s.events.Close()
	s.recorder.Close()

	if s.launcher != nil {
		s.launcher.Kill()
		if s.removeProfile {
			s.launcher.Cleanup()
		}
	}
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
