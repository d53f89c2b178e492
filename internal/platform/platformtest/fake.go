// Package platformtest provides in-memory fakes of the platform contracts.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// Factory is a fake SessionFactory.
type Factory struct {
	mu sync.Mutex

	// Err fails every CreateSession call while set.
	Err error
	// Gate, when non-nil, holds CreateSession until it is closed.
	Gate chan struct{}
	// InitialPages is the number of pages a new session starts with.
	InitialPages int

	creates  int
	sessions []*Session
	client   platform.ClientInfo
}

// CreateSession implements platform.SessionFactory.
func (f *Factory) CreateSession(ctx context.Context, client platform.ClientInfo) (platform.Session, error) {
	f.mu.Lock()
	f.creates++
	gate, err, initial := f.Gate, f.Err, f.InitialPages
	f.client = client
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	s := NewSession()
	for i := 0; i < initial; i++ {
		s.addPage(false)
	}
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

// Creates returns how many times CreateSession was called.
func (f *Factory) Creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// Sessions returns every session created so far.
func (f *Factory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Session(nil), f.sessions...)
}

// LastSession returns the newest session or nil.
func (f *Factory) LastSession() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

// Client returns the client info passed to the last CreateSession.
func (f *Factory) Client() platform.ClientInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client
}

// Session is a fake platform.Session.
type Session struct {
	mu       sync.Mutex
	pages    []*Page
	nextID   int
	closes   int
	closed   bool
	rules    platform.RequestRules
	tracing  bool
	events   *platform.Hub[platform.SessionEvent]
	recorder *platform.Hub[platform.RecorderEvent]

	// CloseGate, when non-nil, holds Close until it is closed.
	CloseGate chan struct{}
	// CloseErr is returned by Close.
	CloseErr error
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{
		events:   platform.NewHub[platform.SessionEvent]("fake-session"),
		recorder: platform.NewHub[platform.RecorderEvent]("fake-recorder"),
	}
}

func (s *Session) addPage(announce bool) *Page {
	s.mu.Lock()
	s.nextID++
	p := NewPage(fmt.Sprintf("page-%d", s.nextID))
	p.session = s
	s.pages = append(s.pages, p)
	s.mu.Unlock()
	if announce {
		s.events.Publish(platform.SessionEvent{PageCreated: p})
	}
	return p
}

func (s *Session) removePage(p *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.pages {
		if q == p {
			s.pages = append(s.pages[:i], s.pages[i+1:]...)
			return
		}
	}
}

// Pages implements platform.Session.
func (s *Session) Pages(context.Context) ([]platform.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]platform.Page, len(s.pages))
	for i, p := range s.pages {
		out[i] = p
	}
	return out, nil
}

// NewPage implements platform.Session.
func (s *Session) NewPage(context.Context) (platform.Page, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("session closed")
	}
	return s.addPage(true), nil
}

// OpenPopup simulates a page opened by the page itself (window.open).
func (s *Session) OpenPopup() *Page {
	return s.addPage(true)
}

// FakePages returns the live fake pages in creation order.
func (s *Session) FakePages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Page(nil), s.pages...)
}

// Subscribe implements platform.Session.
func (s *Session) Subscribe(buffer int) *platform.Subscription[platform.SessionEvent] {
	return s.events.Subscribe(buffer)
}

// SetRequestRules implements platform.Session.
func (s *Session) SetRequestRules(_ context.Context, rules platform.RequestRules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = rules
	return nil
}

// Rules returns the installed request rules.
func (s *Session) Rules() platform.RequestRules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// Record implements platform.Session.
func (s *Session) Record(context.Context) (*platform.Subscription[platform.RecorderEvent], error) {
	return s.recorder.Subscribe(0), nil
}

// EmitRecorder publishes a recorder event.
func (s *Session) EmitRecorder(e platform.RecorderEvent) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.recorder.Publish(e)
}

// StartTracing implements platform.Session.
func (s *Session) StartTracing(context.Context, platform.TraceOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracing = true
	return nil
}

// StopTracing implements platform.Session.
func (s *Session) StopTracing(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracing = false
	return nil
}

// Tracing reports whether tracing is running.
func (s *Session) Tracing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracing
}

// Close implements platform.Session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closes++
	gate, err := s.CloseGate, s.CloseErr
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	s.closed = true
	pages := s.pages
	s.pages = nil
	s.mu.Unlock()

	for _, p := range pages {
		p.markClosed()
	}
	s.events.Close()
	s.recorder.Close()
	return err
}

// Closes returns how many times Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Closed reports whether the session was torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var (
	_ platform.SessionFactory = (*Factory)(nil)
	_ platform.Session        = (*Session)(nil)
	_ platform.Page           = (*Page)(nil)
	_ platform.Dialog         = (*Dialog)(nil)
	_ platform.FileChooser    = (*FileChooser)(nil)
)
