package sessionlog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// DefaultIdle is how long the recorder waits for more input before writing
// what it buffered.
const DefaultIdle = time.Second

// ActionSink receives batches of recorded actions.
type ActionSink interface {
	LogActions(actions []RecordedAction) error
}

// InputRecorder buffers the actions a user performs by hand and writes them
// to a sink once input goes idle. It starts enabled.
type InputRecorder struct {
	sink ActionSink
	idle time.Duration
	now  func() time.Time

	mu      sync.Mutex
	enabled bool
	closed  bool
	actions []RecordedAction
	timer   *time.Timer
}

// NewInputRecorder returns an enabled recorder. A non-positive idle takes
// DefaultIdle.
func NewInputRecorder(sink ActionSink, idle time.Duration) *InputRecorder {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &InputRecorder{sink: sink, idle: idle, now: time.Now, enabled: true}
}

// Record buffers e. An ActionUpdated replaces the newest buffered action.
// Events arriving while disabled are dropped.
func (r *InputRecorder) Record(e platform.RecorderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled || r.closed {
		return
	}
	ts := e.Time
	if ts.IsZero() {
		ts = r.now()
	}

	switch e.Kind {
	case platform.ActionAdded:
		r.actions = append(r.actions, RecordedAction{
			TabID: e.PageID, Name: e.Name, URL: e.URL,
			Code: strings.TrimSpace(e.Code), AriaSnapshot: e.AriaSnapshot, Timestamp: ts,
		})
	case platform.ActionUpdated:
		a := RecordedAction{
			TabID: e.PageID, Name: e.Name, URL: e.URL,
			Code: strings.TrimSpace(e.Code), AriaSnapshot: e.AriaSnapshot, Timestamp: ts,
		}
		if n := len(r.actions); n > 0 {
			r.actions[n-1] = a
		} else {
			r.actions = append(r.actions, a)
		}
	case platform.SignalAdded:
		if e.Name != "navigation" {
			return
		}
		r.actions = append(r.actions, RecordedAction{
			TabID: e.PageID, Name: "navigate", URL: e.URL,
			Code: fmt.Sprintf("await page.goto('%s');", e.URL), Timestamp: ts,
		})
	default:
		return
	}
	r.scheduleLocked()
}

func (r *InputRecorder) scheduleLocked() {
	if r.timer != nil {
		r.timer.Reset(r.idle)
		return
	}
	r.timer = time.AfterFunc(r.idle, r.Flush)
}

// SetEnabled turns recording on or off. Turning it off flushes the buffer
// before returning.
func (r *InputRecorder) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	r.mu.Unlock()
	if !enabled {
		r.Flush()
	}
}

// Enabled reports whether events are being recorded.
func (r *InputRecorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Pending returns the number of buffered actions.
func (r *InputRecorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

// Flush writes the buffered actions now. Write failures are logged.
func (r *InputRecorder) Flush() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
	}
	actions := r.actions
	r.actions = nil
	r.mu.Unlock()

	if len(actions) == 0 {
		return
	}
	if err := r.sink.LogActions(actions); err != nil {
		L_warn("write recorded actions failed", "count", len(actions), "error", err)
	}
}

// Close flushes and stops recording for good.
func (r *InputRecorder) Close() {
	r.Flush()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.enabled = false
}
