package sessionlog

import (
	"sync"
	"testing"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	batches [][]RecordedAction
}

func (s *memorySink) LogActions(actions []RecordedAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, actions)
	return nil
}

func (s *memorySink) snapshot() [][]RecordedAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]RecordedAction(nil), s.batches...)
}

func TestInputRecorder_FlushesAfterIdle(t *testing.T) {
	sink := &memorySink{}
	r := NewInputRecorder(sink, 50*time.Millisecond)

	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, PageID: "p1", Name: "click", Code: "  await page.click('#a');\n"})
	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, PageID: "p1", Name: "fill", Code: "await page.fill('#b', 'x');"})
	assert.Empty(t, sink.snapshot())

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	batch := sink.snapshot()[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "await page.click('#a');", batch[0].Code)
	assert.Equal(t, "p1", batch[0].TabID)
	assert.Equal(t, 0, r.Pending())
}

func TestInputRecorder_TimerRestartsOnInput(t *testing.T) {
	sink := &memorySink{}
	r := NewInputRecorder(sink, 80*time.Millisecond)

	for range 4 {
		r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "press"})
		time.Sleep(40 * time.Millisecond)
	}
	assert.Empty(t, sink.snapshot(), "steady input keeps postponing the flush")

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, sink.snapshot()[0], 4)
}

func TestInputRecorder_UpdateReplacesNewest(t *testing.T) {
	sink := &memorySink{}
	r := NewInputRecorder(sink, time.Hour)

	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "click", Code: "await page.click('#a');"})
	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "fill", Code: "await page.fill('#b', 'h');"})
	r.Record(platform.RecorderEvent{Kind: platform.ActionUpdated, Name: "fill", Code: "await page.fill('#b', 'hello');"})
	assert.Equal(t, 2, r.Pending())

	r.Flush()
	batches := sink.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, "await page.fill('#b', 'hello');", batches[0][1].Code)
}

func TestInputRecorder_UpdateOnEmptyBufferAppends(t *testing.T) {
	r := NewInputRecorder(&memorySink{}, time.Hour)
	r.Record(platform.RecorderEvent{Kind: platform.ActionUpdated, Name: "fill"})
	assert.Equal(t, 1, r.Pending())
}

func TestInputRecorder_NavigationSignal(t *testing.T) {
	sink := &memorySink{}
	r := NewInputRecorder(sink, time.Hour)

	r.Record(platform.RecorderEvent{Kind: platform.SignalAdded, Name: "popup", URL: "https://x"})
	assert.Equal(t, 0, r.Pending(), "only navigation signals are recorded")

	r.Record(platform.RecorderEvent{Kind: platform.SignalAdded, Name: "navigation", URL: "https://x/next"})
	r.Flush()
	a := sink.snapshot()[0][0]
	assert.Equal(t, "navigate", a.Name)
	assert.Equal(t, "await page.goto('https://x/next');", a.Code)
}

func TestInputRecorder_DisableFlushesAndDrops(t *testing.T) {
	sink := &memorySink{}
	r := NewInputRecorder(sink, time.Hour)
	assert.True(t, r.Enabled())

	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "click"})
	r.SetEnabled(false)
	require.Len(t, sink.snapshot(), 1, "disabling flushes synchronously")

	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "click"})
	assert.Equal(t, 0, r.Pending())

	r.SetEnabled(true)
	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "click"})
	assert.Equal(t, 1, r.Pending())
}

func TestInputRecorder_WritesThroughLog(t *testing.T) {
	l, c := newLog(t)
	r := NewInputRecorder(l, time.Hour)
	r.now = c.now
	c.advance(2 * time.Second)

	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "click", Code: "await page.click('#go');"})
	r.Close()
	assert.Contains(t, readLog(t, l), "### User action: click")

	r.Record(platform.RecorderEvent{Kind: platform.ActionAdded, Name: "click"})
	assert.Equal(t, 0, r.Pending())
}
