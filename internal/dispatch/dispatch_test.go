package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/completion"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform/platformtest"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/ingpoc/ui-test-generation-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toggleRecorder struct {
	mu     sync.Mutex
	states []bool
}

func (r *toggleRecorder) Record(platform.RecorderEvent) {}
func (r *toggleRecorder) Flush()                        {}
func (r *toggleRecorder) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, enabled)
}

func (r *toggleRecorder) enabledDuring() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

type memoryLog struct {
	err   error
	names []string
}

func (l *memoryLog) LogResponse(_ context.Context, r *response.Response) error {
	l.names = append(l.names, r.ToolName())
	return l.err
}

func newDispatcher(t *testing.T, extra []tools.Tool, opts Options) (*Dispatcher, *toggleRecorder) {
	t.Helper()
	rec := &toggleRecorder{}
	sc := session.NewContext(&platformtest.Factory{}, session.Options{
		LoadTimeout: time.Second,
		Detector:    completion.New(completion.Options{Timeout: time.Second, Settle: time.Millisecond}),
		Recorder:    rec,
	})
	catalog := append(tools.Filter(tools.All(), nil), extra...)
	sc.SetModalHandlers(tools.ModalHandlers(catalog))
	env := &tools.Env{Session: sc, OutputDir: t.TempDir()}
	return New(catalog, env, opts), rec
}

func failing(name string, h tools.Handler) tools.Tool {
	return tools.Define(tools.CapCore, mcp.NewTool(name), h)
}

func TestCall_UnknownTool(t *testing.T) {
	d, _ := newDispatcher(t, nil, Options{})
	_, err := d.Call(context.Background(), "browser_fly", nil)
	require.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, `Tool "browser_fly" not found`, err.Error())
}

func TestCall_HandlerErrorBecomesResponse(t *testing.T) {
	log := &memoryLog{}
	boom := failing("boom", func(context.Context, *tools.Env, tools.Args, *response.Response) error {
		return errors.New("kaboom")
	})
	d, rec := newDispatcher(t, []tools.Tool{boom}, Options{Log: log})

	out, err := d.Call(context.Background(), "boom", nil)
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Equal(t, "### Result\nError: kaboom\n", out.Text)
	assert.Equal(t, []string{"boom"}, log.names)
	assert.Equal(t, []bool{false, true}, rec.enabledDuring())
}

func TestCall_PanicBecomesResponse(t *testing.T) {
	p := failing("panics", func(context.Context, *tools.Env, tools.Args, *response.Response) error {
		panic("bad state")
	})
	d, rec := newDispatcher(t, []tools.Tool{p}, Options{})

	out, err := d.Call(context.Background(), "panics", nil)
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Text, "Error: bad state")
	assert.Equal(t, []bool{false, true}, rec.enabledDuring(), "recorder is re-enabled after a panic")
}

func TestCall_LogFailureDoesNotFailCall(t *testing.T) {
	log := &memoryLog{err: errors.New("disk full")}
	d, _ := newDispatcher(t, nil, Options{Log: log})

	out, err := d.Call(context.Background(), "browser_navigate", map[string]any{"url": "https://example.com/"})
	require.NoError(t, err)
	assert.False(t, out.IsError)
	assert.Contains(t, out.Text, "### Ran Playwright code\n```js\nawait page.goto('https://example.com/');\n```")
	assert.Contains(t, out.Text, "- Page URL: https://example.com/")
}

func TestCall_NoActiveTab(t *testing.T) {
	d, _ := newDispatcher(t, nil, Options{})
	out, err := d.Call(context.Background(), "browser_take_screenshot", nil)
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Text, "Error: no open pages available. Use the \"browser_navigate\" tool")
}

func TestCall_GateRejectionIsErrorResponse(t *testing.T) {
	d, _ := newDispatcher(t, nil, Options{})
	ctx := context.Background()
	_, err := d.Call(ctx, "browser_navigate", map[string]any{"url": "https://example.com/"})
	require.NoError(t, err)

	out, err := d.Call(ctx, "browser_handle_dialog", map[string]any{"accept": true})
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Text, "Error: The tool \"browser_handle_dialog\" can only be used when there is related modal state present.\n### Modal state\n- There is no modal state present")
}

func TestCall_OmitImages(t *testing.T) {
	withImage := failing("image", func(_ context.Context, _ *tools.Env, _ tools.Args, r *response.Response) error {
		r.AddImage(response.Image{ContentType: "image/png", Data: []byte{1}})
		return nil
	})
	d, _ := newDispatcher(t, []tools.Tool{withImage}, Options{OmitImages: true})
	out, err := d.Call(context.Background(), "image", nil)
	require.NoError(t, err)
	assert.Empty(t, out.Images)
}

func TestCall_Serialized(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var active, peak int
	var mu sync.Mutex
	slow := failing("slow", func(context.Context, *tools.Env, tools.Args, *response.Response) error {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})
	d, _ := newDispatcher(t, []tools.Tool{slow}, Options{})

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Call(context.Background(), "slow", nil)
		}()
	}
	<-started
	close(release)
	wg.Wait()
	assert.Equal(t, 1, peak)
}
