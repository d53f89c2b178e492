// Package dispatch runs tool calls one at a time against a session.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/ingpoc/ui-test-generation-mcp/internal/tools"
)

// ResponseLogger persists finished responses.
type ResponseLogger interface {
	LogResponse(ctx context.Context, r *response.Response) error
}

// Options configures a Dispatcher.
type Options struct {
	// Log, when set, receives every response before it is serialized.
	Log        ResponseLogger
	OmitImages bool
}

// Dispatcher routes tool calls to their handlers. Calls are serialized.
type Dispatcher struct {
	env   *tools.Env
	opts  Options
	tools []tools.Tool
	index map[string]tools.Tool

	mu sync.Mutex
}

// New returns a dispatcher over catalog.
func New(catalog []tools.Tool, env *tools.Env, opts Options) *Dispatcher {
	d := &Dispatcher{
		env:   env,
		opts:  opts,
		tools: catalog,
		index: make(map[string]tools.Tool, len(catalog)),
	}
	for _, t := range catalog {
		d.index[t.Name()] = t
	}
	return d
}

// Tools returns the catalog in declaration order.
func (d *Dispatcher) Tools() []tools.Tool { return d.tools }

// Call runs tool name with args. Only an unknown name is returned as an
// error; handler failures and panics come back as an error-flagged response.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (response.Serialized, error) {
	tool, ok := d.index[name]
	if !ok {
		return response.Serialized{}, fmt.Errorf("Tool %q %w", name, session.ErrNotFound)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	r := response.New(d.env.Session, name, args, response.WithOmitImages(d.opts.OmitImages))

	d.env.Session.SetInputRecorderEnabled(false)
	err := d.run(ctx, tool, args, r)
	d.env.Session.SetInputRecorderEnabled(true)
	if err != nil {
		L_debug("tool failed", "tool", name, "error", err)
		r.AddError("Error: " + err.Error())
	}

	if d.opts.Log != nil {
		if err := d.opts.Log.LogResponse(ctx, r); err != nil {
			L_warn("session log write failed", "tool", name, "error", err)
		}
	}
	out := r.Serialize(ctx)
	observe(name, out.IsError, time.Since(start))
	L_elapsed(start, "tool call", "tool", name, "error", out.IsError)
	return out, nil
}

func (d *Dispatcher) run(ctx context.Context, tool tools.Tool, args map[string]any, r *response.Response) (err error) {
	defer func() {
		if p := recover(); p != nil {
			L_error("tool panicked", "tool", tool.Name(), "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%v", p)
		}
	}()
	if args == nil {
		args = map[string]any{}
	}
	return tool.Handle(ctx, d.env, tools.Args(args), r)
}
