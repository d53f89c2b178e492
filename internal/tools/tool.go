// Package tools declares the browser commands exposed over MCP.
package tools

import (
	"context"
	"strings"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// Capabilities. Tools whose capability starts with "core" are always on.
const (
	CapCore     = "core"
	CapCoreTabs = "core-tabs"
	CapPDF      = "pdf"
)

// Env is what a handler runs against.
type Env struct {
	Session   *session.Context
	OutputDir string
	// Now stamps default file names; nil means time.Now.
	Now func() time.Time
	// WaitTimeout bounds each text wait; zero means maxWait.
	WaitTimeout time.Duration
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Handler runs a command, writing its output into r.
type Handler func(ctx context.Context, env *Env, args Args, r *response.Response) error

// TabHandler runs a command against the current tab.
type TabHandler func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error

// Tool is a declared command.
type Tool struct {
	Schema     mcp.Tool
	Capability string
	// ClearsModalState is the modal kind this tool resolves, if any.
	ClearsModalState session.ModalKind
	Handle           Handler
}

// Name returns the tool name.
func (t Tool) Name() string { return t.Schema.Name }

// Define declares a session-level tool. It runs without a tab and is not
// subject to the modal gate.
func Define(capability string, schema mcp.Tool, h Handler) Tool {
	return Tool{Schema: schema, Capability: capability, Handle: h}
}

// DefineTab declares a tool that needs the current tab. It is gated on the
// tab's modal state: it runs only while clears is pending when clears is
// set, and only while nothing is pending otherwise.
func DefineTab(capability string, schema mcp.Tool, clears session.ModalKind, h TabHandler) Tool {
	name := schema.Name
	return Tool{
		Schema:           schema,
		Capability:       capability,
		ClearsModalState: clears,
		Handle: func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			tab, err := env.Session.CurrentTabOrDie()
			if err != nil {
				return err
			}
			if err := tab.CheckModalGate(name, clears); err != nil {
				return err
			}
			return h(ctx, env, tab, args, r)
		},
	}
}

// All returns every tool in catalog order.
func All() []Tool {
	var all []Tool
	all = append(all, common()...)
	all = append(all, console()...)
	all = append(all, dialogs()...)
	all = append(all, evaluate()...)
	all = append(all, files()...)
	all = append(all, keyboard()...)
	all = append(all, navigate()...)
	all = append(all, network()...)
	all = append(all, pdf()...)
	all = append(all, screenshot()...)
	all = append(all, snapshot()...)
	all = append(all, tabs()...)
	all = append(all, wait()...)
	return all
}

// Filter keeps the core tools plus those whose capability is enabled.
func Filter(all []Tool, capabilities []string) []Tool {
	enabled := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		enabled[c] = true
	}
	var out []Tool
	for _, t := range all {
		if strings.HasPrefix(t.Capability, CapCore) || enabled[t.Capability] {
			out = append(out, t)
		}
	}
	return out
}

// ModalHandlers maps each modal kind to the tool that resolves it.
func ModalHandlers(all []Tool) map[session.ModalKind]string {
	m := make(map[session.ModalKind]string)
	for _, t := range all {
		if t.ClearsModalState != session.ModalNone {
			m[t.ClearsModalState] = t.Name()
		}
	}
	return m
}
