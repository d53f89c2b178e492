package tools

import (
	"context"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func console() []Tool {
	messages := DefineTab(CapCore,
		mcp.NewTool("browser_console_messages",
			mcp.WithDescription("Returns all console messages"),
			mcp.WithTitleAnnotation("Get console messages"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			for _, m := range tab.ConsoleMessages() {
				r.AddResult(session.ConsoleLine(m))
			}
			return nil
		})
	return []Tool{messages}
}
