package tools

import (
	"context"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func network() []Tool {
	requests := DefineTab(CapCore,
		mcp.NewTool("browser_network_requests",
			mcp.WithDescription("Returns all network requests since loading the page"),
			mcp.WithTitleAnnotation("List network requests"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			for _, req := range tab.Requests() {
				r.AddResult(req.String())
			}
			return nil
		})
	return []Tool{requests}
}
