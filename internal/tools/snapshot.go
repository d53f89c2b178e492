package tools

import (
	"context"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/mark3labs/mcp-go/mcp"
)

func snapshot() []Tool {
	snap := Define(CapCore,
		mcp.NewTool("browser_snapshot",
			mcp.WithDescription("Capture accessibility snapshot of the current page, this is better than screenshot"),
			mcp.WithTitleAnnotation("Page snapshot"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			if _, err := env.Session.EnsureTab(ctx); err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			return nil
		})
	return []Tool{snap}
}
