package tools

import (
	"context"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/mark3labs/mcp-go/mcp"
)

func common() []Tool {
	closeBrowser := Define(CapCore,
		mcp.NewTool("browser_close",
			mcp.WithDescription("Close the page"),
			mcp.WithTitleAnnotation("Close browser"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			if err := env.Session.CloseSession(ctx); err != nil {
				return err
			}
			r.SetIncludeTabs()
			r.AddCode("await page.close()")
			return nil
		})
	return []Tool{closeBrowser}
}
