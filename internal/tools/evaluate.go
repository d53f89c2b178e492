package tools

import (
	"context"
	"fmt"

	"github.com/ingpoc/ui-test-generation-mcp/internal/completion"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func evaluate() []Tool {
	eval := DefineTab(CapCore,
		mcp.NewTool("browser_evaluate",
			mcp.WithDescription("Evaluate JavaScript expression on page"),
			mcp.WithTitleAnnotation("Evaluate JavaScript"),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("function", mcp.Description("() => { /* code */ }"), mcp.Required()),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			fn, err := args.RequireString("function")
			if err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			quoted := quoteFunction(fn)
			r.AddCode(fmt.Sprintf("await page.evaluate(%s);", quoted))
			var result string
			outcome, err := tab.WaitForCompletion(ctx, func(ctx context.Context) error {
				res, err := tab.Page().Evaluate(ctx, quoted)
				result = res
				return err
			})
			if err != nil {
				return err
			}
			// A modal interrupted the evaluation, which may still be running.
			if outcome == completion.ModalOpened {
				return nil
			}
			if result == "" {
				result = "undefined"
			}
			r.AddResult(result)
			return nil
		})
	return []Tool{eval}
}
