package tools

import (
	"context"
	"fmt"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func navigate() []Tool {
	goTo := Define(CapCore,
		mcp.NewTool("browser_navigate",
			mcp.WithDescription("Navigate to a URL"),
			mcp.WithTitleAnnotation("Navigate to a URL"),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("url", mcp.Description("The URL to navigate to"), mcp.Required()),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			url, err := args.RequireString("url")
			if err != nil {
				return err
			}
			tab, err := env.Session.EnsureTab(ctx)
			if err != nil {
				return err
			}
			if err := tab.Navigate(ctx, url); err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			r.AddCode(fmt.Sprintf("await page.goto(%s);", jsString(url)))
			return nil
		})

	back := DefineTab(CapCore,
		mcp.NewTool("browser_navigate_back",
			mcp.WithDescription("Go back to the previous page"),
			mcp.WithTitleAnnotation("Go back"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			if _, err := tab.WaitForCompletion(ctx, tab.Page().GoBack); err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			r.AddCode("await page.goBack();")
			return nil
		})

	forward := DefineTab(CapCore,
		mcp.NewTool("browser_navigate_forward",
			mcp.WithDescription("Go forward to the next page"),
			mcp.WithTitleAnnotation("Go forward"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			if _, err := tab.WaitForCompletion(ctx, tab.Page().GoForward); err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			r.AddCode("await page.goForward();")
			return nil
		})

	return []Tool{goTo, back, forward}
}
