package tools

import (
	"context"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/mark3labs/mcp-go/mcp"
)

func tabs() []Tool {
	list := Define(CapCoreTabs,
		mcp.NewTool("browser_tab_list",
			mcp.WithDescription("List browser tabs"),
			mcp.WithTitleAnnotation("List tabs"),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			if _, err := env.Session.EnsureTab(ctx); err != nil {
				return err
			}
			r.SetIncludeTabs()
			return nil
		})

	open := Define(CapCoreTabs,
		mcp.NewTool("browser_tab_new",
			mcp.WithDescription("Open a new tab"),
			mcp.WithTitleAnnotation("Open a new tab"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("url", mcp.Description("The URL to navigate to in the new tab. If not provided, the new tab will be blank.")),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			tab, err := env.Session.NewTab(ctx)
			if err != nil {
				return err
			}
			if url := args.String("url", ""); url != "" {
				if err := tab.Navigate(ctx, url); err != nil {
					return err
				}
			}
			r.SetIncludeSnapshot()
			return nil
		})

	selectTab := Define(CapCoreTabs,
		mcp.NewTool("browser_tab_select",
			mcp.WithDescription("Select a tab by index"),
			mcp.WithTitleAnnotation("Select a tab"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("index", mcp.Description("The index of the tab to select"), mcp.Required()),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			index, err := args.RequireInt("index")
			if err != nil {
				return err
			}
			if _, err := env.Session.SelectTab(ctx, index); err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			return nil
		})

	closeTab := Define(CapCoreTabs,
		mcp.NewTool("browser_tab_close",
			mcp.WithDescription("Close a tab"),
			mcp.WithTitleAnnotation("Close a tab"),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithNumber("index", mcp.Description("The index of the tab to close. Closes current tab if not provided.")),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			if _, err := env.Session.CloseTab(ctx, args.IntPtr("index")); err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			return nil
		})

	return []Tool{list, open, selectTab, closeTab}
}
