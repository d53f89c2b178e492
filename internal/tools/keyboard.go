package tools

import (
	"context"
	"fmt"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func keyboard() []Tool {
	press := DefineTab(CapCore,
		mcp.NewTool("browser_press_key",
			mcp.WithDescription("Press a key on the keyboard"),
			mcp.WithTitleAnnotation("Press a key"),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("key", mcp.Description("Name of the key to press or a character to generate, such as `ArrowLeft` or `a`"), mcp.Required()),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			key, err := args.RequireString("key")
			if err != nil {
				return err
			}
			r.SetIncludeSnapshot()
			r.AddCode("// Press " + key)
			r.AddCode(fmt.Sprintf("await page.keyboard.press(%s);", jsString(key)))
			_, err = tab.WaitForCompletion(ctx, func(ctx context.Context) error {
				return tab.Page().PressKey(ctx, key)
			})
			return err
		})
	return []Tool{press}
}
