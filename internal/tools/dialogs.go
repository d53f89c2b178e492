package tools

import (
	"context"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func dialogs() []Tool {
	handle := DefineTab(CapCore,
		mcp.NewTool("browser_handle_dialog",
			mcp.WithDescription("Handle a dialog"),
			mcp.WithTitleAnnotation("Handle a dialog"),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithBoolean("accept", mcp.Description("Whether to accept the dialog."), mcp.Required()),
			mcp.WithString("promptText", mcp.Description("The text of the prompt in case of a prompt dialog.")),
		),
		session.ModalDialog,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			r.SetIncludeSnapshot()
			state, err := tab.TakeModalState(session.ModalDialog)
			if err != nil {
				return err
			}
			accept := args.Bool("accept", false)
			prompt := args.String("promptText", "")
			_, err = tab.WaitForCompletion(ctx, func(ctx context.Context) error {
				if accept {
					return state.Dialog.Accept(ctx, prompt)
				}
				return state.Dialog.Dismiss(ctx)
			})
			return err
		})
	return []Tool{handle}
}
