package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func pdf() []Tool {
	save := DefineTab(CapPDF,
		mcp.NewTool("browser_pdf_save",
			mcp.WithDescription("Save page as PDF"),
			mcp.WithTitleAnnotation("Save as PDF"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("filename", mcp.Description("File name to save the pdf to. Defaults to `page-{timestamp}.pdf` if not specified.")),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			fileName, err := env.outputFile(args.String("filename", env.timestampName("pdf")))
			if err != nil {
				return err
			}
			r.AddCode(fmt.Sprintf("await page.pdf(%s);", jsObject(jsProp{"path", fileName})))
			data, err := tab.Page().PDF(ctx)
			if err != nil {
				return fmt.Errorf("print pdf: %w", err)
			}
			if err := os.WriteFile(fileName, data, 0o644); err != nil {
				return fmt.Errorf("save pdf: %w", err)
			}
			r.AddResult("Saved page as " + fileName)
			return nil
		})
	return []Tool{save}
}
