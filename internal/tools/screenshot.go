package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

const jpegQuality = 50

func screenshot() []Tool {
	shot := DefineTab(CapCore,
		mcp.NewTool("browser_take_screenshot",
			mcp.WithDescription("Take a screenshot of the current page. You can't perform actions based on the screenshot, use browser_snapshot for actions."),
			mcp.WithTitleAnnotation("Take a screenshot"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithBoolean("raw", mcp.Description("Whether to return without compression (in PNG format). Default is false, which returns a JPEG image.")),
			mcp.WithString("filename", mcp.Description("File name to save the screenshot to. Defaults to `page-{timestamp}.{png|jpeg}` if not specified.")),
			mcp.WithBoolean("fullPage", mcp.Description("When true, takes a screenshot of the full scrollable page, instead of the currently visible viewport.")),
			mcp.WithNumber("scale", mcp.Description("Downscale factor between 0.1 and 1.0 applied to the returned image (default: 1.0)")),
		),
		session.ModalNone,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			format := platform.ImageJPEG
			var quality any = jpegQuality
			if args.Bool("raw", false) {
				format = platform.ImagePNG
				quality = nil
			}
			fullPage := args.Bool("fullPage", false)
			scale := args.Float("scale", 1)
			if scale < 0.1 || scale > 1 {
				return fmt.Errorf("scale must be between 0.1 and 1.0, got %v", scale)
			}

			fileName, err := env.outputFile(args.String("filename", env.timestampName(string(format))))
			if err != nil {
				return err
			}
			target := "viewport"
			if fullPage {
				target = "full page"
			}
			var fullPageProp any
			if args.Has("fullPage") {
				fullPageProp = fullPage
			}
			r.AddCode(fmt.Sprintf("// Screenshot %s and save it as %s", target, fileName))
			r.AddCode(fmt.Sprintf("await page.screenshot(%s);", jsObject(
				jsProp{"type", string(format)},
				jsProp{"quality", quality},
				jsProp{"scale", "css"},
				jsProp{"path", fileName},
				jsProp{"fullPage", fullPageProp},
			)))

			q := 0
			if format == platform.ImageJPEG {
				q = jpegQuality
			}
			data, err := tab.Page().Screenshot(ctx, platform.ScreenshotOptions{Format: format, Quality: q, FullPage: fullPage})
			if err != nil {
				return fmt.Errorf("take screenshot: %w", err)
			}
			if err := os.WriteFile(fileName, data, 0o644); err != nil {
				return fmt.Errorf("save screenshot: %w", err)
			}
			if scale < 1 {
				if data, err = scaleImage(data, format, jpegQuality, scale); err != nil {
					return err
				}
			}

			r.AddResult(fmt.Sprintf("Took the %s screenshot and saved it as %s", target, fileName))
			r.AddImage(response.Image{ContentType: format.ContentType(), Data: data})
			return nil
		})
	return []Tool{shot}
}
