package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ingpoc/ui-test-generation-mcp/internal/output"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

var unsafePathChars = regexp.MustCompile(`[\x00-\x2C\x2E-\x2F\x3A-\x40\x5B-\x60\x7B-\x7F]+`)

// sanitizeFileName replaces runs of punctuation with '-', keeping the
// extension separator.
func sanitizeFileName(s string) string {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return unsafePathChars.ReplaceAllString(s, "-")
	}
	return unsafePathChars.ReplaceAllString(s[:i], "-") + "." + unsafePathChars.ReplaceAllString(s[i+1:], "-")
}

// outputFile returns where to save name inside the output directory,
// creating the directory.
func (e *Env) outputFile(name string) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(e.OutputDir, sanitizeFileName(name)), nil
}

// timestampName is the default artifact name, e.g. page-2024-05-01T10:00:00.000Z.png.
func (e *Env) timestampName(ext string) string {
	return fmt.Sprintf("page-%s.%s", e.now().UTC().Format("2006-01-02T15:04:05.000Z"), ext)
}

func files() []Tool {
	upload := DefineTab(CapCore,
		mcp.NewTool("browser_file_upload",
			mcp.WithDescription("Upload one or multiple files"),
			mcp.WithTitleAnnotation("Upload files"),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithArray("paths",
				mcp.Description("The absolute paths to the files to upload. Can be a single file or multiple files."),
				mcp.WithStringItems(),
				mcp.Required(),
			),
		),
		session.ModalFileChooser,
		func(ctx context.Context, env *Env, tab *session.Tab, args Args, r *response.Response) error {
			r.SetIncludeSnapshot()
			paths := args.Strings("paths")
			state, err := tab.TakeModalState(session.ModalFileChooser)
			if err != nil {
				return err
			}
			list, err := output.JSON(paths, false)
			if err != nil {
				return err
			}
			r.AddCode(fmt.Sprintf("await fileChooser.setFiles(%s)", list))
			_, err = tab.WaitForCompletion(ctx, func(ctx context.Context) error {
				return state.FileChooser.SetFiles(ctx, paths)
			})
			return err
		})
	return []Tool{upload}
}
