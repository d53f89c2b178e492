package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/output"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/mark3labs/mcp-go/mcp"
)

const maxWait = 30 * time.Second

func wait() []Tool {
	waitFor := Define(CapCore,
		mcp.NewTool("browser_wait_for",
			mcp.WithDescription("Wait for text to appear or disappear or a specified time to pass"),
			mcp.WithTitleAnnotation("Wait for"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("time", mcp.Description("The time to wait in seconds")),
			mcp.WithString("text", mcp.Description("The text to wait for")),
			mcp.WithString("textGone", mcp.Description("The text to wait for to disappear")),
		),
		func(ctx context.Context, env *Env, args Args, r *response.Response) error {
			secs := args.Float("time", 0)
			text := args.String("text", "")
			gone := args.String("textGone", "")
			if secs <= 0 && text == "" && gone == "" {
				return errors.New("Either time, text or textGone must be provided")
			}

			waited := strconv.FormatFloat(secs, 'f', -1, 64)
			if secs > 0 {
				r.AddCode(fmt.Sprintf("await new Promise(f => setTimeout(f, %s * 1000));", waited))
				d := min(maxWait, time.Duration(secs*float64(time.Second)))
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			tab, err := env.Session.CurrentTabOrDie()
			if err != nil {
				return err
			}
			if gone != "" {
				if err := waitForText(ctx, env, tab.Page(), r, gone, true); err != nil {
					return err
				}
			}
			if text != "" {
				if err := waitForText(ctx, env, tab.Page(), r, text, false); err != nil {
					return err
				}
			}

			switch {
			case text != "":
				waited = text
			case gone != "":
				waited = gone
			}
			r.AddResult("Waited for " + waited)
			r.SetIncludeSnapshot()
			return nil
		})
	return []Tool{waitFor}
}

// waitForText records the locator wait and runs it, bounded by the
// configured wait timeout.
func waitForText(ctx context.Context, env *Env, page platform.Page, r *response.Response, text string, gone bool) error {
	lit, err := output.JSON(text, false)
	if err != nil {
		return err
	}
	state := "visible"
	if gone {
		state = "hidden"
	}
	r.AddCode(fmt.Sprintf("await page.getByText(%s).first().waitFor({ state: '%s' });", lit, state))

	limit := env.WaitTimeout
	if limit <= 0 {
		limit = maxWait
	}
	wctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	err = page.WaitForText(wctx, text, gone)
	if err != nil && ctx.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("Timeout %v exceeded waiting for text %s to be %s", limit, lit, state)
	}
	return err
}
