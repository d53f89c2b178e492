// Package response accumulates one command's output and renders it.
package response

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Image is an image attachment.
type Image struct {
	ContentType string
	Data        []byte
}

// TabSource is the session state a response renders tab listings and page
// snapshots from.
type TabSource interface {
	// HasCurrentTab reports whether a tab is selected.
	HasCurrentTab() bool
	// CaptureSnapshot renders the current tab's page state as markdown.
	CaptureSnapshot(ctx context.Context) (string, error)
	// ListTabsMarkdown renders the tab listing; see session.Context.
	ListTabsMarkdown(ctx context.Context, force bool) []string
}

// Option configures a Response.
type Option func(*Response)

// WithOmitImages drops image attachments from the serialized output. They
// are still available to the session log.
func WithOmitImages(omit bool) Option {
	return func(r *Response) { r.omitImages = omit }
}

// Response is the output of one command. It is owned by that command and
// must not be shared.
type Response struct {
	source   TabSource
	toolName string
	toolArgs map[string]any

	omitImages bool

	results         []string
	code            []string
	images          []Image
	includeSnapshot bool
	includeTabs     bool
	isError         bool

	snapshotOnce sync.Once
	snapshot     string
}

// New returns an empty response for a call of toolName. source may be nil,
// in which case no tab listing or snapshot is rendered.
func New(source TabSource, toolName string, toolArgs map[string]any, opts ...Option) *Response {
	r := &Response{source: source, toolName: toolName, toolArgs: toolArgs}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Response) ToolName() string         { return r.toolName }
func (r *Response) ToolArgs() map[string]any { return r.toolArgs }

func (r *Response) AddResult(result string) {
	r.results = append(r.results, result)
}

// AddError records a failure line and flags the response as an error.
func (r *Response) AddError(msg string) {
	r.results = append(r.results, msg)
	r.isError = true
}

func (r *Response) IsError() bool  { return r.isError }
func (r *Response) Result() string { return strings.Join(r.results, "\n") }

// AddCode records a line of generated test code.
func (r *Response) AddCode(code string) {
	r.code = append(r.code, code)
}

func (r *Response) Code() string { return strings.Join(r.code, "\n") }

func (r *Response) AddImage(img Image) {
	r.images = append(r.images, img)
}

func (r *Response) Images() []Image { return r.images }

func (r *Response) SetIncludeSnapshot() { r.includeSnapshot = true }
func (r *Response) SetIncludeTabs()     { r.includeTabs = true }

// Snapshot returns the current tab's page state. It is computed at most once,
// and only when a snapshot was requested and a tab exists; otherwise it is
// empty. A capture failure is rendered into the snapshot text.
func (r *Response) Snapshot(ctx context.Context) string {
	r.snapshotOnce.Do(func() {
		if !r.includeSnapshot || r.source == nil || !r.source.HasCurrentTab() {
			return
		}
		s, err := r.source.CaptureSnapshot(ctx)
		if err != nil {
			r.snapshot = fmt.Sprintf("### Page state\nError capturing snapshot: %v", err)
			return
		}
		r.snapshot = s
	})
	return r.snapshot
}

// Serialized is the final form of a response.
type Serialized struct {
	Text    string
	Images  []Image
	IsError bool
}

// Serialize renders the response: result, generated code, tab listing,
// snapshot, then images as separate parts.
func (r *Response) Serialize(ctx context.Context) Serialized {
	var lines []string
	if len(r.results) > 0 {
		lines = append(lines, "### Result", r.Result(), "")
	}
	if len(r.code) > 0 {
		lines = append(lines, "### Ran Playwright code\n```js\n"+r.Code()+"\n```", "")
	}
	if (r.includeSnapshot || r.includeTabs) && r.source != nil {
		lines = append(lines, r.source.ListTabsMarkdown(ctx, r.includeTabs)...)
	}
	if s := r.Snapshot(ctx); s != "" {
		lines = append(lines, s, "")
	}

	out := Serialized{Text: strings.Join(lines, "\n"), IsError: r.isError}
	if !r.omitImages {
		out.Images = r.images
	}
	return out
}
