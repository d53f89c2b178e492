package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	hasTab    bool
	snapshot  string
	err       error
	captures  int
	forceSeen []bool
}

func (f *fakeSource) HasCurrentTab() bool { return f.hasTab }

func (f *fakeSource) CaptureSnapshot(context.Context) (string, error) {
	f.captures++
	return f.snapshot, f.err
}

func (f *fakeSource) ListTabsMarkdown(_ context.Context, force bool) []string {
	f.forceSeen = append(f.forceSeen, force)
	if !force {
		return nil
	}
	return []string{"### Open tabs", "- 0: (current) [Home] (https://example.com)", ""}
}

func TestSerializeOrder(t *testing.T) {
	src := &fakeSource{hasTab: true, snapshot: "### Page state\n- Page URL: https://example.com"}
	r := New(src, "browser_navigate", map[string]any{"url": "https://example.com"})
	r.AddResult("Navigated")
	r.AddCode("await page.goto('https://example.com');")
	r.SetIncludeSnapshot()
	r.SetIncludeTabs()
	r.AddImage(Image{ContentType: "image/png", Data: []byte{1, 2}})

	out := r.Serialize(context.Background())

	want := strings.Join([]string{
		"### Result",
		"Navigated",
		"",
		"### Ran Playwright code\n```js\nawait page.goto('https://example.com');\n```",
		"",
		"### Open tabs",
		"- 0: (current) [Home] (https://example.com)",
		"",
		"### Page state\n- Page URL: https://example.com",
		"",
	}, "\n")
	assert.Equal(t, want, out.Text)
	assert.False(t, out.IsError)
	require.Len(t, out.Images, 1)
	assert.Equal(t, "image/png", out.Images[0].ContentType)
	assert.Equal(t, []bool{true}, src.forceSeen)
}

func TestSerializeEmpty(t *testing.T) {
	out := New(nil, "noop", nil).Serialize(context.Background())
	assert.Equal(t, "", out.Text)
	assert.Empty(t, out.Images)
}

func TestAddErrorFlags(t *testing.T) {
	r := New(nil, "x", nil)
	r.AddResult("first")
	r.AddError("Error: boom")
	assert.True(t, r.IsError())
	assert.Equal(t, "first\nError: boom", r.Result())
	assert.True(t, r.Serialize(context.Background()).IsError)
}

func TestSnapshotMemoized(t *testing.T) {
	src := &fakeSource{hasTab: true, snapshot: "snap"}
	r := New(src, "browser_snapshot", nil)
	r.SetIncludeSnapshot()

	assert.Equal(t, "snap", r.Snapshot(context.Background()))
	assert.Equal(t, "snap", r.Snapshot(context.Background()))
	r.Serialize(context.Background())
	assert.Equal(t, 1, src.captures)
}

func TestSnapshotSkipped(t *testing.T) {
	t.Run("not requested", func(t *testing.T) {
		src := &fakeSource{hasTab: true, snapshot: "snap"}
		r := New(src, "x", nil)
		assert.Equal(t, "", r.Snapshot(context.Background()))
		assert.Equal(t, 0, src.captures)
	})
	t.Run("no tab", func(t *testing.T) {
		src := &fakeSource{snapshot: "snap"}
		r := New(src, "x", nil)
		r.SetIncludeSnapshot()
		assert.Equal(t, "", r.Snapshot(context.Background()))
		assert.Equal(t, 0, src.captures)
	})
}

func TestSnapshotError(t *testing.T) {
	src := &fakeSource{hasTab: true, err: errors.New("target crashed")}
	r := New(src, "x", nil)
	r.SetIncludeSnapshot()
	assert.Contains(t, r.Snapshot(context.Background()), "target crashed")
}

func TestTabListingWithoutForce(t *testing.T) {
	src := &fakeSource{hasTab: true, snapshot: "snap"}
	r := New(src, "x", nil)
	r.SetIncludeSnapshot()
	out := r.Serialize(context.Background())
	assert.Equal(t, []bool{false}, src.forceSeen)
	assert.Equal(t, "snap\n", out.Text)
}

func TestOmitImages(t *testing.T) {
	r := New(nil, "shot", nil, WithOmitImages(true))
	r.AddImage(Image{ContentType: "image/jpeg", Data: []byte{9}})
	out := r.Serialize(context.Background())
	assert.Empty(t, out.Images)
	assert.Len(t, r.Images(), 1, "images stay available for the session log")
}
