package session

import (
	"context"
	"testing"
	"time"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform/platformtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tabWithDialog(t *testing.T) (*Tab, *platformtest.Dialog) {
	t.Helper()
	c := newTestContext(&platformtest.Factory{})
	tab, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	d := &platformtest.Dialog{Kind: "confirm", Text: "Delete?"}
	tab.Page().(*platformtest.Page).Emit(platform.DialogOpened{Dialog: d})
	require.Eventually(t, func() bool { return len(tab.ModalStates()) == 1 }, time.Second, 5*time.Millisecond)
	return tab, d
}

func TestModalGate_NoModal(t *testing.T) {
	c := newTestContext(&platformtest.Factory{})
	tab, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	assert.NoError(t, tab.CheckModalGate("browser_snapshot", ModalNone))

	err = tab.CheckModalGate("browser_handle_dialog", ModalDialog)
	require.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Equal(t, "The tool \"browser_handle_dialog\" can only be used when there is related modal state present.\n"+
		"### Modal state\n"+
		"- There is no modal state present", err.Error())
}

func TestModalGate_DialogBlocksOtherTools(t *testing.T) {
	tab, _ := tabWithDialog(t)

	err := tab.CheckModalGate("browser_snapshot", ModalNone)
	require.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Equal(t, "Tool \"browser_snapshot\" does not handle the modal state.\n"+
		"### Modal state\n"+
		"- [\"confirm\" dialog with message \"Delete?\"]: can be handled by the \"browser_handle_dialog\" tool", err.Error())

	assert.NoError(t, tab.CheckModalGate("browser_handle_dialog", ModalDialog))

	err = tab.CheckModalGate("browser_file_upload", ModalFileChooser)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestTakeModalState(t *testing.T) {
	tab, d := tabWithDialog(t)

	state, err := tab.TakeModalState(ModalDialog)
	require.NoError(t, err)
	assert.Same(t, d, state.Dialog)
	assert.Empty(t, tab.ModalStates())

	_, err = tab.TakeModalState(ModalDialog)
	require.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "no dialog visible")

	_, err = tab.TakeModalState(ModalFileChooser)
	assert.Contains(t, err.Error(), "no file chooser visible")
}

func TestSnapshotWithModalShowsModalState(t *testing.T) {
	tab, _ := tabWithDialog(t)
	page := tab.Page().(*platformtest.Page)

	text, err := tab.CaptureSnapshot(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "### Modal state")
	assert.NotContains(t, text, "### Page state")
	assert.Equal(t, 0, page.Snapshots(), "a blocked page is not queried")
}

func TestFileChooserModal(t *testing.T) {
	c := newTestContext(&platformtest.Factory{})
	tab, err := c.EnsureTab(context.Background())
	require.NoError(t, err)

	fc := &platformtest.FileChooser{Many: true}
	tab.Page().(*platformtest.Page).Emit(platform.FileChooserOpened{Chooser: fc})
	require.Eventually(t, func() bool { return len(tab.ModalStates()) == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{
		"### Modal state",
		`- [File chooser]: can be handled by the "browser_file_upload" tool`,
	}, tab.ModalStatesMarkdown())
}
