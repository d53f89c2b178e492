package session

import (
	"fmt"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// ModalKind names a blocking page state.
type ModalKind string

const (
	ModalNone        ModalKind = ""
	ModalDialog      ModalKind = "dialog"
	ModalFileChooser ModalKind = "fileChooser"
)

// ModalState is a pending dialog or file chooser. The page stays blocked
// until a command resolves it.
type ModalState struct {
	Kind        ModalKind
	Description string
	Dialog      platform.Dialog
	FileChooser platform.FileChooser
}

func dialogState(d platform.Dialog) ModalState {
	return ModalState{
		Kind:        ModalDialog,
		Description: fmt.Sprintf(`"%s" dialog with message "%s"`, d.Type(), d.Message()),
		Dialog:      d,
	}
}

func fileChooserState(c platform.FileChooser) ModalState {
	return ModalState{Kind: ModalFileChooser, Description: "File chooser", FileChooser: c}
}

// ModalStates returns a copy of the pending modal states, oldest first.
func (t *Tab) ModalStates() []ModalState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ModalState(nil), t.modals...)
}

func (t *Tab) hasModal(kind ModalKind) bool {
	for _, m := range t.modals {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// ModalStatesMarkdown lists the pending modal states and the tool that
// resolves each one.
func (t *Tab) ModalStatesMarkdown() []string {
	states := t.ModalStates()
	lines := []string{"### Modal state"}
	if len(states) == 0 {
		lines = append(lines, "- There is no modal state present")
	}
	for _, s := range states {
		lines = append(lines, fmt.Sprintf(`- [%s]: can be handled by the "%s" tool`, s.Description, t.owner.modalHandler(s.Kind)))
	}
	return lines
}

// CheckModalGate decides whether tool may run on this tab. A tool that
// resolves a modal kind requires that kind to be pending; any other tool is
// rejected while any modal state is pending.
func (t *Tab) CheckModalGate(tool string, clears ModalKind) error {
	t.mu.Lock()
	pending := len(t.modals) > 0
	has := clears != ModalNone && t.hasModal(clears)
	t.mu.Unlock()

	switch {
	case clears != ModalNone && !has:
		return t.gateError(fmt.Sprintf(`The tool "%s" can only be used when there is related modal state present.`, tool))
	case clears == ModalNone && pending:
		return t.gateError(fmt.Sprintf(`Tool "%s" does not handle the modal state.`, tool))
	}
	return nil
}

func (t *Tab) gateError(head string) error {
	msg := head
	for _, line := range t.ModalStatesMarkdown() {
		msg += "\n" + line
	}
	return &gateError{msg: msg}
}

// TakeModalState removes and returns the oldest pending state of kind. The
// caller owns the resolution: no other command can take the same state.
func (t *Tab) TakeModalState(kind ModalKind) (ModalState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, m := range t.modals {
		if m.Kind == kind {
			t.modals = append(t.modals[:i], t.modals[i+1:]...)
			return m, nil
		}
	}
	switch kind {
	case ModalDialog:
		return ModalState{}, fmt.Errorf("no dialog visible: %w", ErrPreconditionFailed)
	case ModalFileChooser:
		return ModalState{}, fmt.Errorf("no file chooser visible: %w", ErrPreconditionFailed)
	}
	return ModalState{}, fmt.Errorf("no %s visible: %w", kind, ErrPreconditionFailed)
}
