// Package sessionlog writes the durable markdown log of a session: every
// command with its arguments, result and generated code, and every action the
// user performed by hand in the browser, with snapshots and screenshots saved
// as numbered side files.
package sessionlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/output"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
)

// DefaultNavigationSuppression is how soon after a log write a recorded
// navigation is taken to be the command's own navigation.
const DefaultNavigationSuppression = time.Second

const logFile = "session.md"

// RecordedAction is one action the user performed in the browser.
type RecordedAction struct {
	TabID        string
	Name         string
	URL          string
	Code         string
	AriaSnapshot string
	Timestamp    time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithNavigationSuppression overrides DefaultNavigationSuppression.
func WithNavigationSuppression(d time.Duration) Option {
	return func(l *Log) { l.suppress = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// Log is an append-only session log. Side files share one ordinal sequence
// across commands and recorded actions.
type Log struct {
	dir      string
	file     string
	suppress time.Duration
	now      func() time.Time

	mu        sync.Mutex
	ordinal   int
	lastWrite time.Time
}

// New creates a fresh session-<unix-ms> directory under root with an empty
// session.md.
func New(root string, opts ...Option) (*Log, error) {
	l := &Log{suppress: DefaultNavigationSuppression, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	l.dir = filepath.Join(root, fmt.Sprintf("session-%d", l.now().UnixMilli()))
	l.file = filepath.Join(l.dir, logFile)
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(l.file, nil, 0o644); err != nil {
		return nil, fmt.Errorf("create session log: %w", err)
	}
	L_info("session log created", "dir", l.dir)
	return l, nil
}

// Dir returns the session directory.
func (l *Log) Dir() string { return l.dir }

// File returns the path of session.md.
func (l *Log) File() string { return l.file }

// LogResponse appends one block describing a finished command.
func (l *Log) LogResponse(ctx context.Context, r *response.Response) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastWrite = l.now()
	prefix := l.nextPrefix()

	args := r.ToolArgs()
	if args == nil {
		args = map[string]any{}
	}
	argsJSON, err := output.JSON(args, true)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	lines := []string{
		"### Tool call: " + r.ToolName(),
		"- Args",
		"```json",
		argsJSON,
		"```",
	}
	if result := r.Result(); result != "" {
		label := "- Result"
		if r.IsError() {
			label = "- Error"
		}
		lines = append(lines, label, "```", result, "```")
	}
	if code := r.Code(); code != "" {
		lines = append(lines, "- Code", "```js", code, "```")
	}
	if snapshot := r.Snapshot(ctx); snapshot != "" {
		name := prefix + ".snapshot.yml"
		if err := l.writeSide(name, []byte(snapshot)); err != nil {
			return err
		}
		lines = append(lines, "- Snapshot: "+name)
	}
	for _, img := range r.Images() {
		name := prefix + ".screenshot." + extension(img)
		if err := l.writeSide(name, img.Data); err != nil {
			return err
		}
		lines = append(lines, "- Screenshot: "+name)
	}
	lines = append(lines, "", "", "")
	return l.appendLines(lines)
}

// LogActions appends one block per recorded action. A batch led by a
// navigation that arrived right after the previous write is dropped: it is
// the navigation the last command caused, not a new user action.
func (l *Log) LogActions(actions []RecordedAction) error {
	if len(actions) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if actions[0].Name == "navigate" && actions[0].Timestamp.Sub(l.lastWrite) < l.suppress {
		L_debug("recorded navigation suppressed", "url", actions[0].URL)
		return nil
	}

	l.lastWrite = l.now()
	var lines []string
	for _, a := range actions {
		prefix := l.nextPrefix()
		lines = append(lines, "### User action: "+a.Name)
		if a.Code != "" {
			lines = append(lines, "- Code", "```js", a.Code, "```")
		}
		if a.AriaSnapshot != "" {
			name := prefix + ".snapshot.yml"
			if err := l.writeSide(name, []byte(a.AriaSnapshot)); err != nil {
				return err
			}
			lines = append(lines, "- Snapshot: "+name)
		}
		lines = append(lines, "", "", "")
	}
	return l.appendLines(lines)
}

func (l *Log) nextPrefix() string {
	l.ordinal++
	return fmt.Sprintf("%03d", l.ordinal)
}

func (l *Log) writeSide(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (l *Log) appendLines(lines []string) error {
	f, err := os.OpenFile(l.file, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	return nil
}

// extension picks the side-file extension for an image, sniffing the bytes
// when the content type is unknown.
func extension(img response.Image) string {
	ct := img.ContentType
	if ct == "" {
		ct = mimetype.Detect(img.Data).String()
	}
	if ct == "image/jpeg" {
		return "jpg"
	}
	return "png"
}
