package platform

import "context"

// SessionFactory launches or attaches to a browser and returns an isolated session.
type SessionFactory interface {
	CreateSession(ctx context.Context, client ClientInfo) (Session, error)
}

// Session is one isolated browser context holding zero or more pages.
type Session interface {
	// Pages returns the pages already open in the session.
	Pages(ctx context.Context) ([]Page, error)

	// NewPage opens a blank page. The page is also announced through Subscribe.
	NewPage(ctx context.Context) (Page, error)

	// Subscribe delivers session-level events until the subscription is closed.
	Subscribe(buffer int) *Subscription[SessionEvent]

	// SetRequestRules installs origin filtering for every page in the session.
	SetRequestRules(ctx context.Context, rules RequestRules) error

	// Record installs the input recorder and streams what the user does in the pages.
	Record(ctx context.Context) (*Subscription[RecorderEvent], error)

	StartTracing(ctx context.Context, opts TraceOptions) error
	StopTracing(ctx context.Context) error

	// Close tears the session down. Closing twice is a no-op.
	Close(ctx context.Context) error
}

// Page is one top-level document in a session.
type Page interface {
	ID() string
	URL() string
	Title(ctx context.Context) (string, error)

	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error

	// WaitLoad blocks until the current document fired its load event.
	WaitLoad(ctx context.Context) error

	BringToFront(ctx context.Context) error
	Close(ctx context.Context) error

	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)
	PDF(ctx context.Context) ([]byte, error)

	// Evaluate runs a JavaScript function expression and returns its result
	// rendered as indented JSON, or "undefined".
	Evaluate(ctx context.Context, function string) (string, error)

	PressKey(ctx context.Context, key string) error

	// WaitForText waits for text to appear, or to disappear when gone is set.
	WaitForText(ctx context.Context, text string, gone bool) error

	// AriaSnapshot renders the accessibility tree of the page as YAML.
	AriaSnapshot(ctx context.Context) (string, error)

	// Subscribe delivers page events until the subscription is closed.
	Subscribe(buffer int) *Subscription[Event]
}

// Dialog is a pending alert, confirm, prompt or beforeunload dialog.
type Dialog interface {
	Type() string
	Message() string
	Accept(ctx context.Context, promptText string) error
	Dismiss(ctx context.Context) error
}

// FileChooser is a pending file selection opened by the page.
type FileChooser interface {
	Multiple() bool
	SetFiles(ctx context.Context, paths []string) error
}
