package platform

import (
	"net/url"
	"strings"
	"time"
)

// ClientInfo describes the MCP client that triggered session creation.
type ClientInfo struct {
	Name    string
	Version string
	// RootDir is where relative artifacts (traces, downloads) are placed.
	RootDir string
}

// ImageFormat is the encoding of a captured screenshot.
type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

// ContentType returns the MIME type for the format.
func (f ImageFormat) ContentType() string {
	if f == ImageJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// ScreenshotOptions controls page capture.
type ScreenshotOptions struct {
	Format   ImageFormat
	Quality  int  // JPEG quality 1-100 (0 = encoder default)
	FullPage bool // Capture the whole scrollable page
}

// TraceOptions controls trace capture.
type TraceOptions struct {
	Dir        string   // Directory the trace file is written to
	Categories []string // Trace categories (empty = defaults)
}

// RequestRules restricts which origins pages may talk to.
type RequestRules struct {
	Allowed []string
	Blocked []string
}

// Empty reports whether the rules filter nothing.
func (r RequestRules) Empty() bool {
	return len(r.Allowed) == 0 && len(r.Blocked) == 0
}

// Allows reports whether a request to rawURL may proceed. A blocked origin
// always loses; with an allow-list, everything not listed is blocked.
func (r RequestRules) Allows(rawURL string) bool {
	target, ok := parseOrigin(rawURL)
	if !ok {
		return len(r.Allowed) == 0
	}
	for _, b := range r.Blocked {
		if matchOrigin(b, target) {
			return false
		}
	}
	if len(r.Allowed) == 0 {
		return true
	}
	for _, a := range r.Allowed {
		if matchOrigin(a, target) {
			return true
		}
	}
	return false
}

type origin struct {
	host string
	port string
}

// parseOrigin extracts the lowercased host and the explicit port of a URL
// or of a bare host[:port] rule.
func parseOrigin(raw string) (origin, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return origin{}, false
	}
	return origin{host: strings.ToLower(u.Hostname()), port: u.Port()}, true
}

// matchOrigin matches a configured origin against a request origin. A rule
// without a port matches any port on that host.
func matchOrigin(rule string, target origin) bool {
	o, ok := parseOrigin(rule)
	if !ok || o.host != target.host {
		return false
	}
	return o.port == "" || o.port == target.port
}

// Event is anything a page publishes.
type Event interface {
	pageEvent()
}

// RequestStarted is published when the page issues a network request.
type RequestStarted struct {
	ID     string
	Method string
	URL    string
	// Redirect is set when this request follows a redirect of an earlier
	// request with the same ID; it carries that hop's response.
	Redirect *RequestFinished
}

// RequestFinished is published when a request completes or fails.
type RequestFinished struct {
	ID         string
	Status     int
	StatusText string
	Failed     bool
}

// FrameNavigated is published when any frame of the page commits a navigation.
type FrameNavigated struct {
	URL       string
	MainFrame bool
}

// DialogOpened is published when the page opens a JavaScript dialog.
type DialogOpened struct {
	Dialog Dialog
}

// FileChooserOpened is published when the page opens a file picker.
type FileChooserOpened struct {
	Chooser FileChooser
}

// ConsoleMessage is published for every console API call.
type ConsoleMessage struct {
	Type string
	Text string
}

// PageClosed is published once when the page goes away.
type PageClosed struct{}

func (RequestStarted) pageEvent()    {}
func (RequestFinished) pageEvent()   {}
func (FrameNavigated) pageEvent()    {}
func (DialogOpened) pageEvent()      {}
func (FileChooserOpened) pageEvent() {}
func (ConsoleMessage) pageEvent()    {}
func (PageClosed) pageEvent()        {}

// SessionEvent is published by a session.
type SessionEvent struct {
	PageCreated Page
}

// RecorderEventKind discriminates recorder events.
type RecorderEventKind int

const (
	ActionAdded RecorderEventKind = iota
	ActionUpdated
	SignalAdded
)

func (k RecorderEventKind) String() string {
	switch k {
	case ActionAdded:
		return "actionAdded"
	case ActionUpdated:
		return "actionUpdated"
	case SignalAdded:
		return "signalAdded"
	default:
		return "unknown"
	}
}

// RecorderEvent is one observation of the user driving a page by hand.
type RecorderEvent struct {
	Kind   RecorderEventKind
	PageID string
	// Name is the action name (click, fill, press) or the signal name (navigation).
	Name         string
	URL          string
	Code         string
	AriaSnapshot string
	Time         time.Time
}
