// Package completion decides when the effects of a page action have settled.
//
// A wait observes network requests and main-frame navigations raised while
// the action runs. It unblocks when no requests are left in flight, when the
// page finished loading after a navigation, or when the timeout fires,
// whichever comes first, and then sleeps for a short settle period.
package completion

import (
	"context"
	"fmt"
	"time"

	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// Target is what a wait observes: a page, or a tab relaying its page's events.
type Target interface {
	Subscribe(buffer int) *platform.Subscription[platform.Event]
	WaitLoad(ctx context.Context) error
}

// Outcome is how a wait ended.
type Outcome int

const (
	// Failed means the action returned an error.
	Failed Outcome = iota
	// Quiescent means every request the action started has finished.
	Quiescent
	// Navigated means the main frame navigated and finished loading.
	Navigated
	// TimedOut means requests were still in flight when the timeout fired.
	TimedOut
	// ModalOpened means the page opened a dialog or file chooser and is
	// blocked until a command resolves it.
	ModalOpened
)

func (o Outcome) String() string {
	switch o {
	case Quiescent:
		return "quiescent"
	case Navigated:
		return "navigated"
	case TimedOut:
		return "timed_out"
	case ModalOpened:
		return "modal_opened"
	default:
		return "failed"
	}
}

// Options tunes a Detector.
type Options struct {
	// Timeout bounds the wait for in-flight requests.
	Timeout time.Duration
	// Settle is slept after unblocking.
	Settle time.Duration
	// LoadTimeout bounds the wait for the load event after a navigation.
	LoadTimeout time.Duration
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{Timeout: 10 * time.Second, Settle: time.Second, LoadTimeout: 5 * time.Second}
}

// Detector runs actions and waits for their completion.
type Detector struct {
	opts Options
}

// New returns a Detector. Zero option fields take their defaults.
func New(opts Options) *Detector {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = def.LoadTimeout
	}
	return &Detector{opts: opts}
}

// Options returns the effective options.
func (d *Detector) Options() Options { return d.opts }

// Wait runs fn and blocks until its effects on target have settled. An error
// from fn is returned at once without settling. Timing out is an outcome,
// not an error.
//
// fn has returned by the time Wait reports Quiescent, Navigated or TimedOut.
// On ModalOpened, or when ctx ends, fn may still be running: it must not
// write to anything the caller reads afterwards.
func (d *Detector) Wait(ctx context.Context, target Target, fn func(context.Context) error) (Outcome, error) {
	start := time.Now()
	outcome, err := d.wait(ctx, target, fn)
	observe(outcome, time.Since(start))
	L_elapsed(start, "action completed", "outcome", outcome)
	return outcome, err
}

func (d *Detector) wait(ctx context.Context, target Target, fn func(context.Context) error) (Outcome, error) {
	sub := target.Subscribe(0)
	defer sub.Close()

	timer := time.NewTimer(d.opts.Timeout)
	defer timer.Stop()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("action panicked: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	var (
		events    = sub.Events()
		timeout   = timer.C
		loadDone  chan error
		inFlight  = make(map[string]struct{})
		actionEnd bool
		quiesced  bool
		navigated bool
		timedOut  bool
	)

	for !actionEnd || !quiesced {
		select {
		case err := <-done:
			if err != nil {
				return Failed, err
			}
			actionEnd = true
			if len(inFlight) == 0 && !navigated {
				quiesced = true
			}

		case e, ok := <-events:
			if !ok {
				// Page went away; nothing more will settle.
				events = nil
				quiesced = true
				continue
			}
			switch ev := e.(type) {
			case platform.RequestStarted:
				if !navigated {
					inFlight[ev.ID] = struct{}{}
				}
			case platform.RequestFinished:
				if navigated {
					continue
				}
				delete(inFlight, ev.ID)
				if len(inFlight) == 0 {
					quiesced = true
				}
			case platform.FrameNavigated:
				if !ev.MainFrame || navigated {
					continue
				}
				navigated = true
				inFlight = nil
				quiesced = false
				timer.Stop()
				timeout = nil
				loaded := make(chan error, 1)
				loadDone = loaded
				go func() {
					lctx, cancel := context.WithTimeout(ctx, d.opts.LoadTimeout)
					defer cancel()
					loaded <- target.WaitLoad(lctx)
				}()
			case platform.DialogOpened, platform.FileChooserOpened:
				return ModalOpened, nil
			case platform.PageClosed:
				events = nil
				quiesced = true
			}

		case <-timeout:
			timedOut = true
			quiesced = true
			timeout = nil

		case err := <-loadDone:
			if err != nil {
				L_debug("load wait ended early", "error", err)
			}
			loadDone = nil
			quiesced = true

		case <-ctx.Done():
			return Failed, ctx.Err()
		}
	}

	outcome := Quiescent
	switch {
	case timedOut:
		outcome = TimedOut
	case navigated:
		outcome = Navigated
	}

	if d.opts.Settle > 0 {
		settle := time.NewTimer(d.opts.Settle)
		defer settle.Stop()
		select {
		case <-settle.C:
		case <-ctx.Done():
			return outcome, ctx.Err()
		}
	}
	return outcome, nil
}
