// Package chromium drives Chrome and Chromium over the DevTools protocol
// using go-rod.
package chromium

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/ingpoc/ui-test-generation-mcp/internal/config"
	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
)

// Factory launches a browser per session, or opens an incognito context in
// an already running browser when a CDP endpoint is configured.
type Factory struct {
	cfg config.Browser
}

// NewFactory returns a Factory for cfg.
func NewFactory(cfg config.Browser) *Factory {
	return &Factory{cfg: cfg}
}

// CreateSession implements platform.SessionFactory.
func (f *Factory) CreateSession(ctx context.Context, client platform.ClientInfo) (platform.Session, error) {
	if f.cfg.CDPEndpoint != "" {
		return f.attach(ctx, client)
	}
	return f.launch(ctx, client)
}

func (f *Factory) launch(ctx context.Context, client platform.ClientInfo) (platform.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := newLauncher(f.cfg)
	L_debug("chromium: launching browser", "headless", f.cfg.Headless, "client", client.Name)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	L_info("chromium: launched", "controlURL", controlURL)

	s, err := newSession(browser, f.cfg.Stealth)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, err
	}
	s.launcher = l
	// A configured profile directory belongs to the user and survives.
	s.removeProfile = f.cfg.UserDataDir == ""
	return s, nil
}

func (f *Factory) attach(ctx context.Context, client platform.ClientInfo) (platform.Session, error) {
	L_info("chromium: connecting to browser", "endpoint", f.cfg.CDPEndpoint, "client", client.Name)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser := rod.New().ControlURL(f.cfg.CDPEndpoint).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser at %s: %w", f.cfg.CDPEndpoint, err)
	}
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	return newSession(incognito, f.cfg.Stealth)
}

// newLauncher configures Chrome the same way for every launched session.
func newLauncher(cfg config.Browser) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-dev-shm-usage")
	if cfg.ExecutablePath != "" {
		l = l.Bin(cfg.ExecutablePath)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if !cfg.Headless {
		l = l.Set("window-size", "1280,720")
	}
	if cfg.Stealth {
		l = l.Set("disable-blink-features", "AutomationControlled")
	}
	if cfg.NoSandbox {
		l = l.Set("no-sandbox")
	}
	return l
}
