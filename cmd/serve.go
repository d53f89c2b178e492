package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol (MCP) server exposing browser tools.

Supported transports:
  stdio             Standard I/O (default, for MCP clients that spawn the server)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  ui-test-mcp serve
  ui-test-mcp serve --headless --save-session --output-dir ./sessions
  ui-test-mcp serve --transport streamable-http --port 8931 --metrics-addr :9090
  ui-test-mcp serve --cdp-endpoint ws://localhost:9222 --caps pdf`,
	RunE: runServe,
}

// serveFlags maps each flag onto its configuration key.
var serveFlags = map[string]string{
	"transport":       "server.transport",
	"port":            "server.port",
	"metrics-addr":    "server.metrics_addr",
	"headless":        "browser.headless",
	"executable-path": "browser.executable_path",
	"cdp-endpoint":    "browser.cdp_endpoint",
	"user-data-dir":   "browser.user_data_dir",
	"stealth":         "browser.stealth",
	"no-sandbox":      "browser.no_sandbox",
	"allowed-origins": "network.allowed_origins",
	"blocked-origins": "network.blocked_origins",
	"caps":            "capabilities",
	"save-session":    "save_session",
	"save-trace":      "save_trace",
	"output-dir":      "output_dir",
	"image-responses": "image_responses",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.String("transport", "stdio", "Transport: stdio, streamable-http")
	f.Int("port", 8931, "HTTP port for streamable-http transport")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	f.Bool("headless", false, "Run the browser without a window")
	f.String("executable-path", "", "Chrome or Chromium binary to launch")
	f.String("cdp-endpoint", "", "Attach to a running browser at this DevTools endpoint instead of launching one")
	f.String("user-data-dir", "", "Browser profile directory (default: a temporary one)")
	f.Bool("stealth", false, "Hide common automation fingerprints")
	f.Bool("no-sandbox", false, "Disable the Chrome sandbox (containers, root)")
	f.StringSlice("allowed-origins", nil, "Only allow requests to these origins")
	f.StringSlice("blocked-origins", nil, "Block requests to these origins")
	f.StringSlice("caps", nil, "Extra tool capabilities to enable (pdf)")
	f.Bool("save-session", false, "Write a session log with every tool call and recorded user input")
	f.Bool("save-trace", false, "Capture a browser trace for each session")
	f.String("output-dir", "", "Directory for screenshots, PDFs, session logs and traces")
	f.String("image-responses", "allow", "Image parts in responses: allow, omit")
	for flag, key := range serveFlags {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory, err := platform.NewSessionFactory(cfg.Browser)
	if err != nil {
		return err
	}
	srv, err := newMCPServer(cfg, factory)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.Server.MetricsAddr != "" {
		metrics := startMetrics(cfg.Server.MetricsAddr)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = metrics.Shutdown(sctx)
		}()
	}

	serveErr := srv.serve(ctx)

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.close(sctx); err != nil {
		L_warn("shutdown: closing browser sessions failed", "error", err)
	}
	return serveErr
}

func startMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		L_info("metrics: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			L_error("metrics: server failed", "error", err)
		}
	}()
	return srv
}
