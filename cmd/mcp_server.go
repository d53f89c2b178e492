package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/ingpoc/ui-test-generation-mcp/internal/completion"
	"github.com/ingpoc/ui-test-generation-mcp/internal/config"
	"github.com/ingpoc/ui-test-generation-mcp/internal/dispatch"
	. "github.com/ingpoc/ui-test-generation-mcp/internal/logging"
	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"github.com/ingpoc/ui-test-generation-mcp/internal/response"
	"github.com/ingpoc/ui-test-generation-mcp/internal/session"
	"github.com/ingpoc/ui-test-generation-mcp/internal/sessionlog"
	"github.com/ingpoc/ui-test-generation-mcp/internal/tools"
	"github.com/ingpoc/ui-test-generation-mcp/internal/version"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const serverName = "ui-test-mcp"

// mcpServer wires one browser session context to the MCP transport.
type mcpServer struct {
	cfg        config.Config
	registry   *session.Registry
	session    *session.Context
	dispatcher *dispatch.Dispatcher
	recorder   *sessionlog.InputRecorder
	mcp        *mcpserver.MCPServer
}

// newMCPServer builds the session context, the tool catalog and the MCP
// server that exposes it.
func newMCPServer(cfg config.Config, factory platform.SessionFactory) (*mcpServer, error) {
	s := &mcpServer{cfg: cfg, registry: session.NewRegistry()}

	outputDir := cfg.SessionDir()
	opts := session.Options{
		Rules: platform.RequestRules{
			Allowed: cfg.Network.AllowedOrigins,
			Blocked: cfg.Network.BlockedOrigins,
		},
		SaveTrace:   cfg.SaveTrace,
		TraceDir:    filepath.Join(outputDir, "traces"),
		LoadTimeout: cfg.Timeouts.Load,
		Detector: completion.New(completion.Options{
			Timeout:     cfg.Timeouts.Action,
			Settle:      cfg.Timeouts.Settle,
			LoadTimeout: cfg.Timeouts.Load,
		}),
	}

	var log *sessionlog.Log
	if cfg.SaveSession {
		var err error
		log, err = sessionlog.New(outputDir, sessionlog.WithNavigationSuppression(cfg.Timeouts.NavigationSuppression))
		if err != nil {
			return nil, err
		}
		s.recorder = sessionlog.NewInputRecorder(log, cfg.Timeouts.RecorderIdle)
		opts.Recorder = s.recorder
		opts.TraceDir = log.Dir()
	}

	s.session = session.NewContext(factory, opts)
	s.registry.Add(s.session)

	catalog := tools.Filter(tools.All(), cfg.Capabilities)
	s.session.SetModalHandlers(tools.ModalHandlers(catalog))
	env := &tools.Env{Session: s.session, OutputDir: outputDir, WaitTimeout: cfg.Timeouts.WaitFor}
	dopts := dispatch.Options{OmitImages: cfg.OmitImages()}
	if log != nil {
		dopts.Log = log
	}
	s.dispatcher = dispatch.New(catalog, env, dopts)

	hooks := &mcpserver.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, res *mcp.InitializeResult) {
		client := req.Params.ClientInfo
		L_info("mcp: client initialized", "client", client.Name, "version", client.Version)
		s.session.SetClientInfo(platform.ClientInfo{Name: client.Name, Version: client.Version, RootDir: outputDir})
	})
	s.mcp = mcpserver.NewMCPServer(serverName, version.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithHooks(hooks),
	)
	s.registerTools()
	return s, nil
}

func (s *mcpServer) registerTools() {
	for _, t := range s.dispatcher.Tools() {
		s.mcp.AddTool(t.Schema, s.handler(t.Name()))
	}
}

// handler adapts one tool to the MCP handler signature.
func (s *mcpServer) handler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.call(ctx, name, request.GetArguments()), nil
	}
}

// call runs a tool. Unknown tools come back as an error result rather than
// a protocol error.
func (s *mcpServer) call(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	out, err := s.dispatcher.Call(ctx, name, args)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("### Result\nError: " + err.Error())},
			IsError: true,
		}
	}
	return toCallToolResult(out)
}

func toCallToolResult(out response.Serialized) *mcp.CallToolResult {
	res := &mcp.CallToolResult{IsError: out.IsError}
	res.Content = append(res.Content, mcp.NewTextContent(out.Text))
	for _, img := range out.Images {
		res.Content = append(res.Content, mcp.NewImageContent(base64.StdEncoding.EncodeToString(img.Data), img.ContentType))
	}
	return res
}

// serve runs the configured transport until it stops or ctx is cancelled.
func (s *mcpServer) serve(ctx context.Context) error {
	switch s.cfg.Server.Transport {
	case config.TransportStdio:
		L_info("mcp: serving on stdio")
		return mcpserver.ServeStdio(s.mcp)
	case config.TransportHTTP:
		addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = httpServer.Shutdown(sctx)
		}()
		L_info("mcp: serving streamable http", "addr", addr)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", s.cfg.Server.Transport)
	}
}

// close disposes every browser session and stops the input recorder.
func (s *mcpServer) close(ctx context.Context) error {
	err := s.registry.DisposeAll(ctx)
	if s.recorder != nil {
		s.recorder.Close()
	}
	return err
}
