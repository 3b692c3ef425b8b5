package mcptools

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nerrad567/smarthome-core/internal/outlet"
)

// Tool names exposed by the server.
const (
	ToolOutletOn    = "outlet_on"
	ToolOutletOff   = "outlet_off"
	ToolOutletInfo  = "outlet_info"
	ToolOutletState = "outlet_state"
	ToolOutletUndo  = "outlet_undo"
)

// Outlet is a switchable outlet that can also describe itself.
// outlet.Client satisfies it.
type Outlet interface {
	outlet.Switch
	Info(ctx context.Context) (string, error)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Server.
type Options struct {
	// Name and Version are reported to MCP clients on initialize.
	Name    string
	Version string

	// HistoryLimit bounds the undo history. Zero selects the outlet default.
	HistoryLimit int

	Logger Logger
}

// Server exposes outlet operations as MCP tools.
// Switches made through the tools can be undone with outlet_undo.
type Server struct {
	outlet  Outlet
	history *outlet.History
	mcp     *server.MCPServer
	logger  Logger
}

// New creates a tool server controlling o.
func New(o Outlet, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "smarthome-outlet"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		outlet:  o,
		history: outlet.NewHistory(opts.HistoryLimit),
		mcp:     server.NewMCPServer(opts.Name, opts.Version, server.WithRecovery()),
		logger:  opts.Logger,
	}
	if opts.Logger != nil {
		s.history.SetLogger(opts.Logger)
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// History returns the undo history shared by the switching tools.
func (s *Server) History() *outlet.History {
	return s.history
}

// Serve speaks MCP over in/out until ctx is cancelled or in is exhausted.
// Transport errors are logged to errLog.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer, errLog *log.Logger) error {
	stdio := server.NewStdioServer(s.mcp)
	if errLog != nil {
		stdio.SetErrorLogger(errLog)
	}
	s.logInfo("MCP server listening on stdio")
	defer s.logInfo("MCP server stopped")

	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolOutletOn,
		mcp.WithDescription("Switch the smart outlet on and return its info"),
		mcp.WithIdempotentHintAnnotation(true),
	), s.handleOn)

	s.mcp.AddTool(mcp.NewTool(ToolOutletOff,
		mcp.WithDescription("Switch the smart outlet off and return its info"),
		mcp.WithIdempotentHintAnnotation(true),
	), s.handleOff)

	s.mcp.AddTool(mcp.NewTool(ToolOutletInfo,
		mcp.WithDescription("Describe the smart outlet: name, description, state and power"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleInfo)

	s.mcp.AddTool(mcp.NewTool(ToolOutletState,
		mcp.WithDescription(`Report whether the smart outlet is "on" or "off"`),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleState)

	s.mcp.AddTool(mcp.NewTool(ToolOutletUndo,
		mcp.WithDescription("Undo the most recent switch made through these tools"),
	), s.handleUndo)
}

func (s *Server) handleOn(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result(s.history.Execute(ctx, outlet.NewTurnOnAction(s.outlet)))
}

func (s *Server) handleOff(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result(s.history.Execute(ctx, outlet.NewTurnOffAction(s.outlet)))
}

func (s *Server) handleInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result(s.outlet.Info(ctx))
}

func (s *Server) handleState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	on, err := s.outlet.State(ctx)
	if err != nil {
		return s.result("", err)
	}
	if on {
		return s.result("on", nil)
	}
	return s.result("off", nil)
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result(s.history.Undo(ctx))
}

// result turns an outlet reply into a tool result. Outlet failures are
// reported to the model as tool errors, not protocol errors.
func (s *Server) result(text string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("outlet tool failed", "error", err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) logInfo(msg string) {
	if s.logger != nil {
		s.logger.Info(msg)
	}
}
