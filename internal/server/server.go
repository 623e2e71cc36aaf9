package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/config"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/imaging"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/labels"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/marker"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/report"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/session"
)

// ServerName is reported in the initialize handshake.
const ServerName = "plantroi-mcp"

// Version is reported in the initialize handshake; main overrides it.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	session  *session.Session
	exporter report.Exporter
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server with one analysis session wired to the collaborators
// named in cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := session.Options{
		Threshold:       cfg.Analysis.Threshold,
		Regression:      cfg.Regression(),
		PixelsPerUnit:   cfg.Analysis.PixelsPerUnit,
		HandleTolerance: cfg.Analysis.HandleTolerance,
		MarkerSize:      cfg.Vision.MarkerSize,
		JPEGQuality:     cfg.Vision.JPEGQuality,
		AutoStraighten:  cfg.Vision.AutoStraighten,
		Labels:          &labels.Tesseract{Language: cfg.Labels.Language, TessdataPrefix: cfg.Labels.TessdataPrefix},
		LabelPadding:    cfg.Labels.Padding,
		Cache:           imaging.NewImageCache(),
		Logger:          logger.With("component", "session"),
	}

	if cfg.Vision.URL != "" {
		opts.Detector = marker.NewHTTPDetector(cfg.Vision.URL, cfg.Vision.Timeout.D())
	} else if local := marker.Local(); local != nil {
		opts.Detector = local
	}

	if cfg.Narrative.URL != "" {
		n, err := report.NewOllamaNarrator(cfg.Narrative.URL, cfg.Narrative.Model, cfg.Narrative.Timeout.D())
		if err != nil {
			logger.Warn("narrative generation disabled", "error", err)
		} else {
			opts.Narrator = n
		}
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		session:  session.New(opts),
		exporter: report.DirExporter{Dir: cfg.Export.Dir},
	}
}

// Session returns the server's analysis session.
func (s *Server) Session() *session.Session { return s.session }

// Run reads requests from in and writes responses to out until in is
// exhausted or ctx is cancelled. Requests and async completions are handled
// on this goroutine; the session scheduler ticks after each of them.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	defer s.session.Close()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c := <-s.session.Completions():
			s.session.Apply(c)
			s.session.Tick()

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("scanner error: %w", err)
					}
				default:
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.logger.Warn("failed to parse request", "error", err)
				continue
			}

			start := time.Now()
			resp := s.handleRequest(ctx, &req)
			s.session.Tick()
			s.logger.Debug("request handled", "method", req.Method, "elapsed", time.Since(start))

			if resp != nil {
				if err := encoder.Encode(resp); err != nil {
					s.logger.Error("failed to encode response", "error", err)
				}
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": Version,
			},
		},
	}
}
