package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/plate-reader/internal/enhance"
	"github.com/ironsheep/plate-reader/internal/imaging"
	"github.com/ironsheep/plate-reader/internal/logging"
	"github.com/ironsheep/plate-reader/internal/service"
)

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	plates   *service.Plates
	enhancer enhance.Enhancer
	variants *enhance.Variants
	logger   *logging.Logger
	version  string
}

// Options configure a Server.
type Options struct {
	Version string
	Logger  *logging.Logger
	// Variants renders the plate_variants tool. Defaults to
	// enhance.NewVariants(enhancer).
	Variants *enhance.Variants
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

// New creates a new MCP server over the plate service. enhancer backs the
// plate_enhance and plate_variants tools.
func New(plates *service.Plates, enhancer enhance.Enhancer, opts Options) *Server {
	s := &Server{
		cache:    imaging.NewImageCache(),
		plates:   plates,
		enhancer: enhancer,
		variants: opts.Variants,
		logger:   opts.Logger,
		version:  opts.Version,
	}
	if s.variants == nil {
		s.variants = enhance.NewVariants(enhancer)
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.version == "" {
		s.version = "dev"
	}
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout until
// stdin closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve processes newline-delimited JSON-RPC requests from r until EOF or
// until ctx is cancelled, writing responses to w. Cancellation is a clean
// shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	// Reads block, so scanning runs apart from the request loop.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
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

	encoder := json.NewEncoder(w)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down", "reason", ctx.Err())
			return nil
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
			s.handleLine(ctx, encoder, line)
		}
	}
}

func (s *Server) handleLine(ctx context.Context, encoder *json.Encoder, line []byte) {
	if len(line) == 0 {
		return
	}

	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("failed to parse request", "error", err)
		if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
		return
	}

	resp := s.handleRequest(ctx, &req)
	if resp != nil {
		if err := encoder.Encode(resp); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", "method", req.Method, "id", req.ID)

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
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
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
				"name":    "plate-reader",
				"version": s.version,
			},
		},
	}
}
