package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/focus-narrator/internal/focus"
	"github.com/ironsheep/focus-narrator/internal/logging"
	"github.com/ironsheep/focus-narrator/internal/recovery"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeQueueFull      = -32000
)

// Backend is the running engine as seen by the server. Every method must be
// safe to call from the server goroutine.
type Backend interface {
	Enqueue(cmd focus.Command) bool
	Snapshot() focus.Snapshot
}

// HistoryBackend is implemented by backends that expose focus transitions.
type HistoryBackend interface {
	History() []focus.Transition
}

// StatusBackend is implemented by backends that expose queue and recovery
// counters.
type StatusBackend interface {
	Dropped() int64
	Pending() int
	RecoveryStatus() []recovery.Status
}

// Server reads commands from a line-delimited JSON-RPC stream and hands
// them to the backend. It never touches loop-owned state.
type Server struct {
	backend Backend
	version string
	logger  *zap.SugaredLogger
}

// Request is an incoming JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is a JSON-RPC error.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New returns a server feeding backend.
func New(backend Backend, version string, logger *zap.SugaredLogger) *Server {
	return &Server{backend: backend, version: version, logger: logging.OrNop(logger)}
}

// Run serves requests from r, writing responses to w, until r is exhausted
// or ctx is done. Malformed lines get a parse error response.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp *Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Debugw("failed to parse request", "error", err)
			resp = s.errorResponse(nil, CodeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(&req)
		}

		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				return errors.Wrap(err, "failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scanner error")
	}
	return nil
}

// handleRequest routes requests to their handlers. Requests without an ID
// are notifications and get no response.
func (s *Server) handleRequest(req *Request) *Response {
	var resp *Response
	switch req.Method {
	case "initialize":
		resp = s.handleInitialize(req)
	case "ping":
		resp = s.result(req.ID, map[string]interface{}{})
	case "commands/list":
		resp = s.result(req.ID, map[string]interface{}{"commands": CommandDefinitions()})
	case "command":
		resp = s.handleCommand(req)
	case "pointer":
		resp = s.handlePointer(req)
	case "status":
		resp = s.handleStatus(req)
	case "history":
		resp = s.handleHistory(req)
	default:
		resp = s.errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
	if req.ID == nil {
		return nil
	}
	return resp
}

func (s *Server) handleInitialize(req *Request) *Response {
	return s.result(req.ID, map[string]interface{}{
		"serverInfo": map[string]interface{}{
			"name":    "focus-narrator",
			"version": s.version,
		},
		"methods": []string{"ping", "commands/list", "command", "pointer", "status", "history"},
	})
}

func (s *Server) result(id, result interface{}) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}
