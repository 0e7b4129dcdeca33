// Package server exposes the tool registry over JSON-RPC, on HTTP and
// WebSocket transports, behind a bearer-token authentication gate.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// Parse error: invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: the JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: the method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: internal JSON-RPC error
	ErrCodeServerError = -32000
)

// Server timeouts
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 60 * time.Second
	IdleTimeout  = 120 * time.Second
)

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// ToolCallParams are the parameters of the tools/call method.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Server binds the registry, the auth gate and the transports together. Each
// request is dispatched on its own goroutine with no shared mutable state.
type Server struct {
	registry   *Registry
	token      string
	enableCORS bool
	httpServer *http.Server
}

// NewServer builds a server. The token must be non-empty: the bridge never
// runs without its authentication gate.
func NewServer(registry *Registry, token string, enableCORS bool) (*Server, error) {
	if token == "" {
		return nil, fmt.Errorf("auth token is required; set one with 'droidbridge token set' or --token")
	}
	return &Server{
		registry:   registry,
		token:      token,
		enableCORS: enableCORS,
	}, nil
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler builds the full route table: banner, authenticated /rpc and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", sendBanner)
	mux.Handle("/rpc", authMiddleware(s.token, http.HandlerFunc(s.handleJSONRPC)))
	mux.Handle("/ws", authMiddleware(s.token, http.HandlerFunc(s.handleWebSocket)))

	var handler http.Handler = mux
	if s.enableCORS {
		handler = corsMiddleware(mux)
	}
	return handler
}

// ListenAndServe runs until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	// if host is missing, default to localhost
	if !strings.Contains(addr, ":") {
		port, err := strconv.Atoi(addr)
		if err != nil {
			return fmt.Errorf("invalid port: %v", err)
		}
		addr = fmt.Sprintf(":%d", port)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	log.Infof("starting server on http://%s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}

	if req.JSONRPC != "2.0" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'")
		return
	}

	if req.ID == nil {
		sendJSONRPCError(w, nil, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required")
		return
	}

	result, rpcErr := s.executeMethod(r.Context(), req)
	if rpcErr != nil {
		sendJSONRPCError(w, req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

type rpcError struct {
	code    int
	message string
	data    interface{}
}

// executeMethod runs one JSON-RPC method. Shared between the HTTP and
// WebSocket transports.
func (s *Server) executeMethod(ctx context.Context, req JSONRPCRequest) (interface{}, *rpcError) {
	reqID := uuid.NewString()
	start := time.Now()
	logger := log.WithFields(log.Fields{"req": reqID, "method": req.Method})

	switch req.Method {
	case "tools/list":
		logger.Debug("listing tools")
		return map[string]interface{}{"tools": s.registry.List()}, nil

	case "tools/call":
		var params ToolCallParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return nil, &rpcError{ErrCodeInvalidRequest, "Invalid Request", "'params' must be an object with 'name' and 'arguments'"}
			}
		}
		if params.Name == "" {
			return nil, &rpcError{ErrCodeInvalidRequest, "Invalid Request", "'name' is required"}
		}

		envelope := s.registry.Dispatch(ctx, params.Name, params.Arguments)
		logger.WithFields(log.Fields{
			"tool":     params.Name,
			"isError":  envelope.IsError,
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("tool call")
		return envelope, nil

	case "server.shutdown":
		logger.Info("shutdown requested")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Shutdown(ctx)
		}()
		return okResponse, nil

	case "":
		return nil, &rpcError{ErrCodeInvalidRequest, "Invalid Request", "'method' is required"}

	default:
		return nil, &rpcError{ErrCodeMethodNotFound, "Method not found", fmt.Sprintf("Method '%s' not found", req.Method)}
	}
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}
