package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

// Protocol and server identity reported by initialize.
const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "reddit-mcp-server"
	ServerVersion   = "1.0.0"
)

// Server is the main MCP server implementation.
// It reads requests from the transport, implements the MCP methods and hands
// tool calls to the router.
type Server struct {
	transport domain.Transport
	router    *RequestRouter
	config    *domain.Config
	logger    *logging.StructuredLogger
	done      chan struct{}
}

// NewServer creates a new MCP server instance.
func NewServer(transport domain.Transport, router *RequestRouter, config *domain.Config) *Server {
	return &Server{
		transport: transport,
		router:    router,
		config:    config,
		logger:    logging.NewStructuredLogger("server"),
		done:      make(chan struct{}),
	}
}

// Start starts the transport and begins processing requests in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		s.logger.LogError("failed to start transport", err, map[string]interface{}{
			"transport_type": s.config.Transport.Type,
		})
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.logger.LogInfo("server started", map[string]interface{}{
		"transport_type": s.config.Transport.Type,
		"tools":          len(s.router.ListAllTools()),
	})

	go s.processRequests(ctx)

	return nil
}

// Done is closed once the request loop exits, e.g. when stdin reaches EOF.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) processRequests(ctx context.Context) {
	defer close(s.done)
	reqChan := s.transport.Receive()

	for {
		select {
		case <-ctx.Done():
			s.logger.LogInfo("server shutting down", nil)
			return
		case req, ok := <-reqChan:
			if !ok {
				return
			}
			s.handleRequest(ctx, req)
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req *domain.Request) {
	s.logger.LogDebug("received request", map[string]interface{}{
		"method":     req.Method,
		"request_id": req.ID,
	})

	if req.Method == "" {
		s.sendErrorResponse(req, domain.InvalidRequest, "Invalid Request", "method is required")
		return
	}

	// Notifications never get a reply
	if req.IsNotification() && strings.HasPrefix(req.Method, "notifications/") {
		return
	}

	var result interface{}
	switch req.Method {
	case "initialize":
		result = s.handleInitialize()
	case "ping":
		result = map[string]interface{}{}
	case "tools/list":
		result = map[string]interface{}{"tools": s.router.ListAllTools()}
	case "tools/call":
		toolResp, err := s.handleToolsCall(ctx, req)
		if err != nil {
			s.logger.LogError("request processing failed", err, map[string]interface{}{
				"method":     req.Method,
				"request_id": req.ID,
			})
			s.sendErrorResponse(req, domain.InvalidParams, "Invalid params", err.Error())
			return
		}
		result = toolResp
	default:
		s.sendErrorResponse(req, domain.MethodNotFound, "Method not found", fmt.Sprintf("unknown method: %s", req.Method))
		return
	}

	s.send(&domain.Response{
		JSONRPC:   "2.0",
		ID:        req.ID,
		Result:    result,
		SessionID: req.SessionID,
	})
}

func (s *Server) handleInitialize() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) (*domain.ToolResponse, error) {
	toolReq, err := parseToolRequest(req.Params)
	if err != nil {
		return nil, err
	}
	return s.router.Route(ctx, toolReq)
}

// parseToolRequest converts the raw params of tools/call into a ToolRequest.
func parseToolRequest(params interface{}) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]interface{})
	}

	return &toolReq, nil
}

func (s *Server) sendErrorResponse(req *domain.Request, code int, message string, data interface{}) {
	s.send(&domain.Response{
		JSONRPC:   "2.0",
		ID:        req.ID,
		Error:     &domain.Error{Code: code, Message: message, Data: data},
		SessionID: req.SessionID,
	})
}

func (s *Server) send(response *domain.Response) {
	if err := s.transport.Send(response); err != nil {
		s.logger.LogError("failed to send response", err, map[string]interface{}{
			"request_id": response.ID,
		})
	}
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.LogInfo("closing server", nil)
	return s.transport.Close()
}
