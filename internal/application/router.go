package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reddit-mcp-server/internal/domain"
	"reddit-mcp-server/internal/logging"
)

// RequestRouter dispatches MCP tool requests to the handler registered under
// the tool's name. It is the single place where handler failures become text:
// every call that reaches a handler yields a ToolResponse.
type RequestRouter struct {
	handlers map[string]domain.ToolHandler
	order    []string
	mapper   domain.ResponseMapper
	logger   *logging.StructuredLogger
}

// NewRequestRouter creates a RequestRouter. Tools are listed in the order the
// handlers are given; a later handler with a duplicate name replaces the earlier one.
func NewRequestRouter(mapper domain.ResponseMapper, handlers ...domain.ToolHandler) *RequestRouter {
	router := &RequestRouter{
		handlers: make(map[string]domain.ToolHandler),
		mapper:   mapper,
		logger:   logging.NewStructuredLogger("router"),
	}

	for _, handler := range handlers {
		name := handler.Definition().Name
		if _, exists := router.handlers[name]; !exists {
			router.order = append(router.order, name)
		}
		router.handlers[name] = handler
	}

	return router
}

// Route runs the named tool and renders its result or failure as text.
// It only returns an error for a nil request.
func (r *RequestRouter) Route(ctx context.Context, req *domain.ToolRequest) (resp *domain.ToolResponse, err error) {
	if req == nil {
		return nil, fmt.Errorf("tool request is required")
	}

	handler, exists := r.handlers[req.Name]
	if !exists {
		return r.mapper.MapError(fmt.Errorf("%w: %s", domain.ErrUnknownTool, req.Name)), nil
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.logger.LogError("tool handler panicked", fmt.Errorf("%v", p), map[string]interface{}{"tool": req.Name})
			resp, err = r.mapper.MapError(fmt.Errorf("internal error in %s: %v", req.Name, p)), nil
		}
	}()

	text, handleErr := handler.Handle(ctx, req.Arguments)
	fields := map[string]interface{}{
		"tool":        req.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if handleErr != nil {
		var apiErr *domain.RedditAPIError
		fields["api_error"] = errors.As(handleErr, &apiErr)
		r.logger.LogError("tool call failed", handleErr, fields)
		return r.mapper.MapError(handleErr), nil
	}

	r.logger.LogInfo("tool call succeeded", fields)
	return r.mapper.MapText(text), nil
}

// ListAllTools returns every tool definition in registration order.
func (r *RequestRouter) ListAllTools() []domain.ToolDefinition {
	tools := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.handlers[name].Definition())
	}
	return tools
}

// GetHandler returns the handler registered for a tool name.
func (r *RequestRouter) GetHandler(name string) (domain.ToolHandler, bool) {
	handler, exists := r.handlers[name]
	return handler, exists
}
