// Package mcp implements the Model Context Protocol server for panamax-search.
package mcp

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/panamax-search/internal/errors"
)

// MCP error codes.
const (
	// ErrCodeMirrorUnavailable indicates the mirror could not be read.
	ErrCodeMirrorUnavailable = -32001

	// ErrCodeIndexCorrupt indicates mirror metadata could not be indexed.
	ErrCodeIndexCorrupt = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var e *errors.Error
	if errors.As(err, &e) {
		return mapError(e)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

func mapError(e *errors.Error) *MCPError {
	message := e.Message
	if message == "" {
		message = e.Code
	}
	if e.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", message, e.Suggestion)
	}

	switch e.Category {
	case errors.CategoryIO:
		return &MCPError{Code: ErrCodeMirrorUnavailable, Message: message}
	case errors.CategoryData:
		return &MCPError{Code: ErrCodeIndexCorrupt, Message: message}
	case errors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
