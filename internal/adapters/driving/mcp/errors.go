// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Xingyun. It exposes the assistant chat and knowledge-base operations as
// typed tools so MCP clients can drive document editing and retrieval.
package mcp

import "errors"

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")
