// Package mcp provides an MCP (Model Context Protocol) server adapter for manualqa.
// It lets AI assistants ask questions against the indexed manuals and read
// the fused pages of each document.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
