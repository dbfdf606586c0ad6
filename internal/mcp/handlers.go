package mcp

import (
	"bytes"
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aleksvor/sentrycheck/internal/output"
	"github.com/aleksvor/sentrycheck/internal/pipeline"
)

// runDetectionTimeout is set on the context handed to pipeline.Run. The
// detectors do not check that context, so it does not cut a run short; the
// timing and jitter detectors sample thousands of TSC reads each but still
// finish well under a second on any real host.
const runDetectionTimeout = 30 * time.Second

// handleRunDetection executes the full detector pipeline and returns the
// resulting report as JSON text content.
func handleRunDetection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, runDetectionTimeout)
	defer cancel()

	args := getArgs(request)
	quiet := stringArg(args, "quiet", "true") != "false"

	report := pipeline.Run(ctx, pipeline.Options{Quiet: quiet})

	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, report); err != nil {
		return errResult("marshal report: " + err.Error()), nil
	}
	return newTextResult(buf.String()), nil
}

// getArgs safely extracts the arguments map from a CallToolRequest.
// Returns an empty map if Arguments is nil or not a map.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errResult creates an MCP tool error result (IsError=true), a tool-level
// error rather than a transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}
