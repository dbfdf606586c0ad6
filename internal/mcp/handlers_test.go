package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- getArgs / stringArg helpers ---

func TestGetArgs_NilArguments(t *testing.T) {
	req := mcp.CallToolRequest{}
	args := getArgs(req)
	if args == nil {
		t.Fatal("getArgs returned nil, expected empty map")
	}
	if len(args) != 0 {
		t.Fatalf("expected empty map, got %v", args)
	}
}

func TestGetArgs_ValidMap(t *testing.T) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{
				"key": "value",
			},
		},
	}
	args := getArgs(req)
	if v, ok := args["key"]; !ok || v != "value" {
		t.Fatalf("expected key=value, got %v", args)
	}
}

func TestGetArgs_WrongType(t *testing.T) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: "not a map",
		},
	}
	args := getArgs(req)
	if len(args) != 0 {
		t.Fatalf("expected empty map for wrong type, got %v", args)
	}
}

func TestStringArg_Present(t *testing.T) {
	args := map[string]interface{}{"name": "hello"}
	if got := stringArg(args, "name", "default"); got != "hello" {
		t.Fatalf("expected 'hello', got %q", got)
	}
}

func TestStringArg_Missing(t *testing.T) {
	args := map[string]interface{}{}
	if got := stringArg(args, "name", "default"); got != "default" {
		t.Fatalf("expected 'default', got %q", got)
	}
}

func TestStringArg_NilValue(t *testing.T) {
	args := map[string]interface{}{"name": nil}
	if got := stringArg(args, "name", "default"); got != "default" {
		t.Fatalf("expected 'default' for nil value, got %q", got)
	}
}

func TestStringArg_EmptyString(t *testing.T) {
	args := map[string]interface{}{"name": ""}
	if got := stringArg(args, "name", "default"); got != "default" {
		t.Fatalf("expected 'default' for empty string, got %q", got)
	}
}

func TestStringArg_WrongType(t *testing.T) {
	args := map[string]interface{}{"name": 42}
	if got := stringArg(args, "name", "default"); got != "default" {
		t.Fatalf("expected 'default' for wrong type, got %q", got)
	}
}

// --- newTextResult / errResult ---

func TestNewTextResult(t *testing.T) {
	result := newTextResult("hello world")
	if result.IsError {
		t.Fatal("newTextResult should not set IsError")
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(result.Content))
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	if tc.Text != "hello world" {
		t.Fatalf("expected 'hello world', got %q", tc.Text)
	}
}

func TestErrResult(t *testing.T) {
	result := errResult("something failed")
	if !result.IsError {
		t.Fatal("errResult should set IsError=true")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	if tc.Text != "something failed" {
		t.Fatalf("expected 'something failed', got %q", tc.Text)
	}
}

// --- handleRunDetection ---

func TestHandleRunDetection_ReturnsValidJSONReport(t *testing.T) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{"quiet": "true"},
		},
	}
	res, err := handleRunDetection(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success, got IsError: %v", res.Content)
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}

	var report struct {
		Verdict string `json:"verdict"`
		Score   uint64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(tc.Text), &report); err != nil {
		t.Fatalf("response is not valid JSON: %v\ntext: %s", err, tc.Text)
	}
	if report.Verdict == "" {
		t.Error("expected a non-empty verdict")
	}
}

// --- Server creation ---

func TestNewServer(t *testing.T) {
	srv := NewServer("1.0.0-test")
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcpServer == nil {
		t.Fatal("mcpServer is nil")
	}
}
