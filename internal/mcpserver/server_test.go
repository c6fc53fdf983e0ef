package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/testutil"
)

const roleDoc = `---
Name: Support Role
---

## Local Definitions

### Tone

Calm and precise.

## Operations

### Answer Ticket

1. Keep the [Tone].
`

func testServer(t *testing.T) *Server {
	t.Helper()

	root, store := testutil.TestWorkspace(t)
	testutil.WriteFile(t, root, "support.busy.md", roleDoc)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	globs := []string{"**/*.md"}
	repo, err := graph.Load(context.Background(), store, globs, logger)
	if err != nil {
		t.Fatal(err)
	}
	svc := api.NewService(store, globs, repo, logger)
	return New(svc, store)
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", r.Content[0])
	}
	return tc.Text
}

func TestGetContextTool(t *testing.T) {
	srv := testServer(t)

	res, err := srv.getContext(context.Background(), toolRequest("get_context", map[string]any{
		"ref": "Answer Ticket",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, `"support_role#answer-ticket"`) {
		t.Errorf("missing operation ref in %s", text)
	}
	if !strings.Contains(text, `"support_role::tone"`) {
		t.Errorf("missing def closure in %s", text)
	}
}

func TestGetContextTool_Unknown(t *testing.T) {
	srv := testServer(t)

	res, err := srv.getContext(context.Background(), toolRequest("get_context", map[string]any{
		"ref": "nope",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for unknown ref")
	}
}

func TestListOperationsTool(t *testing.T) {
	srv := testServer(t)

	res, err := srv.listOperations(context.Background(), toolRequest("list_operations", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), "support_role#answer-ticket") {
		t.Errorf("missing operation in %s", resultText(t, res))
	}
}

func TestReadDocumentTool(t *testing.T) {
	srv := testServer(t)

	res, err := srv.readDocument(context.Background(), toolRequest("read_document", map[string]any{
		"docId": "support_role",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), "Name: Support Role") {
		t.Errorf("raw document content missing: %s", resultText(t, res))
	}

	res, err = srv.readDocument(context.Background(), toolRequest("read_document", map[string]any{
		"docId": "ghost",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected error for unknown document")
	}
}

func TestGetDocumentFormatTool(t *testing.T) {
	srv := testServer(t)

	res, err := srv.getDocumentFormat(context.Background(), toolRequest("get_document_format", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), "Local Definitions") {
		t.Error("contract should describe the Local Definitions section")
	}
}

func TestServerRegistration(t *testing.T) {
	srv := testServer(t)
	if srv.MCPServer() == nil {
		t.Fatal("underlying MCP server missing")
	}
}
