// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the corpus to LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/storage"
)

// Server wraps the MCP server with corpus tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *api.Service
	store storage.Provider
}

// New creates a new MCP server with all corpus tools registered.
func New(svc *api.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_context",
		mcp.WithDescription("Resolve the execution context for an operation: its steps and "+
			"checklist, the closure of local definitions it depends on (parents before "+
			"children), the operations it calls, and the import symbols consumed. "+
			"Call this before executing any operation."),
		mcp.WithString("ref", mcp.Required(),
			mcp.Description("Operation reference: canonical id (doc#slug), doc::slug, or a bare name")),
		mcp.WithNumber("maxDefChars",
			mcp.Description("Trim each definition to this many characters at line boundaries (0 = no trimming)")),
		mcp.WithBoolean("includeChildren",
			mcp.Description("Also collect references from sections nested beneath the target")),
	), s.getContext)

	s.mcp.AddTool(mcp.NewTool("list_operations",
		mcp.WithDescription("List every executable operation in the corpus with its id, "+
			"owning document, inputs, outputs and step count."),
	), s.listOperations)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the raw source of a corpus document by its document id."),
		mcp.WithString("docId", mcp.Required(), mcp.Description("Document id (e.g. order_processing)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("reload_corpus",
		mcp.WithDescription("Rebuild the document graph from the workspace. Returns the new "+
			"document, operation and warning counts."),
	), s.reloadCorpus)

	s.mcp.AddTool(mcp.NewTool("get_document_format",
		mcp.WithDescription("Returns the canonical document format contract. "+
			"Call this before authoring documents to ensure correct structure."),
	), s.getDocumentFormat)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://busy-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical document format the graph builder understands."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var maxDefChars *int
	if v := req.GetFloat("maxDefChars", -1); v >= 0 {
		n := int(v)
		maxDefChars = &n
	}
	var includeChildren *bool
	if v := req.GetBool("includeChildren", false); v {
		includeChildren = &v
	}

	payload, err := s.svc.BuildContext(ref, maxDefChars, includeChildren)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
		case errors.Is(err, apperr.ErrNotExecutable):
			return mcp.NewToolResultError(fmt.Sprintf("not executable: %s", ref)), nil
		default:
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listOperations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo := s.svc.Repo()
	type item struct {
		ID        string   `json:"id"`
		DocID     string   `json:"docId"`
		Name      string   `json:"name"`
		Inputs    []string `json:"inputs,omitempty"`
		Outputs   []string `json:"outputs,omitempty"`
		Inherited bool     `json:"inherited,omitempty"`
		Steps     int      `json:"steps"`
	}
	var items []item
	for _, op := range repo.OperationList() {
		items = append(items, item{
			ID:        op.ID,
			DocID:     op.DocID,
			Name:      op.Name,
			Inputs:    op.Inputs,
			Outputs:   op.Outputs,
			Inherited: op.Inherited,
			Steps:     len(op.Steps),
		})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := req.RequireString("docId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, ok := s.svc.Repo().Doc(docID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", docID)), nil
	}
	data, err := s.store.Read(doc.FilePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) reloadCorpus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := s.svc.Reload(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("reloaded: %d documents, %d operations, %d warnings",
		len(repo.Documents), len(repo.Operations), len(repo.Warnings))), nil
}

func (s *Server) getDocumentFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://busy-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
