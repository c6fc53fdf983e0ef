package api

import (
	"github.com/starford/ansuz/internal/agentctx"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/models"
)

// ContextResponse is the payload for a context request (aliased from the
// domain layer).
type ContextResponse = agentctx.Payload

// OperationSummary is a lightweight item in the operation listing.
type OperationSummary struct {
	ID        string   `json:"id"`
	DocID     string   `json:"docId"`
	Name      string   `json:"name"`
	Inputs    []string `json:"inputs,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
	Inherited bool     `json:"inherited,omitempty"`
	Steps     int      `json:"steps"`
}

// OperationListResponse wraps the operation listing.
type OperationListResponse struct {
	Operations []OperationSummary `json:"operations"`
	Total      int                `json:"total"`
}

// DocumentSummary is a lightweight item in the document listing.
type DocumentSummary struct {
	DocID    string   `json:"docId"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Tags     []string `json:"tags,omitempty"`
	FilePath string   `json:"filePath"`
}

// DocumentListResponse wraps the document listing.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Total     int               `json:"total"`
}

// DocumentDetail is the full document response.
type DocumentDetail struct {
	DocumentSummary
	Description string             `json:"description,omitempty"`
	Extends     []string           `json:"extends,omitempty"`
	Setup       string             `json:"setup,omitempty"`
	Operations  []OperationSummary `json:"operations"`
	Imports     []ImportView       `json:"imports"`
}

// ImportView is one entry of a document's import symbol table.
type ImportView struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Anchor string `json:"anchor,omitempty"`
	DocID  string `json:"docId,omitempty"`
}

// GraphNode is a node in the concept graph.
type GraphNode struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// GraphLink is an edge in the concept graph.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Role   string `json:"role"`
}

// GraphResponse wraps the concept graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// DiagnosticsResponse wraps the load warnings of the current snapshot.
type DiagnosticsResponse struct {
	Warnings []graph.Warning `json:"warnings"`
	Total    int             `json:"total"`
}

// ReloadResponse summarizes a completed rebuild.
type ReloadResponse struct {
	Documents  int `json:"documents"`
	Operations int `json:"operations"`
	Edges      int `json:"edges"`
	Warnings   int `json:"warnings"`
}

func operationSummary(op *models.Operation) OperationSummary {
	return OperationSummary{
		ID:        op.ID,
		DocID:     op.DocID,
		Name:      op.Name,
		Inputs:    op.Inputs,
		Outputs:   op.Outputs,
		Inherited: op.Inherited,
		Steps:     len(op.Steps),
	}
}

func documentSummary(doc *models.Document) DocumentSummary {
	return DocumentSummary{
		DocID:    doc.DocID,
		Name:     doc.Name,
		Kind:     string(doc.Kind),
		Tags:     doc.Tags,
		FilePath: doc.FilePath,
	}
}
