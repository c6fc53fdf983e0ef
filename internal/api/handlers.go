package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/graph"
)

// ReloadNotifier is told when a rebuild completes. The SSE broker
// implements it; a nil notifier is silently skipped.
type ReloadNotifier interface {
	PublishReload(documents, operations, warnings int)
}

// Handler holds API route handlers.
type Handler struct {
	svc      *Service
	notifier ReloadNotifier
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service, notifier ReloadNotifier) *Handler {
	return &Handler{svc: svc, notifier: notifier}
}

// GetContext handles GET /api/context. The ref query parameter is
// required; maxDefChars and includeChildren override the configured
// defaults for this request only.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("ref")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("ref is required"))
		return
	}

	var maxDefChars *int
	if raw := q.Get("maxDefChars"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("maxDefChars must be a non-negative integer"))
			return
		}
		maxDefChars = &n
	}
	var includeChildren *bool
	if raw := q.Get("includeChildren"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("includeChildren must be a boolean"))
			return
		}
		includeChildren = &b
	}

	payload, err := h.svc.BuildContext(ref, maxDefChars, includeChildren)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrNotExecutable):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("reference is not executable"))
		default:
			slog.Error("build context failed", slog.String("ref", ref), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// ListOperations handles GET /api/operations.
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	repo := h.svc.Repo()
	ops := repo.OperationList()
	items := make([]OperationSummary, 0, len(ops))
	for _, op := range ops {
		items = append(items, operationSummary(op))
	}
	writeJSON(w, http.StatusOK, OperationListResponse{Operations: items, Total: len(items)})
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	repo := h.svc.Repo()
	items := make([]DocumentSummary, 0, len(repo.Documents))
	for _, doc := range repo.Documents {
		items = append(items, documentSummary(doc))
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /api/documents/{docID}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	repo := h.svc.Repo()
	doc, ok := repo.Doc(docID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	detail := DocumentDetail{
		DocumentSummary: documentSummary(doc),
		Description:     doc.Description,
		Extends:         doc.Extends,
		Setup:           doc.Setup,
		Operations:      []OperationSummary{},
		Imports:         []ImportView{},
	}
	for _, op := range repo.OperationList() {
		if op.DocID == docID {
			detail.Operations = append(detail.Operations, operationSummary(op))
		}
	}
	imports := repo.Imports(docID)
	labels := make([]string, 0, len(imports))
	for label := range imports {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		imp := imports[label]
		detail.Imports = append(detail.Imports, ImportView{
			Label:  imp.Label,
			Path:   imp.Path,
			Anchor: imp.Anchor,
			DocID:  imp.DocID,
		})
	}
	writeJSON(w, http.StatusOK, detail)
}

// Graph handles GET /api/graph. The format query parameter selects the
// representation: "json" (default) or "dot".
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	repo := h.svc.Repo()
	if r.URL.Query().Get("format") == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		if err := repo.WriteDOT(w); err != nil {
			slog.Error("write dot failed", slog.String("error", err.Error()))
		}
		return
	}

	resp := GraphResponse{Nodes: []GraphNode{}, Links: []GraphLink{}}
	for _, c := range repo.Concepts {
		resp.Nodes = append(resp.Nodes, GraphNode{ID: c.ID, Kind: string(c.Kind), Name: c.Name})
	}
	for _, e := range repo.Edges {
		resp.Links = append(resp.Links, GraphLink{Source: e.From, Target: e.To, Role: string(e.Role)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Diagnostics handles GET /api/diagnostics.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	repo := h.svc.Repo()
	warnings := repo.Warnings
	if warnings == nil {
		warnings = []graph.Warning{}
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Warnings: warnings, Total: len(warnings)})
}

// Reload handles POST /api/reload. The graph is rebuilt from the
// workspace; on failure the previous snapshot stays active and the
// error is reported.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	repo, err := h.svc.Reload(r.Context())
	if err != nil {
		slog.Error("reload failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
		return
	}
	if h.notifier != nil {
		h.notifier.PublishReload(len(repo.Documents), len(repo.Operations), len(repo.Warnings))
	}
	writeJSON(w, http.StatusOK, ReloadResponse{
		Documents:  len(repo.Documents),
		Operations: len(repo.Operations),
		Edges:      len(repo.Edges),
		Warnings:   len(repo.Warnings),
	})
}
