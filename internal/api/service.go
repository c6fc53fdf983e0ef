package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/starford/ansuz/internal/agentctx"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/storage"
)

// Service owns the loaded corpus graph and rebuilds it on demand. The
// repo itself is immutable; reloads swap the pointer atomically so
// in-flight requests keep the snapshot they started with.
type Service struct {
	store  storage.Provider
	globs  []string
	logger *slog.Logger

	repo atomic.Pointer[graph.Repo]

	// Defaults applied when a context request omits the knobs.
	defaultMaxDefChars     int
	defaultIncludeChildren bool
}

// NewService creates the API service around an already-loaded repo.
func NewService(store storage.Provider, globs []string, repo *graph.Repo, logger *slog.Logger) *Service {
	s := &Service{store: store, globs: globs, logger: logger}
	s.repo.Store(repo)
	return s
}

// SetContextDefaults sets the default trimming and traversal knobs for
// context requests.
func (s *Service) SetContextDefaults(maxDefChars int, includeChildren bool) {
	s.defaultMaxDefChars = maxDefChars
	s.defaultIncludeChildren = includeChildren
}

// Repo returns the current corpus snapshot.
func (s *Service) Repo() *graph.Repo {
	return s.repo.Load()
}

// Reload rebuilds the graph from the workspace and swaps it in. On
// failure the previous snapshot stays active.
func (s *Service) Reload(ctx context.Context) (*graph.Repo, error) {
	repo, err := graph.Load(ctx, s.store, s.globs, s.logger)
	if err != nil {
		return nil, fmt.Errorf("api: reload: %w", err)
	}
	s.repo.Store(repo)
	return repo, nil
}

// BuildContext computes the execution-context payload for a reference
// against the current snapshot.
func (s *Service) BuildContext(ref string, maxDefChars *int, includeChildren *bool) (*agentctx.Payload, error) {
	opts := agentctx.Options{
		MaxDefChars:     s.defaultMaxDefChars,
		IncludeChildren: s.defaultIncludeChildren,
	}
	if maxDefChars != nil {
		opts.MaxDefChars = *maxDefChars
	}
	if includeChildren != nil {
		opts.IncludeChildren = *includeChildren
	}
	return agentctx.Build(s.Repo(), ref, opts)
}
