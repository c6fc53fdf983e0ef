package graph

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Classifier decides the final role of an edge once the whole corpus is
// indexed and the target's kind is known. Implementations must be pure:
// the same inputs always produce the same role.
type Classifier interface {
	Classify(e models.Edge, target any) models.EdgeRole
}

// DefaultClassifier upgrades provisional ref edges to calls when the
// resolved target is an operation; structural roles pass through.
type DefaultClassifier struct{}

// Classify implements Classifier.
func (DefaultClassifier) Classify(e models.Edge, target any) models.EdgeRole {
	if e.Role != models.RoleRef {
		return e.Role
	}
	if _, isOp := target.(*models.Operation); isOp {
		return models.RoleCalls
	}
	return models.RoleRef
}

// checkExtendsCycles rejects corpora whose inheritance graph is cyclic.
// The context closure assumes acyclicity, so a cycle is a hard load error
// rather than an infinite loop at request time.
func (ld *loader) checkExtendsCycles() error {
	adj := make(map[string][]string)
	for _, e := range ld.repo.Edges {
		if e.Role == models.RoleExtends {
			adj[e.From] = append(adj[e.From], e.To)
		}
	}

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[string]int)
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case onStack:
			i := 0
			for ; i < len(stack) && stack[i] != id; i++ {
			}
			return fmt.Errorf("%w: %s", apperr.ErrExtendsCycle, strings.Join(append(stack[i:], id), " -> "))
		}
		state[id] = onStack
		stack = append(stack, id)
		for _, next := range adj[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range sortedKeys(adj) {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
