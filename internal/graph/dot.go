package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

var roleColors = map[models.EdgeRole]string{
	models.RoleCalls:   "blue",
	models.RoleExtends: "green",
	models.RoleImports: "orange",
	models.RoleRef:     "gray",
}

// WriteDOT renders the concept graph in Graphviz DOT format: documents and
// local definitions as nodes, edges colored by role.
func (r *Repo) WriteDOT(w io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph busy {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontsize=10];\n")

	for _, c := range r.Concepts {
		shape := "box"
		switch c.Kind {
		case models.KindOperation:
			shape = "ellipse"
		case models.KindLocalDef:
			shape = "note"
		}
		fmt.Fprintf(&b, "  %s [label=%s, shape=%s];\n", dotString(c.ID), dotString(c.Name), shape)
	}
	for _, e := range r.Edges {
		color, ok := roleColors[e.Role]
		if !ok {
			color = "black"
		}
		fmt.Fprintf(&b, "  %s -> %s [color=%s, label=%s];\n",
			dotString(e.From), dotString(e.To), color, dotString(string(e.Role)))
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func dotString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
