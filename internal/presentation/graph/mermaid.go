package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// GraphOverlay contains change data to visualize on the graph, keyed by node path.
type GraphOverlay struct {
	Changes map[string]domain.ChangeKind
}

// OverlayFromDiff builds an overlay marking the nodes that a diff reports.
func OverlayFromDiff(diff *domain.SnapshotDiff) *GraphOverlay {
	o := &GraphOverlay{Changes: make(map[string]domain.ChangeKind)}
	if diff == nil {
		return o
	}
	for _, c := range diff.Changes {
		o.Changes[c.Path] = c.Kind
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a snapshot tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Stateless node (no local bytes): [/Parallelogram/]
// - Default: [Rectangle], labelled with its local state size
// It also applies overlay styles (added/modified) if provided.
func GenerateMermaid(root *domain.Snapshot, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[string]string)
	_ = root.Walk(func(path domain.Path, node *domain.Snapshot) error {
		key := path.String()
		id := fmt.Sprintf("n%d", len(ids))
		ids[key] = id

		opener, closer := "[", "]"
		label := "/"
		switch {
		case len(path) == 0:
			opener, closer = "((", "))"
		case len(node.State) == 0:
			opener, closer = "[/", "/]"
		}
		if len(path) > 0 {
			label = path[len(path)-1].String()
		}
		label = strings.ReplaceAll(label, "\"", "'")
		if len(node.State) > 0 {
			label = fmt.Sprintf("%s <br/> %d B", label, len(node.State))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		if len(path) > 0 {
			parent := ids[path[:len(path)-1].String()]
			fmt.Fprintf(&sb, "    %s --> %s\n", parent, id)
		}
		return nil
	})

	if overlay != nil && len(overlay.Changes) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme
		sb.WriteString("    classDef added fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef modified fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		_ = root.Walk(func(path domain.Path, _ *domain.Snapshot) error {
			key := path.String()
			switch overlay.Changes[key] {
			case domain.ChangeAdded:
				fmt.Fprintf(&sb, "    class %s added;\n", ids[key])
			case domain.ChangeModified:
				fmt.Fprintf(&sb, "    class %s modified;\n", ids[key])
			}
			return nil
		})
	}

	return sb.String()
}
