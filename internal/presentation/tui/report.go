package tui

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/muesli/termenv"
)

// maxPreview bounds the hex preview of a node's local state.
const maxPreview = 16

// SnapshotReport renders a snapshot tree as a markdown document with one table row
// per node, in depth-first composition order.
func SnapshotReport(title string, snap *domain.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	sb.WriteString("| Path | Children | State | Preview |\n")
	sb.WriteString("|---|---|---|---|\n")

	nodes := 0
	_ = snap.Walk(func(path domain.Path, node *domain.Snapshot) error {
		nodes++
		fmt.Fprintf(&sb, "| `%s` | %d | %d B | %s |\n",
			path.String(), len(node.Children), len(node.State), preview(node.State))
		return nil
	})
	fmt.Fprintf(&sb, "\n%d nodes\n", nodes)
	return sb.String()
}

func preview(state []byte) string {
	if len(state) == 0 {
		return "-"
	}
	if len(state) > maxPreview {
		return "`" + hex.EncodeToString(state[:maxPreview]) + "…`"
	}
	return "`" + hex.EncodeToString(state) + "`"
}

// PrintDiff writes one line per change, colored by kind when w is a color terminal.
func PrintDiff(w io.Writer, diff *domain.SnapshotDiff) {
	if diff.IsEmpty() {
		fmt.Fprintln(w, "no changes")
		return
	}
	out := termenv.NewOutput(w)
	for _, c := range diff.Changes {
		sign, color := "~", "#fbbf24"
		switch c.Kind {
		case domain.ChangeAdded:
			sign, color = "+", "#34d399"
		case domain.ChangeRemoved:
			sign, color = "-", "#f87171"
		}
		line := fmt.Sprintf("%s %s (%s)", sign, c.Path, c.Kind)
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(color)))
	}
}
