package outline

import (
	"strings"

	"liner-cli/internal/doc"
)

// Markdown renders a subtree as nested markdown bullets. Collapsed state is
// ignored: exports and previews always show the full tree. rootID may be
// WholeTree to export everything.
func Markdown(snap doc.Snapshot, rootID string) string {
	var sb strings.Builder
	// Same cycle guard as Flatten: exports of corrupted snapshots terminate.
	seen := map[string]bool{}
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		b, ok := snap.Blocks[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("- ")
		sb.WriteString(b.Content)
		sb.WriteString("\n")
		for _, cid := range b.ChildIDs {
			walk(cid, depth+1)
		}
	}
	if rootID == WholeTree {
		for _, id := range snap.RootIDs {
			walk(id, 0)
		}
	} else {
		walk(rootID, 0)
	}
	return sb.String()
}
