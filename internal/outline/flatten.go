// Package outline derives the linear visitation order of the block tree for
// one pane: a depth-first pre-order walk from the pane's zoom root that skips
// the subtrees of effectively-collapsed blocks.
//
// The flattened rows are the single source of truth for what a pane renders
// and for up/down navigation; navigation is index adjacency here, never a
// second tree walk.
package outline

import (
	"liner-cli/internal/doc"
	"liner-cli/internal/model"
)

// WholeTree is the zoom-root sentinel meaning "start from the root order".
const WholeTree = ""

type Row struct {
	BlockID string
	Depth   int
}

// IsCollapsed reports the effective collapsed state of a block in some pane.
// It receives the block's shared default so the pane overlay can negate it.
type IsCollapsed func(blockID string, blockDefault bool) bool

// Flatten walks the tree from rootID. A rootID that no longer resolves
// yields no rows: the pane then points at nothing displayable, which is not
// an error (weak reference).
func Flatten(snap doc.Snapshot, rootID string, collapsed IsCollapsed) []Row {
	var rows []Row
	// seen bounds the walk on a corrupted snapshot whose childIds cycle;
	// rendering must not die of stack exhaustion on bad persisted data.
	seen := map[string]bool{}
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		b, ok := snap.Blocks[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		rows = append(rows, Row{BlockID: id, Depth: depth})
		if effectiveCollapsed(b, collapsed) {
			return
		}
		for _, cid := range b.ChildIDs {
			walk(cid, depth+1)
		}
	}

	if rootID == WholeTree {
		for _, id := range snap.RootIDs {
			walk(id, 0)
		}
		return rows
	}
	walk(rootID, 0)
	return rows
}

func effectiveCollapsed(b model.Block, collapsed IsCollapsed) bool {
	if collapsed == nil {
		return b.Collapsed
	}
	return collapsed(b.ID, b.Collapsed)
}

// IndexOf locates id in rows, -1 when absent.
func IndexOf(rows []Row, id string) int {
	for i, r := range rows {
		if r.BlockID == id {
			return i
		}
	}
	return -1
}

// Next returns the block id after id in visitation order, or "" at the
// bottom boundary (and when id is not visible at all).
func Next(rows []Row, id string) string {
	i := IndexOf(rows, id)
	if i < 0 || i+1 >= len(rows) {
		return ""
	}
	return rows[i+1].BlockID
}

// Prev returns the block id before id in visitation order, or "" at the top.
func Prev(rows []Row, id string) string {
	i := IndexOf(rows, id)
	if i <= 0 {
		return ""
	}
	return rows[i-1].BlockID
}
