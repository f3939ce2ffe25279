// Package layout manages the binary tree of split views over one document.
//
// Structural edits are functional: each operation builds a new tree by
// substituting at the target node and sharing every untouched branch, so a
// render in progress keeps a consistent tree value. Panes reference blocks
// by id only, as a lookup key rather than ownership; closing a pane never
// touches the block it was viewing.
package layout

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

type NodeKind string

const (
	KindLeaf  NodeKind = "leaf"
	KindSplit NodeKind = "split"
)

type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

const (
	MinRatio     = 0.1
	MaxRatio     = 0.9
	defaultRatio = 0.5
)

// WholeTree is the rootBlockId sentinel for an un-zoomed pane.
const WholeTree = ""

// PaneNode is one node of the layout tree. Kind selects which fields apply:
// leaves carry RootBlockID/FocusedBlockID, splits carry Direction, Ratio and
// both children.
type PaneNode struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`

	RootBlockID string `json:"rootBlockId,omitempty"`
	// Focus is session-scoped and never persisted.
	FocusedBlockID string `json:"-"`

	Direction Direction `json:"direction,omitempty"`
	Ratio     float64   `json:"ratio,omitempty"`
	First     *PaneNode `json:"first,omitempty"`
	Second    *PaneNode `json:"second,omitempty"`
}

type Layout struct {
	Root         *PaneNode `json:"root"`
	ActivePaneID string    `json:"activePaneId"`
}

// Manager owns the layout tree plus the session-scoped collapse overlays.
type Manager struct {
	layout   Layout
	overlays map[string]map[string]bool
}

func NewPaneID() string {
	return "pane-" + strings.ToLower(ulid.Make().String())
}

func NewManager() *Manager {
	leaf := &PaneNode{ID: NewPaneID(), Kind: KindLeaf, RootBlockID: WholeTree}
	return &Manager{
		layout:   Layout{Root: leaf, ActivePaneID: leaf.ID},
		overlays: map[string]map[string]bool{},
	}
}

// Layout returns the current tree value. Callers may hold onto it across
// edits; structural operations never mutate published nodes.
func (m *Manager) Layout() Layout { return m.layout }

func (m *Manager) ActivePaneID() string { return m.layout.ActivePaneID }

// ActiveLeaf returns the active pane. The invariant that ActivePaneID
// resolves to a live leaf is maintained by every edit operation.
func (m *Manager) ActiveLeaf() *PaneNode {
	return findLeaf(m.layout.Root, m.layout.ActivePaneID)
}

func (m *Manager) FindLeaf(paneID string) *PaneNode {
	return findLeaf(m.layout.Root, paneID)
}

// Leaves lists all leaf panes in tree order (first before second).
func (m *Manager) Leaves() []*PaneNode {
	var out []*PaneNode
	var walk func(n *PaneNode)
	walk = func(n *PaneNode) {
		if n == nil {
			return
		}
		if n.Kind == KindLeaf {
			out = append(out, n)
			return
		}
		walk(n.First)
		walk(n.Second)
	}
	walk(m.layout.Root)
	return out
}

// SetActive makes paneID the active pane if it resolves to a live leaf.
func (m *Manager) SetActive(paneID string) bool {
	if findLeaf(m.layout.Root, paneID) == nil {
		return false
	}
	m.layout.ActivePaneID = paneID
	return true
}

// Split replaces the target leaf with a split whose first child is the
// original leaf and whose second child is a new leaf sharing the same zoom
// root. The new leaf becomes active. No-op on splits and unknown ids.
func (m *Manager) Split(paneID string, dir Direction) (string, bool) {
	target := findLeaf(m.layout.Root, paneID)
	if target == nil {
		return "", false
	}
	newLeaf := &PaneNode{ID: NewPaneID(), Kind: KindLeaf, RootBlockID: target.RootBlockID}
	root, ok := substitute(m.layout.Root, paneID, func(old *PaneNode) *PaneNode {
		return &PaneNode{
			ID:        NewPaneID(),
			Kind:      KindSplit,
			Direction: dir,
			Ratio:     defaultRatio,
			First:     old,
			Second:    newLeaf,
		}
	})
	if !ok {
		return "", false
	}
	m.layout.Root = root
	m.layout.ActivePaneID = newLeaf.ID
	return newLeaf.ID, true
}

// Close removes a leaf by replacing its parent split with the sibling
// subtree. Refused while only one leaf exists: at least one view must
// remain. The closed pane's collapse overlay is dropped with it.
func (m *Manager) Close(paneID string) bool {
	if findLeaf(m.layout.Root, paneID) == nil {
		return false
	}
	if countLeaves(m.layout.Root) <= 1 {
		return false
	}
	root, ok := collapseSplit(m.layout.Root, paneID)
	if !ok {
		return false
	}
	m.layout.Root = root
	delete(m.overlays, paneID)
	if m.layout.ActivePaneID == paneID {
		if first := firstLeaf(root); first != nil {
			m.layout.ActivePaneID = first.ID
		}
	}
	return true
}

// SetRatio rewrites only the targeted split, clamping into [0.1, 0.9].
func (m *Manager) SetRatio(splitID string, ratio float64) bool {
	root, ok := substitute(m.layout.Root, splitID, func(old *PaneNode) *PaneNode {
		if old.Kind != KindSplit {
			return nil
		}
		n := *old
		n.Ratio = clampRatio(ratio)
		return &n
	})
	if !ok {
		return false
	}
	m.layout.Root = root
	return true
}

// SetRoot zooms the targeted leaf to rootBlockID; WholeTree zooms out.
func (m *Manager) SetRoot(paneID, rootBlockID string) bool {
	root, ok := substitute(m.layout.Root, paneID, func(old *PaneNode) *PaneNode {
		if old.Kind != KindLeaf {
			return nil
		}
		n := *old
		n.RootBlockID = rootBlockID
		return &n
	})
	if !ok {
		return false
	}
	m.layout.Root = root
	return true
}

// SetFocused records the focused block of a leaf (session state only).
func (m *Manager) SetFocused(paneID, blockID string) bool {
	root, ok := substitute(m.layout.Root, paneID, func(old *PaneNode) *PaneNode {
		if old.Kind != KindLeaf {
			return nil
		}
		n := *old
		n.FocusedBlockID = blockID
		return &n
	})
	if !ok {
		return false
	}
	m.layout.Root = root
	return true
}

// ToggleCollapsed flips blockID's membership in the pane's override set. The
// overlay is a diff against the block's shared default, so a content-level
// collapse toggle stays visible in every pane that has no override.
func (m *Manager) ToggleCollapsed(paneID, blockID string) {
	if findLeaf(m.layout.Root, paneID) == nil {
		return
	}
	set := m.overlays[paneID]
	if set == nil {
		set = map[string]bool{}
		m.overlays[paneID] = set
	}
	if set[blockID] {
		delete(set, blockID)
	} else {
		set[blockID] = true
	}
}

// IsCollapsed resolves the effective collapsed state of a block in a pane:
// the block default, negated while the pane holds an override for it.
func (m *Manager) IsCollapsed(paneID, blockID string, blockDefault bool) bool {
	set, ok := m.overlays[paneID]
	if !ok || !set[blockID] {
		return blockDefault
	}
	return !blockDefault
}

func clampRatio(r float64) float64 {
	if r < MinRatio {
		return MinRatio
	}
	if r > MaxRatio {
		return MaxRatio
	}
	return r
}

func findLeaf(n *PaneNode, id string) *PaneNode {
	if n == nil {
		return nil
	}
	if n.Kind == KindLeaf {
		if n.ID == id {
			return n
		}
		return nil
	}
	if f := findLeaf(n.First, id); f != nil {
		return f
	}
	return findLeaf(n.Second, id)
}

func firstLeaf(n *PaneNode) *PaneNode {
	if n == nil {
		return nil
	}
	if n.Kind == KindLeaf {
		return n
	}
	if f := firstLeaf(n.First); f != nil {
		return f
	}
	return firstLeaf(n.Second)
}

func countLeaves(n *PaneNode) int {
	if n == nil {
		return 0
	}
	if n.Kind == KindLeaf {
		return 1
	}
	return countLeaves(n.First) + countLeaves(n.Second)
}

// substitute rebuilds the path from the root to the node with the given id,
// replacing that node with build(old). Unchanged branches are shared. build
// may return nil to refuse the edit.
func substitute(n *PaneNode, id string, build func(old *PaneNode) *PaneNode) (*PaneNode, bool) {
	if n == nil {
		return nil, false
	}
	if n.ID == id {
		nn := build(n)
		if nn == nil {
			return nil, false
		}
		return nn, true
	}
	if n.Kind != KindSplit {
		return nil, false
	}
	if first, ok := substitute(n.First, id, build); ok {
		nn := *n
		nn.First = first
		return &nn, true
	}
	if second, ok := substitute(n.Second, id, build); ok {
		nn := *n
		nn.Second = second
		return &nn, true
	}
	return nil, false
}

// collapseSplit removes the leaf with the given id by replacing its parent
// split with the sibling subtree.
func collapseSplit(n *PaneNode, leafID string) (*PaneNode, bool) {
	if n == nil || n.Kind != KindSplit {
		return nil, false
	}
	if n.First != nil && n.First.Kind == KindLeaf && n.First.ID == leafID {
		return n.Second, true
	}
	if n.Second != nil && n.Second.Kind == KindLeaf && n.Second.ID == leafID {
		return n.First, true
	}
	if first, ok := collapseSplit(n.First, leafID); ok {
		nn := *n
		nn.First = first
		return &nn, true
	}
	if second, ok := collapseSplit(n.Second, leafID); ok {
		nn := *n
		nn.Second = second
		return &nn, true
	}
	return nil, false
}
