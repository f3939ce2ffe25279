package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const stateFileName = "layout_state.json"

// stateFile is the persisted layout snapshot. Collapse overlays and focus
// are session-scoped and intentionally absent.
type stateFile struct {
	Version int    `json:"version"`
	Layout  Layout `json:"layout"`
}

func statePath(dir string) string {
	return filepath.Join(dir, stateFileName)
}

// Load restores the pane layout persisted in dir. It is best effort: a
// missing, malformed, or structurally invalid file yields a fresh single
// default view rather than a startup failure.
func Load(dir string) *Manager {
	if strings.TrimSpace(dir) == "" {
		return NewManager()
	}
	b, err := os.ReadFile(statePath(dir))
	if err != nil {
		return NewManager()
	}
	var st stateFile
	if err := json.Unmarshal(b, &st); err != nil {
		return NewManager()
	}
	if !validTree(st.Layout.Root) {
		return NewManager()
	}
	m := &Manager{
		layout:   st.Layout,
		overlays: map[string]map[string]bool{},
	}
	if findLeaf(m.layout.Root, m.layout.ActivePaneID) == nil {
		m.layout.ActivePaneID = firstLeaf(m.layout.Root).ID
	}
	return m
}

// Save writes the layout snapshot atomically (tmp + rename).
func (m *Manager) Save(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(stateFile{Version: 1, Layout: m.layout}, "", "  ")
	if err != nil {
		return err
	}
	path := statePath(dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// validTree checks structural well-formedness of a deserialized tree: known
// kinds, both children present under every split, ratios in range, unique
// ids, and at least one leaf.
func validTree(n *PaneNode) bool {
	if n == nil {
		return false
	}
	seen := map[string]bool{}
	var walk func(n *PaneNode) bool
	walk = func(n *PaneNode) bool {
		if n == nil || n.ID == "" || seen[n.ID] {
			return false
		}
		seen[n.ID] = true
		switch n.Kind {
		case KindLeaf:
			return n.First == nil && n.Second == nil
		case KindSplit:
			if n.Direction != Horizontal && n.Direction != Vertical {
				return false
			}
			if n.Ratio < MinRatio || n.Ratio > MaxRatio {
				return false
			}
			return walk(n.First) && walk(n.Second)
		default:
			return false
		}
	}
	if !walk(n) {
		return false
	}
	return countLeaves(n) >= 1
}
