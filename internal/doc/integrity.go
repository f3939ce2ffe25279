package doc

import "fmt"

// CheckIntegrity verifies the tree invariants: every live block is either a
// root (in rootIds) or appears exactly once in its parent's childIds, and no
// ordered sequence contains duplicates or dangling ids.
func (d *Doc) CheckIntegrity() error {
	snap := d.Snapshot()
	return CheckSnapshot(snap)
}

func CheckSnapshot(snap Snapshot) error {
	refs := map[string]int{}

	for _, id := range snap.RootIDs {
		if _, ok := snap.Blocks[id]; !ok {
			return fmt.Errorf("rootIds references missing block %q", id)
		}
		refs[id]++
	}
	for id, b := range snap.Blocks {
		if b.ID != id {
			return fmt.Errorf("block keyed %q carries id %q", id, b.ID)
		}
		seen := map[string]bool{}
		for _, cid := range b.ChildIDs {
			if seen[cid] {
				return fmt.Errorf("block %q lists child %q twice", id, cid)
			}
			seen[cid] = true
			child, ok := snap.Blocks[cid]
			if !ok {
				return fmt.Errorf("block %q references missing child %q", id, cid)
			}
			if child.ParentID != id {
				return fmt.Errorf("block %q is child of %q but has parentId %q", cid, id, child.ParentID)
			}
			refs[cid]++
		}
	}

	for id, b := range snap.Blocks {
		n := refs[id]
		switch {
		case n == 0:
			return fmt.Errorf("block %q is unreachable (no parent, not a root)", id)
		case n > 1:
			return fmt.Errorf("block %q is referenced %d times", id, n)
		}
		if b.ParentID == "" {
			if !contains(snap.RootIDs, id) {
				return fmt.Errorf("block %q has no parent but is absent from rootIds", id)
			}
		} else if contains(snap.RootIDs, id) {
			return fmt.Errorf("block %q has parent %q yet appears in rootIds", id, b.ParentID)
		}
	}
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
