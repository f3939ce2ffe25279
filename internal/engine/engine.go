// Package engine implements the block mutation operations. Every operation
// is one atomic transaction against the replicated document, tagged with
// local origin so the sync bridge schedules a push.
//
// Unmet preconditions (missing target, boundary move, non-empty delete) are
// silent no-ops: under concurrent editing another writer may have deleted or
// moved the target, and that must never surface as an error or corrupt the
// tree.
package engine

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"liner-cli/internal/doc"
	"liner-cli/internal/model"
)

type Engine struct {
	doc   *doc.Doc
	now   func() int64
	newID func() string
}

func New(d *doc.Doc) *Engine {
	return &Engine{
		doc:   d,
		now:   func() int64 { return time.Now().UnixMilli() },
		newID: NewBlockID,
	}
}

// NewBlockID allocates a fresh block id. ULIDs keep ids sortable by creation
// time, which makes debugging merged documents considerably less painful.
func NewBlockID() string {
	return "blk-" + strings.ToLower(ulid.Make().String())
}

// SetClock overrides the timestamp source (tests).
func (e *Engine) SetClock(now func() int64) { e.now = now }

// SetIDFunc overrides id allocation (tests).
func (e *Engine) SetIDFunc(fn func() string) { e.newID = fn }

func (e *Engine) Doc() *doc.Doc { return e.doc }

// UpdateContent writes content, re-derives the type, and bumps updatedAt.
func (e *Engine) UpdateContent(id, content string) bool {
	changed := false
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		b, ok := tx.Block(id)
		if !ok {
			return nil
		}
		b.Content = content
		b.Type = model.DeriveType(content)
		b.UpdatedAt = e.now()
		tx.SetBlock(b)
		changed = true
		return nil
	})
	return changed
}

// CreateAfter inserts a fresh empty block immediately after siblingID under
// the same parent (or in the root order when the sibling is a root). Returns
// the new id, or "" when the sibling does not resolve.
func (e *Engine) CreateAfter(siblingID string) string {
	newID := ""
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		sib, ok := tx.Block(siblingID)
		if !ok {
			return nil
		}
		now := e.now()
		nb := model.Block{
			ID:        e.newID(),
			ParentID:  sib.ParentID,
			ChildIDs:  []string{},
			Type:      model.BlockText,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if sib.ParentID == "" {
			roots := tx.RootIDs()
			tx.SetRootIDs(insertAfter(roots, siblingID, nb.ID))
		} else {
			parent, ok := tx.Block(sib.ParentID)
			if !ok {
				return nil
			}
			parent.ChildIDs = insertAfter(parent.ChildIDs, siblingID, nb.ID)
			parent.UpdatedAt = now
			tx.SetBlock(parent)
		}
		tx.SetBlock(nb)
		newID = nb.ID
		return nil
	})
	return newID
}

// CreateRoot appends a fresh empty block at the end of the root order. It is
// the bootstrap path for an empty document, where CreateAfter has no sibling
// to anchor on.
func (e *Engine) CreateRoot() string {
	newID := ""
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		now := e.now()
		nb := model.Block{
			ID:        e.newID(),
			ChildIDs:  []string{},
			Type:      model.BlockText,
			CreatedAt: now,
			UpdatedAt: now,
		}
		tx.SetBlock(nb)
		tx.SetRootIDs(append(tx.RootIDs(), nb.ID))
		newID = nb.ID
		return nil
	})
	return newID
}

// CreateInside appends a fresh empty block as the last child of parentID and
// expands the parent, so newly nested content is visible.
func (e *Engine) CreateInside(parentID string) string {
	newID := ""
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		parent, ok := tx.Block(parentID)
		if !ok {
			return nil
		}
		now := e.now()
		nb := model.Block{
			ID:        e.newID(),
			ParentID:  parentID,
			ChildIDs:  []string{},
			Type:      model.BlockText,
			CreatedAt: now,
			UpdatedAt: now,
		}
		parent.ChildIDs = append(parent.ChildIDs, nb.ID)
		parent.Collapsed = false
		parent.UpdatedAt = now
		tx.SetBlock(parent)
		tx.SetBlock(nb)
		newID = nb.ID
		return nil
	})
	return newID
}

// Delete removes an empty leaf. Refused (no-op) when the block still has
// children: tree corruption must not be reachable through this API, and the
// caller is not expected to care which writer got there first.
func (e *Engine) Delete(id string) bool {
	changed := false
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		b, ok := tx.Block(id)
		if !ok || len(b.ChildIDs) > 0 {
			return nil
		}
		if b.ParentID == "" {
			tx.SetRootIDs(remove(tx.RootIDs(), id))
		} else {
			parent, ok := tx.Block(b.ParentID)
			if ok {
				parent.ChildIDs = remove(parent.ChildIDs, id)
				parent.UpdatedAt = e.now()
				tx.SetBlock(parent)
			}
		}
		tx.DeleteBlock(id)
		changed = true
		return nil
	})
	return changed
}

// Indent re-parents id under its immediately preceding sibling. No-op when
// the block is already first at its level.
func (e *Engine) Indent(id string) bool {
	changed := false
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		b, ok := tx.Block(id)
		if !ok {
			return nil
		}
		siblings := e.siblingsOf(tx, b)
		idx := indexOf(siblings, id)
		if idx <= 0 {
			return nil
		}
		prevID := siblings[idx-1]
		prev, ok := tx.Block(prevID)
		if !ok {
			return nil
		}
		now := e.now()

		if b.ParentID == "" {
			tx.SetRootIDs(remove(tx.RootIDs(), id))
		} else {
			parent, ok := tx.Block(b.ParentID)
			if !ok {
				return nil
			}
			parent.ChildIDs = remove(parent.ChildIDs, id)
			parent.UpdatedAt = now
			tx.SetBlock(parent)
		}

		prev.ChildIDs = append(prev.ChildIDs, id)
		prev.Collapsed = false
		prev.UpdatedAt = now
		tx.SetBlock(prev)

		b.ParentID = prevID
		b.UpdatedAt = now
		tx.SetBlock(b)
		changed = true
		return nil
	})
	return changed
}

// Outdent re-parents id to its grandparent (or to the root order when the
// parent is a root), inserted immediately after its former parent. No-op on
// roots.
func (e *Engine) Outdent(id string) bool {
	changed := false
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		b, ok := tx.Block(id)
		if !ok || b.ParentID == "" {
			return nil
		}
		parent, ok := tx.Block(b.ParentID)
		if !ok {
			return nil
		}
		now := e.now()

		parent.ChildIDs = remove(parent.ChildIDs, id)
		parent.UpdatedAt = now
		tx.SetBlock(parent)

		if parent.ParentID == "" {
			tx.SetRootIDs(insertAfter(tx.RootIDs(), parent.ID, id))
			b.ParentID = ""
		} else {
			grand, ok := tx.Block(parent.ParentID)
			if !ok {
				return nil
			}
			grand.ChildIDs = insertAfter(grand.ChildIDs, parent.ID, id)
			grand.UpdatedAt = now
			tx.SetBlock(grand)
			b.ParentID = grand.ID
		}

		b.UpdatedAt = now
		tx.SetBlock(b)
		changed = true
		return nil
	})
	return changed
}

// MoveUp swaps id with its preceding sibling. No-op at the top boundary.
func (e *Engine) MoveUp(id string) bool { return e.swap(id, -1) }

// MoveDown swaps id with its following sibling. No-op at the bottom boundary.
func (e *Engine) MoveDown(id string) bool { return e.swap(id, +1) }

func (e *Engine) swap(id string, delta int) bool {
	changed := false
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		b, ok := tx.Block(id)
		if !ok {
			return nil
		}
		siblings := e.siblingsOf(tx, b)
		idx := indexOf(siblings, id)
		j := idx + delta
		if idx < 0 || j < 0 || j >= len(siblings) {
			return nil
		}
		siblings[idx], siblings[j] = siblings[j], siblings[idx]
		if b.ParentID == "" {
			tx.SetRootIDs(siblings)
		} else {
			parent, ok := tx.Block(b.ParentID)
			if !ok {
				return nil
			}
			parent.ChildIDs = siblings
			parent.UpdatedAt = e.now()
			tx.SetBlock(parent)
		}
		changed = true
		return nil
	})
	return changed
}

// ToggleCollapsed flips the block's shared default collapsed flag. Collapse
// is meaningless on leaves, so those are left alone.
func (e *Engine) ToggleCollapsed(id string) bool {
	changed := false
	_ = e.doc.Transact(doc.OriginLocal, func(tx *doc.Tx) error {
		b, ok := tx.Block(id)
		if !ok || len(b.ChildIDs) == 0 {
			return nil
		}
		b.Collapsed = !b.Collapsed
		b.UpdatedAt = e.now()
		tx.SetBlock(b)
		changed = true
		return nil
	})
	return changed
}

func (e *Engine) siblingsOf(tx *doc.Tx, b model.Block) []string {
	if b.ParentID == "" {
		return tx.RootIDs()
	}
	parent, ok := tx.Block(b.ParentID)
	if !ok {
		return nil
	}
	return parent.ChildIDs
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertAfter(ids []string, afterID, id string) []string {
	idx := indexOf(ids, afterID)
	if idx < 0 {
		return append(ids, id)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:idx+1]...)
	out = append(out, id)
	out = append(out, ids[idx+1:]...)
	return out
}
