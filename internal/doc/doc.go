// Package doc holds the replicated outline document: a blocks map plus a
// rootIds order, mutated through atomic transactions that fan out
// origin-tagged change notifications.
//
// The wire shape mirrors the persisted replica (see Snapshot): merging a
// remote state is per-block last-writer-wins on updatedAt, which is enough
// for the single local replica <-> backend replica loop this program runs.
package doc

import (
	"sort"
	"sync"

	"liner-cli/internal/model"
)

// Origin tags where a change came from. The sync bridge only pushes
// local-origin changes; remote-origin applies (initial load, reload,
// execution results) must never be echoed back to the backend.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Change describes one committed transaction.
type Change struct {
	Origin   Origin
	BlockIDs []string
}

type Doc struct {
	mu      sync.Mutex
	blocks  map[string]model.Block
	rootIDs []string

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

func New() *Doc {
	return &Doc{
		blocks: map[string]model.Block{},
		subs:   map[int]func(Change){},
	}
}

// Subscribe registers fn for every committed transaction. The returned
// cancel function is safe to call more than once.
func (d *Doc) Subscribe(fn func(Change)) (cancel func()) {
	d.subMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.subMu.Unlock()
	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}

func (d *Doc) notify(ch Change) {
	d.subMu.Lock()
	fns := make([]func(Change), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(ch)
	}
}

// Tx stages writes against the document. Nothing is visible to readers until
// the transaction function returns nil; an error discards every staged write.
type Tx struct {
	d       *Doc
	staged  map[string]model.Block
	deleted map[string]bool
	roots   []string
	touched map[string]bool
}

// Transact runs fn under the document lock. All staged writes commit
// together, or none do. Subscribers are notified after the lock is released.
func (d *Doc) Transact(origin Origin, fn func(tx *Tx) error) error {
	d.mu.Lock()
	tx := &Tx{
		d:       d,
		staged:  map[string]model.Block{},
		deleted: map[string]bool{},
		touched: map[string]bool{},
	}
	if err := fn(tx); err != nil {
		d.mu.Unlock()
		return err
	}
	for id := range tx.deleted {
		delete(d.blocks, id)
	}
	for id, b := range tx.staged {
		d.blocks[id] = b
	}
	if tx.roots != nil {
		d.rootIDs = tx.roots
	}
	ids := make([]string, 0, len(tx.touched))
	for id := range tx.touched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	d.mu.Unlock()

	if len(ids) > 0 || tx.roots != nil {
		d.notify(Change{Origin: origin, BlockIDs: ids})
	}
	return nil
}

// Block reads a block through the staged overlay.
func (tx *Tx) Block(id string) (model.Block, bool) {
	if tx.deleted[id] {
		return model.Block{}, false
	}
	if b, ok := tx.staged[id]; ok {
		return cloneBlock(b), true
	}
	b, ok := tx.d.blocks[id]
	if !ok {
		return model.Block{}, false
	}
	return cloneBlock(b), true
}

func (tx *Tx) SetBlock(b model.Block) {
	if b.ID == "" {
		return
	}
	delete(tx.deleted, b.ID)
	tx.staged[b.ID] = cloneBlock(b)
	tx.touched[b.ID] = true
}

func (tx *Tx) DeleteBlock(id string) {
	if id == "" {
		return
	}
	delete(tx.staged, id)
	tx.deleted[id] = true
	tx.touched[id] = true
}

// RootIDs returns the root order as seen by this transaction.
func (tx *Tx) RootIDs() []string {
	if tx.roots != nil {
		return append([]string(nil), tx.roots...)
	}
	return append([]string(nil), tx.d.rootIDs...)
}

func (tx *Tx) SetRootIDs(ids []string) {
	tx.roots = append([]string(nil), ids...)
}

// Block reads one block outside a transaction.
func (d *Doc) Block(id string) (model.Block, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blocks[id]
	if !ok {
		return model.Block{}, false
	}
	return cloneBlock(b), true
}

// RootIDs returns a copy of the root order.
func (d *Doc) RootIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.rootIDs...)
}

// Len is the number of live blocks.
func (d *Doc) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.blocks)
}

func cloneBlock(b model.Block) model.Block {
	b.ChildIDs = append([]string(nil), b.ChildIDs...)
	if b.ExitCode != nil {
		v := *b.ExitCode
		b.ExitCode = &v
	}
	return b
}
