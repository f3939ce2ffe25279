package doc

import (
	"encoding/json"
	"fmt"

	"liner-cli/internal/model"
)

const snapshotVersion = 1

// Snapshot is the serialized full-document state exchanged with the backend.
// It mirrors the replica schema the original desktop app persisted: a blocks
// map keyed by id plus the root order.
type Snapshot struct {
	Version int                    `json:"version"`
	Blocks  map[string]model.Block `json:"blocks"`
	RootIDs []string               `json:"rootIds"`
}

// Snapshot copies the current document state.
func (d *Doc) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := Snapshot{
		Version: snapshotVersion,
		Blocks:  make(map[string]model.Block, len(d.blocks)),
		RootIDs: append([]string(nil), d.rootIDs...),
	}
	for id, b := range d.blocks {
		snap.Blocks[id] = cloneBlock(b)
	}
	return snap
}

// EncodeState serializes the full document for a backend push.
func (d *Doc) EncodeState() ([]byte, error) {
	return d.Snapshot().Encode()
}

// Encode serializes the snapshot into the wire form DecodeState reads.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

func DecodeState(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode document state: %w", err)
	}
	if snap.Blocks == nil {
		snap.Blocks = map[string]model.Block{}
	}
	return snap, nil
}

// ApplySnapshot replaces the whole document state. Loads and reloads use it
// with OriginRemote so the bridge does not push the state straight back.
func (d *Doc) ApplySnapshot(snap Snapshot, origin Origin) {
	d.mu.Lock()
	d.blocks = make(map[string]model.Block, len(snap.Blocks))
	ids := make([]string, 0, len(snap.Blocks))
	for id, b := range snap.Blocks {
		d.blocks[id] = cloneBlock(b)
		ids = append(ids, id)
	}
	d.rootIDs = append([]string(nil), snap.RootIDs...)
	d.mu.Unlock()

	d.notify(Change{Origin: origin, BlockIDs: ids})
}

// Merge folds a remote snapshot into the document without discarding local
// state: per block, the newer updatedAt wins (incoming wins ties so that a
// just-produced execution result lands even under a coarse clock). Blocks the
// local replica never saw are added; root order keeps the local sequence and
// appends unseen remote roots.
//
// This is the path execution results take, which is why it must tolerate
// racing local edits on unrelated blocks.
func (d *Doc) Merge(snap Snapshot, origin Origin) {
	d.mu.Lock()
	var ids []string
	for id, in := range snap.Blocks {
		cur, ok := d.blocks[id]
		if ok && cur.UpdatedAt > in.UpdatedAt {
			continue
		}
		d.blocks[id] = cloneBlock(in)
		ids = append(ids, id)
	}
	seen := map[string]bool{}
	for _, id := range d.rootIDs {
		seen[id] = true
	}
	for _, id := range snap.RootIDs {
		if !seen[id] {
			d.rootIDs = append(d.rootIDs, id)
			seen[id] = true
		}
	}
	d.mu.Unlock()

	if len(ids) > 0 {
		d.notify(Change{Origin: origin, BlockIDs: ids})
	}
}
