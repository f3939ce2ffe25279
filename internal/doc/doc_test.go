package doc

import (
	"errors"
	"testing"

	"liner-cli/internal/model"
)

func TestTransactCommitsAllOrNothing(t *testing.T) {
	d := New()

	err := d.Transact(OriginLocal, func(tx *Tx) error {
		tx.SetBlock(model.Block{ID: "a", Content: "a", Type: model.BlockText})
		tx.SetRootIDs([]string{"a"})
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if _, ok := d.Block("a"); !ok {
		t.Fatalf("committed block missing")
	}

	boom := errors.New("boom")
	err = d.Transact(OriginLocal, func(tx *Tx) error {
		tx.SetBlock(model.Block{ID: "b", Content: "b"})
		tx.SetRootIDs([]string{"a", "b"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := d.Block("b"); ok {
		t.Fatalf("rolled-back block is visible")
	}
	if got := d.RootIDs(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("rootIds after rollback = %v", got)
	}
}

func TestTxReadsSeeStagedWrites(t *testing.T) {
	d := New()
	_ = d.Transact(OriginLocal, func(tx *Tx) error {
		tx.SetBlock(model.Block{ID: "a", Content: "first"})
		b, ok := tx.Block("a")
		if !ok || b.Content != "first" {
			t.Fatalf("staged read = %+v ok=%v", b, ok)
		}
		tx.DeleteBlock("a")
		if _, ok := tx.Block("a"); ok {
			t.Fatalf("staged delete not visible")
		}
		return nil
	})
	if d.Len() != 0 {
		t.Fatalf("expected empty doc, got %d blocks", d.Len())
	}
}

func TestSubscribeOriginTagging(t *testing.T) {
	d := New()
	var got []Origin
	cancel := d.Subscribe(func(ch Change) { got = append(got, ch.Origin) })
	defer cancel()

	_ = d.Transact(OriginLocal, func(tx *Tx) error {
		tx.SetBlock(model.Block{ID: "a"})
		tx.SetRootIDs([]string{"a"})
		return nil
	})
	d.ApplySnapshot(Snapshot{Blocks: map[string]model.Block{
		"x": {ID: "x"},
	}, RootIDs: []string{"x"}}, OriginRemote)

	if len(got) != 2 || got[0] != OriginLocal || got[1] != OriginRemote {
		t.Fatalf("origins = %v", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := New()
	_ = d.Transact(OriginLocal, func(tx *Tx) error {
		tx.SetBlock(model.Block{ID: "a", Content: "sh:: ls", Type: model.BlockShell, ChildIDs: []string{"b"}})
		tx.SetBlock(model.Block{ID: "b", ParentID: "a", Content: "out", Type: model.BlockOutput})
		tx.SetRootIDs([]string{"a"})
		return nil
	})

	data, err := d.EncodeState()
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	snap, err := DecodeState(data)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}

	d2 := New()
	d2.ApplySnapshot(snap, OriginRemote)
	if d2.Len() != 2 {
		t.Fatalf("restored doc has %d blocks", d2.Len())
	}
	if err := d2.CheckIntegrity(); err != nil {
		t.Fatalf("integrity after round trip: %v", err)
	}
	b, _ := d2.Block("a")
	if b.Type != model.BlockShell || len(b.ChildIDs) != 1 {
		t.Fatalf("block a = %+v", b)
	}
}

func TestMergeLastWriterWins(t *testing.T) {
	d := New()
	_ = d.Transact(OriginLocal, func(tx *Tx) error {
		tx.SetBlock(model.Block{ID: "a", Content: "local newer", UpdatedAt: 200})
		tx.SetBlock(model.Block{ID: "b", Content: "local older", UpdatedAt: 50})
		tx.SetRootIDs([]string{"a", "b"})
		return nil
	})

	d.Merge(Snapshot{
		Blocks: map[string]model.Block{
			"a": {ID: "a", Content: "remote older", UpdatedAt: 100},
			"b": {ID: "b", Content: "remote newer", UpdatedAt: 150},
			"c": {ID: "c", Content: "remote new", UpdatedAt: 150},
		},
		RootIDs: []string{"a", "b", "c"},
	}, OriginRemote)

	a, _ := d.Block("a")
	if a.Content != "local newer" {
		t.Fatalf("a = %q, local write lost", a.Content)
	}
	b, _ := d.Block("b")
	if b.Content != "remote newer" {
		t.Fatalf("b = %q, remote write lost", b.Content)
	}
	if _, ok := d.Block("c"); !ok {
		t.Fatalf("merged-in block missing")
	}
	roots := d.RootIDs()
	if len(roots) != 3 || roots[2] != "c" {
		t.Fatalf("roots = %v", roots)
	}
}

func TestCheckSnapshotCatchesCorruption(t *testing.T) {
	bad := Snapshot{
		Blocks: map[string]model.Block{
			"a": {ID: "a", ChildIDs: []string{"ghost"}},
		},
		RootIDs: []string{"a"},
	}
	if err := CheckSnapshot(bad); err == nil {
		t.Fatalf("expected dangling-child error")
	}

	orphan := Snapshot{
		Blocks: map[string]model.Block{
			"a": {ID: "a"},
		},
	}
	if err := CheckSnapshot(orphan); err == nil {
		t.Fatalf("expected unreachable-block error")
	}
}
