package outline

import (
	"fmt"
	"testing"

	"liner-cli/internal/doc"
	"liner-cli/internal/model"
)

// tree:
//
//	A
//	  B
//	    D
//	  C
//	E
func snap() doc.Snapshot {
	return doc.Snapshot{
		Blocks: map[string]model.Block{
			"A": {ID: "A", ChildIDs: []string{"B", "C"}},
			"B": {ID: "B", ParentID: "A", ChildIDs: []string{"D"}},
			"C": {ID: "C", ParentID: "A"},
			"D": {ID: "D", ParentID: "B"},
			"E": {ID: "E"},
		},
		RootIDs: []string{"A", "E"},
	}
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.BlockID
	}
	return out
}

func TestFlattenWholeTreePreOrder(t *testing.T) {
	rows := Flatten(snap(), WholeTree, nil)
	want := []string{"A", "B", "D", "C", "E"}
	if fmt.Sprint(ids(rows)) != fmt.Sprint(want) {
		t.Fatalf("rows = %v, want %v", ids(rows), want)
	}
	// Fully expanded flatten covers every live block.
	if len(rows) != len(snap().Blocks) {
		t.Fatalf("row count %d != block count %d", len(rows), len(snap().Blocks))
	}
	depths := []int{0, 1, 2, 1, 0}
	for i, r := range rows {
		if r.Depth != depths[i] {
			t.Fatalf("depth of %s = %d, want %d", r.BlockID, r.Depth, depths[i])
		}
	}
}

func TestFlattenZoomedRoot(t *testing.T) {
	rows := Flatten(snap(), "B", nil)
	want := []string{"B", "D"}
	if fmt.Sprint(ids(rows)) != fmt.Sprint(want) {
		t.Fatalf("rows = %v, want %v", ids(rows), want)
	}
	if rows[0].Depth != 0 {
		t.Fatalf("zoom root renders at depth 0, got %d", rows[0].Depth)
	}
}

func TestFlattenMissingRootYieldsNothing(t *testing.T) {
	if rows := Flatten(snap(), "ghost", nil); len(rows) != 0 {
		t.Fatalf("rows = %v", ids(rows))
	}
}

func TestFlattenHonorsEffectiveCollapse(t *testing.T) {
	// Pane override collapses B: D disappears, B stays.
	collapsed := func(id string, def bool) bool {
		if id == "B" {
			return !def
		}
		return def
	}
	rows := Flatten(snap(), WholeTree, collapsed)
	want := []string{"A", "B", "C", "E"}
	if fmt.Sprint(ids(rows)) != fmt.Sprint(want) {
		t.Fatalf("rows = %v, want %v", ids(rows), want)
	}
}

func TestFlattenBlockDefaultCollapse(t *testing.T) {
	s := snap()
	a := s.Blocks["A"]
	a.Collapsed = true
	s.Blocks["A"] = a

	rows := Flatten(s, WholeTree, nil)
	want := []string{"A", "E"}
	if fmt.Sprint(ids(rows)) != fmt.Sprint(want) {
		t.Fatalf("rows = %v, want %v", ids(rows), want)
	}
}

func TestFlattenSurvivesCorruptedCycle(t *testing.T) {
	// A corrupted snapshot can carry a childIds cycle; the walk must
	// terminate and emit each block once.
	s := doc.Snapshot{
		Blocks: map[string]model.Block{
			"A": {ID: "A", ChildIDs: []string{"B"}},
			"B": {ID: "B", ParentID: "A", ChildIDs: []string{"A"}},
		},
		RootIDs: []string{"A"},
	}
	rows := Flatten(s, WholeTree, nil)
	want := []string{"A", "B"}
	if fmt.Sprint(ids(rows)) != fmt.Sprint(want) {
		t.Fatalf("rows = %v, want %v", ids(rows), want)
	}
}

func TestNavigationAdjacency(t *testing.T) {
	rows := Flatten(snap(), WholeTree, nil)

	if got := Next(rows, "D"); got != "C" {
		t.Fatalf("Next(D) = %q", got)
	}
	if got := Prev(rows, "C"); got != "D" {
		t.Fatalf("Prev(C) = %q", got)
	}
	if got := Next(rows, "E"); got != "" {
		t.Fatalf("Next at bottom = %q", got)
	}
	if got := Prev(rows, "A"); got != "" {
		t.Fatalf("Prev at top = %q", got)
	}
	if got := Next(rows, "ghost"); got != "" {
		t.Fatalf("Next(ghost) = %q", got)
	}
}
