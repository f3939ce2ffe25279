package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"liner-cli/internal/doc"
	"liner-cli/internal/model"
)

func openTestBackend(t *testing.T) (*Local, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	return l, dir
}

func decodeState(t *testing.T, b []byte) doc.Snapshot {
	t.Helper()
	snap, err := doc.DecodeState(b)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return snap
}

func TestConfigDirEnvOverride(t *testing.T) {
	t.Setenv(ConfigDirEnv, "/tmp/liner-test-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if dir != "/tmp/liner-test-config" {
		t.Fatalf("dir = %q", dir)
	}

	t.Setenv(ConfigDirEnv, "")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if filepath.Base(dir) != ".float-liner" {
		t.Fatalf("default dir = %q", dir)
	}
}

func TestOpenSeedsDefaultWorkspace(t *testing.T) {
	l, _ := openTestBackend(t)
	ctx := context.Background()

	name, err := l.CurrentWorkspace(ctx)
	if err != nil || name != DefaultWorkspace {
		t.Fatalf("current = %q, %v", name, err)
	}

	state, err := l.LoadInitialState(ctx)
	if err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}
	snap := decodeState(t, state)
	if err := doc.CheckSnapshot(snap); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	if len(snap.RootIDs) == 0 {
		t.Fatalf("seed has no roots")
	}

	names, err := l.ListWorkspaces(ctx)
	if err != nil || len(names) != 1 || names[0] != DefaultWorkspace {
		t.Fatalf("workspaces = %v, %v", names, err)
	}
}

func TestSaveThenReopenRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, dir := openTestBackend(t)

	snap := doc.Snapshot{
		Version: 1,
		Blocks: map[string]model.Block{
			"A": {ID: "A", Content: "edited", Type: model.BlockText, ChildIDs: []string{}, UpdatedAt: 7},
		},
		RootIDs: []string{"A"},
	}
	state, _ := snap.Encode()
	if err := l.ApplyUpdate(ctx, state); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if err := l.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l2, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ := l2.LoadInitialState(ctx)
	if snap2 := decodeState(t, got); snap2.Blocks["A"].Content != "edited" {
		t.Fatalf("reopened state = %+v", snap2)
	}
}

func TestApplyUpdateWithoutSaveIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	l, dir := openTestBackend(t)
	seeded, _ := l.LoadInitialState(ctx)

	snap := doc.Snapshot{
		Version: 1,
		Blocks:  map[string]model.Block{"A": {ID: "A", ChildIDs: []string{}}},
		RootIDs: []string{"A"},
	}
	state, _ := snap.Encode()
	if err := l.ApplyUpdate(ctx, state); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}

	l2, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ := l2.LoadInitialState(ctx)
	if string(got) != string(seeded) {
		t.Fatalf("unsaved update leaked to disk")
	}
}

func TestApplyUpdateRejectsGarbage(t *testing.T) {
	l, _ := openTestBackend(t)
	if err := l.ApplyUpdate(context.Background(), []byte(`{garbage`)); err == nil {
		t.Fatalf("garbage state accepted")
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestBackend(t)

	// Leave a mark on the default workspace, then create a second one.
	snap := doc.Snapshot{
		Version: 1,
		Blocks:  map[string]model.Block{"A": {ID: "A", Content: "default ws", ChildIDs: []string{}}},
		RootIDs: []string{"A"},
	}
	marked, _ := snap.Encode()
	if err := l.ApplyUpdate(ctx, marked); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}

	state, err := l.NewWorkspace(ctx, "scratch")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if name, _ := l.CurrentWorkspace(ctx); name != "scratch" {
		t.Fatalf("current = %q", name)
	}
	if s := decodeState(t, state); len(s.RootIDs) == 0 {
		t.Fatalf("new workspace not seeded")
	}

	names, err := l.ListWorkspaces(ctx)
	if err != nil || len(names) != 2 || names[0] != "default" || names[1] != "scratch" {
		t.Fatalf("workspaces = %v, %v", names, err)
	}

	// Creating over an existing name is refused.
	if _, err := l.NewWorkspace(ctx, "default"); err == nil {
		t.Fatalf("duplicate workspace accepted")
	}

	// Switching back finds the pre-switch edit: it was saved on the way out.
	state, err = l.LoadWorkspace(ctx, "default")
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	if s := decodeState(t, state); s.Blocks["A"].Content != "default ws" {
		t.Fatalf("edit lost across switch: %+v", s)
	}

	if _, err := l.LoadWorkspace(ctx, "missing"); !errors.Is(err, ErrNoWorkspace) {
		t.Fatalf("err = %v, want ErrNoWorkspace", err)
	}
}

func TestClearWorkspaceResetsToSeed(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestBackend(t)

	snap := doc.Snapshot{
		Version: 1,
		Blocks:  map[string]model.Block{"A": {ID: "A", Content: "junk", ChildIDs: []string{}}},
		RootIDs: []string{"A"},
	}
	state, _ := snap.Encode()
	_ = l.ApplyUpdate(ctx, state)

	cleared, err := l.ClearWorkspace(ctx)
	if err != nil {
		t.Fatalf("ClearWorkspace: %v", err)
	}
	s := decodeState(t, cleared)
	if _, ok := s.Blocks["A"]; ok {
		t.Fatalf("cleared workspace still holds old blocks")
	}
	if err := doc.CheckSnapshot(s); err != nil {
		t.Fatalf("cleared state: %v", err)
	}
	if name, _ := l.CurrentWorkspace(ctx); name != DefaultWorkspace {
		t.Fatalf("clear must not switch workspaces, current = %q", name)
	}
}
