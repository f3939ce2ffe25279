package backend

import (
	"context"
	"fmt"
	"testing"

	"liner-cli/internal/doc"
	"liner-cli/internal/model"
)

// seedCommandBlock installs a single command block as the whole workspace and
// makes ids deterministic for assertions.
func seedCommandBlock(t *testing.T, l *Local, content string) {
	t.Helper()
	n := 0
	l.SetIDFunc(func() string { n++; return fmt.Sprintf("out-%d", n) })
	l.SetClock(func() int64 { return 1000 })

	snap := doc.Snapshot{
		Version: 1,
		Blocks: map[string]model.Block{
			"cmd": {ID: "cmd", Content: content, Type: model.DeriveType(content), ChildIDs: []string{}, UpdatedAt: 1},
		},
		RootIDs: []string{"cmd"},
	}
	state, _ := snap.Encode()
	if err := l.ApplyUpdate(context.Background(), state); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
}

func TestExecuteCommandAppendsOutput(t *testing.T) {
	l, _ := openTestBackend(t)
	seedCommandBlock(t, l, "sh:: echo hello")

	state, err := l.ExecuteCommand(context.Background(), "cmd", "echo hello")
	if err != nil {
		t.Fatalf("ExecuteCommand: %v", err)
	}
	snap := decodeState(t, state)
	if err := doc.CheckSnapshot(snap); err != nil {
		t.Fatalf("result state: %v", err)
	}

	cmd := snap.Blocks["cmd"]
	if cmd.Status != model.ExecComplete {
		t.Fatalf("status = %q", cmd.Status)
	}
	if cmd.ExitCode == nil || *cmd.ExitCode != 0 {
		t.Fatalf("exitCode = %v", cmd.ExitCode)
	}
	if len(cmd.ChildIDs) != 1 {
		t.Fatalf("childIds = %v", cmd.ChildIDs)
	}
	out := snap.Blocks[cmd.ChildIDs[0]]
	if out.Content != "hello" || out.Type != model.BlockOutput || out.ParentID != "cmd" {
		t.Fatalf("output block = %+v", out)
	}
}

func TestExecuteCommandCapturesStderrAndExitCode(t *testing.T) {
	l, _ := openTestBackend(t)
	seedCommandBlock(t, l, "sh:: false")

	state, err := l.ExecuteCommand(context.Background(), "cmd", "echo oops 1>&2; exit 3")
	if err != nil {
		t.Fatalf("ExecuteCommand: %v", err)
	}
	snap := decodeState(t, state)

	cmd := snap.Blocks["cmd"]
	if cmd.Status != model.ExecError {
		t.Fatalf("status = %q", cmd.Status)
	}
	if cmd.ExitCode == nil || *cmd.ExitCode != 3 {
		t.Fatalf("exitCode = %v", cmd.ExitCode)
	}
	if len(cmd.ChildIDs) != 1 {
		t.Fatalf("childIds = %v", cmd.ChildIDs)
	}
	errBlock := snap.Blocks[cmd.ChildIDs[0]]
	if errBlock.Content != "oops" || errBlock.Type != model.BlockError {
		t.Fatalf("error block = %+v", errBlock)
	}
}

func TestExecuteCommandSilentSuccess(t *testing.T) {
	l, _ := openTestBackend(t)
	seedCommandBlock(t, l, "sh:: true")

	state, err := l.ExecuteCommand(context.Background(), "cmd", "true")
	if err != nil {
		t.Fatalf("ExecuteCommand: %v", err)
	}
	snap := decodeState(t, state)
	cmd := snap.Blocks["cmd"]
	if len(cmd.ChildIDs) != 0 {
		t.Fatalf("silent command grew children: %v", cmd.ChildIDs)
	}
	if cmd.Status != model.ExecComplete {
		t.Fatalf("status = %q", cmd.Status)
	}
}

func TestExecuteCommandHeadingOutputNests(t *testing.T) {
	l, _ := openTestBackend(t)
	seedCommandBlock(t, l, "sh:: report")

	state, err := l.ExecuteCommand(context.Background(), "cmd",
		`printf '# Top\nintro\n## Sub\ndetail\n'`)
	if err != nil {
		t.Fatalf("ExecuteCommand: %v", err)
	}
	snap := decodeState(t, state)
	if err := doc.CheckSnapshot(snap); err != nil {
		t.Fatalf("result state: %v", err)
	}

	cmd := snap.Blocks["cmd"]
	if len(cmd.ChildIDs) != 1 {
		t.Fatalf("top-level children = %v", cmd.ChildIDs)
	}
	top := snap.Blocks[cmd.ChildIDs[0]]
	if top.Content != "# Top" || len(top.ChildIDs) != 2 {
		t.Fatalf("top = %+v", top)
	}
	intro := snap.Blocks[top.ChildIDs[0]]
	sub := snap.Blocks[top.ChildIDs[1]]
	if intro.Content != "intro" || sub.Content != "## Sub" {
		t.Fatalf("intro = %q, sub = %q", intro.Content, sub.Content)
	}
	if len(sub.ChildIDs) != 1 || snap.Blocks[sub.ChildIDs[0]].Content != "detail" {
		t.Fatalf("sub children = %v", sub.ChildIDs)
	}
}

func TestExecuteCommandUnknownBlock(t *testing.T) {
	l, _ := openTestBackend(t)
	if _, err := l.ExecuteCommand(context.Background(), "ghost", "echo hi"); err == nil {
		t.Fatalf("unknown block accepted")
	}
}

func TestExecuteCommandEmptyCommand(t *testing.T) {
	l, _ := openTestBackend(t)
	if _, err := l.ExecuteCommand(context.Background(), "cmd", "   "); err == nil {
		t.Fatalf("blank command accepted")
	}
}
