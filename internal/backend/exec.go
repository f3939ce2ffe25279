package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"liner-cli/internal/doc"
	"liner-cli/internal/model"
)

// SetClock overrides the timestamp source. Intended for tests.
func (l *Local) SetClock(fn func() int64) { l.now = fn }

// SetIDFunc overrides block id allocation. Intended for tests.
func (l *Local) SetIDFunc(fn func() string) { l.newID = fn }

// ExecuteCommand runs the command through sh -c and appends the captured
// output under blockID: stdout as output blocks, stderr as error blocks, both
// run through the markdown tree parser so structured output nests. The target
// block records the exit status. Returns the updated workspace state.
func (l *Local) ExecuteCommand(ctx context.Context, blockID, command string) ([]byte, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run command: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snap, err := doc.DecodeState(l.state)
	if err != nil {
		return nil, err
	}
	target, ok := snap.Blocks[blockID]
	if !ok {
		return nil, fmt.Errorf("block %q not found", blockID)
	}

	now := l.now()
	if strings.TrimSpace(stdout.String()) != "" {
		ids := l.insertParsed(&snap, parseMarkdownTree(stdout.String()), blockID, model.BlockOutput, now)
		target.ChildIDs = append(target.ChildIDs, ids...)
	}
	if strings.TrimSpace(stderr.String()) != "" {
		ids := l.insertParsed(&snap, parseMarkdownTree(stderr.String()), blockID, model.BlockError, now)
		target.ChildIDs = append(target.ChildIDs, ids...)
	}

	target.Status = model.ExecComplete
	if exitCode != 0 {
		target.Status = model.ExecError
	}
	target.ExitCode = &exitCode
	// Expand so the fresh output is visible.
	target.Collapsed = false
	target.UpdatedAt = now
	snap.Blocks[blockID] = target

	state, err := snap.Encode()
	if err != nil {
		return nil, err
	}
	l.state = state
	return append([]byte(nil), state...), nil
}

// insertParsed materializes a parsed output tree into the snapshot under
// parentID, allocating ids depth-first. Caller holds l.mu.
func (l *Local) insertParsed(snap *doc.Snapshot, parsed []*parsedBlock, parentID string, typ model.BlockType, now int64) []string {
	ids := make([]string, 0, len(parsed))
	for _, p := range parsed {
		id := l.newID()
		childIDs := l.insertParsed(snap, p.Children, id, typ, now)
		snap.Blocks[id] = model.Block{
			ID:        id,
			ParentID:  parentID,
			ChildIDs:  childIDs,
			Content:   detackify(p.Content),
			Type:      typ,
			CreatedAt: now,
			UpdatedAt: now,
		}
		ids = append(ids, id)
	}
	return ids
}
