// Package backend is the local persisted replica: named workspace snapshots
// in a SQLite database under the config dir, plus the shell executor that
// turns command blocks into output subtrees.
//
// ApplyUpdate only refreshes the in-memory replica; Save is what writes the
// current workspace row. Workspace switches persist the outgoing workspace
// first, so the only edits at risk are the ones a crash loses between saves.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"liner-cli/internal/doc"
	"liner-cli/internal/engine"
	"liner-cli/internal/model"
)

// DefaultWorkspace is the workspace opened on first run.
const DefaultWorkspace = "default"

const currentWorkspaceKey = "current_workspace"

// Local implements the bridge's backend contract on top of the workspace
// database. Safe for concurrent use; the bridge pushes from timer goroutines.
type Local struct {
	mu      sync.Mutex
	dir     string
	current string
	state   []byte

	now   func() int64
	newID func() string
}

// Open loads (or seeds) the current workspace from the database in dir.
func Open(ctx context.Context, dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("empty config dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	l := &Local{
		dir:   dir,
		now:   func() int64 { return time.Now().UnixMilli() },
		newID: engine.NewBlockID,
	}

	db, err := l.openDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	defer db.Close()

	name, err := readMeta(ctx, db, currentWorkspaceKey)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultWorkspace
		if err := writeMeta(ctx, db, currentWorkspaceKey, name); err != nil {
			return nil, err
		}
	}

	state, err := readWorkspaceRow(ctx, db, name)
	if errors.Is(err, ErrNoWorkspace) {
		state, err = l.seedState()
		if err != nil {
			return nil, err
		}
		if err := writeWorkspaceRow(ctx, db, name, state); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	l.current = name
	l.state = state
	return l, nil
}

// Dir returns the config directory the backend was opened on.
func (l *Local) Dir() string { return l.dir }

func (l *Local) LoadInitialState(ctx context.Context) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.state...), nil
}

// ApplyUpdate replaces the in-memory replica of the current workspace. The
// payload must decode; garbage is rejected before it can shadow good state.
func (l *Local) ApplyUpdate(ctx context.Context, state []byte) error {
	if _, err := doc.DecodeState(state); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = append([]byte(nil), state...)
	return nil
}

// Save persists the current workspace replica to its database row.
func (l *Local) Save(ctx context.Context) error {
	l.mu.Lock()
	name := l.current
	state := append([]byte(nil), l.state...)
	l.mu.Unlock()

	db, err := l.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return writeWorkspaceRow(ctx, db, name, state)
}

func (l *Local) ListWorkspaces(ctx context.Context) ([]string, error) {
	db, err := l.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return listWorkspaceRows(ctx, db)
}

// LoadWorkspace makes name the current workspace and returns its state. The
// outgoing workspace is persisted first.
func (l *Local) LoadWorkspace(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("empty workspace name")
	}
	if err := l.Save(ctx); err != nil {
		return nil, err
	}

	db, err := l.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	state, err := readWorkspaceRow(ctx, db, name)
	if err != nil {
		return nil, fmt.Errorf("workspace %q: %w", name, err)
	}
	if err := writeMeta(ctx, db, currentWorkspaceKey, name); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = name
	l.state = append([]byte(nil), state...)
	l.mu.Unlock()
	return state, nil
}

// NewWorkspace creates a seeded workspace, makes it current and returns its
// state. Refused when the name is already taken.
func (l *Local) NewWorkspace(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("empty workspace name")
	}
	if err := l.Save(ctx); err != nil {
		return nil, err
	}

	db, err := l.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	exists, err := workspaceRowExists(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("workspace %q already exists", name)
	}

	state, err := l.seedState()
	if err != nil {
		return nil, err
	}
	if err := writeWorkspaceRow(ctx, db, name, state); err != nil {
		return nil, err
	}
	if err := writeMeta(ctx, db, currentWorkspaceKey, name); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = name
	l.state = append([]byte(nil), state...)
	l.mu.Unlock()
	return state, nil
}

// ClearWorkspace resets the current workspace to its seeded state.
func (l *Local) ClearWorkspace(ctx context.Context) ([]byte, error) {
	state, err := l.seedState()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	name := l.current
	l.state = append([]byte(nil), state...)
	l.mu.Unlock()

	db, err := l.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := writeWorkspaceRow(ctx, db, name, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (l *Local) CurrentWorkspace(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, nil
}

// seedState builds the welcome content every fresh workspace starts with.
func (l *Local) seedState() ([]byte, error) {
	now := l.now()
	rootID := l.newID()
	tips := []string{
		"Press enter to add a sibling, tab to indent.",
		"Prefix a line with sh:: to run it as a shell command.",
		"Split the view with | or -, zoom a subtree with >.",
	}
	snap := doc.Snapshot{Version: 1, Blocks: map[string]model.Block{}}

	childIDs := make([]string, 0, len(tips))
	for _, tip := range tips {
		id := l.newID()
		snap.Blocks[id] = model.Block{
			ID:        id,
			ParentID:  rootID,
			ChildIDs:  []string{},
			Content:   tip,
			Type:      model.DeriveType(tip),
			CreatedAt: now,
			UpdatedAt: now,
		}
		childIDs = append(childIDs, id)
	}
	snap.Blocks[rootID] = model.Block{
		ID:        rootID,
		ChildIDs:  childIDs,
		Content:   "Welcome to liner",
		Type:      model.BlockText,
		CreatedAt: now,
		UpdatedAt: now,
	}
	snap.RootIDs = []string{rootID}
	return snap.Encode()
}
