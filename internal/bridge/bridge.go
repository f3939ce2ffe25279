// Package bridge reconciles the local replicated document with the external
// persisted replica: initial load, debounced push of local edits, immediate
// force-sync, and full reload on workspace switch.
//
// The one correctness rule everything here serves: state applied to the
// local document that came FROM the backend is tagged remote-origin, and the
// change listener ignores remote-origin notifications. Without that tag the
// bridge is a feedback loop.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"liner-cli/internal/doc"
	"liner-cli/internal/model"
)

// DefaultDebounce coalesces bursts of edits into one push.
const DefaultDebounce = 50 * time.Millisecond

// Backend is the persisted-replica contract. Implementations must be safe
// for concurrent use; the bridge pushes from timer goroutines.
type Backend interface {
	LoadInitialState(ctx context.Context) ([]byte, error)
	ApplyUpdate(ctx context.Context, state []byte) error
	Save(ctx context.Context) error

	ListWorkspaces(ctx context.Context) ([]string, error)
	LoadWorkspace(ctx context.Context, name string) ([]byte, error)
	NewWorkspace(ctx context.Context, name string) ([]byte, error)
	ClearWorkspace(ctx context.Context) ([]byte, error)
	CurrentWorkspace(ctx context.Context) (string, error)

	// ExecuteCommand runs the command, appends output/error blocks under
	// blockID in the backend's replica, and returns the updated state.
	ExecuteCommand(ctx context.Context, blockID, command string) ([]byte, error)
}

// ErrNotCommand is returned by ExecuteBlock for blocks that are not shell
// commands. Only sh::/term:: content is executable; the other prefixes mark
// block kinds, not things to run.
var ErrNotCommand = errors.New("block is not a shell command")

type Bridge struct {
	backend  Backend
	debounce time.Duration

	mu       sync.Mutex
	ctx      context.Context
	doc      *doc.Doc
	unsub    func()
	timer    *time.Timer
	pushing  bool
	dirty    bool
	version  int
	started  bool
	onError  func(error)
	onReload func(d *doc.Doc, version int)
}

func New(backend Backend, debounce time.Duration) *Bridge {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Bridge{backend: backend, debounce: debounce}
}

// Start loads the initial state into a fresh document and begins listening
// for local edits. The returned document is also available via Doc().
func (br *Bridge) Start(ctx context.Context) (*doc.Doc, error) {
	data, err := br.backend.LoadInitialState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load initial state: %w", err)
	}
	snap, err := doc.DecodeState(data)
	if err != nil {
		return nil, err
	}

	br.mu.Lock()
	br.ctx = ctx
	br.started = true
	d := doc.New()
	br.doc = d
	br.mu.Unlock()

	d.ApplySnapshot(snap, doc.OriginRemote)

	br.mu.Lock()
	br.unsub = d.Subscribe(br.onChange)
	br.mu.Unlock()
	return d, nil
}

// SetOnError registers the callback receiving backend failures (push,
// execute). Failures are surfaced, never retried automatically, and never
// touch local state. Safe to call at any time, including mid-push.
func (br *Bridge) SetOnError(fn func(error)) {
	br.mu.Lock()
	br.onError = fn
	br.mu.Unlock()
}

// SetOnReload registers the callback fired after a workspace switch with the
// fresh document and the bumped session version; consumers must re-subscribe.
func (br *Bridge) SetOnReload(fn func(d *doc.Doc, version int)) {
	br.mu.Lock()
	br.onReload = fn
	br.mu.Unlock()
}

func (br *Bridge) Doc() *doc.Doc {
	br.mu.Lock()
	defer br.mu.Unlock()
	return br.doc
}

// Version counts workspace reloads; consumers compare it to decide whether
// their subscriptions still point at the live document.
func (br *Bridge) Version() int {
	br.mu.Lock()
	defer br.mu.Unlock()
	return br.version
}

// Pending reports whether unsynced local edits exist (a debounce window is
// open or a push is in flight).
func (br *Bridge) Pending() bool {
	br.mu.Lock()
	defer br.mu.Unlock()
	return br.timer != nil || br.pushing || br.dirty
}

func (br *Bridge) onChange(ch doc.Change) {
	if ch.Origin == doc.OriginRemote {
		return
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if !br.started {
		return
	}
	if br.pushing {
		// A push is in flight; do not interrupt it. A fresh window opens
		// once it resolves.
		br.dirty = true
		return
	}
	br.scheduleLocked()
}

// scheduleLocked (re)opens the debounce window. Caller holds br.mu.
func (br *Bridge) scheduleLocked() {
	if br.timer != nil {
		br.timer.Stop()
	}
	br.timer = time.AfterFunc(br.debounce, br.push)
}

func (br *Bridge) push() {
	br.mu.Lock()
	if br.doc == nil {
		br.mu.Unlock()
		return
	}
	br.timer = nil
	br.pushing = true
	d := br.doc
	ctx := br.ctx
	br.mu.Unlock()

	// Serialize at fire time: a burst of N edits yields one push carrying
	// the state as of the last edit.
	data, err := d.EncodeState()
	if err == nil {
		err = br.backend.ApplyUpdate(ctx, data)
	}

	br.mu.Lock()
	br.pushing = false
	onError := br.onError
	if br.dirty {
		br.dirty = false
		br.scheduleLocked()
	}
	br.mu.Unlock()

	if err != nil && onError != nil {
		onError(fmt.Errorf("push document state: %w", err))
	}
}

// ForceSync bypasses the debounce window: cancels any pending timer, pushes
// the current state immediately, and asks the backend to persist.
func (br *Bridge) ForceSync(ctx context.Context) error {
	br.mu.Lock()
	if br.doc == nil {
		br.mu.Unlock()
		return errors.New("bridge not started")
	}
	if br.timer != nil {
		br.timer.Stop()
		br.timer = nil
	}
	br.dirty = false
	d := br.doc
	br.mu.Unlock()

	data, err := d.EncodeState()
	if err != nil {
		return err
	}
	if err := br.backend.ApplyUpdate(ctx, data); err != nil {
		return fmt.Errorf("push document state: %w", err)
	}
	if err := br.backend.Save(ctx); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// SwitchWorkspace reloads the session onto another workspace.
func (br *Bridge) SwitchWorkspace(ctx context.Context, name string) error {
	data, err := br.backend.LoadWorkspace(ctx, name)
	if err != nil {
		return fmt.Errorf("load workspace %q: %w", name, err)
	}
	return br.reload(ctx, data)
}

// CreateWorkspace creates and switches to a fresh workspace.
func (br *Bridge) CreateWorkspace(ctx context.Context, name string) error {
	data, err := br.backend.NewWorkspace(ctx, name)
	if err != nil {
		return fmt.Errorf("new workspace %q: %w", name, err)
	}
	return br.reload(ctx, data)
}

// ClearWorkspace resets the current workspace to its empty state.
func (br *Bridge) ClearWorkspace(ctx context.Context) error {
	data, err := br.backend.ClearWorkspace(ctx)
	if err != nil {
		return fmt.Errorf("clear workspace: %w", err)
	}
	return br.reload(ctx, data)
}

func (br *Bridge) Workspaces(ctx context.Context) ([]string, error) {
	return br.backend.ListWorkspaces(ctx)
}

func (br *Bridge) CurrentWorkspace(ctx context.Context) (string, error) {
	return br.backend.CurrentWorkspace(ctx)
}

// reload discards the current document, installs the given snapshot into a
// fresh one, and bumps the session version. Pending timers are cancelled:
// edits belonging to the old workspace must not leak into the new one.
func (br *Bridge) reload(ctx context.Context, data []byte) error {
	snap, err := doc.DecodeState(data)
	if err != nil {
		return err
	}

	br.mu.Lock()
	if br.timer != nil {
		br.timer.Stop()
		br.timer = nil
	}
	br.dirty = false
	if br.unsub != nil {
		br.unsub()
	}
	d := doc.New()
	br.doc = d
	br.ctx = ctx
	br.version++
	version := br.version
	br.mu.Unlock()

	d.ApplySnapshot(snap, doc.OriginRemote)

	br.mu.Lock()
	br.unsub = d.Subscribe(br.onChange)
	onReload := br.onReload
	br.mu.Unlock()

	if onReload != nil {
		onReload(d, version)
	}
	return nil
}

// ExecuteBlock dispatches a command block to the backend executor and merges
// the returned state remote-tagged, so the result is not pushed back.
func (br *Bridge) ExecuteBlock(ctx context.Context, blockID string) error {
	d := br.Doc()
	if d == nil {
		return errors.New("bridge not started")
	}
	b, ok := d.Block(blockID)
	if !ok {
		return fmt.Errorf("block %q not found", blockID)
	}
	command := model.ShellCommand(b.Content)
	if command == "" {
		return ErrNotCommand
	}
	data, err := br.backend.ExecuteCommand(ctx, blockID, command)
	if err != nil {
		return fmt.Errorf("execute command: %w", err)
	}
	snap, err := doc.DecodeState(data)
	if err != nil {
		return err
	}
	d.Merge(snap, doc.OriginRemote)
	return nil
}

// Close stops listening and cancels any pending push. An in-flight push is
// left to finish; it only reads an already-serialized payload.
func (br *Bridge) Close() {
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.timer != nil {
		br.timer.Stop()
		br.timer = nil
	}
	if br.unsub != nil {
		br.unsub()
		br.unsub = nil
	}
	br.started = false
}
