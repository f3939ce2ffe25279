package tui

import (
	"context"

	"liner-cli/internal/bridge"
	"liner-cli/internal/doc"
	"liner-cli/internal/engine"
	"liner-cli/internal/layout"
	"liner-cli/internal/outline"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptSwitchWorkspace
	promptNewWorkspace
)

type docChangedMsg struct{}

type reloadMsg struct {
	doc     *doc.Doc
	version int
}

type backendErrMsg struct{ err error }

type execDoneMsg struct {
	blockID string
	err     error
}

type syncDoneMsg struct{ err error }

type workspaceInfoMsg struct {
	current string
	names   []string
}

type appModel struct {
	ctx context.Context
	br  *bridge.Bridge
	eng *engine.Engine
	d   *doc.Doc
	lm  *layout.Manager
	dir string

	width  int
	height int

	editing   bool
	editingID string
	input     textinput.Model

	prompt promptKind

	preview     bool
	previewText string

	workspace  string
	workspaces []string
	lastErr    string
	showHelp   bool
}

func newAppModel(ctx context.Context, br *bridge.Bridge, dir string) appModel {
	applyGlyphPreference()
	in := textinput.New()
	in.Prompt = ""

	m := appModel{
		ctx:   ctx,
		br:    br,
		eng:   engine.New(br.Doc()),
		d:     br.Doc(),
		lm:    layout.Load(dir),
		dir:   dir,
		input: in,
	}
	m.ensureFocus()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.workspaceInfoCmd())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.preview {
			m.previewText = m.renderPreview()
		}
		return m, nil

	case docChangedMsg:
		m.ensureFocus()
		if m.preview {
			m.previewText = m.renderPreview()
		}
		return m, nil

	case reloadMsg:
		m.d = msg.doc
		m.eng = engine.New(msg.doc)
		m.editing = false
		m.preview = false
		m.resetZoom()
		m.ensureFocus()
		return m, m.workspaceInfoCmd()

	case backendErrMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case execDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.lastErr = ""
		}
		return m, nil

	case syncDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		return m, nil

	case workspaceInfoMsg:
		m.workspace = msg.current
		m.workspaces = msg.names
		return m, nil

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

// resetZoom clears pane zoom roots that no longer resolve after a workspace
// reload; stale zoom would render every pane empty.
func (m *appModel) resetZoom() {
	snap := m.d.Snapshot()
	for _, leaf := range m.lm.Leaves() {
		if leaf.RootBlockID == layout.WholeTree {
			continue
		}
		if _, ok := snap.Blocks[leaf.RootBlockID]; !ok {
			m.lm.SetRoot(leaf.ID, layout.WholeTree)
		}
	}
}

// paneRows flattens the document as one pane sees it.
func (m appModel) paneRows(leaf *layout.PaneNode) []outline.Row {
	snap := m.d.Snapshot()
	return outline.Flatten(snap, leaf.RootBlockID, func(blockID string, blockDefault bool) bool {
		return m.lm.IsCollapsed(leaf.ID, blockID, blockDefault)
	})
}

// ensureFocus keeps every pane's focus pointing at a visible row.
func (m *appModel) ensureFocus() {
	for _, leaf := range m.lm.Leaves() {
		rows := m.paneRows(leaf)
		if len(rows) == 0 {
			m.lm.SetFocused(leaf.ID, "")
			continue
		}
		if outline.IndexOf(rows, leaf.FocusedBlockID) < 0 {
			m.lm.SetFocused(leaf.ID, rows[0].BlockID)
		}
	}
}

func (m appModel) focusedID() string {
	leaf := m.lm.ActiveLeaf()
	if leaf == nil {
		return ""
	}
	return leaf.FocusedBlockID
}

func (m *appModel) moveFocus(delta int) {
	leaf := m.lm.ActiveLeaf()
	if leaf == nil {
		return
	}
	rows := m.paneRows(leaf)
	var next string
	if delta > 0 {
		next = outline.Next(rows, leaf.FocusedBlockID)
	} else {
		next = outline.Prev(rows, leaf.FocusedBlockID)
	}
	if next != "" {
		m.lm.SetFocused(leaf.ID, next)
	}
}

func (m *appModel) beginEdit(blockID string) {
	b, ok := m.d.Block(blockID)
	if !ok {
		return
	}
	m.editing = true
	m.editingID = blockID
	m.input.SetValue(b.Content)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *appModel) commitEdit() {
	if !m.editing {
		return
	}
	m.eng.UpdateContent(m.editingID, m.input.Value())
}

func (m *appModel) endEdit() {
	m.editing = false
	m.editingID = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m appModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.focusedID()
	leaf := m.lm.ActiveLeaf()

	switch {
	case isMoveUp(msg):
		m.eng.MoveUp(id)
		return m, nil
	case isMoveDown(msg):
		m.eng.MoveDown(id)
		return m, nil
	case isIndent(msg):
		m.eng.Indent(id)
		return m, nil
	case isOutdent(msg):
		m.eng.Outdent(id)
		return m, nil
	case isExecute(msg):
		return m, m.execBlockCmd(id)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		_ = m.lm.Save(m.dir)
		_ = m.br.ForceSync(m.ctx)
		return m, tea.Quit

	case "up", "k":
		m.moveFocus(-1)
	case "down", "j":
		m.moveFocus(1)

	case "enter":
		if id == "" {
			if newID := m.eng.CreateRoot(); newID != "" && leaf != nil {
				m.lm.SetFocused(leaf.ID, newID)
				m.beginEdit(newID)
			}
			return m, nil
		}
		m.beginEdit(id)

	case "o":
		if newID := m.eng.CreateAfter(id); newID != "" && leaf != nil {
			m.lm.SetFocused(leaf.ID, newID)
			m.beginEdit(newID)
		}
	case "O":
		if newID := m.eng.CreateInside(id); newID != "" && leaf != nil {
			m.lm.SetFocused(leaf.ID, newID)
			m.beginEdit(newID)
		}

	case "d":
		if leaf != nil {
			rows := m.paneRows(leaf)
			prev := outline.Prev(rows, id)
			if m.eng.Delete(id) {
				m.lm.SetFocused(leaf.ID, prev)
				m.ensureFocus()
			}
		}

	case "z":
		if leaf != nil && id != "" {
			m.lm.ToggleCollapsed(leaf.ID, id)
			m.ensureFocus()
		}
	case "Z":
		m.eng.ToggleCollapsed(id)

	case ">":
		if leaf != nil && id != "" {
			m.lm.SetRoot(leaf.ID, id)
			m.ensureFocus()
		}
	case "<":
		if leaf != nil {
			m.lm.SetRoot(leaf.ID, layout.WholeTree)
			m.ensureFocus()
		}

	case "|":
		if leaf != nil {
			m.lm.Split(leaf.ID, layout.Vertical)
			m.ensureFocus()
		}
	case "-":
		if leaf != nil {
			m.lm.Split(leaf.ID, layout.Horizontal)
			m.ensureFocus()
		}
	case "ctrl+w":
		if leaf != nil {
			m.lm.Close(leaf.ID)
			m.ensureFocus()
		}
	case "w":
		m.cycleActivePane()

	case "[":
		m.nudgeRatio(-0.05)
	case "]":
		m.nudgeRatio(0.05)

	case "p":
		m.preview = !m.preview
		if m.preview {
			m.previewText = m.renderPreview()
		}

	case "s":
		return m, m.forceSyncCmd()

	case "W":
		m.prompt = promptSwitchWorkspace
		m.input.SetValue("")
		m.input.Focus()
	case "N":
		m.prompt = promptNewWorkspace
		m.input.SetValue("")
		m.input.Focus()

	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m appModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	leaf := m.lm.ActiveLeaf()
	switch {
	case msg.Type == tea.KeyEnter:
		m.commitEdit()
		prevID := m.editingID
		if m.input.Value() == "" {
			m.endEdit()
			return m, nil
		}
		m.endEdit()
		if newID := m.eng.CreateAfter(prevID); newID != "" && leaf != nil {
			m.lm.SetFocused(leaf.ID, newID)
			m.beginEdit(newID)
		}
		return m, nil

	case msg.Type == tea.KeyEsc:
		m.commitEdit()
		m.endEdit()
		return m, nil

	case isIndent(msg):
		m.commitEdit()
		m.eng.Indent(m.editingID)
		return m, nil
	case isOutdent(msg):
		m.commitEdit()
		m.eng.Outdent(m.editingID)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := m.input.Value()
		kind := m.prompt
		m.prompt = promptNone
		m.input.SetValue("")
		m.input.Blur()
		if name == "" {
			return m, nil
		}
		if kind == promptNewWorkspace {
			return m, m.newWorkspaceCmd(name)
		}
		return m, m.switchWorkspaceCmd(name)

	case tea.KeyEsc:
		m.prompt = promptNone
		m.input.SetValue("")
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) cycleActivePane() {
	leaves := m.lm.Leaves()
	if len(leaves) < 2 {
		return
	}
	active := m.lm.ActivePaneID()
	for i, leaf := range leaves {
		if leaf.ID == active {
			m.lm.SetActive(leaves[(i+1)%len(leaves)].ID)
			return
		}
	}
	m.lm.SetActive(leaves[0].ID)
}

// nudgeRatio adjusts the split directly above the active pane.
func (m *appModel) nudgeRatio(delta float64) {
	split := parentSplit(m.lm.Layout().Root, m.lm.ActivePaneID())
	if split == nil {
		return
	}
	m.lm.SetRatio(split.ID, split.Ratio+delta)
}

func parentSplit(n *layout.PaneNode, paneID string) *layout.PaneNode {
	if n == nil || n.Kind != layout.KindSplit {
		return nil
	}
	for _, c := range []*layout.PaneNode{n.First, n.Second} {
		if c != nil && c.ID == paneID {
			return n
		}
	}
	if s := parentSplit(n.First, paneID); s != nil {
		return s
	}
	return parentSplit(n.Second, paneID)
}

func (m appModel) execBlockCmd(blockID string) tea.Cmd {
	if blockID == "" {
		return nil
	}
	br, ctx := m.br, m.ctx
	return func() tea.Msg {
		return execDoneMsg{blockID: blockID, err: br.ExecuteBlock(ctx, blockID)}
	}
}

func (m appModel) forceSyncCmd() tea.Cmd {
	br, ctx := m.br, m.ctx
	return func() tea.Msg {
		return syncDoneMsg{err: br.ForceSync(ctx)}
	}
}

func (m appModel) switchWorkspaceCmd(name string) tea.Cmd {
	br, ctx := m.br, m.ctx
	return func() tea.Msg {
		if err := br.SwitchWorkspace(ctx, name); err != nil {
			return backendErrMsg{err}
		}
		return nil
	}
}

func (m appModel) newWorkspaceCmd(name string) tea.Cmd {
	br, ctx := m.br, m.ctx
	return func() tea.Msg {
		if err := br.CreateWorkspace(ctx, name); err != nil {
			return backendErrMsg{err}
		}
		return nil
	}
}

func (m appModel) workspaceInfoCmd() tea.Cmd {
	br, ctx := m.br, m.ctx
	return func() tea.Msg {
		current, err := br.CurrentWorkspace(ctx)
		if err != nil {
			return backendErrMsg{err}
		}
		names, err := br.Workspaces(ctx)
		if err != nil {
			return backendErrMsg{err}
		}
		return workspaceInfoMsg{current: current, names: names}
	}
}
