package tui

import (
	"fmt"
	"strings"

	"liner-cli/internal/layout"
	"liner-cli/internal/model"
	"liner-cli/internal/outline"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func (m appModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	bodyH := m.height - 1
	if m.showHelp {
		bodyH -= helpLineCount
	}
	body := m.renderNode(m.lm.Layout().Root, m.width, bodyH)

	parts := []string{body}
	if m.showHelp {
		parts = append(parts, m.renderHelp())
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderNode lays out the pane tree. A vertical split puts its children side
// by side; a horizontal split stacks them.
func (m appModel) renderNode(n *layout.PaneNode, w, h int) string {
	if n == nil || w < 4 || h < 3 {
		return ""
	}
	if n.Kind == layout.KindLeaf {
		return m.renderPane(n, w, h)
	}
	if n.Direction == layout.Vertical {
		firstW, secondW := splitSizes(w, n.Ratio)
		return lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderNode(n.First, firstW, h),
			m.renderNode(n.Second, secondW, h))
	}
	firstH, secondH := splitSizes(h, n.Ratio)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderNode(n.First, w, firstH),
		m.renderNode(n.Second, w, secondH))
}

// splitSizes divides total cells between the two children of a split. Each
// side keeps at least enough room to render a border.
func splitSizes(total int, ratio float64) (int, int) {
	first := int(float64(total) * ratio)
	if first < 4 {
		first = 4
	}
	if first > total-4 {
		first = total - 4
	}
	return first, total - first
}

func (m appModel) renderPane(leaf *layout.PaneNode, w, h int) string {
	innerW, innerH := w-2, h-2
	active := leaf.ID == m.lm.ActivePaneID()

	st := stylePane
	if active {
		st = styleActivePane
	}

	var body string
	if m.preview && active {
		body = m.previewText
	} else {
		body = m.renderRows(leaf, innerW, innerH, active)
	}
	return st.Width(innerW).Height(innerH).Render(body)
}

func (m appModel) renderRows(leaf *layout.PaneNode, w, h int, active bool) string {
	rows := m.paneRows(leaf)
	if len(rows) == 0 {
		return styleMuted.Render("empty - press enter to start writing")
	}
	snap := m.d.Snapshot()

	focusIdx := outline.IndexOf(rows, leaf.FocusedBlockID)
	if focusIdx < 0 {
		focusIdx = 0
	}
	start := rowWindow(len(rows), focusIdx, h)

	var lines []string
	for i := start; i < len(rows) && i < start+h; i++ {
		row := rows[i]
		focused := active && row.BlockID == leaf.FocusedBlockID
		lines = append(lines, m.renderRow(leaf, snap.Blocks[row.BlockID], row.Depth, focused, w))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderRow(leaf *layout.PaneNode, b model.Block, depth int, focused bool, w int) string {
	indent := strings.Repeat("  ", depth)

	marker := glyphBullet()
	if len(b.ChildIDs) > 0 {
		if m.lm.IsCollapsed(leaf.ID, b.ID, b.Collapsed) {
			marker = glyphTwistyCollapsed()
		} else {
			marker = glyphTwistyExpanded()
		}
	}

	if focused && m.editing && b.ID == m.editingID {
		return clipLine(indent+marker+" "+m.input.View(), w)
	}

	content := b.Content
	if b.Status != "" && b.ExitCode != nil {
		content = fmt.Sprintf("%s [%s %d]", content, b.Status, *b.ExitCode)
	}

	line := indent + marker + " " + content
	st := styleForType(b.Type)
	if focused {
		st = styleFocusRow
	}
	return clipLine(st.Render(line), w)
}

func styleForType(t model.BlockType) lipgloss.Style {
	switch t {
	case model.BlockShell, model.BlockAI, model.BlockContext, model.BlockDispatch, model.BlockWeb:
		return styleCommand
	case model.BlockOutput:
		return styleOutput
	case model.BlockError:
		return styleError
	default:
		return lipgloss.NewStyle()
	}
}

// rowWindow picks the first visible row so the focused row stays centered
// once the outline outgrows the pane.
func rowWindow(total, focus, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	start := focus - height/2
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start
}

// clipLine hard-limits a styled line to w columns, terminating ANSI styling
// so a cut never bleeds into the next row.
func clipLine(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	return xansi.Cut(s, 0, w) + "\x1b[0m"
}

func (m appModel) renderStatusBar() string {
	var sb strings.Builder

	sync := glyphSynced()
	if m.br.Pending() {
		sync = glyphPending()
	}
	fmt.Fprintf(&sb, " %s %s", sync, m.workspace)

	if len(m.lm.Leaves()) > 1 {
		fmt.Fprintf(&sb, "  panes:%d", len(m.lm.Leaves()))
	}

	if m.prompt != promptNone {
		label := "workspace"
		if m.prompt == promptNewWorkspace {
			label = "new workspace"
		}
		hint := ""
		if len(m.workspaces) > 0 {
			hint = " (" + strings.Join(m.workspaces, ", ") + ")"
		}
		fmt.Fprintf(&sb, "  %s%s: %s", label, hint, m.input.View())
		return clipLine(styleStatusBar.Render(sb.String()), m.width)
	}

	if m.lastErr != "" {
		sb.WriteString("  " + styleError.Render(m.lastErr))
	} else {
		sb.WriteString("  ? for help")
	}
	return clipLine(styleStatusBar.Render(sb.String()), m.width)
}

const helpLineCount = 4

func (m appModel) renderHelp() string {
	lines := []string{
		"enter edit  o sibling  O child  d delete  tab/shift+tab indent/outdent  alt+up/down move",
		"z collapse (pane)  Z collapse (all panes)  > zoom  < zoom out  ctrl+e/! run command",
		"| split  - split below  w next pane  ctrl+w close pane  [ ] resize  p preview",
		"s sync now  W switch workspace  N new workspace  q quit",
	}
	return styleStatusBar.Render(strings.Join(lines, "\n"))
}

// renderPreview renders the focused subtree through glamour. Rebuilt on
// toggle, edit, and resize rather than every frame.
func (m appModel) renderPreview() string {
	id := m.focusedID()
	if id == "" {
		return styleMuted.Render("nothing to preview")
	}
	md := outline.Markdown(m.d.Snapshot(), id)

	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
