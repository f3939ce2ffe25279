package tui

import tea "github.com/charmbracelet/bubbletea"

// Move/indent bindings with fallbacks: not every terminal delivers the
// alt+arrow combos, so each structural edit also has a ctrl key.

func isMoveUp(k tea.KeyMsg) bool {
	if k.Type == tea.KeyUp && k.Alt {
		return true
	}
	return k.Type == tea.KeyShiftUp || k.Type == tea.KeyCtrlK
}

func isMoveDown(k tea.KeyMsg) bool {
	if k.Type == tea.KeyDown && k.Alt {
		return true
	}
	return k.Type == tea.KeyShiftDown || k.Type == tea.KeyCtrlJ
}

func isIndent(k tea.KeyMsg) bool {
	if k.Type == tea.KeyRight && k.Alt {
		return true
	}
	return k.Type == tea.KeyTab || k.Type == tea.KeyCtrlL
}

func isOutdent(k tea.KeyMsg) bool {
	if k.Type == tea.KeyLeft && k.Alt {
		return true
	}
	return k.Type == tea.KeyShiftTab || k.Type == tea.KeyCtrlH
}

func isExecute(k tea.KeyMsg) bool {
	return k.Type == tea.KeyCtrlE || k.String() == "!"
}
