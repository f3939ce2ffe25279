package tui

import (
	"context"
	"sync"

	"liner-cli/internal/bridge"
	"liner-cli/internal/doc"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the outliner TUI over an already-started bridge. It owns the
// bridge callbacks for the duration of the program: backend errors and
// workspace reloads are forwarded into the bubbletea loop, and the change
// subscription is moved to the fresh document on every reload.
func Run(ctx context.Context, br *bridge.Bridge, dir string) error {
	m := newAppModel(ctx, br, dir)
	p := tea.NewProgram(m, tea.WithAltScreen())

	var mu sync.Mutex
	unsub := br.Doc().Subscribe(func(doc.Change) {
		p.Send(docChangedMsg{})
	})

	br.SetOnError(func(err error) {
		p.Send(backendErrMsg{err})
	})
	br.SetOnReload(func(d *doc.Doc, version int) {
		mu.Lock()
		unsub()
		unsub = d.Subscribe(func(doc.Change) {
			p.Send(docChangedMsg{})
		})
		mu.Unlock()
		p.Send(reloadMsg{doc: d, version: version})
	})
	defer func() {
		br.SetOnError(nil)
		br.SetOnReload(nil)
		mu.Lock()
		unsub()
		mu.Unlock()
	}()

	_, err := p.Run()
	return err
}
