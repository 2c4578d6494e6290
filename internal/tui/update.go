package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"pindl/internal/domain"
	"pindl/internal/session"
)

var (
	keyQuit    = key.NewBinding(key.WithKeys("ctrl+c", "esc"))
	keySubmit  = key.NewBinding(key.WithKeys("enter"))
	keyExample = key.NewBinding(key.WithKeys("ctrl+e"))
	keySave    = key.NewBinding(key.WithKeys("ctrl+d"))
	keyCopy    = key.NewBinding(key.WithKeys("ctrl+y"))
	keyShare   = key.NewBinding(key.WithKeys("ctrl+s"))
	keyNext    = key.NewBinding(key.WithKeys("ctrl+n"))
	keyPrev    = key.NewBinding(key.WithKeys("ctrl+p"))
	keyFocus   = key.NewBinding(key.WithKeys("tab"))
	keyUp      = key.NewBinding(key.WithKeys("up", "k"))
	keyDown    = key.NewBinding(key.WithKeys("down", "j"))
	keyRemove  = key.NewBinding(key.WithKeys("x", "delete"))
	keyClear   = key.NewBinding(key.WithKeys("C"))
	keyQuitAlt = key.NewBinding(key.WithKeys("q"))
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
		return m, nil

	case viewMsg:
		if !msg.ok {
			return m, nil
		}
		m.applyView(msg.view)
		return m, waitForView(m.updates)

	case savedMsg:
		if msg.err != nil {
			m.errorMessage = "Download failed: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = "✓ Saved to " + msg.path
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.errorMessage = "Copy failed: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = "✓ " + msg.what + " copied: " + msg.text
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// applyView takes a fresh session view, keeping cursor and gallery positions in range.
func (m *Model) applyView(v session.View) {
	if v.Result != m.view.Result {
		m.gallery = 0
	}
	// The input box is the source of truth for what is typed; views can lag behind it.
	m.view = v
	if m.cursor >= len(v.History) {
		m.cursor = max(len(v.History)-1, 0)
	}
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	m.statusMessage = ""

	switch {
	case key.Matches(msg, keyQuit):
		return m.quit()

	case key.Matches(msg, keyFocus):
		if m.focus == focusInput {
			m.focus = focusHistory
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, keyExample):
		m.session.FillExample()
		m.input.SetValue(domain.ExampleURL)
		m.input.CursorEnd()
		return m, nil

	case key.Matches(msg, keyNext):
		if r := m.view.Result; r != nil {
			m.gallery = nextIndex(m.gallery, len(r.URLs))
		}
		return m, nil

	case key.Matches(msg, keyPrev):
		if r := m.view.Result; r != nil {
			m.gallery = prevIndex(m.gallery, len(r.URLs))
		}
		return m, nil

	case key.Matches(msg, keySave):
		if r := m.view.Result; r != nil {
			return m, saveMedia(m.saver, r, m.gallery, m.downloadDir)
		}
		return m, nil

	case key.Matches(msg, keyCopy):
		if r := m.view.Result; r != nil {
			return m, copyLink(m.clip, r)
		}
		return m, nil

	case key.Matches(msg, keyShare):
		if r := m.view.Result; r != nil {
			return m, shareSource(m.clip, r)
		}
		return m, nil
	}

	if m.focus == focusHistory {
		return m.handleHistoryKeys(msg)
	}
	return m.handleInputKeys(msg)
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keySubmit) {
		m.session.SetInput(m.input.Value())
		m.session.SubmitInput(m.ctx)
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.session.SetInput(after)
	}
	return m, cmd
}

func (m Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	history := m.view.History

	switch {
	case key.Matches(msg, keyQuitAlt):
		return m.quit()

	case key.Matches(msg, keyUp):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keyDown):
		if m.cursor < len(history)-1 {
			m.cursor++
		}

	case key.Matches(msg, keyRemove):
		if m.cursor < len(history) {
			if m.session.RemoveEntry(m.ctx, history[m.cursor].ID) {
				m.statusMessage = "✓ Removed from history"
			}
		}

	case key.Matches(msg, keyClear):
		m.session.ClearHistory(m.ctx)
		m.cursor = 0
		m.statusMessage = "✓ History cleared"
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

// selected returns the gallery item currently shown, if any.
func (m Model) selected() (domain.MediaURL, bool) {
	r := m.view.Result
	if r == nil || m.gallery >= len(r.URLs) {
		return domain.MediaURL{}, false
	}
	return r.URLs[m.gallery], true
}
