package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"pindl/internal/clipboard"
	"pindl/internal/domain"
	"pindl/internal/session"
)

// Session is the part of the session machine the TUI drives.
type Session interface {
	SubmitInput(ctx context.Context) *session.Task
	SetInput(s string)
	FillExample()
	Snapshot() session.View
	Subscribe() (<-chan session.View, func())
	RemoveEntry(ctx context.Context, id int64) bool
	ClearHistory(ctx context.Context)
}

// MediaSaver writes a result's media to disk.
type MediaSaver interface {
	Save(ctx context.Context, result *domain.DownloadResult, index int, dir string) (string, error)
}

type focus int

const (
	focusInput focus = iota
	focusHistory
)

// Model is the Bubbletea model for the downloader screen.
type Model struct {
	ctx context.Context

	// Dependencies
	session     Session
	saver       MediaSaver
	clip        clipboard.Writer
	downloadDir string

	updates     <-chan session.View
	unsubscribe func()

	// State
	view    session.View
	gallery int
	cursor  int
	focus   focus

	// Components
	input   textinput.Model
	spinner spinner.Model

	// UI state
	width         int
	quitting      bool
	statusMessage string
	errorMessage  string
}

// NewModel creates the TUI model and subscribes it to the session.
func NewModel(ctx context.Context, sess Session, saver MediaSaver, clip clipboard.Writer, downloadDir string) Model {
	input := textinput.New()
	input.Placeholder = "Paste Pinterest URL here... (e.g., " + domain.ExampleURL + ")"
	input.Focus()
	input.CharLimit = 2048
	input.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	updates, unsubscribe := sess.Subscribe()
	view := sess.Snapshot()
	input.SetValue(view.Input)

	return Model{
		ctx:         ctx,
		session:     sess,
		saver:       saver,
		clip:        clip,
		downloadDir: downloadDir,
		updates:     updates,
		unsubscribe: unsubscribe,
		view:        view,
		input:       input,
		spinner:     s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForView(m.updates),
	)
}

// nextIndex and prevIndex walk a gallery of n items, wrapping at both ends.
func nextIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < n-1 {
		return i + 1
	}
	return 0
}

func prevIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i > 0 {
		return i - 1
	}
	return n - 1
}
