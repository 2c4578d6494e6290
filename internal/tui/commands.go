package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"pindl/internal/clipboard"
	"pindl/internal/domain"
	"pindl/internal/session"
)

// Async commands that return tea.Msg

func waitForView(updates <-chan session.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-updates
		return viewMsg{view: v, ok: ok}
	}
}

func saveMedia(saver MediaSaver, result *domain.DownloadResult, index int, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := saver.Save(context.Background(), result, index, dir)
		return savedMsg{path: path, err: err}
	}
}

func copyLink(w clipboard.Writer, result *domain.DownloadResult) tea.Cmd {
	return func() tea.Msg {
		text, err := clipboard.CopyLink(w, result)
		return copiedMsg{what: "Download link", text: text, err: err}
	}
}

func shareSource(w clipboard.Writer, result *domain.DownloadResult) tea.Cmd {
	return func() tea.Msg {
		text, err := clipboard.Share(w, result)
		return copiedMsg{what: "Pin link", text: text, err: err}
	}
}
