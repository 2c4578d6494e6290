package tui

import "pindl/internal/session"

// Message types for async operations

type viewMsg struct {
	view session.View
	ok   bool
}

type savedMsg struct {
	path string
	err  error
}

type copiedMsg struct {
	what string
	text string
	err  error
}
