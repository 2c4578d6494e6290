// Package session owns the lifecycle of download submissions and the history they produce.
package session

import (
	"pindl/internal/domain"
)

// Status is the state of the submission machine.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is a consistent copy of everything a presentation layer renders.
type View struct {
	Status Status
	// Input is the pending input text.
	Input string
	// Result is set only in StatusSuccess.
	Result *domain.DownloadResult
	// Err is set only in StatusFailed.
	Err error
	// Pending counts submissions that have not resolved yet.
	Pending int
	History []domain.HistoryEntry
	Stats   domain.Stats
}

// ErrorMessage is the user-facing text for Err.
func (v View) ErrorMessage() string {
	return domain.UserMessage(v.Err)
}
