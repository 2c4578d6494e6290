package domain

import "time"

// MaxHistory is how many entries the history list keeps.
const MaxHistory = 5

// DisplaySuccessRate is the success rate shown to users.
// It is a fixed figure and is not computed from actual outcomes.
const DisplaySuccessRate = 98

const (
	timeOfDayLayout = "3:04:05 PM"
	dateLayout      = "1/2/2006"
)

// HistoryEntry is a record of one past successful extraction.
// The embedded result is flattened into the entry's JSON object.
type HistoryEntry struct {
	DownloadResult

	// ID is a creation-time value used as identity for removal.
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
	// URL is the URL the user originally submitted.
	URL string `json:"url"`
}

// NewHistoryEntry stamps a result with an id, the submitted url and the wall-clock time.
func NewHistoryEntry(result DownloadResult, id int64, submitted string, at time.Time) HistoryEntry {
	return HistoryEntry{
		DownloadResult: result,
		ID:             id,
		Timestamp:      at.Format(timeOfDayLayout),
		Date:           at.Format(dateLayout),
		URL:            submitted,
	}
}

// Stats are the aggregate counters shown next to the history.
type Stats struct {
	TotalDownloads int `json:"totalDownloads"`
	SuccessRate    int `json:"successRate"`
}

// DefaultStats returns the stats of a fresh install.
func DefaultStats() Stats {
	return Stats{TotalDownloads: 0, SuccessRate: DisplaySuccessRate}
}

// PrependHistory inserts entry at the front and drops anything past MaxHistory.
// The input slice is not modified.
func PrependHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	keep := len(history)
	if keep > MaxHistory-1 {
		keep = MaxHistory - 1
	}
	out := make([]HistoryEntry, 0, keep+1)
	out = append(out, entry)
	out = append(out, history[:keep]...)
	return out
}

// RemoveHistory returns history without the entry whose ID is id, and whether one was found.
func RemoveHistory(history []HistoryEntry, id int64) ([]HistoryEntry, bool) {
	out := make([]HistoryEntry, 0, len(history))
	found := false
	for _, e := range history {
		if e.ID == id {
			found = true
			continue
		}
		out = append(out, e)
	}
	return out, found
}
