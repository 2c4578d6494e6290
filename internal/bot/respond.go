package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pindl/internal/domain"
	"pindl/internal/session"
)

const (
	cmdStart   = "/start"
	cmdHelp    = "/help"
	cmdExample = "/example"
	cmdSubmit  = "/submit"
	cmdHistory = "/history"
	cmdStats   = "/stats"
	cmdClear   = "/clear"
	cmdRemove  = "/remove"
)

const welcomeMessage = `Welcome to PinDL! Send me a Pinterest link (pin.it or pinterest.com) and I'll reply with the media.

/example - fill in a sample link
/submit - submit the filled-in link
/history - your recent downloads
/stats - download counter
/remove <id> - drop one history entry
/clear - clear the history`

// Respond computes the reply to one incoming message.
func Respond(ctx context.Context, sess Session, text string) string {
	text = strings.TrimSpace(text)
	command, arg, _ := strings.Cut(text, " ")
	// Commands may be addressed as /cmd@botname in groups.
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case cmdStart, cmdHelp:
		return welcomeMessage
	case cmdExample:
		sess.FillExample()
		return fmt.Sprintf("Example link ready: %s\nSend /submit to fetch it.", sess.Snapshot().Input)
	case cmdSubmit:
		return awaitTask(ctx, sess.SubmitInput(ctx))
	case cmdHistory:
		return FormatHistory(sess.Snapshot().History)
	case cmdStats:
		return FormatStats(sess.Snapshot().Stats)
	case cmdClear:
		sess.ClearHistory(ctx)
		return "History cleared."
	case cmdRemove:
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return "Usage: /remove <id> (ids are listed by /history)"
		}
		if !sess.RemoveEntry(ctx, id) {
			return fmt.Sprintf("No history entry with id %d.", id)
		}
		return fmt.Sprintf("Removed %d from history.", id)
	}

	if strings.HasPrefix(command, "/") {
		return "Unknown command. Send /help for the list."
	}
	return awaitTask(ctx, sess.Submit(ctx, text))
}

func awaitTask(ctx context.Context, task *session.Task) string {
	out, err := task.Wait(ctx)
	if err != nil {
		return domain.MsgUnexpectedError
	}
	if out.Err != nil {
		return "Error: " + domain.UserMessage(out.Err)
	}
	return FormatResult(out.Result)
}

// FormatResult renders a result as a plain-text message.
func FormatResult(r *domain.DownloadResult) string {
	var sb strings.Builder
	kind := "Image gallery"
	if r.IsVideo() {
		kind = "Video collection"
	}
	plural := ""
	if len(r.URLs) != 1 {
		plural = "s"
	}
	fmt.Fprintf(&sb, "%s\n%s • %d item%s\n\n", r.Title(), kind, len(r.URLs), plural)
	for i, u := range r.URLs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, u.URL)
	}
	fmt.Fprintf(&sb, "\nDownload: %s\nSource: %s", r.DownloadLink, r.Metadata.Source)
	return sb.String()
}

// FormatHistory renders the history list, newest first.
func FormatHistory(history []domain.HistoryEntry) string {
	if len(history) == 0 {
		return "No downloads yet."
	}
	var sb strings.Builder
	sb.WriteString("Recent downloads:\n")
	for _, e := range history {
		fmt.Fprintf(&sb, "\n[%d] %s (%s)\n%s • %s\n%s\n", e.ID, e.Title(), e.Type, e.Date, e.Timestamp, e.DownloadLink)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatStats renders the counters.
func FormatStats(s domain.Stats) string {
	return fmt.Sprintf("%d Downloads\n%d%% success rate", s.TotalDownloads, s.SuccessRate)
}
