package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pindl/internal/domain"
	"pindl/internal/session"
)

// Styles with adaptive colors for light/dark backgrounds
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "9"}).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "34", Dark: "10"}).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "63", Dark: "63"}).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.AdaptiveColor{Light: "205", Dark: "205"})

	imageBadge = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "27", Dark: "39"})
	videoBadge = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "91", Dark: "141"})
)

// View renders the screen
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(m.viewHeader() + "\n\n")
	b.WriteString(m.viewInput() + "\n")

	if m.view.Status == session.StatusLoading {
		b.WriteString("\n" + m.spinner.View() + " Processing request...\n")
	}
	if m.view.Status == session.StatusFailed {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.view.ErrorMessage()) + "\n")
	}
	if m.view.Result != nil {
		b.WriteString("\n" + m.viewResult() + "\n")
	}
	if len(m.view.History) > 0 {
		b.WriteString("\n" + m.viewHistory() + "\n")
	}

	if m.errorMessage != "" {
		b.WriteString("\n" + errorStyle.Render(m.errorMessage) + "\n")
	} else if m.statusMessage != "" {
		b.WriteString("\n" + successStyle.Render(m.statusMessage) + "\n")
	}

	b.WriteString("\n" + m.viewHelp())
	return b.String()
}

func (m Model) viewHeader() string {
	stats := helpStyle.Render(fmt.Sprintf("%d Downloads · %d%% success rate",
		m.view.Stats.TotalDownloads, m.view.Stats.SuccessRate))
	return titleStyle.Render("📌 Pinterest Downloader") + "  " + stats
}

func (m Model) viewInput() string {
	style := boxStyle
	if m.focus == focusInput {
		style = focusedBoxStyle
	}
	return style.Render("Enter Pinterest URL\n" + m.input.View())
}

func badge(t domain.MediaType) string {
	if t == domain.MediaVideo {
		return videoBadge.Render(strings.ToUpper(string(t)))
	}
	return imageBadge.Render(strings.ToUpper(string(t)))
}

func (m Model) viewResult() string {
	r := m.view.Result
	kind := "Image Gallery"
	if r.IsVideo() {
		kind = "Video Collection"
	}
	plural := ""
	if len(r.URLs) != 1 {
		plural = "s"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Media Preview"), badge(r.Type))
	fmt.Fprintf(&b, "%s • %d item%s\n", kind, len(r.URLs), plural)
	fmt.Fprintf(&b, "%s\n\n", r.Title())

	if item, ok := m.selected(); ok {
		fmt.Fprintf(&b, "[%d/%d] %s\n", m.gallery+1, len(r.URLs), item.URL)
		if item.Alt != "" {
			b.WriteString(helpStyle.Render(item.Alt) + "\n")
		}
	}
	fmt.Fprintf(&b, "Download: %s\n", r.DownloadLink)
	fmt.Fprintf(&b, "Source:   %s", r.Metadata.Source)
	return boxStyle.Render(b.String())
}

func (m Model) viewHistory() string {
	style := boxStyle
	if m.focus == focusHistory {
		style = focusedBoxStyle
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent Downloads") + "\n")
	for i, e := range m.view.History {
		cursor := "  "
		if m.focus == focusHistory && i == m.cursor {
			cursor = "▸ "
		}
		fmt.Fprintf(&b, "\n%s%s %s\n  %s • %s", cursor, badge(e.Type), e.Title(), e.Date, e.Timestamp)
	}
	return style.Render(b.String())
}

func (m Model) viewHelp() string {
	if m.focus == focusHistory {
		return helpStyle.Render("↑/↓ select • x remove • C clear all • tab back to input • q quit")
	}
	return helpStyle.Render("enter download • ctrl+e example • ctrl+n/p browse • ctrl+d save • ctrl+y copy link • ctrl+s share • tab history • esc quit")
}
