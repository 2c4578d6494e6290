package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"pindl/internal/bot"
	"pindl/internal/clipboard"
	"pindl/internal/domain"
	"pindl/internal/media"
	"pindl/internal/tui"
)

// errFetchFailed makes the process exit non-zero after a failed fetch was reported.
var errFetchFailed = errors.New("fetch failed")

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
)

func reportFailure(w io.Writer, err error) error {
	errorColor.Fprintln(w, "Error: "+domain.UserMessage(err))
	return errFetchFailed
}

func cmdFetch(a *app) *cli.Command {
	var (
		saveDir string
		copyURL bool
	)

	return &cli.Command{
		Name:      "fetch",
		Aliases:   []string{"f"},
		Usage:     "Extract media from a Pinterest link",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "save",
				Usage:       "Download the media into this directory",
				Destination: &saveDir,
			},
			&cli.BoolFlag{
				Name:        "copy",
				Usage:       "Copy the download link to the clipboard",
				Destination: &copyURL,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			out := c.Root().Writer
			outcome, err := a.machine.Submit(ctx, c.Args().First()).Wait(ctx)
			if err != nil {
				return err
			}
			if outcome.Err != nil {
				return reportFailure(c.Root().ErrWriter, outcome.Err)
			}
			return a.deliver(ctx, out, outcome.Result, saveDir, copyURL)
		},
	}
}

func (a *app) deliver(ctx context.Context, out io.Writer, result *domain.DownloadResult, saveDir string, copyURL bool) error {
	fmt.Fprintln(out, bot.FormatResult(result))

	if saveDir != "" {
		path, err := media.NewSaver(http.DefaultClient, a.log).Save(ctx, result, -1, saveDir)
		if err != nil {
			return fmt.Errorf("save media: %w", err)
		}
		successColor.Fprintln(out, "Saved to "+path)
	}
	if copyURL {
		link, err := clipboard.CopyLink(clipboard.System{}, result)
		if err != nil {
			return fmt.Errorf("copy link: %w", err)
		}
		successColor.Fprintln(out, "Copied "+link)
	}
	return nil
}

func cmdExample(a *app) *cli.Command {
	return &cli.Command{
		Name:  "example",
		Usage: "Fetch the built-in example link",
		Action: func(ctx context.Context, c *cli.Command) error {
			a.machine.FillExample()
			outcome, err := a.machine.SubmitInput(ctx).Wait(ctx)
			if err != nil {
				return err
			}
			if outcome.Err != nil {
				return reportFailure(c.Root().ErrWriter, outcome.Err)
			}
			fmt.Fprintln(c.Root().Writer, bot.FormatResult(outcome.Result))
			return nil
		},
	}
}

func cmdHistory(a *app) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent downloads",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Fprintln(c.Root().Writer, bot.FormatHistory(a.machine.Snapshot().History))
			return nil
		},
	}
}

func cmdRemove(a *app) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove one history entry",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid history id %q: %w", c.Args().First(), err)
			}
			if !a.machine.RemoveEntry(ctx, id) {
				return fmt.Errorf("no history entry with id %d", id)
			}
			fmt.Fprintf(c.Root().Writer, "Removed %d\n", id)
			return nil
		},
	}
}

func cmdClear(a *app) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Clear the download history; the counter is kept",
		Action: func(ctx context.Context, c *cli.Command) error {
			a.machine.ClearHistory(ctx)
			fmt.Fprintln(c.Root().Writer, "History cleared.")
			return nil
		},
	}
}

func cmdStats(a *app) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show the download counter",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Fprintln(c.Root().Writer, bot.FormatStats(a.machine.Snapshot().Stats))
			return nil
		},
	}
}

func cmdTUI(a *app) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive downloader",
		Action: func(ctx context.Context, c *cli.Command) error {
			// Log lines would tear the alternate screen.
			if a.cfg.LogFile == "" {
				a.log.SetOutput(io.Discard)
			}
			saver := media.NewSaver(http.DefaultClient, a.log)
			model := tui.NewModel(ctx, a.machine, saver, clipboard.System{}, a.cfg.DownloadDir)

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}
}

func cmdBot(a *app) *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Serve the downloader as a Telegram bot",
		Action: func(ctx context.Context, c *cli.Command) error {
			if a.cfg.TelegramBotToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN is not set")
			}
			handler, err := bot.NewHandler(a.cfg.TelegramBotToken, a.machine, a.log)
			if err != nil {
				return fmt.Errorf("initialize telegram bot: %w", err)
			}

			a.log.Info("PinDL bot is running. Press Ctrl+C to exit.")
			handler.Start(ctx)
			a.log.Info("PinDL bot shut down gracefully.")
			return nil
		},
	}
}
