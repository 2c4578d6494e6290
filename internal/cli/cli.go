package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"pindl/internal/config"
	"pindl/internal/extractor"
	"pindl/internal/scraper"
	"pindl/internal/session"
	"pindl/internal/storage"
)

// app carries the components every subcommand shares.
type app struct {
	cfg       config.Config
	log       *logrus.Logger
	logCloser io.Closer
	store     storage.Store
	machine   *session.Machine
}

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		configDir string
		a         app
	)

	cmd := &cli.Command{
		Name:      "pindl",
		Usage:     "Download images and videos from Pinterest links",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Directory holding config.yaml and .env",
				Value:       "./configs",
				Destination: &configDir,
				Sources:     cli.EnvVars("PINDL_CONFIG_DIR"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := a.init(ctx, configDir); err != nil {
				return nil, err
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			return a.close()
		},
		Commands: []*cli.Command{
			cmdFetch(&a),
			cmdExample(&a),
			cmdHistory(&a),
			cmdRemove(&a),
			cmdClear(&a),
			cmdStats(&a),
			cmdTUI(&a),
			cmdBot(&a),
		},
	}

	if err := cmd.Run(ctx, args); err != nil {
		if a.log != nil {
			a.log.WithError(err).Debug("CLI execution failed")
		}
		return err
	}
	return nil
}

func (a *app) init(ctx context.Context, configDir string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log, closer, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	a.cfg, a.log, a.logCloser = cfg, log, closer

	log.WithFields(logrus.Fields{
		"extractor":    cfg.Extractor,
		"store_driver": cfg.StoreDriver,
		"store_path":   cfg.StorePath,
	}).Debug("Configuration loaded successfully")

	store, err := storage.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store
	a.machine = session.New(ctx, newExtractor(cfg, log), store, log)
	return nil
}

func (a *app) close() error {
	var firstErr error
	if a.machine != nil {
		a.machine.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Error("Error closing store")
			firstErr = err
		}
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newExtractor(cfg config.Config, log logrus.FieldLogger) extractor.Extractor {
	if cfg.Extractor == config.ExtractorBrowser {
		return scraper.NewPageExtractor(log)
	}
	return extractor.NewAPIClient(cfg.ExtractorEndpoint, log)
}
