package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"genspec/cmd/genspec/ui"
	"genspec/internal/artifacts"
)

// watchDebounce batches bursts of writes to the reports directory.
const watchDebounce = 300 * time.Millisecond

// tuiCmd starts the interactive report builder
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive report builder",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.newSession(cfg.Renderer.ExportXLSX, cfg.Loads.SeedDefaults)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	opts := ui.Options{
		Session:   s,
		Records:   a.store,
		ListLimit: cfg.History.ListLimit,
	}

	w, err := artifacts.NewWatcher(a.reports.Root(), watchDebounce)
	if err != nil {
		logger.Warn("Report directory watcher disabled", zap.Error(err))
	} else if err := w.Start(ctx); err != nil {
		logger.Warn("Report directory watcher disabled", zap.Error(err))
		w.Stop()
	} else {
		defer w.Stop()
		opts.Watcher = w
	}

	logger.Info("Starting interactive session", zap.String("session", s.ID()))
	return ui.Run(opts)
}
