package main

import (
	"fmt"

	"go.uber.org/zap"

	"genspec/internal/artifacts"
	"genspec/internal/config"
	"genspec/internal/render"
	"genspec/internal/session"
	"genspec/internal/store"
)

// app bundles the collaborators opened for one command run.
type app struct {
	cfg     *config.Config
	store   *store.Store
	reports *artifacts.Dir
}

// openApp opens the record store and the reports directory named by c.
func openApp(c *config.Config) (*app, error) {
	reports, err := artifacts.OpenDir(c.ReportsPath())
	if err != nil {
		return nil, err
	}
	st, err := store.Open(c.StorePath(), c.Store.Driver)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened app",
		zap.String("store", st.Path()),
		zap.String("driver", st.Driver()),
		zap.String("reports", reports.Root()))
	return &app{cfg: c, store: st, reports: reports}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}

// pdf returns the PDF renderer configured for the app.
func (a *app) pdf() *render.PDF {
	return render.NewPDF(render.Options{
		PageSize: a.cfg.Renderer.PageSize,
		Header:   a.cfg.Renderer.Header,
		QRCode:   a.cfg.Renderer.QRCode,
	})
}

// workbook returns the XLSX renderer, or nil when the export is off.
func (a *app) workbook(enabled bool) render.Renderer {
	if !enabled {
		return nil
	}
	return render.NewWorkbook()
}

// newSession starts a report session writing to the app's directory and
// store. seed starts the ledger with the default loads.
func (a *app) newSession(xlsx, seed bool) (*session.Session, error) {
	s, err := session.New(session.Config{
		FallbackCapacityKW: a.cfg.Loads.FallbackCapacityKW,
		SeedDefaults:       seed,
	}, session.Deps{
		Reports:  a.reports,
		PDF:      a.pdf(),
		Workbook: a.workbook(xlsx),
		Records:  a.store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	logger.Debug("Session started", zap.String("session", s.ID()))
	return s, nil
}
