package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"genspec/cmd/genspec/ui"
	"genspec/internal/artifacts"
	"genspec/internal/ledger"
	"genspec/internal/render"
	"genspec/internal/report"
	"genspec/internal/session"
	"genspec/internal/store"
)

// =============================================================================
// REPORT COMMANDS
// =============================================================================

var (
	// report save
	saveReq    saveRequest
	saveDraft  bool
	saveXLSX   bool
	saveChecks []string
	saveLoads  []string

	// report list / show
	listLimit  int
	reportJSON bool

	// report delete
	deleteKeepFiles bool

	// report export
	exportFormat string
	exportOut    string
)

// saveRequest holds the report save flags.
type saveRequest struct {
	phase      string
	power      string
	noDefaults bool
	meta       report.Metadata
}

// reportCmd groups report commands
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Create and manage installation reports",
}

// reportSaveCmd builds and saves a report
var reportSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Generate a PDF report and record it",
	Long: `Builds a report from the selected configuration, planned loads, completed
checklist items and project details, writes the PDF to the reports directory
and records it in the report store.

With --draft nothing is rendered and the record is stored as a draft.

Example:
  genspec report save --phase three --power 50 --project "Radiology Wing B" \
    --load "Chiller:5000" --check "Review local codes"`,
	RunE: runReportSave,
}

// reportListCmd lists stored reports
var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports, most recently updated first",
	RunE:  runReportList,
}

// reportShowCmd shows one report
var reportShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a saved report with its loads and checklist progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

// reportDeleteCmd deletes a report
var reportDeleteCmd = &cobra.Command{
	Use:   "delete <report-id>",
	Short: "Delete a saved report and its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDelete,
}

// reportExportCmd renders a stored report again
var reportExportCmd = &cobra.Command{
	Use:   "export <report-id>",
	Short: "Render a saved report to PDF or XLSX",
	Long: `Renders a stored report again from its record. Exporting a draft to PDF
completes it.

Example:
  genspec report export 3f2a9c1b7d4e --format xlsx --out wing-b.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runReportExport,
}

func init() {
	f := reportSaveCmd.Flags()
	f.StringVar(&saveReq.phase, "phase", "", "Phase type: single or three (required)")
	f.StringVar(&saveReq.power, "power", "", "Power rating in kW (required)")
	f.StringVar(&saveReq.meta.ProjectName, "project", "", "Project name")
	f.StringVar(&saveReq.meta.Address, "address", "", "Project address")
	f.StringVar(&saveReq.meta.Contractor, "contractor", "", "Contractor")
	f.StringVar(&saveReq.meta.Electrician, "electrician", "", "Electrician")
	f.StringVar(&saveReq.meta.LicenseNumber, "license", "", "Electrician license number")
	f.StringVar(&saveReq.meta.CustomNotes, "notes", "", "Custom notes printed on the report")
	f.StringArrayVar(&saveLoads, "load", nil, "Load as name:watts[:qty] (repeatable)")
	f.BoolVar(&saveReq.noDefaults, "no-defaults", false, "Do not include the default loads")
	f.StringArrayVar(&saveChecks, "check", nil, "Completed checklist item (repeatable)")
	f.BoolVar(&saveDraft, "draft", false, "Store a draft without rendering")
	f.BoolVar(&saveXLSX, "xlsx", false, "Also export the load analysis workbook")
	reportSaveCmd.MarkFlagRequired("phase")
	reportSaveCmd.MarkFlagRequired("power")

	reportListCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum reports to list (default: history.list_limit)")
	reportListCmd.Flags().BoolVar(&reportJSON, "json", false, "Print JSON")
	reportShowCmd.Flags().BoolVar(&reportJSON, "json", false, "Print JSON")

	reportDeleteCmd.Flags().BoolVar(&deleteKeepFiles, "keep-files", false, "Keep the rendered documents")

	reportExportCmd.Flags().StringVarP(&exportFormat, "format", "f", artifacts.ExtPDF, "Output format: pdf or xlsx")
	reportExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: reports directory)")
}

// describe prefixes err with the message shown to users when it adds
// something.
func describe(err error) error {
	msg := session.Describe(err)
	if strings.EqualFold(msg, err.Error()) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// commandContext returns the command context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// saveActions translates the save flags into session actions.
func saveActions(req saveRequest, loads, checks []string, draft bool) ([]session.Action, error) {
	phase, rating, err := parseSelection(req.phase, req.power)
	if err != nil {
		return nil, err
	}
	actions := []session.Action{
		session.SelectPhase{Phase: phase},
		session.SelectPower{Rating: rating},
		session.SetMetadata{Metadata: req.meta},
	}
	for _, item := range loads {
		l, err := ledger.ParseLoad(item)
		if err != nil {
			return nil, err
		}
		actions = append(actions, session.AddLoad{Name: l.Name, Watts: l.Wattage, Quantity: l.Quantity})
	}
	seen := make(map[string]bool)
	for _, label := range checks {
		if seen[label] {
			continue
		}
		seen[label] = true
		actions = append(actions, session.ToggleChecklistItem{Label: label})
	}
	return append(actions, session.SaveReport{Draft: draft}), nil
}

func runReportSave(cmd *cobra.Command, args []string) error {
	actions, err := saveActions(saveReq, saveLoads, saveChecks, saveDraft)
	if err != nil {
		return describe(err)
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.newSession(saveXLSX || cfg.Renderer.ExportXLSX, cfg.Loads.SeedDefaults && !saveReq.noDefaults)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	for _, act := range actions {
		ev, err := s.Dispatch(ctx, act)
		if err != nil {
			if errors.Is(err, session.ErrNotIndexed) && ev.Save != nil {
				fmt.Fprintf(out, "PDF: %s\n", ev.Save.PDFPath)
			}
			logger.Warn("Report save failed", zap.String("action", act.Kind()), zap.Error(err))
			return describe(err)
		}
		logger.Debug(ev.Message, zap.String("action", ev.Action))
		if ev.Save == nil {
			continue
		}

		res := ev.Save
		fmt.Fprintln(out, ev.Message)
		fmt.Fprintf(out, "ID:   %s\n", res.Record.ID)
		if res.PDFPath != "" {
			fmt.Fprintf(out, "PDF:  %s\n", res.PDFPath)
		}
		if res.XLSXPath != "" {
			fmt.Fprintf(out, "XLSX: %s\n", res.XLSXPath)
		}
		if analysis, err := res.Payload.Analysis(); err == nil {
			fmt.Fprintf(out, "Load: %.1f kW of %d kW (%s) %s\n",
				analysis.TotalKW(), analysis.CapacityKW, render.Percent(analysis.UsagePercent), analysis.Classification.Label())
		}
	}
	return nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	limit := listLimit
	if limit <= 0 {
		limit = cfg.History.ListLimit
	}
	recs, err := a.store.List(commandContext(cmd), limit)
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	if reportJSON {
		return writeJSON(out, recs)
	}
	fmt.Fprint(out, ui.ReportsView(ui.DefaultStyles(), recs, -1))
	fmt.Fprintf(out, "Total: %d reports\n", len(recs))
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.store.Get(commandContext(cmd), args[0])
	if err != nil {
		return describe(err)
	}
	out := cmd.OutOrStdout()
	if reportJSON {
		return writeJSON(out, rec)
	}
	fmt.Fprint(out, ui.RecordView(ui.DefaultStyles(), rec))
	return nil
}

func runReportDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	out := cmd.OutOrStdout()
	rec, err := a.store.Get(commandContext(cmd), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintf(out, "Report %s not found, nothing to delete\n", id)
		return nil
	case err != nil:
		return describe(err)
	}

	if !deleteKeepFiles && rec.PDFPath != "" {
		for _, path := range []string{rec.PDFPath, artifacts.Sibling(rec.PDFPath, artifacts.ExtXLSX)} {
			if err := a.reports.Remove(path); err != nil {
				logger.Warn("Document not removed", zap.String("path", path), zap.Error(err))
			}
		}
	}
	if err := a.store.Delete(commandContext(cmd), id); err != nil {
		return describe(err)
	}
	fmt.Fprintf(out, "Deleted report %s\n", id)
	return nil
}

func runReportExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format != artifacts.ExtPDF && format != artifacts.ExtXLSX {
		return fmt.Errorf("unsupported format %q (valid: pdf, xlsx)", exportFormat)
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	rec, err := a.store.Get(ctx, args[0])
	if err != nil {
		return describe(err)
	}
	p, err := rec.Payload(nil)
	if err != nil {
		return describe(err)
	}

	// A completed report re-exported to PDF keeps its document path, so the
	// record never points away from a file it leaves behind.
	previous := rec.PDFPath
	dest := exportOut
	if dest == "" && format == artifacts.ExtPDF && previous != "" {
		if info, err := os.Stat(filepath.Dir(previous)); err == nil && info.IsDir() {
			dest = previous
		}
	}
	if dest == "" {
		dest = a.reports.PathFor(p.Metadata.ProjectName, p.Phase, p.Rating, time.Now(), format)
	}

	var r render.Renderer = a.pdf()
	if format == artifacts.ExtXLSX {
		r = render.NewWorkbook()
	}
	if err := r.Render(p, dest); err != nil {
		return describe(err)
	}

	if format == artifacts.ExtPDF {
		rec.PDFPath = dest
		rec.Status = store.StatusCompleted
		if _, err := a.store.Save(ctx, rec); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "PDF: %s\n", dest)
			return describe(fmt.Errorf("%w: %w", session.ErrNotIndexed, err))
		}
		if previous != "" && previous != dest {
			if err := a.reports.Remove(previous); err != nil {
				logger.Warn("Superseded document not removed", zap.String("path", previous), zap.Error(err))
			}
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", rec.ID, dest)
	return nil
}
