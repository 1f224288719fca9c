package session

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"genspec/internal/artifacts"
	"genspec/internal/logging"
	"genspec/internal/report"
	"genspec/internal/store"
)

// SaveResult describes a saved report. On ErrNotIndexed only Payload and the
// document paths are set.
type SaveResult struct {
	Payload  report.Payload
	PDFPath  string
	XLSXPath string
	Record   store.Record
	Indexed  bool
	Draft    bool
}

// Summary returns the one-line message shown after a save.
func (r SaveResult) Summary() string {
	switch {
	case r.Draft:
		return fmt.Sprintf("Draft %s saved", r.Payload.ID)
	case !r.Indexed:
		return fmt.Sprintf("Document created, but not indexed: %s", filepath.Base(r.PDFPath))
	default:
		return fmt.Sprintf("Report saved successfully: %s", filepath.Base(r.PDFPath))
	}
}

// Save assembles the current state into a report, renders the PDF (and the
// workbook when configured) and stores the record as completed. With draft
// set nothing is rendered and the record is stored as a draft.
//
// A failed render is never stored. A store failure after a successful render
// returns the result with the document path and an error wrapping
// ErrNotIndexed.
func (s *Session) Save(ctx context.Context, draft bool) (SaveResult, error) {
	timer := logging.StartTimer(logging.CategorySession, "Save")
	defer timer.Stop()

	p, err := s.assemble()
	if err != nil {
		s.log.Warn("Save rejected: %v", err)
		return SaveResult{}, err
	}
	res := SaveResult{Payload: p, Draft: draft}

	if draft {
		rec, err := s.deps.Records.Save(ctx, store.FromPayload(p, store.StatusDraft, ""))
		if err != nil {
			s.log.Error("Draft %s not stored: %v", p.ID, err)
			return res, err
		}
		res.Record = rec
		res.Indexed = true
		s.log.Info("Draft %s stored", p.ID)
		return res, nil
	}

	pdfPath, xlsxPath, err := s.renderAll(p)
	if err != nil {
		s.log.Error("Render of %s failed: %v", p.ID, err)
		return SaveResult{}, err
	}
	res.PDFPath = pdfPath
	res.XLSXPath = xlsxPath

	rec, err := s.deps.Records.Save(ctx, store.FromPayload(p, store.StatusCompleted, pdfPath))
	if err != nil {
		s.log.Error("Report %s rendered to %s but not indexed: %v", p.ID, pdfPath, err)
		return res, fmt.Errorf("%w: %w", ErrNotIndexed, err)
	}
	res.Record = rec
	res.Indexed = true

	s.log.Info("Report %s saved to %s", p.ID, pdfPath)
	return res, nil
}

// renderAll writes the PDF and, when a workbook renderer is configured, the
// XLSX sibling concurrently. A workbook failure is logged and dropped; a PDF
// failure removes the workbook too.
func (s *Session) renderAll(p report.Payload) (pdfPath, xlsxPath string, err error) {
	pdfPath = s.deps.Reports.PathFor(p.Metadata.ProjectName, p.Phase, p.Rating, p.CreatedAt, artifacts.ExtPDF)

	var g errgroup.Group
	g.Go(func() error {
		return s.deps.PDF.Render(p, pdfPath)
	})

	var xlsxErr error
	if s.deps.Workbook != nil {
		xlsxPath = artifacts.Sibling(pdfPath, artifacts.ExtXLSX)
		g.Go(func() error {
			xlsxErr = s.deps.Workbook.Render(p, xlsxPath)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if xlsxPath != "" {
			if rmErr := s.deps.Reports.Remove(xlsxPath); rmErr != nil {
				s.log.Warn("Cleanup of %s failed: %v", xlsxPath, rmErr)
			}
		}
		return "", "", err
	}
	if xlsxErr != nil {
		s.log.Warn("Workbook for %s skipped: %v", p.ID, xlsxErr)
		xlsxPath = ""
	}
	return pdfPath, xlsxPath, nil
}

// Outcome is delivered by SaveAsync.
type Outcome struct {
	Result SaveResult
	Err    error
}

// SaveAsync runs Save in the background. The channel is buffered and
// receives exactly one Outcome, so a caller may stop waiting without
// leaking the worker. Close waits for outstanding saves.
func (s *Session) SaveAsync(ctx context.Context, draft bool) <-chan Outcome {
	out := make(chan Outcome, 1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		res, err := s.Save(ctx, draft)
		out <- Outcome{Result: res, Err: err}
		close(out)
	}()
	return out
}
