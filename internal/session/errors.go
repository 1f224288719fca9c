package session

import (
	"errors"
	"strings"

	"genspec/internal/catalog"
	"genspec/internal/ledger"
	"genspec/internal/render"
	"genspec/internal/store"
)

var (
	// ErrNoSelection is returned by a save before a phase and rating are chosen.
	ErrNoSelection = errors.New("no configuration selected")
	// ErrNotIndexed is returned when the document was written but its record
	// could not be stored. The SaveResult still carries the document path.
	ErrNotIndexed = errors.New("document created, but not indexed")
	// ErrUnknownAction is returned by Dispatch for an action it cannot apply.
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownItem is returned when toggling a label outside the checklist.
	ErrUnknownItem = errors.New("unknown checklist item")
)

// Describe maps an error from any layer to the message shown to the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoSelection):
		return "Please select a configuration first"
	case errors.Is(err, catalog.ErrNotFound):
		return "Unsupported configuration"
	case errors.Is(err, ledger.ErrInvalidInput):
		msg := err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	case errors.Is(err, ErrUnknownItem):
		return "Unknown checklist item"
	case errors.Is(err, render.ErrRenderFailure):
		return "Failed to generate PDF"
	case errors.Is(err, ErrNotIndexed):
		return "Document created, but not indexed"
	case errors.Is(err, store.ErrNotFound):
		return "Report not found"
	case errors.Is(err, store.ErrPersistence):
		return "Failed to save report record"
	default:
		return err.Error()
	}
}
