package session

import (
	"context"
	"fmt"

	"genspec/internal/catalog"
	"genspec/internal/report"
)

// Action is a discrete user intent applied by Dispatch.
type Action interface {
	Kind() string
}

// SelectPhase chooses the supply topology.
type SelectPhase struct{ Phase catalog.PhaseType }

// SelectPower chooses the equipment rating.
type SelectPower struct{ Rating catalog.PowerRating }

// AddLoad appends a load to the ledger.
type AddLoad struct {
	Name     string
	Watts    int
	Quantity int
}

// RemoveLoad drops a load by id. Unknown ids are ignored.
type RemoveLoad struct{ ID int }

// ToggleChecklistItem flips one checklist item.
type ToggleChecklistItem struct{ Label string }

// SetMetadata replaces the project details.
type SetMetadata struct{ Metadata report.Metadata }

// Reset clears the phase and rating selection.
type Reset struct{}

// SaveReport renders and indexes the report. Draft skips rendering.
type SaveReport struct{ Draft bool }

func (SelectPhase) Kind() string         { return "select_phase" }
func (SelectPower) Kind() string         { return "select_power" }
func (AddLoad) Kind() string             { return "add_load" }
func (RemoveLoad) Kind() string          { return "remove_load" }
func (ToggleChecklistItem) Kind() string { return "toggle_checklist_item" }
func (SetMetadata) Kind() string         { return "set_metadata" }
func (Reset) Kind() string               { return "reset" }
func (SaveReport) Kind() string          { return "save_report" }

// Event describes the outcome of a dispatched action.
type Event struct {
	Action  string
	Message string
	Save    *SaveResult
}

// Dispatch applies a to the session. A failed action leaves the state
// unchanged.
func (s *Session) Dispatch(ctx context.Context, a Action) (Event, error) {
	ev := Event{Action: a.Kind()}

	switch act := a.(type) {
	case SelectPhase:
		if err := s.selectPhase(act.Phase); err != nil {
			return ev, err
		}
		ev.Message = act.Phase.Label() + " selected"

	case SelectPower:
		if err := s.selectPower(act.Rating); err != nil {
			return ev, err
		}
		ev.Message = act.Rating.String() + " selected"

	case AddLoad:
		l, err := s.addLoad(act.Name, act.Watts, act.Quantity)
		if err != nil {
			return ev, err
		}
		ev.Message = fmt.Sprintf("Added %s (#%d)", l.Name, l.ID)

	case RemoveLoad:
		if s.removeLoad(act.ID) {
			ev.Message = fmt.Sprintf("Removed load #%d", act.ID)
		} else {
			ev.Message = fmt.Sprintf("No load #%d", act.ID)
		}

	case ToggleChecklistItem:
		done, err := s.toggle(act.Label)
		if err != nil {
			return ev, err
		}
		state := "open"
		if done {
			state = "done"
		}
		ev.Message = fmt.Sprintf("%s: %s", act.Label, state)

	case SetMetadata:
		s.setMetadata(act.Metadata)
		ev.Message = "Project details updated"

	case Reset:
		s.reset()
		ev.Message = "Selection cleared"

	case SaveReport:
		res, err := s.Save(ctx, act.Draft)
		if res.PDFPath != "" || res.Record.ID != "" {
			ev.Save = &res
		}
		if err != nil {
			return ev, err
		}
		ev.Message = res.Summary()

	default:
		return ev, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}

	s.log.Debug("Dispatched %s", ev.Action)
	return ev, nil
}
