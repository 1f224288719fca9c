package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"genspec/cmd/genspec/ui"
	"genspec/internal/checklist"
	"genspec/internal/session"
)

var checklistDone []string

// checklistCmd prints the installation checklist
var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Show the installation checklist and its progress",
	Long: `Prints the installation checklist grouped by category. Items named with
--done are shown as completed and counted in the progress summary.

Example:
  genspec checklist --done "Review local codes" --done "No ground loops"`,
	RunE: runChecklist,
}

func init() {
	checklistCmd.Flags().StringArrayVar(&checklistDone, "done", nil, "Completed item label (repeatable)")
}

// checklistState marks every label done. Labels outside the taxonomy are
// rejected.
func checklistState(labels []string) (checklist.State, error) {
	state := checklist.State{}
	for _, label := range labels {
		if !checklist.Known(label) {
			return nil, fmt.Errorf("%w: %q", session.ErrUnknownItem, label)
		}
		state.Set(label, true)
	}
	return state, nil
}

func runChecklist(cmd *cobra.Command, args []string) error {
	state, err := checklistState(checklistDone)
	if err != nil {
		return err
	}
	styles := ui.DefaultStyles()
	out := cmd.OutOrStdout()
	fmt.Fprint(out, ui.ChecklistView(styles, state, -1))
	fmt.Fprintln(out)
	fmt.Fprint(out, ui.ProgressView(styles, state.Progress()))
	return nil
}
