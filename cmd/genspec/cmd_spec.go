package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"genspec/cmd/genspec/ui"
	"genspec/internal/catalog"
	"genspec/internal/logging"
)

// =============================================================================
// SPECIFICATION COMMANDS
// =============================================================================

var (
	specPhase string
	specPower string
	specJSON  bool
)

// specCmd groups catalog lookups
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Look up generator electrical specifications",
}

// specShowCmd prints one specification
var specShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the specification for a phase and power rating",
	Long: `Resolves the electrical service requirements for one configuration.

Example:
  genspec spec show --phase three --power 50`,
	RunE: runSpecShow,
}

// specListCmd prints the whole catalog
var specListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every supported configuration",
	RunE:  runSpecList,
}

func init() {
	specShowCmd.Flags().StringVar(&specPhase, "phase", "", "Phase type: single or three (required)")
	specShowCmd.Flags().StringVar(&specPower, "power", "", "Power rating in kW: 30, 32, 40, 50 or 60 (required)")
	specShowCmd.Flags().BoolVar(&specJSON, "json", false, "Print JSON")
	specShowCmd.MarkFlagRequired("phase")
	specShowCmd.MarkFlagRequired("power")

	specListCmd.Flags().BoolVar(&specJSON, "json", false, "Print JSON")
}

// parseSelection parses the --phase and --power flag values.
func parseSelection(phase, power string) (catalog.PhaseType, catalog.PowerRating, error) {
	p, err := catalog.ParsePhase(phase)
	if err != nil {
		return "", 0, err
	}
	r, err := catalog.ParseRating(power)
	if err != nil {
		return "", 0, err
	}
	return p, r, nil
}

func runSpecShow(cmd *cobra.Command, args []string) error {
	phase, rating, err := parseSelection(specPhase, specPower)
	if err != nil {
		return err
	}
	spec, err := catalog.Default().Lookup(phase, rating)
	if err != nil {
		logging.Get(logging.CategoryCatalog).Warn("Lookup failed: %v", err)
		return err
	}

	out := cmd.OutOrStdout()
	if specJSON {
		return writeJSON(out, catalog.Entry{Phase: phase, Rating: rating, Spec: spec})
	}
	fmt.Fprint(out, ui.SpecView(ui.DefaultStyles(), phase, rating, spec))
	return nil
}

func runSpecList(cmd *cobra.Command, args []string) error {
	entries := catalog.Default().All()
	out := cmd.OutOrStdout()
	if specJSON {
		return writeJSON(out, entries)
	}
	fmt.Fprint(out, ui.CatalogView(ui.DefaultStyles(), entries))
	fmt.Fprintf(out, "Total: %d configurations\n", len(entries))
	return nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
