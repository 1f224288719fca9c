// Package faq holds the installation FAQ shown by the CLI and TUI.
package faq

import (
	"fmt"
	"strings"
)

// Entry is one question and answer.
type Entry struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var entries = []Entry{
	{
		Category: "Electrical",
		Question: "What is isolated ground?",
		Answer:   "Isolated ground is a dedicated grounding conductor that runs separately from equipment ground back to service entrance. Required by NFPA 99 for medical imaging.",
	},
	{
		Category: "Electrical",
		Question: "Why three-phase power?",
		Answer:   "High-power medical imaging (>40kW) requires three-phase for efficient power delivery, reduced harmonics, and better voltage stability.",
	},
	{
		Category: "Installation",
		Question: "Ground rod depth?",
		Answer:   "At least 8 feet deep, <1 ohm resistance. Multiple rods may be required, spaced 6+ feet apart.",
	},
	{
		Category: "Safety",
		Question: "RF shielding requirements?",
		Answer:   "Required for all MRI systems (>100dB attenuation). Not typically required for standard X-ray or ultrasound.",
	},
}

// All returns every entry in display order.
func All() []Entry {
	return append([]Entry(nil), entries...)
}

// Filter returns the entries in category, matched case-insensitively. An
// empty category returns everything.
func Filter(category string) []Entry {
	if category == "" {
		return All()
	}
	var out []Entry
	for _, e := range entries {
		if strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// Markdown formats list as a markdown document for glamour.
func Markdown(list []Entry) string {
	var sb strings.Builder
	sb.WriteString("# Frequently Asked Questions\n\n")
	sb.WriteString("Common questions about X-ray system installation.\n\n")
	if len(list) == 0 {
		sb.WriteString("_No entries._\n")
		return sb.String()
	}
	for _, e := range list {
		fmt.Fprintf(&sb, "## %s\n\n", e.Question)
		fmt.Fprintf(&sb, "`%s`\n\n", strings.ToUpper(e.Category))
		fmt.Fprintf(&sb, "%s\n\n", e.Answer)
	}
	return sb.String()
}
