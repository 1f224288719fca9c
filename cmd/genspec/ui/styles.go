// Package ui provides the terminal styling, tables and the interactive model
// for genspec. The palette follows the Maven Imaging slate/blue scheme.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"genspec/internal/ledger"
)

var (
	// Dark palette (default)
	DarkBackground = lipgloss.Color("#0f172a") // slate-900
	DarkCard       = lipgloss.Color("#1e293b") // slate-800
	DarkBorder     = lipgloss.Color("#334155") // slate-700
	DarkForeground = lipgloss.Color("#f8fafc") // slate-50
	DarkMuted      = lipgloss.Color("#94a3b8") // slate-400
	DarkPrimary    = lipgloss.Color("#3b82f6") // blue-500
	DarkAccent     = lipgloss.Color("#60a5fa") // blue-400

	// Light palette
	LightBackground = lipgloss.Color("#f8fafc")
	LightCard       = lipgloss.Color("#ffffff")
	LightBorder     = lipgloss.Color("#e2e8f0")
	LightForeground = lipgloss.Color("#1e293b")
	LightMuted      = lipgloss.Color("#64748b")
	LightPrimary    = lipgloss.Color("#2563eb") // blue-600
	LightAccent     = lipgloss.Color("#3b82f6")

	// Semantic colors (same in both modes)
	Success     = lipgloss.Color("#22c55e")
	Warning     = lipgloss.Color("#eab308")
	Destructive = lipgloss.Color("#ef4444")
	Info        = lipgloss.Color("#06b6d4")
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Card       lipgloss.Color
	Border     lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	IsDark     bool
}

// DarkTheme returns the slate theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Card:       DarkCard,
		Border:     DarkBorder,
		Foreground: DarkForeground,
		Muted:      DarkMuted,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		IsDark:     true,
	}
}

// LightTheme returns the light theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Card:       LightCard,
		Border:     LightBorder,
		Foreground: LightForeground,
		Muted:      LightMuted,
		Primary:    LightPrimary,
		Accent:     LightAccent,
	}
}

// DetectTheme honours GENSPEC_THEME ("light" or "dark"), then COLORFGBG,
// and defaults to dark.
func DetectTheme() Theme {
	switch strings.ToLower(os.Getenv("GENSPEC_THEME")) {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	}

	// Format is "foreground;background"; 7 and 15 are light backgrounds.
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && (bg == 7 || bg == 15) {
			return LightTheme()
		}
	}
	return DarkTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style
	Card    lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Navigation
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Cursor    lipgloss.Style
	Prompt    lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Badge   lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles creates a Styles instance for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Tab: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		ActiveTab: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Card).
			Bold(true).
			Padding(0, 1),

		Cursor: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Badge: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// Classification returns the status style for a usage band.
func (s Styles) Classification(c ledger.Classification) lipgloss.Style {
	switch c {
	case ledger.Overloaded:
		return s.Error
	case ledger.HighLoad:
		return s.Warning
	default:
		return s.Success
	}
}

// RenderDivider returns a horizontal divider.
func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("─", width))
}
