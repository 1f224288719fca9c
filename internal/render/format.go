package render

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Thousands formats n with comma grouping: 15000 -> "15,000".
func Thousands(n int) string { return printer.Sprintf("%d", n) }

// Watts formats n as "15,000 W".
func Watts(n int) string { return Thousands(n) + " W" }

// Percent formats f with one decimal: "40.0%".
func Percent(f float64) string { return fmt.Sprintf("%.1f%%", f) }

// Upper upper-cases s for section headings. A Caser carries state and may
// not be shared between goroutines, so each call builds its own.
func Upper(s string) string { return cases.Upper(language.English).String(s) }
