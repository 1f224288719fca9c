package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"genspec/internal/faq"
)

var (
	faqCategory string
	faqRaw      bool
)

// faqCmd prints the installation FAQ
var faqCmd = &cobra.Command{
	Use:   "faq",
	Short: "Show frequently asked installation questions",
	Long: `Prints the FAQ rendered as markdown.

Example:
  genspec faq --category safety`,
	RunE: runFAQ,
}

func init() {
	faqCmd.Flags().StringVar(&faqCategory, "category", "", "Only show one category ("+strings.Join(faq.Categories(), ", ")+")")
	faqCmd.Flags().BoolVar(&faqRaw, "raw", false, "Print markdown source")
}

func runFAQ(cmd *cobra.Command, args []string) error {
	md := faq.Markdown(faq.Filter(faqCategory))
	out := cmd.OutOrStdout()
	if faqRaw {
		fmt.Fprint(out, md)
		return nil
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render FAQ: %w", err)
	}
	fmt.Fprint(out, rendered)
	return nil
}
