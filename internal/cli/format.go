package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/rpc"
)

// Output formats accepted by --format.
const (
	FormatRich = "rich"
	FormatJSON = "json"
)

// Formatter renders a finished refinement.
type Formatter interface {
	Format(w io.Writer, res *rpc.RefineResponse, verbose bool) error
}

// FormatterFor returns the formatter registered as name.
func FormatterFor(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatRich:
		return NewRichFormatter(), nil
	case FormatJSON:
		return JSONFormatter{}, nil
	default:
		return nil, apperr.Validation(
			fmt.Sprintf("unknown output format %q", name),
			"use --format rich or --format json",
		)
	}
}

// RichFormatter draws bordered panels for terminal output.
type RichFormatter struct {
	intent  lipgloss.Style
	panel   lipgloss.Style
	refined lipgloss.Style
	title   lipgloss.Style
}

// NewRichFormatter builds the default terminal styles.
func NewRichFormatter() RichFormatter {
	return RichFormatter{
		intent: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2")).
			Foreground(lipgloss.Color("2")).
			Bold(true).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		refined: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("5")).
			Padding(0, 1),
		title: lipgloss.NewStyle().Bold(true),
	}
}

func (f RichFormatter) Format(w io.Writer, res *rpc.RefineResponse, verbose bool) error {
	blocks := []string{f.section("Intent", f.intent.Render(res.Intent))}
	if verbose {
		blocks = append(blocks,
			f.section("Critique", f.panel.Render(res.Critique)),
			f.section("Expert", f.panel.Render(res.ExpertSuggestions)),
		)
	}
	blocks = append(blocks, f.section("Refined", f.refined.Render(res.RefinedPrompt)))

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	return err
}

func (f RichFormatter) section(title, body string) string {
	return lipgloss.JoinVertical(lipgloss.Left, f.title.Render(title), body)
}

// JSONFormatter emits indented JSON for piping and scripting.
type JSONFormatter struct{}

type jsonResult struct {
	Intent            string  `json:"intent"`
	RefinedPrompt     string  `json:"refined_prompt"`
	Critique          *string `json:"critique,omitempty"`
	ExpertSuggestions *string `json:"expert_suggestions,omitempty"`
}

func (JSONFormatter) Format(w io.Writer, res *rpc.RefineResponse, verbose bool) error {
	out := jsonResult{Intent: res.Intent, RefinedPrompt: res.RefinedPrompt}
	if verbose {
		out.Critique = &res.Critique
		out.ExpertSuggestions = &res.ExpertSuggestions
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
