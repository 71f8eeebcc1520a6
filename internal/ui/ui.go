// Package ui renders human-readable CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Printer writes styled output. Tables and detail lines go to Out; status
// lines (success, warning, error) go to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer

	header  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
	bold    lipgloss.Style
}

// New returns a Printer. Colour is off when noColor is set or NO_COLOR is
// present in the environment.
func New(out, errOut io.Writer, noColor bool) *Printer {
	r := lipgloss.NewRenderer(out)
	// Avoid the background colour query on startup.
	r.SetHasDarkBackground(true)
	if noColor || os.Getenv("NO_COLOR") != "" {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		Out:     out,
		Err:     errOut,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:     r.NewStyle().Faint(true),
		bold:    r.NewStyle().Bold(true),
	}
}

func (p *Printer) Bold(s string) string { return p.bold.Render(s) }
func (p *Printer) Dim(s string) string  { return p.dim.Render(s) }

// Header prints a section title.
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.Out, p.header.Render(title))
}

// Detail prints an indented key/value line. Empty values are skipped.
func (p *Printer) Detail(key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(p.Out, "%s %s\n", p.dim.Render("  "+key+":"), value)
}

// List prints an indented bullet list under a key.
func (p *Printer) List(key string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(p.Out, p.dim.Render("  "+key+":"))
	for _, it := range items {
		fmt.Fprintf(p.Out, "    - %s\n", it)
	}
}

// Table prints aligned columns with a bold header row.
func (p *Printer) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, p.bold.Render(strings.Join(headers, "\t")))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.Err, "%s %s\n", p.success.Render("✓"), msg)
}

func (p *Printer) Warning(msg string) {
	fmt.Fprintf(p.Err, "%s %s\n", p.warning.Render("⚠"), msg)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.Err, "%s %s\n", p.failure.Render("✗"), msg)
}
